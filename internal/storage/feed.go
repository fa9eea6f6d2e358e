package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/xrkiosk/internal/model"
)

const subscriberBufferSize = 16

// Feed fans appended registration logs out to in-process subscribers
type Feed struct {
	mu     sync.RWMutex
	subs   map[chan model.RegistrationLog]struct{}
	logger *slog.Logger
}

// NewFeed creates an empty feed
func NewFeed(logger *slog.Logger) *Feed {
	return &Feed{
		subs:   make(map[chan model.RegistrationLog]struct{}),
		logger: logger.With(slog.String("component", "log-feed")),
	}
}

// Subscribe returns a channel receiving every log published after the call.
// The channel is closed when ctx is done.
func (f *Feed) Subscribe(ctx context.Context) <-chan model.RegistrationLog {
	ch := make(chan model.RegistrationLog, subscriberBufferSize)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	count := len(f.subs)
	f.mu.Unlock()
	f.logger.Debug("feed subscriber added", slog.Int("total_subscribers", count))

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, ch)
		close(ch)
		f.mu.Unlock()
	}()
	return ch
}

// Publish sends the log to every subscriber without blocking
func (f *Feed) Publish(log model.RegistrationLog) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	dropped := 0
	for ch := range f.subs {
		select {
		case ch <- log:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		f.logger.Warn("feed message dropped - subscriber buffer full",
			slog.String("session_code", string(log.SessionCode)),
			slog.Int("dropped", dropped))
	}
}

// SubscriberCount returns the number of live subscribers
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Follow turns a stream of single appended logs into a stream of recent-log
// lists: the initial list first, then the updated list after each matching log.
// The returned channel is closed when ctx is done or updates is closed.
func Follow(ctx context.Context, initial []model.RegistrationLog, updates <-chan model.RegistrationLog, scope string, limit int) <-chan []model.RegistrationLog {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	out := make(chan []model.RegistrationLog, 1)
	current := trimLogs(initial, limit)

	go func() {
		defer close(out)
		if !sendLogs(ctx, out, current) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case log, ok := <-updates:
				if !ok {
					return
				}
				if !log.MatchesScope(scope) || containsLog(current, log.ID) {
					continue
				}
				next := make([]model.RegistrationLog, 0, len(current)+1)
				next = append(next, log)
				next = append(next, current...)
				current = trimLogs(next, limit)
				if !sendLogs(ctx, out, current) {
					return
				}
			}
		}
	}()
	return out
}

// FilterLogs returns up to limit logs matching scope, keeping their order
func FilterLogs(logs []model.RegistrationLog, scope string, limit int) []model.RegistrationLog {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	out := make([]model.RegistrationLog, 0, min(len(logs), limit))
	for _, l := range logs {
		if len(out) == limit {
			break
		}
		if l.MatchesScope(scope) {
			out = append(out, l)
		}
	}
	return out
}

func containsLog(logs []model.RegistrationLog, id string) bool {
	for _, l := range logs {
		if l.ID == id {
			return true
		}
	}
	return false
}

func trimLogs(logs []model.RegistrationLog, limit int) []model.RegistrationLog {
	if len(logs) > limit {
		logs = logs[:limit]
	}
	out := make([]model.RegistrationLog, len(logs))
	copy(out, logs)
	return out
}

func sendLogs(ctx context.Context, out chan<- []model.RegistrationLog, logs []model.RegistrationLog) bool {
	select {
	case out <- logs:
		return true
	case <-ctx.Done():
		return false
	}
}
