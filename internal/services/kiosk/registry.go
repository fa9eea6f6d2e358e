// Package kiosk hosts the step-machine sessions of the registration and staff
// devices connected to this server.
package kiosk

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/xrkiosk/internal/dependencies/clock"
	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/services/registration"
	"github.com/mcoot/xrkiosk/internal/services/staff"
)

// DefaultIdleTimeout is how long an untouched session is kept
const DefaultIdleTimeout = 12 * time.Hour

// Registry owns every live kiosk session. Actions on one session are serialized;
// different sessions run independently.
type Registry struct {
	Registration *registration.Controller
	Staff        *staff.Controller

	clock       clock.Clock
	logger      *slog.Logger
	idleTimeout time.Duration

	registrations *table[*registration.Session]
	staffSessions *table[*staff.Session]
}

// New creates a Registry around the two controllers
func New(reg *registration.Controller, st *staff.Controller, clock clock.Clock, idleTimeout time.Duration, logger *slog.Logger) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Registry{
		Registration:  reg,
		Staff:         st,
		clock:         clock,
		logger:        logger.With(slog.String("component", "kiosk")),
		idleTimeout:   idleTimeout,
		registrations: newTable[*registration.Session](),
		staffSessions: newTable[*staff.Session](),
	}
}

// CreateRegistration starts a registration session at the welcome step for
// the default venue
func (r *Registry) CreateRegistration() *registration.Session {
	s := r.Registration.NewSession(uuid.NewString())
	r.addRegistration(s)
	return s
}

// CreateRegistrationAt starts a registration session for a kiosk at the given venue
func (r *Registry) CreateRegistrationAt(storeID string) (*registration.Session, error) {
	s, err := r.Registration.NewSessionAt(uuid.NewString(), storeID)
	if err != nil {
		return nil, err
	}
	r.addRegistration(s)
	return s, nil
}

func (r *Registry) addRegistration(s *registration.Session) {
	r.registrations.put(s.ID, s, r.clock.Now())
	r.logger.Info("registration session created",
		slog.String("kiosk_session", s.ID),
		slog.String("store_id", s.StoreID))
}

// WithRegistration runs fn while holding the session's lock
func (r *Registry) WithRegistration(id string, fn func(*registration.Session) error) error {
	return r.registrations.with(id, r.clock.Now(), fn)
}

// CreateStaff starts a staff session at the session-input step
func (r *Registry) CreateStaff() *staff.Session {
	id := uuid.NewString()
	s := r.Staff.NewSession(id)
	r.staffSessions.put(id, s, r.clock.Now())
	r.logger.Info("staff session created", slog.String("kiosk_session", id))
	return s
}

// WithStaff runs fn while holding the session's lock
func (r *Registry) WithStaff(id string, fn func(*staff.Session) error) error {
	return r.staffSessions.with(id, r.clock.Now(), fn)
}

// Len returns the number of live registration and staff sessions
func (r *Registry) Len() (registrations, staff int) {
	return r.registrations.len(), r.staffSessions.len()
}

// Prune drops sessions that have not been touched within the idle timeout
func (r *Registry) Prune() int {
	cutoff := r.clock.Now().Add(-r.idleTimeout)
	removed := r.registrations.prune(cutoff) + r.staffSessions.prune(cutoff)
	if removed > 0 {
		r.logger.Info("idle sessions pruned", slog.Int("count", removed))
	}
	return removed
}

// RunPruner prunes idle sessions every interval until ctx is done
func (r *Registry) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Prune()
		}
	}
}

type entry[T any] struct {
	mu      sync.Mutex
	session T
	touched time.Time
}

type table[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
}

func newTable[T any]() *table[T] {
	return &table[T]{entries: make(map[string]*entry[T])}
}

func (t *table[T]) put(id string, session T, now time.Time) {
	t.mu.Lock()
	t.entries[id] = &entry[T]{session: session, touched: now}
	t.mu.Unlock()
}

func (t *table[T]) with(id string, now time.Time, fn func(T) error) error {
	t.mu.RLock()
	e, ok := t.entries[id]
	t.mu.RUnlock()
	if !ok {
		return model.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.touched = now
	return fn(e.session)
}

func (t *table[T]) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *table[T]) prune(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, e := range t.entries {
		e.mu.Lock()
		idle := e.touched.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(t.entries, id)
			removed++
		}
	}
	return removed
}
