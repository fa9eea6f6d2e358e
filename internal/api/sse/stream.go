// Package sse streams the registration history to staff stations as
// server-sent events.
package sse

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/xrkiosk/internal/model"
)

// Event names
const (
	EventConnected = "connected"
	EventHistory   = "history"
)

// DefaultPingPeriod is the time between keepalive comments
const DefaultPingPeriod = 30 * time.Second

// Streamer writes history snapshots to SSE clients
type Streamer struct {
	pingPeriod time.Duration
	logger     *slog.Logger
}

// NewStreamer creates a Streamer. A zero ping period uses DefaultPingPeriod.
func NewStreamer(pingPeriod time.Duration, logger *slog.Logger) *Streamer {
	if pingPeriod <= 0 {
		pingPeriod = DefaultPingPeriod
	}
	return &Streamer{
		pingPeriod: pingPeriod,
		logger:     logger.With(slog.String("component", "sse")),
	}
}

// ServeHistory writes every snapshot received from updates as a history
// event until the client disconnects or updates is closed
func (s *Streamer) ServeHistory(w http.ResponseWriter, r *http.Request, updates <-chan []model.RegistrationLog) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(formatSSEMessage(EventConnected, `{"status":"connected"}`))
	flusher.Flush()

	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case logs, ok := <-updates:
			if !ok {
				return
			}
			if logs == nil {
				logs = []model.RegistrationLog{}
			}
			data, err := json.Marshal(logs)
			if err != nil {
				s.logger.Error("encoding history failed", slog.String("error", err.Error()))
				continue
			}
			if _, err := w.Write(formatSSEMessage(EventHistory, string(data))); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// formatSSEMessage formats a message for SSE transmission
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	// SSE requires each line of data to be prefixed with "data: "
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	lines := strings.Split(s, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
