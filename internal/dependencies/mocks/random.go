package mocks

import (
	"sync"

	"github.com/mcoot/xrkiosk/internal/dependencies/random"
)

// MockRandom replays queued values. An exhausted queue yields zero values,
// so an unqueued session code draw is always "{store}-10000".
type MockRandom struct {
	mu      sync.Mutex
	ints    []int
	strings []string

	// IntnBounds records the n passed to every Intn call
	IntnBounds []int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnBounds = append(r.IntnBounds, n)
	if len(r.ints) == 0 {
		return 0
	}
	result := r.ints[0]
	r.ints = r.ints[1:]
	return result
}

// String returns the next queued result, or "" if none remaining
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.strings) == 0 {
		return ""
	}
	result := r.strings[0]
	r.strings = r.strings[1:]
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	r.ints = append(r.ints, values...)
	r.mu.Unlock()
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	r.strings = append(r.strings, values...)
	r.mu.Unlock()
}

// Reset clears all queued results and recorded calls
func (r *MockRandom) Reset() {
	r.mu.Lock()
	r.ints = nil
	r.strings = nil
	r.IntnBounds = nil
	r.mu.Unlock()
}
