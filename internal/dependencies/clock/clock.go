// Package clock abstracts wall time so step machines can run on a fixed clock in tests.
package clock

import "time"

// Clock reports the current time
type Clock interface {
	Now() time.Time
}

// System reads the host clock. Every stored timestamp is UTC.
type System struct{}

// New returns the host clock
func New() System {
	return System{}
}

// Now implements Clock
func (System) Now() time.Time {
	return time.Now().UTC()
}
