// Package system provides the real, UTC-pinned clock implementation.
package system

import "time"

// Clock implements gather.Clock using time.Now. All timestamps produced by
// the pipeline are UTC so date comparisons never depend on the host zone.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
