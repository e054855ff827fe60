// Package id generates the identifiers used by the session pipeline:
// time-ordered session IDs and per-task UUIDs.
package id

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkaradag/newshound/internal/gather"
)

// TaskGenerator creates UUIDv7 strings for crawl tasks.
type TaskGenerator struct{}

// NewTaskGenerator creates a new TaskGenerator.
func NewTaskGenerator() *TaskGenerator {
	return &TaskGenerator{}
}

// NewID returns a UUIDv7 string.
func (TaskGenerator) NewID() (string, error) {
	v7, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return v7.String(), nil
}

// SessionGenerator produces session identifiers in the form
// YYYYMMDD_HHMMSS_micro. The format sorts lexicographically by creation time.
// A generator bumps the timestamp by one microsecond when two sessions are
// created within the same clock tick, so IDs stay unique under concurrent
// construction.
type SessionGenerator struct {
	mu    sync.Mutex
	clock gather.Clock
	last  time.Time
}

// NewSessionGenerator creates a SessionGenerator driven by the given clock.
func NewSessionGenerator(clock gather.Clock) *SessionGenerator {
	return &SessionGenerator{clock: clock}
}

// NewSessionID returns the next unique session identifier.
func (g *SessionGenerator) NewSessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now().UTC()
	if !now.After(g.last) {
		now = g.last.Add(time.Microsecond)
	}
	g.last = now

	return fmt.Sprintf("%s_%06d", now.Format("20060102_150405"), now.Nanosecond()/1000)
}
