// Package session owns session identity and the orchestrator that fans out
// crawl tasks across seed URLs.
package session

import "time"

// Mode selects where session results live after a run.
type Mode string

// Session modes.
const (
	// ModeEphemeral keeps results only in an in-process buffer.
	ModeEphemeral Mode = "ephemeral"
	// ModeDurable snapshots results to the session workspace on disk.
	ModeDurable Mode = "durable"
)

// Session identifies one orchestrator instance. Immutable after creation;
// a durable session leaves its workspace on disk when the instance goes away.
type Session struct {
	ID            string
	Mode          Mode
	WorkspacePath string
	CreatedAt     time.Time
}

// Durable reports whether the session persists snapshots.
func (s Session) Durable() bool {
	return s.Mode == ModeDurable
}
