package gather

import (
	"context"
	"time"
)

// Fetcher retrieves the raw HTML for one URL. Implementations decide the
// transport: a plain HTTP client, a remote rendering service, or a local
// headless browser.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Document, error)
}

// Extractor turns a fetched document into structured article fields plus the
// on-page links used for breadth-first expansion.
type Extractor interface {
	Extract(doc Document) (Extraction, error)
}

// SnapshotStore persists a finished session to durable storage.
type SnapshotStore interface {
	Snapshot(ctx context.Context, result SessionResult) error
}

// Clock returns the current time (injectable for testing).
type Clock interface {
	Now() time.Time
}

// TaskIDs produces unique identifiers for individual crawl tasks.
type TaskIDs interface {
	NewID() (string, error)
}

// SessionIDs produces time-ordered unique session identifiers.
type SessionIDs interface {
	NewSessionID() string
}
