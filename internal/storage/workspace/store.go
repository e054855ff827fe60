// Package workspace implements the durable session store: one JSON snapshot
// per source domain under <base>/<session_id>/, written atomically.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mkaradag/newshound/internal/gather"
)

// Store writes session snapshots under a base directory.
type Store struct {
	baseDir string
	logger  *zap.Logger
}

// New creates a workspace store rooted at baseDir.
func New(baseDir string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("workspace base directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// Prepare creates the session's workspace directory and returns its path.
func (s *Store) Prepare(sessionID string) (string, error) {
	path := filepath.Join(s.baseDir, sessionID)
	if err := os.MkdirAll(path, 0o750); err != nil {
		return "", &gather.StorageError{Path: path, Err: fmt.Errorf("create session workspace: %w", err)}
	}
	return path, nil
}

// Snapshot writes one JSON document per source record, carrying the session
// metadata alongside each record. Every file is written to a temp name and
// renamed into place so an interrupted process never leaves a partial
// snapshot behind.
func (s *Store) Snapshot(ctx context.Context, result gather.SessionResult) error {
	dir := filepath.Join(s.baseDir, result.Metadata.SessionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &gather.StorageError{Path: dir, Err: fmt.Errorf("create snapshot dir: %w", err)}
	}

	for _, source := range result.Sources {
		if err := ctx.Err(); err != nil {
			return &gather.StorageError{Path: dir, Err: fmt.Errorf("snapshot canceled: %w", err)}
		}
		if err := s.writeSource(dir, source, result.Metadata); err != nil {
			return err
		}
	}

	s.logger.Info("session snapshot written",
		zap.String("session_id", result.Metadata.SessionID),
		zap.Int("sources", len(result.Sources)),
	)
	return nil
}

// sourceSnapshot is the persisted per-source document shape.
type sourceSnapshot struct {
	gather.SourceRecord
	SessionMetadata gather.SessionMetadata `json:"session_metadata"`
}

func (s *Store) writeSource(dir string, source gather.SourceRecord, meta gather.SessionMetadata) error {
	target := filepath.Join(dir, fmt.Sprintf("session_data_%s.json", SanitizeDomain(source.SourceDomain)))

	payload, err := json.MarshalIndent(sourceSnapshot{SourceRecord: source, SessionMetadata: meta}, "", "  ")
	if err != nil {
		return &gather.StorageError{Path: target, Err: fmt.Errorf("marshal snapshot: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return &gather.StorageError{Path: target, Err: fmt.Errorf("create temp snapshot: %w", err)}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &gather.StorageError{Path: target, Err: fmt.Errorf("write temp snapshot: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &gather.StorageError{Path: target, Err: fmt.Errorf("close temp snapshot: %w", err)}
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return &gather.StorageError{Path: target, Err: fmt.Errorf("rename snapshot into place: %w", err)}
	}
	return nil
}

// SanitizeDomain converts a source domain into a filename-safe token.
func SanitizeDomain(domain string) string {
	replacer := strings.NewReplacer(".", "_", "/", "_", ":", "_", string(filepath.Separator), "_")
	return replacer.Replace(domain)
}
