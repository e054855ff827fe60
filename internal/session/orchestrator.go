package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mkaradag/newshound/internal/gather"
	"github.com/mkaradag/newshound/internal/metrics"
)

// Crawler runs one seed URL to completion. It never fails: fetch-level
// problems are recorded on the returned SourceRecord.
type Crawler interface {
	Crawl(ctx context.Context, seedURL string, keywords []string, maxDepth int) gather.SourceRecord
}

// WorkspaceStore prepares and writes the durable session workspace.
type WorkspaceStore interface {
	gather.SnapshotStore
	Prepare(sessionID string) (string, error)
}

// Orchestrator dispatches one crawl task per seed URL, all concurrently, and
// assembles the seed-ordered session result. Only input validation can make
// Run fail; per-seed faults of any kind are isolated into that seed's record.
type Orchestrator struct {
	session Session
	engine  Crawler
	store   gather.SnapshotStore // nil in ephemeral mode
	clock   gather.Clock
	logger  *zap.Logger

	mu     sync.Mutex
	buffer []gather.SourceRecord // ephemeral-mode record buffer
}

// NewEphemeral creates an orchestrator whose results live in memory only.
func NewEphemeral(engine Crawler, clock gather.Clock, ids gather.SessionIDs, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		session: Session{
			ID:        ids.NewSessionID(),
			Mode:      ModeEphemeral,
			CreatedAt: clock.Now(),
		},
		engine: engine,
		clock:  clock,
		logger: logger,
	}
}

// NewDurable creates an orchestrator that snapshots results into a session
// workspace. Workspace preparation failure is a construction error: a durable
// session that cannot write is refused up front.
func NewDurable(
	engine Crawler,
	store WorkspaceStore,
	clock gather.Clock,
	ids gather.SessionIDs,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionID := ids.NewSessionID()
	workspacePath, err := store.Prepare(sessionID)
	if err != nil {
		return nil, fmt.Errorf("prepare session workspace: %w", err)
	}
	return &Orchestrator{
		session: Session{
			ID:            sessionID,
			Mode:          ModeDurable,
			WorkspacePath: workspacePath,
			CreatedAt:     clock.Now(),
		},
		engine: engine,
		store:  store,
		clock:  clock,
		logger: logger,
	}, nil
}

// Session returns the immutable session identity.
func (o *Orchestrator) Session() Session {
	return o.session
}

// BufferedRecords returns a copy of the records collected in ephemeral mode.
func (o *Orchestrator) BufferedRecords() []gather.SourceRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]gather.SourceRecord(nil), o.buffer...)
}

// Run crawls every seed concurrently and returns the seed-ordered result.
// Result slot i always corresponds to seeds[i], whatever the completion
// order. Only a ValidationError can be returned; target-site unavailability
// never fails the call.
func (o *Orchestrator) Run(ctx context.Context, seeds, keywords []string, maxDepth int) (gather.SessionResult, error) {
	if err := validateInput(seeds, maxDepth); err != nil {
		return gather.SessionResult{}, err
	}

	log := o.logger.With(zap.String("session_id", o.session.ID))
	result := gather.SessionResult{
		Sources: []gather.SourceRecord{},
		Metadata: gather.SessionMetadata{
			SessionID:     o.session.ID,
			URLsRequested: len(seeds),
			KeywordsUsed:  append([]string{}, keywords...),
			ScrapeDepth:   maxDepth,
			PersistMode:   o.session.Durable(),
			CreatedAt:     o.session.CreatedAt,
		},
	}
	if len(seeds) == 0 {
		return result, nil
	}

	records := make([]gather.SourceRecord, len(seeds))
	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func(i int, seed string) {
			defer wg.Done()
			records[i] = o.crawlSeed(ctx, seed, keywords, maxDepth)
		}(i, seed)
	}
	wg.Wait()

	for _, rec := range records {
		result.Metadata.TotalArticles += rec.ArticlesCount
		result.Metadata.TotalLinksProcessed += rec.LinksProcessed
		if len(rec.Errors) > 0 {
			metrics.ObserveSeed("error")
		} else {
			metrics.ObserveSeed("ok")
		}
	}
	result.Sources = records

	o.finishRun(ctx, log, result)

	log.Info("session run finished",
		zap.Int("seeds", len(seeds)),
		zap.Int("total_articles", result.Metadata.TotalArticles),
		zap.Int("total_links_processed", result.Metadata.TotalLinksProcessed),
	)
	return result, nil
}

// finishRun applies the mode-specific side effect: a durable snapshot, or an
// append to the in-process buffer. A snapshot failure is logged and the
// in-memory result is still handed back; durability is best-effort relative
// to the returned value.
func (o *Orchestrator) finishRun(ctx context.Context, log *zap.Logger, result gather.SessionResult) {
	if o.store != nil {
		if err := o.store.Snapshot(ctx, result); err != nil {
			log.Error("session snapshot failed", zap.Error(err))
		}
		return
	}
	o.mu.Lock()
	o.buffer = append(o.buffer, result.Sources...)
	o.mu.Unlock()
}

// crawlSeed wraps one engine run so an unexpected panic inside the engine
// becomes an error record on that seed instead of taking down the session.
func (o *Orchestrator) crawlSeed(ctx context.Context, seed string, keywords []string, maxDepth int) (rec gather.SourceRecord) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("crawl task panicked",
				zap.String("seed", seed),
				zap.Any("panic", r),
			)
			rec = gather.SourceRecord{
				SourceDomain: gather.Domain(seed),
				SourceURL:    seed,
				Articles:     []gather.Article{},
				Errors: []gather.ErrorRecord{{
					URL:     seed,
					Kind:    gather.KindInternal,
					Message: fmt.Sprintf("crawl task failed: %v", r),
				}},
				SavedAt: o.clock.Now(),
			}
		}
	}()
	return o.engine.Crawl(ctx, seed, keywords, maxDepth)
}

func validateInput(seeds []string, maxDepth int) error {
	if maxDepth < 0 {
		return &gather.ValidationError{Msg: fmt.Sprintf("max depth must be >= 0, got %d", maxDepth)}
	}
	for _, seed := range seeds {
		if err := gather.ValidateSeed(seed); err != nil {
			return err
		}
	}
	return nil
}
