package gather

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkaradag/newshound/internal/filter"
	"github.com/mkaradag/newshound/internal/metrics"
)

// defaultFanout bounds concurrent in-flight fetches within one crawl task.
// It is a process constant, not a per-call knob, to keep load on target hosts
// predictable.
const defaultFanout = 8

// EngineConfig holds the per-process crawl settings.
type EngineConfig struct {
	// Fanout caps concurrent fetches within one depth level.
	Fanout int
	// MaxAge drops documents whose best available date signal is older than
	// now-MaxAge. Zero disables recency filtering.
	MaxAge time.Duration
}

// Engine performs the breadth-first, depth-bounded expansion of a single
// seed URL. It never returns an error: every fetch or extraction failure is
// downgraded to an ErrorRecord on the returned SourceRecord.
type Engine struct {
	fetcher   Fetcher
	extractor Extractor
	clock     Clock
	ids       TaskIDs
	cfg       EngineConfig
	logger    *zap.Logger
}

// NewEngine builds a crawl engine.
func NewEngine(
	fetcher Fetcher,
	extractor Extractor,
	clock Clock,
	ids TaskIDs,
	cfg EngineConfig,
	logger *zap.Logger,
) *Engine {
	if cfg.Fanout <= 0 {
		cfg.Fanout = defaultFanout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		fetcher:   fetcher,
		extractor: extractor,
		clock:     clock,
		ids:       ids,
		cfg:       cfg,
		logger:    logger,
	}
}

// fetchOutcome carries one URL's fetch result, positioned so a level's
// discovery order survives concurrent fetching.
type fetchOutcome struct {
	url string
	doc Document
	err error
}

// Crawl expands seedURL breadth-first up to maxDepth link-hops, applying the
// recency and keyword filters to every successfully extracted document.
func (e *Engine) Crawl(ctx context.Context, seedURL string, keywords []string, maxDepth int) SourceRecord {
	taskID := e.newTaskID()
	log := e.logger.With(
		zap.String("task_id", taskID),
		zap.String("seed", seedURL),
	)

	record := SourceRecord{
		SourceDomain: Domain(seedURL),
		SourceURL:    seedURL,
		Articles:     []Article{},
	}

	seed, err := NormalizeURL(seedURL)
	if err != nil {
		record.Errors = append(record.Errors, ErrorRecord{
			URL:     seedURL,
			Kind:    KindValidation,
			Message: err.Error(),
		})
		record.SavedAt = e.clock.Now()
		return record
	}

	visited := map[string]struct{}{seed: {}}
	level := []string{seed}

	for depth := 0; depth <= maxDepth && len(level) > 0; depth++ {
		outcomes := e.fetchLevel(ctx, level)
		record.LinksProcessed += len(outcomes)

		var next []string
		for _, out := range outcomes {
			if out.err != nil {
				log.Warn("fetch failed",
					zap.String("url", out.url),
					zap.Int("depth", depth),
					zap.Error(out.err),
				)
				record.Errors = append(record.Errors, ErrorRecord{
					URL:     out.url,
					Kind:    KindOf(out.err),
					Message: out.err.Error(),
				})
				continue
			}

			extraction, extractErr := e.extractor.Extract(out.doc)
			if extractErr != nil {
				log.Warn("extraction failed",
					zap.String("url", out.url),
					zap.Error(extractErr),
				)
				record.Errors = append(record.Errors, ErrorRecord{
					URL:     out.url,
					Kind:    KindOf(extractErr),
					Message: extractErr.Error(),
				})
				continue
			}

			if depth < maxDepth {
				next = e.enqueueLinks(next, visited, extraction.Links)
			}

			if !filter.Fresh(extraction.PublishedAt, out.url, e.clock.Now(), e.cfg.MaxAge) {
				metrics.ObserveFiltered(metrics.ReasonStale)
				continue
			}

			matched := filter.Match(keywords, extraction.Title, extraction.Content)
			if len(keywords) > 0 && len(matched) == 0 {
				metrics.ObserveFiltered(metrics.ReasonKeywords)
				continue
			}

			record.Articles = append(record.Articles, Article{
				URL:             out.url,
				Title:           extraction.Title,
				Content:         extraction.Content,
				PublishedAt:     extraction.PublishedAt,
				MatchedKeywords: matched,
			})
		}
		level = next
	}

	record.ArticlesCount = len(record.Articles)
	record.SavedAt = e.clock.Now()
	metrics.ObserveArticles(record.SourceDomain, record.ArticlesCount)
	log.Info("crawl task finished",
		zap.Int("articles", record.ArticlesCount),
		zap.Int("links_processed", record.LinksProcessed),
		zap.Int("errors", len(record.Errors)),
	)
	return record
}

// fetchLevel fetches every URL of one depth level concurrently, bounded by
// the fan-out cap. The returned slice preserves the level's discovery order.
func (e *Engine) fetchLevel(ctx context.Context, urls []string) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(urls))
	slots := make(chan struct{}, e.cfg.Fanout)

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			slots <- struct{}{}
			defer func() { <-slots }()

			doc, err := e.fetcher.Fetch(ctx, u)
			outcomes[i] = fetchOutcome{url: u, doc: doc, err: err}
		}(i, u)
	}
	wg.Wait()
	return outcomes
}

// enqueueLinks normalizes discovered links and appends unseen ones to the
// next level, recording them in the visited set so no URL is fetched twice
// within a task.
func (e *Engine) enqueueLinks(next []string, visited map[string]struct{}, links []string) []string {
	for _, link := range links {
		norm, err := NormalizeURL(link)
		if err != nil {
			continue
		}
		if _, seen := visited[norm]; seen {
			continue
		}
		visited[norm] = struct{}{}
		next = append(next, norm)
	}
	return next
}

func (e *Engine) newTaskID() string {
	if e.ids == nil {
		return ""
	}
	id, err := e.ids.NewID()
	if err != nil {
		return ""
	}
	return id
}
