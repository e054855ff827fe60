package gather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var engineNow = time.Date(2025, 6, 17, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type staticIDs struct{}

func (staticIDs) NewID() (string, error) { return "task-0001", nil }

// fakeFetcher serves canned pages and records every fetched URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]error
	log   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (Document, error) {
	f.mu.Lock()
	f.log = append(f.log, url)
	f.mu.Unlock()

	if err, ok := f.fail[url]; ok {
		return Document{}, err
	}
	html, ok := f.pages[url]
	if !ok {
		return Document{}, &NetworkError{URL: url, StatusCode: 404}
	}
	return Document{URL: url, HTML: html, FetchedAt: engineNow}, nil
}

func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.log))
	copy(out, f.log)
	return out
}

// fakeExtractor maps URLs to fixed extractions.
type fakeExtractor struct {
	byURL map[string]Extraction
	fail  map[string]error
}

func (f *fakeExtractor) Extract(doc Document) (Extraction, error) {
	if err, ok := f.fail[doc.URL]; ok {
		return Extraction{}, err
	}
	return f.byURL[doc.URL], nil
}

func newTestEngine(fetcher Fetcher, extractor Extractor, maxAge time.Duration) *Engine {
	return NewEngine(
		fetcher,
		extractor,
		&fixedClock{now: engineNow},
		staticIDs{},
		EngineConfig{Fanout: 2, MaxAge: maxAge},
		zap.NewNop(),
	)
}

func TestCrawlNoURLFetchedTwice(t *testing.T) {
	t.Parallel()

	const (
		seed  = "https://example.com/home"
		child = "https://example.com/story"
	)

	fetcher := &fakeFetcher{pages: map[string]string{seed: "<html>", child: "<html>"}}
	extractor := &fakeExtractor{byURL: map[string]Extraction{
		// Seed and child link back to each other and to themselves.
		seed:  {Title: "home", Content: "news", Links: []string{child, seed}},
		child: {Title: "story", Content: "news", Links: []string{seed, child}},
	}}

	engine := newTestEngine(fetcher, extractor, 0)
	record := engine.Crawl(context.Background(), seed, nil, 3)

	assert.ElementsMatch(t, []string{seed, child}, fetcher.fetched())
	assert.Equal(t, 2, record.LinksProcessed)
	assert.Empty(t, record.Errors)
}

func TestCrawlSeedFetchFailure(t *testing.T) {
	t.Parallel()

	const seed = "https://example.com/down"

	fetcher := &fakeFetcher{fail: map[string]error{
		seed: &NetworkError{URL: seed, StatusCode: 503},
	}}
	engine := newTestEngine(fetcher, &fakeExtractor{}, 0)

	record := engine.Crawl(context.Background(), seed, nil, 1)

	assert.Equal(t, "example.com", record.SourceDomain)
	assert.Equal(t, seed, record.SourceURL)
	assert.Empty(t, record.Articles)
	assert.Zero(t, record.ArticlesCount)
	assert.Equal(t, 1, record.LinksProcessed)
	require.Len(t, record.Errors, 1)
	assert.Equal(t, KindNetwork, record.Errors[0].Kind)
	assert.Equal(t, seed, record.Errors[0].URL)
	assert.Equal(t, engineNow, record.SavedAt)
}

func TestCrawlInvalidSeed(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	engine := newTestEngine(fetcher, &fakeExtractor{}, 0)

	record := engine.Crawl(context.Background(), "://not-a-url", nil, 1)

	assert.Empty(t, fetcher.fetched())
	assert.Zero(t, record.LinksProcessed)
	require.Len(t, record.Errors, 1)
	assert.Equal(t, KindValidation, record.Errors[0].Kind)
	assert.Equal(t, "unknown", record.SourceDomain)
}

func TestCrawlDepthBound(t *testing.T) {
	t.Parallel()

	const (
		seed  = "https://example.com/a"
		hop1  = "https://example.com/b"
		hop2  = "https://example.com/c"
		pages = "<html>"
	)

	fetcher := &fakeFetcher{pages: map[string]string{seed: pages, hop1: pages, hop2: pages}}
	extractor := &fakeExtractor{byURL: map[string]Extraction{
		seed: {Title: "a", Links: []string{hop1}},
		hop1: {Title: "b", Links: []string{hop2}},
		hop2: {Title: "c"},
	}}

	engine := newTestEngine(fetcher, extractor, 0)
	record := engine.Crawl(context.Background(), seed, nil, 1)

	assert.ElementsMatch(t, []string{seed, hop1}, fetcher.fetched())
	assert.Equal(t, 2, record.LinksProcessed)
	assert.Len(t, record.Articles, 2)
}

func TestCrawlDepthZeroFetchesOnlySeed(t *testing.T) {
	t.Parallel()

	const seed = "https://example.com/a"

	fetcher := &fakeFetcher{pages: map[string]string{seed: "<html>"}}
	extractor := &fakeExtractor{byURL: map[string]Extraction{
		seed: {Title: "a", Links: []string{"https://example.com/b"}},
	}}

	engine := newTestEngine(fetcher, extractor, 0)
	record := engine.Crawl(context.Background(), seed, nil, 0)

	assert.Equal(t, []string{seed}, fetcher.fetched())
	assert.Equal(t, 1, record.LinksProcessed)
}

func TestCrawlKeywordFilter(t *testing.T) {
	t.Parallel()

	const (
		seed    = "https://example.com/front"
		match   = "https://example.com/economy"
		noMatch = "https://example.com/sports"
	)

	fetcher := &fakeFetcher{pages: map[string]string{seed: "x", match: "x", noMatch: "x"}}
	extractor := &fakeExtractor{byURL: map[string]Extraction{
		seed:    {Title: "front page", Content: "index", Links: []string{match, noMatch}},
		match:   {Title: "Economy slows", Content: "inflation data out"},
		noMatch: {Title: "Match report", Content: "late goal seals win"},
	}}

	engine := newTestEngine(fetcher, extractor, 0)
	record := engine.Crawl(context.Background(), seed, []string{"economy"}, 1)

	require.Len(t, record.Articles, 1)
	assert.Equal(t, match, record.Articles[0].URL)
	assert.Equal(t, []string{"economy"}, record.Articles[0].MatchedKeywords)
	assert.Equal(t, record.ArticlesCount, len(record.Articles))
	assert.Equal(t, 3, record.LinksProcessed)
	assert.Empty(t, record.Errors, "filtered documents are not errors")
}

func TestCrawlEmptyKeywordsKeepEverything(t *testing.T) {
	t.Parallel()

	const seed = "https://example.com/a"

	fetcher := &fakeFetcher{pages: map[string]string{seed: "x"}}
	extractor := &fakeExtractor{byURL: map[string]Extraction{
		seed: {Title: "anything", Content: "at all"},
	}}

	engine := newTestEngine(fetcher, extractor, 0)
	record := engine.Crawl(context.Background(), seed, nil, 0)

	require.Len(t, record.Articles, 1)
	assert.Equal(t, []string{}, record.Articles[0].MatchedKeywords)
}

func TestCrawlRecencyFilter(t *testing.T) {
	t.Parallel()

	const (
		seed  = "https://example.com/front"
		fresh = "https://example.com/fresh"
		stale = "https://example.com/stale"
		undat = "https://example.com/undated"
	)

	freshAt := engineNow.Add(-24 * time.Hour)
	staleAt := engineNow.Add(-30 * 24 * time.Hour)

	fetcher := &fakeFetcher{pages: map[string]string{seed: "x", fresh: "x", stale: "x", undat: "x"}}
	extractor := &fakeExtractor{byURL: map[string]Extraction{
		seed:  {Title: "front", Links: []string{fresh, stale, undat}},
		fresh: {Title: "fresh", PublishedAt: &freshAt},
		stale: {Title: "stale", PublishedAt: &staleAt},
		undat: {Title: "undated"},
	}}

	engine := newTestEngine(fetcher, extractor, 7*24*time.Hour)
	record := engine.Crawl(context.Background(), seed, nil, 1)

	urls := make([]string, 0, len(record.Articles))
	for _, a := range record.Articles {
		urls = append(urls, a.URL)
	}
	assert.ElementsMatch(t, []string{seed, fresh, undat}, urls)
}

func TestCrawlDiscoveryOrderPreserved(t *testing.T) {
	t.Parallel()

	const seed = "https://example.com/front"
	links := []string{
		"https://example.com/one",
		"https://example.com/two",
		"https://example.com/three",
	}

	pages := map[string]string{seed: "x"}
	byURL := map[string]Extraction{seed: {Title: "front", Links: links}}
	for _, l := range links {
		pages[l] = "x"
		byURL[l] = Extraction{Title: l}
	}

	engine := newTestEngine(&fakeFetcher{pages: pages}, &fakeExtractor{byURL: byURL}, 0)
	record := engine.Crawl(context.Background(), seed, nil, 1)

	require.Len(t, record.Articles, 4)
	got := make([]string, 0, 4)
	for _, a := range record.Articles {
		got = append(got, a.URL)
	}
	assert.Equal(t, append([]string{seed}, links...), got)
}

func TestCrawlExtractionFailureRecorded(t *testing.T) {
	t.Parallel()

	const (
		seed = "https://example.com/front"
		bad  = "https://example.com/broken"
		good = "https://example.com/fine"
	)

	fetcher := &fakeFetcher{pages: map[string]string{seed: "x", bad: "x", good: "x"}}
	extractor := &fakeExtractor{
		byURL: map[string]Extraction{
			seed: {Title: "front", Links: []string{bad, good}},
			good: {Title: "fine"},
		},
		fail: map[string]error{
			bad: &ExtractionError{URL: bad, Err: errors.New("no extractable content")},
		},
	}

	engine := newTestEngine(fetcher, extractor, 0)
	record := engine.Crawl(context.Background(), seed, nil, 1)

	require.Len(t, record.Errors, 1)
	assert.Equal(t, KindExtraction, record.Errors[0].Kind)
	assert.Equal(t, bad, record.Errors[0].URL)

	urls := make([]string, 0, len(record.Articles))
	for _, a := range record.Articles {
		urls = append(urls, a.URL)
	}
	assert.ElementsMatch(t, []string{seed, good}, urls)
}

func TestCrawlNormalizesDiscoveredLinks(t *testing.T) {
	t.Parallel()

	const (
		seed  = "https://example.com/front"
		child = "https://example.com/story"
	)

	fetcher := &fakeFetcher{pages: map[string]string{seed: "x", child: "x"}}
	extractor := &fakeExtractor{byURL: map[string]Extraction{
		// Two spellings of the same link collapse to one fetch.
		seed:  {Title: "front", Links: []string{"https://Example.com:443/story#top", child}},
		child: {Title: "story"},
	}}

	engine := newTestEngine(fetcher, extractor, 0)
	record := engine.Crawl(context.Background(), seed, nil, 1)

	assert.ElementsMatch(t, []string{seed, child}, fetcher.fetched())
	assert.Equal(t, 2, record.LinksProcessed)
}
