// Package gather defines the core types and interfaces of the crawl-session
// engine: documents, articles, per-source records and the session result.
package gather

import "time"

// Document is a raw fetched page, before extraction.
type Document struct {
	URL       string    `json:"url"`
	HTML      string    `json:"-"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Article is an extracted, filtered document that survived the session's
// keyword and recency filters.
type Article struct {
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	PublishedAt     *time.Time `json:"published_at"`
	MatchedKeywords []string   `json:"matched_keywords"`
}

// Extraction is what the content extractor yields for one document.
type Extraction struct {
	Title       string
	Content     string
	PublishedAt *time.Time
	Links       []string
}

// ErrorRecord captures a recovered per-URL or per-seed failure. Failures are
// attached to the owning SourceRecord instead of aborting the session.
type ErrorRecord struct {
	URL     string `json:"url"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SourceRecord is the per-seed outcome of one crawl task. A record exists for
// every seed that was dispatched, even when it produced zero articles.
// Invariant: ArticlesCount == len(Articles).
type SourceRecord struct {
	SourceDomain   string        `json:"source_domain"`
	SourceURL      string        `json:"source_url"`
	Articles       []Article     `json:"articles"`
	ArticlesCount  int           `json:"articles_count"`
	LinksProcessed int           `json:"links_processed"`
	Errors         []ErrorRecord `json:"errors,omitempty"`
	SavedAt        time.Time     `json:"saved_at"`
}

// SessionMetadata summarizes one orchestrator run.
type SessionMetadata struct {
	SessionID           string    `json:"session_id"`
	URLsRequested       int       `json:"urls_requested"`
	KeywordsUsed        []string  `json:"keywords_used"`
	ScrapeDepth         int       `json:"scrape_depth"`
	PersistMode         bool      `json:"persist_mode"`
	TotalArticles       int       `json:"total_articles"`
	TotalLinksProcessed int       `json:"total_links_processed"`
	CreatedAt           time.Time `json:"created_at"`
}

// SessionResult is the full outcome of one Run call. Sources[i] always
// corresponds to the i-th requested seed URL, regardless of which crawl
// finished first.
type SessionResult struct {
	Sources  []SourceRecord  `json:"sources"`
	Metadata SessionMetadata `json:"session_metadata"`
}
