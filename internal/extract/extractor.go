// Package extract turns raw fetched documents into structured article fields
// and harvests the on-page links used for breadth-first expansion.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"go.uber.org/zap"

	"github.com/mkaradag/newshound/internal/gather"
)

// Extractor extracts title, content and publication date via trafilatura.
type Extractor struct {
	logger *zap.Logger
}

// New creates an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract parses a document's HTML into article fields plus discovered
// links. A failure is reported as an ExtractionError citing the document URL.
func (e *Extractor) Extract(doc gather.Document) (gather.Extraction, error) {
	pageURL, err := url.Parse(doc.URL)
	if err != nil {
		return gather.Extraction{}, &gather.ExtractionError{URL: doc.URL, Err: fmt.Errorf("parse document url: %w", err)}
	}

	result, err := trafilatura.Extract(strings.NewReader(doc.HTML), trafilatura.Options{
		OriginalURL:    pageURL,
		EnableFallback: true,
	})
	if err != nil {
		return gather.Extraction{}, &gather.ExtractionError{URL: doc.URL, Err: err}
	}
	if result == nil {
		return gather.Extraction{}, &gather.ExtractionError{URL: doc.URL, Err: fmt.Errorf("no extractable content")}
	}

	extraction := gather.Extraction{
		Title:   result.Metadata.Title,
		Content: result.ContentText,
		Links:   CollectLinks(doc.HTML, pageURL),
	}
	if !result.Metadata.Date.IsZero() {
		published := result.Metadata.Date.UTC()
		extraction.PublishedAt = &published
	}

	e.logger.Debug("document extracted",
		zap.String("url", doc.URL),
		zap.Int("content_bytes", len(extraction.Content)),
		zap.Int("links", len(extraction.Links)),
	)
	return extraction, nil
}
