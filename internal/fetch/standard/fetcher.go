// Package standard implements the plain HTTP fetch strategy using gocolly.
package standard

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/mkaradag/newshound/internal/gather"
	"github.com/mkaradag/newshound/internal/metrics"
)

const defaultTimeout = 15 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher performs one bounded-timeout GET per call. The base collector's
// transport pools connections; each Fetch clones the collector so concurrent
// fetches never share callback state.
type Fetcher struct {
	cfg   Config
	base  *colly.Collector
	clock gather.Clock
}

// New builds a standard fetcher.
func New(cfg Config, clock gather.Clock) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:   cfg,
		base:  c,
		clock: clock,
	}
}

// Fetch executes a single HTTP GET and returns the raw document.
func (f *Fetcher) Fetch(ctx context.Context, url string) (gather.Document, error) {
	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	var (
		doc      gather.Document
		fetchErr error
	)

	collector.OnResponse(func(r *colly.Response) {
		doc = gather.Document{
			URL:       r.Request.URL.String(),
			HTML:      string(r.Body),
			FetchedAt: f.clock.Now(),
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = &gather.NetworkError{URL: url, StatusCode: status, Err: err}
	})

	completed, visitErr := f.visit(ctx, collector, url)
	if !completed {
		metrics.ObserveFetch(metrics.StrategyStandard, "error")
		return gather.Document{}, visitErr
	}
	// OnError sees the response status code, so it wins over the bare error
	// colly returns from Visit for the same failure.
	if fetchErr != nil {
		metrics.ObserveFetch(metrics.StrategyStandard, "error")
		return gather.Document{}, fetchErr
	}
	if visitErr != nil {
		metrics.ObserveFetch(metrics.StrategyStandard, "error")
		return gather.Document{}, visitErr
	}

	metrics.ObserveFetch(metrics.StrategyStandard, "ok")
	return doc, nil
}

// visit runs the collector in a goroutine so a canceled context unblocks the
// caller even when the transport is still waiting. The second return value
// reports whether the visit actually completed; callbacks must not be
// consulted when it did not.
func (f *Fetcher) visit(ctx context.Context, collector *colly.Collector, url string) (bool, error) {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return false, &gather.NetworkError{URL: url, Err: fmt.Errorf("fetch canceled: %w", ctx.Err())}
	case err := <-done:
		if err != nil {
			return true, &gather.NetworkError{URL: url, Err: fmt.Errorf("visit: %w", err)}
		}
		return true, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
