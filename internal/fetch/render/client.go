// Package render implements the render-fallback fetch strategy: pages are
// fetched through a remote headless-Chrome rendering service, and any failure
// falls back transparently to the standard fetcher. Selecting this strategy
// is an explicit opt-in requiring both a service endpoint and an auth token.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkaradag/newshound/internal/gather"
	"github.com/mkaradag/newshound/internal/metrics"
)

// Defaults mirror the rendering service's documented behavior: the timeout
// accounts for cold start plus rendering, and the scroll loop is bounded.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxScrolls = 20
	DefaultScrollWait = 500 * time.Millisecond

	// navigationBuffer is subtracted from the request timeout for the
	// page-load deadline so the service can still return a response.
	navigationBuffer = 5 * time.Second
)

// Config controls the rendering service client.
type Config struct {
	// Endpoint is the base URL of the rendering service. Required.
	Endpoint string
	// Token authenticates against the service as a bearer credential. Required.
	Token      string
	MaxScrolls int
	ScrollWait time.Duration
	Timeout    time.Duration
}

// Enabled reports whether the config opts in to the render strategy. Both
// the endpoint and the token must be present.
func Enabled(cfg Config) bool {
	return strings.TrimSpace(cfg.Endpoint) != "" && strings.TrimSpace(cfg.Token) != ""
}

// Client fetches URLs through the rendering service's /content endpoint and
// falls back to a plain fetcher when the render attempt fails. This is a
// pure fallback chain, not a retry loop: each tier is tried at most once.
type Client struct {
	cfg      Config
	http     *http.Client
	fallback gather.Fetcher
	clock    gather.Clock
	logger   *zap.Logger
}

// New builds a render client. The fallback fetcher is required; the engine
// must always receive HTML or a failure, never a half-configured strategy.
func New(cfg Config, fallback gather.Fetcher, clock gather.Clock, logger *zap.Logger) (*Client, error) {
	if !Enabled(cfg) {
		return nil, fmt.Errorf("render strategy requires both endpoint and token")
	}
	if fallback == nil {
		return nil, fmt.Errorf("render strategy requires a fallback fetcher")
	}
	if cfg.MaxScrolls <= 0 {
		cfg.MaxScrolls = DefaultMaxScrolls
	}
	if cfg.ScrollWait <= 0 {
		cfg.ScrollWait = DefaultScrollWait
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:      strippedEndpoint(cfg),
		http:     &http.Client{Timeout: cfg.Timeout},
		fallback: fallback,
		clock:    clock,
		logger:   logger,
	}, nil
}

func strippedEndpoint(cfg Config) Config {
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return cfg
}

// Fetch renders the URL remotely, falling back to the standard fetcher on
// any failure: timeout, non-2xx, transport error, or empty body.
func (c *Client) Fetch(ctx context.Context, url string) (gather.Document, error) {
	doc, err := c.render(ctx, url)
	if err == nil {
		metrics.ObserveFetch(metrics.StrategyRender, "ok")
		return doc, nil
	}

	metrics.ObserveFetch(metrics.StrategyRender, "error")
	c.logger.Warn("render fetch failed; falling back to standard fetcher",
		zap.String("url", url),
		zap.Error(err),
	)
	return c.fallback.Fetch(ctx, url)
}

// contentRequest is the rendering service's /content payload.
type contentRequest struct {
	URL          string        `json:"url"`
	GotoOptions  gotoOptions   `json:"gotoOptions"`
	AddScriptTag []scriptTag   `json:"addScriptTag"`
	WaitForFn    waitForOption `json:"waitForFunction"`
}

type gotoOptions struct {
	WaitUntil string `json:"waitUntil"`
	TimeoutMs int64  `json:"timeout"`
}

type scriptTag struct {
	Content string `json:"content"`
}

type waitForOption struct {
	Fn        string `json:"fn"`
	TimeoutMs int64  `json:"timeout"`
}

func (c *Client) render(ctx context.Context, url string) (gather.Document, error) {
	payload := contentRequest{
		URL: url,
		GotoOptions: gotoOptions{
			WaitUntil: "networkidle2",
			TimeoutMs: (c.cfg.Timeout - navigationBuffer).Milliseconds(),
		},
		AddScriptTag: []scriptTag{
			{Content: scrollScript(c.cfg.MaxScrolls, c.cfg.ScrollWait)},
		},
		WaitForFn: waitForOption{
			Fn:        "() => true",
			TimeoutMs: c.cfg.Timeout.Milliseconds(),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return gather.Document{}, fmt.Errorf("marshal render payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/content", bytes.NewReader(body))
	if err != nil {
		return gather.Document{}, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return gather.Document{}, &gather.NetworkError{URL: url, Err: fmt.Errorf("render request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return gather.Document{}, &gather.NetworkError{URL: url, Err: fmt.Errorf("read render response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return gather.Document{}, &gather.NetworkError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("render service returned %s", resp.Status),
		}
	}
	if len(html) == 0 {
		return gather.Document{}, &gather.NetworkError{URL: url, Err: fmt.Errorf("render service returned empty body")}
	}

	return gather.Document{
		URL:       url,
		HTML:      string(html),
		FetchedAt: c.clock.Now(),
	}, nil
}
