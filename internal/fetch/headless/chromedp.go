// Package headless implements an opt-in local render strategy using chromedp.
// It covers JavaScript-heavy pages when no remote rendering service is
// configured, driving the same scroll-to-bottom loop in a local browser.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/mkaradag/newshound/internal/gather"
	"github.com/mkaradag/newshound/internal/metrics"
)

const (
	defaultNavTimeout = 45 * time.Second
	defaultMaxScrolls = 20
	defaultScrollWait = 500 * time.Millisecond
)

// Config controls the behavior of the headless fetcher.
type Config struct {
	// MaxParallel bounds concurrent browser tabs. Zero means unbounded.
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
	MaxScrolls        int
	ScrollWait        time.Duration
}

// Fetcher implements gather.Fetcher with a locally managed headless Chrome.
type Fetcher struct {
	cfg         Config
	clock       gather.Clock
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New creates a headless fetcher backed by chromedp.
func New(cfg Config, clock gather.Clock) (*Fetcher, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavTimeout
	}
	if cfg.MaxScrolls <= 0 {
		cfg.MaxScrolls = defaultMaxScrolls
	}
	if cfg.ScrollWait <= 0 {
		cfg.ScrollWait = defaultScrollWait
	}

	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		clock:       clock,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context and shuts down the browser.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch navigates with a headless browser, runs the scroll loop, and returns
// the fully rendered DOM.
func (f *Fetcher) Fetch(ctx context.Context, url string) (gather.Document, error) {
	if err := f.acquire(ctx); err != nil {
		metrics.ObserveFetch(metrics.StrategyHeadless, "error")
		return gather.Document{}, err
	}
	defer f.release()

	taskCtx, taskCancel := chromedp.NewContext(f.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, f.cfg.NavigationTimeout)
	defer cancel()

	fetchedAt := f.clock.Now()
	html, err := f.renderPage(taskCtx, url)
	if err != nil {
		metrics.ObserveFetch(metrics.StrategyHeadless, "error")
		return gather.Document{}, &gather.NetworkError{URL: url, Err: err}
	}

	metrics.ObserveFetch(metrics.StrategyHeadless, "ok")
	return gather.Document{
		URL:       url,
		HTML:      html,
		FetchedAt: fetchedAt,
	}, nil
}

func (f *Fetcher) renderPage(ctx context.Context, url string) (string, error) {
	var html string

	actions := []chromedp.Action{
		f.userAgentAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	actions = append(actions, f.scrollActions()...)
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, nil
}

// scrollActions emulates infinite-scroll loading: scroll to the bottom, wait
// for content, repeat up to the configured bound.
func (f *Fetcher) scrollActions() []chromedp.Action {
	actions := make([]chromedp.Action, 0, 2*f.cfg.MaxScrolls)
	for range f.cfg.MaxScrolls {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(f.cfg.ScrollWait),
		)
	}
	return actions
}

func (f *Fetcher) userAgentAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if f.cfg.UserAgent == "" {
			return nil
		}
		if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

func (f *Fetcher) acquire(ctx context.Context) error {
	if f.limiter == nil {
		return nil
	}
	select {
	case f.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (f *Fetcher) release() {
	if f.limiter == nil {
		return
	}
	select {
	case <-f.limiter:
	default:
	}
}
