package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkaradag/newshound/internal/api"
	"github.com/mkaradag/newshound/internal/clock/system"
	"github.com/mkaradag/newshound/internal/config"
	"github.com/mkaradag/newshound/internal/extract"
	"github.com/mkaradag/newshound/internal/fetch/headless"
	"github.com/mkaradag/newshound/internal/fetch/render"
	"github.com/mkaradag/newshound/internal/fetch/standard"
	"github.com/mkaradag/newshound/internal/gather"
	"github.com/mkaradag/newshound/internal/id"
	"github.com/mkaradag/newshound/internal/logging"
	"github.com/mkaradag/newshound/internal/metrics"
	"github.com/mkaradag/newshound/internal/session"
	"github.com/mkaradag/newshound/internal/storage/workspace"
)

type gatherFlags struct {
	urls      []string
	keywords  []string
	depth     int
	ephemeral bool
}

// newGatherCmd creates the 'gather' subcommand, which runs one crawl session
// over the supplied seed URLs and prints the session result as JSON.
func newGatherCmd() *cobra.Command {
	flags := &gatherFlags{}

	cmd := &cobra.Command{
		Use:   "gather",
		Short: "Run one crawl session across the given seed URLs",
		Long: `Runs a single crawl session: each seed URL is expanded breadth-first up
to the depth bound, discovered documents are filtered by keywords and
recency, and the per-source results are printed as JSON. In durable mode
(the default) the session is also snapshotted to the workspace directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGather(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringSliceVar(&flags.urls, "url", nil, "seed URL (repeatable)")
	cmd.Flags().StringSliceVar(&flags.keywords, "keyword", nil, "keyword filter (repeatable; empty keeps everything)")
	cmd.Flags().IntVar(&flags.depth, "depth", -1, "link-hop depth bound (default: config value)")
	cmd.Flags().BoolVar(&flags.ephemeral, "ephemeral", false, "keep results in memory only, skip the workspace snapshot")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func runGather(ctx context.Context, flags *gatherFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()
	if cfg.Metrics.Addr != "" {
		srv := api.New(cfg.Metrics.Addr, logger)
		go func() {
			if serveErr := srv.Start(); serveErr != nil {
				logger.Warn("metrics server stopped", zap.Error(serveErr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	clk := system.New()
	fetcher, cleanup, err := buildFetcher(cfg, clk, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	engine := gather.NewEngine(
		fetcher,
		extract.New(logger),
		clk,
		id.NewTaskGenerator(),
		gather.EngineConfig{
			Fanout: cfg.Crawler.Fanout,
			MaxAge: cfg.MaxAge(),
		},
		logger,
	)

	orch, err := buildOrchestrator(cfg, engine, clk, logger, flags.ephemeral)
	if err != nil {
		return err
	}

	depth := flags.depth
	if depth < 0 {
		depth = cfg.Crawler.DefaultDepth
	}

	result, err := orch.Run(ctx, flags.urls, flags.keywords, depth)
	if err != nil {
		return fmt.Errorf("run session: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// buildFetcher selects the fetch strategy: the remote render service when
// fully configured, else a local headless browser when enabled, else the
// standard HTTP fetcher.
func buildFetcher(cfg config.Config, clk gather.Clock, logger *zap.Logger) (gather.Fetcher, func(), error) {
	plain := standard.New(standard.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, clk)
	noop := func() {}

	renderCfg := render.Config{
		Endpoint:   cfg.Render.URL,
		Token:      cfg.Render.Token,
		MaxScrolls: cfg.Render.MaxScrolls,
		ScrollWait: time.Duration(cfg.Render.ScrollWaitMs) * time.Millisecond,
		Timeout:    time.Duration(cfg.Render.TimeoutSeconds) * time.Second,
	}
	if render.Enabled(renderCfg) {
		client, err := render.New(renderCfg, plain, clk, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("init render client: %w", err)
		}
		logger.Info("using render-fallback fetch strategy", zap.String("endpoint", cfg.Render.URL))
		return client, noop, nil
	}

	if cfg.Headless.Enabled {
		browser, err := headless.New(headless.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Crawler.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		}, clk)
		if err != nil {
			return nil, noop, fmt.Errorf("init headless fetcher: %w", err)
		}
		logger.Info("using local headless fetch strategy")
		return browser, browser.Close, nil
	}

	return plain, noop, nil
}

func buildOrchestrator(
	cfg config.Config,
	engine session.Crawler,
	clk gather.Clock,
	logger *zap.Logger,
	ephemeral bool,
) (*session.Orchestrator, error) {
	ids := id.NewSessionGenerator(clk)
	if ephemeral {
		return session.NewEphemeral(engine, clk, ids, logger), nil
	}

	store, err := workspace.New(cfg.Workspace.BaseDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init workspace store: %w", err)
	}
	orch, err := session.NewDurable(engine, store, clk, ids, logger)
	if err != nil {
		return nil, fmt.Errorf("init durable session: %w", err)
	}
	return orch, nil
}
