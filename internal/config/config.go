// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Render    RenderConfig    `mapstructure:"render"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// CrawlerConfig governs crawl engine behavior.
type CrawlerConfig struct {
	Fanout       int    `mapstructure:"fanout"`
	UserAgent    string `mapstructure:"user_agent"`
	DefaultDepth int    `mapstructure:"default_depth"`
	MaxAgeDays   int    `mapstructure:"max_age_days"`
}

// HTTPConfig configures the standard fetch transport.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// RenderConfig configures the opt-in remote rendering service. The render
// strategy is selected only when both URL and Token are set.
type RenderConfig struct {
	URL            string `mapstructure:"url"`
	Token          string `mapstructure:"token"`
	MaxScrolls     int    `mapstructure:"max_scrolls"`
	ScrollWaitMs   int    `mapstructure:"scroll_wait_ms"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// HeadlessConfig configures the opt-in local browser strategy.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// WorkspaceConfig sets where durable sessions live.
type WorkspaceConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// MetricsConfig controls the optional metrics endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSHOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.fanout", 8)
	v.SetDefault("crawler.user_agent", "newshound/0.1")
	v.SetDefault("crawler.default_depth", 1)
	v.SetDefault("crawler.max_age_days", 7)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("render.max_scrolls", 20)
	v.SetDefault("render.scroll_wait_ms", 500)
	v.SetDefault("render.timeout_seconds", 30)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("workspace.base_dir", "workspace")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.Fanout <= 0 {
		return fmt.Errorf("crawler.fanout must be > 0")
	}
	if c.Crawler.DefaultDepth < 0 {
		return fmt.Errorf("crawler.default_depth must be >= 0")
	}
	if c.Crawler.MaxAgeDays < 0 {
		return fmt.Errorf("crawler.max_age_days must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Render.URL != "" && c.Render.Token == "" {
		return fmt.Errorf("render.token must be set when render.url is set")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	return nil
}

// FetchTimeout returns the standard fetch timeout as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// MaxAge returns the recency window as a duration; zero disables the filter.
func (c Config) MaxAge() time.Duration {
	return time.Duration(c.Crawler.MaxAgeDays) * 24 * time.Hour
}
