// Package cmd defines the CLI commands for the newshound executable.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkaradag/newshound/internal/config"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newshound",
		Short: "Bounded, keyword-filtered news crawl sessions.",
		Long: `newshound runs bounded content-extraction sessions across a set of seed
URLs, expanding each seed to a limited link depth, filtering discovered
documents by keyword match and recency, and aggregating results per source
domain. Failure on one source never aborts the session.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: environment only)")

	cmd.AddCommand(newGatherCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() error {
	return newRootCmd().Execute()
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
