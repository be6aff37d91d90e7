// Package cmd defines and implements the CLI commands for the slangcrawler
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/config"
	"github.com/slangwatch/slangcrawler/internal/logging"
	"github.com/slangwatch/slangcrawler/internal/metrics"
)

var cfgFile string

// runtimeKeyType is the key for storing the Runtime in the context.
type runtimeKeyType string

const runtimeKey runtimeKeyType = "runtime"

// Runtime carries the services every subcommand needs. Commands pull it
// from the context instead of rebuilding config and logging themselves.
type Runtime struct {
	Config config.Config
	Logger *zap.Logger
}

// newRuntime is the runtime factory. It is a variable so tests can swap
// in a canned runtime.
var newRuntime = func() (*Runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &Runtime{Config: cfg, Logger: logger}, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slangcrawler",
		Short: "Scrape, normalize, and search Urban Dictionary definitions.",
		Long: `slangcrawler is a two-stage slang pipeline. The scrape stage walks the
Urban Dictionary index pages with a pool of rendering workers and persists a
CSV dataset. The normalize stage cleans the dataset, embeds each definition,
and loads the documents into a store that the serve stage searches by cosine
similarity.`,

		// Runs after flags are parsed and before the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime()
			if err != nil {
				return fmt.Errorf("initialize runtime: %w", err)
			}
			metrics.Init()

			ctx := context.WithValue(cmd.Context(), runtimeKey, rt)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt, ok := cmd.Context().Value(runtimeKey).(*Runtime); ok && rt != nil {
				_ = rt.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (SLANGCRAWLER_* env vars override)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSeedCmd())

	return cmd
}

// resolveRuntime pulls the shared runtime out of the command context.
func resolveRuntime(ctx context.Context) (*Runtime, error) {
	rt, ok := ctx.Value(runtimeKey).(*Runtime)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

// Execute is the main entry point. It exits non-zero when a command fails
// so callers can gate follow-up stages on the exit code.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
