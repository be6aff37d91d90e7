package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/config"
	"github.com/slangwatch/slangcrawler/internal/corpus"
	"github.com/slangwatch/slangcrawler/internal/docstore"
	"github.com/slangwatch/slangcrawler/internal/embed"
	"github.com/slangwatch/slangcrawler/internal/normalize"
)

// newNormalizeCmd creates and configures the 'normalize' subcommand.
func newNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Clean a scraped dataset and load embedded documents",
		Long: `Reads a scraped CSV dataset, drops rows that fail the quality filters,
embeds the survivors in batches, and replaces the contents of every
configured document sink: the JSONL file when docstore.path is set, Postgres
when docstore.dsn is set. Per-filter drop counts are logged at the end.`,

		RunE: runNormalizeCommand,
	}

	cmd.Flags().String("input", "", "dataset CSV path (overrides config)")
	cmd.Flags().String("output", "", "JSONL document path (overrides config)")
	cmd.Flags().Bool("case-fold", false, "lowercase terms before deduplication (overrides config)")

	return cmd
}

func runNormalizeCommand(cmd *cobra.Command, _ []string) error {
	rt, err := resolveRuntime(cmd.Context())
	if err != nil {
		return err
	}
	cfg := rt.Config
	applyNormalizeFlags(cmd, &cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	entries, err := corpus.DatasetFile{Path: cfg.Normalize.Input}.ReadDataset(ctx)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	embedder, err := embed.New(embed.Config{
		Host:      cfg.Embedding.Host,
		Model:     cfg.Embedding.Model,
		Token:     cfg.Embedding.Token,
		Dimension: cfg.Embedding.Dimension,
	}, rt.Logger.Named("embed"))
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}

	normalizer := normalize.New(normalize.Config{
		CaseFold:            cfg.Normalize.CaseFold,
		RejectSentinelVotes: cfg.Normalize.RejectSentinelVotes,
		BatchSize:           cfg.Normalize.BatchSize,
		Concurrency:         cfg.Normalize.Concurrency,
		MaxRetries:          cfg.Normalize.MaxRetries,
		RetryDelay:          cfg.Normalize.RetryDelay,
	}, embedder, rt.Logger.Named("normalize"))

	docs, stats, err := normalizer.Run(ctx, entries)
	if err != nil {
		return fmt.Errorf("normalize dataset: %w", err)
	}

	sinks, err := openDocSinks(ctx, cfg.Docstore)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range sinks {
			s.store.Close()
		}
	}()

	for _, s := range sinks {
		if pg, ok := s.store.(*docstore.Postgres); ok {
			if err := pg.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure %s schema: %w", s.name, err)
			}
		}
		if err := s.store.Replace(ctx, docs); err != nil {
			return fmt.Errorf("store documents in %s: %w", s.name, err)
		}
		rt.Logger.Info("documents stored",
			zap.String("sink", s.name),
			zap.Int("documents", len(docs)))
	}

	rt.Logger.Info("normalize run complete",
		zap.Int("rows_in", stats.RowsIn),
		zap.Any("dropped", stats.Dropped),
		zap.Any("missing_fields", stats.MissingFields),
		zap.Int("documents", stats.Documents))
	return nil
}

// docSink pairs an open store with the name used in errors and logs.
type docSink struct {
	name  string
	store docstore.Store
}

// openDocSinks opens every configured document sink. The JSONL file is
// written whenever a path is set and Postgres whenever a DSN is set, so one
// run can feed both the flat file and the database. The docstore provider
// setting only picks which of them the serve and seed commands use.
func openDocSinks(ctx context.Context, cfg config.DocstoreConfig) ([]docSink, error) {
	var sinks []docSink
	if cfg.Path != "" {
		s, err := docstore.Open(ctx, docstore.Config{Provider: config.DocstoreJSONL, Path: cfg.Path})
		if err != nil {
			return nil, fmt.Errorf("open jsonl store: %w", err)
		}
		sinks = append(sinks, docSink{name: config.DocstoreJSONL, store: s})
	}
	if cfg.DSN != "" {
		s, err := docstore.Open(ctx, docstore.Config{Provider: config.DocstorePostgres, DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			for _, sink := range sinks {
				sink.store.Close()
			}
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		sinks = append(sinks, docSink{name: config.DocstorePostgres, store: s})
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("no document sink configured: set docstore.path or docstore.dsn")
	}
	return sinks, nil
}

func applyNormalizeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Normalize.Input, _ = flags.GetString("input")
	}
	if flags.Changed("output") {
		cfg.Docstore.Path, _ = flags.GetString("output")
	}
	if flags.Changed("case-fold") {
		cfg.Normalize.CaseFold, _ = flags.GetBool("case-fold")
	}
}
