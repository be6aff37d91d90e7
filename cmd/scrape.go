package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/artifact"
	"github.com/slangwatch/slangcrawler/internal/clock/system"
	"github.com/slangwatch/slangcrawler/internal/config"
	"github.com/slangwatch/slangcrawler/internal/corpus"
	"github.com/slangwatch/slangcrawler/internal/id/uuid"
	"github.com/slangwatch/slangcrawler/internal/publisher"
	"github.com/slangwatch/slangcrawler/internal/render"
	"github.com/slangwatch/slangcrawler/internal/scrape"
)

// newScrapeCmd creates and configures the 'scrape' subcommand.
func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape definition pages into a CSV dataset",
		Long: `Walks Urban Dictionary index pages 1..max-page with a pool of rendering
workers, each owning a private browser, and persists the merged dataset as
CSV. A partial run still writes its dataset; the command then exits non-zero
with the failed pages listed.`,

		RunE: runScrapeCommand,
	}

	cmd.Flags().Int("max-page", 0, "last index page to scrape (overrides config)")
	cmd.Flags().Int("workers", 0, "scrape worker count, 1..4 (overrides config)")
	cmd.Flags().Duration("min-delay", 0, "minimum pause between page fetches (overrides config)")
	cmd.Flags().Duration("max-delay", 0, "maximum pause between page fetches (overrides config)")
	cmd.Flags().String("output", "", "dataset CSV path (overrides config)")
	cmd.Flags().String("renderer", "", "render backend, chromedp or colly (overrides config)")

	return cmd
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	rt, err := resolveRuntime(cmd.Context())
	if err != nil {
		return err
	}
	cfg := rt.Config
	applyScrapeFlags(cmd, &cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	renderCfg := render.Config{
		Backend:     cfg.Renderer.Backend,
		BaseURL:     cfg.Renderer.BaseURL,
		UserAgent:   cfg.Renderer.UserAgent,
		NavTimeout:  cfg.Renderer.NavTimeout,
		DomainQPS:   cfg.Renderer.DomainQPS,
		BlockImages: cfg.Renderer.BlockImages,
	}
	factory := render.Factory(func() (render.Renderer, error) {
		return render.New(renderCfg, rt.Logger.Named("render"))
	})

	orch, err := scrape.NewOrchestrator(
		scrape.Config{
			MaxPage:  cfg.Scraper.MaxPage,
			Workers:  cfg.Scraper.Workers,
			MinDelay: cfg.Scraper.MinDelay,
			MaxDelay: cfg.Scraper.MaxDelay,
			Output:   cfg.Scraper.Output,
		},
		factory,
		corpus.DatasetFile{Path: cfg.Scraper.Output},
		system.New(),
		uuid.New(),
		rt.Logger.Named("scrape"),
	)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	summary, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("run scrape: %w", err)
	}

	// The dataset is already on disk. Everything after this point is
	// advisory and must not fail the run.
	record := summaryRecord{RunSummary: summary, Complete: summary.Complete()}
	summaryJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(summaryPath(cfg.Scraper.Output), summaryJSON, 0o644); err != nil {
		rt.Logger.Warn("write summary file", zap.Error(err))
	}
	archiveRun(ctx, cfg, summary, summaryJSON, rt.Logger)
	announceRun(ctx, cfg, record, rt.Logger)

	if !summary.Complete() {
		return fmt.Errorf("scrape incomplete: %d of %d pages failed: %s",
			len(summary.FailedPages), summary.PagesPlanned, describeFailedPages(summary.FailedPages))
	}
	return nil
}

func applyScrapeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-page") {
		cfg.Scraper.MaxPage, _ = flags.GetInt("max-page")
	}
	if flags.Changed("workers") {
		cfg.Scraper.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("min-delay") {
		cfg.Scraper.MinDelay, _ = flags.GetDuration("min-delay")
	}
	if flags.Changed("max-delay") {
		cfg.Scraper.MaxDelay, _ = flags.GetDuration("max-delay")
	}
	if flags.Changed("output") {
		cfg.Scraper.Output, _ = flags.GetString("output")
	}
	if flags.Changed("renderer") {
		cfg.Renderer.Backend, _ = flags.GetString("renderer")
	}
}

// summaryRecord is the serialized form of the run summary, annotated with
// the completeness verdict so consumers need not recompute it.
type summaryRecord struct {
	corpus.RunSummary
	Complete bool `json:"complete"`
}

// summaryPath places the run summary next to the dataset.
func summaryPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + "_summary.json"
}

// archiveRun uploads the dataset and summary to the configured artifact
// store. Failures are logged, never fatal.
func archiveRun(ctx context.Context, cfg config.Config, summary corpus.RunSummary, summaryJSON []byte, logger *zap.Logger) {
	if cfg.Artifacts.Provider == "" || cfg.Artifacts.Provider == config.ArtifactsNone {
		return
	}
	store, err := artifact.New(ctx, artifact.Config{
		Provider: cfg.Artifacts.Provider,
		Dir:      cfg.Artifacts.Dir,
		Bucket:   cfg.Artifacts.Bucket,
		Prefix:   cfg.Artifacts.Prefix,
	})
	if err != nil {
		logger.Warn("init artifact store", zap.Error(err))
		return
	}

	dataset, err := os.ReadFile(cfg.Scraper.Output)
	if err != nil {
		logger.Warn("read dataset for archiving", zap.Error(err))
		return
	}
	if uri, err := store.Save(ctx, summary.RunID+"/dataset.csv", "text/csv", dataset); err != nil {
		logger.Warn("archive dataset", zap.Error(err))
	} else {
		logger.Info("dataset archived", zap.String("uri", uri))
	}
	if uri, err := store.Save(ctx, summary.RunID+"/summary.json", "application/json", summaryJSON); err != nil {
		logger.Warn("archive summary", zap.Error(err))
	} else {
		logger.Info("summary archived", zap.String("uri", uri))
	}
}

// announceRun publishes the run summary. Failures are logged, never fatal.
func announceRun(ctx context.Context, cfg config.Config, record summaryRecord, logger *zap.Logger) {
	pub, err := publisher.New(ctx, publisher.Config{
		Provider:  cfg.Publisher.Provider,
		ProjectID: cfg.Publisher.ProjectID,
		Topic:     cfg.Publisher.Topic,
	})
	if err != nil {
		logger.Warn("init publisher", zap.Error(err))
		return
	}
	defer func() {
		if cerr := pub.Close(ctx); cerr != nil {
			logger.Warn("close publisher", zap.Error(cerr))
		}
	}()

	if _, ok := pub.(publisher.Noop); ok {
		return
	}
	id, err := pub.Publish(ctx, record)
	if err != nil {
		logger.Warn("publish run summary", zap.Error(err))
		return
	}
	logger.Info("run summary published", zap.String("message_id", id))
}

func describeFailedPages(failed []corpus.PageError) string {
	parts := make([]string, len(failed))
	for i, f := range failed {
		parts[i] = fmt.Sprintf("page %d (%s)", f.Page, f.Reason)
	}
	return strings.Join(parts, ", ")
}
