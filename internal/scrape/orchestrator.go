package scrape

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/corpus"
	"github.com/slangwatch/slangcrawler/internal/render"
)

// Config holds the run-level scrape knobs. Workers is capped at four to
// bound the number of live browser processes.
type Config struct {
	MaxPage  int
	Workers  int
	MinDelay time.Duration
	MaxDelay time.Duration
	Output   string
}

func (c Config) validate() error {
	if c.MaxPage < 1 {
		return fmt.Errorf("max_page must be at least 1, got %d", c.MaxPage)
	}
	if c.Workers < 1 || c.Workers > 4 {
		return fmt.Errorf("workers must be between 1 and 4, got %d", c.Workers)
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("delay window [%s, %s] is invalid", c.MinDelay, c.MaxDelay)
	}
	return nil
}

// DatasetWriter persists the merged dataset. Run calls it exactly once,
// whether the run finished cleanly or not.
type DatasetWriter interface {
	WriteDataset(ctx context.Context, entries []corpus.Entry) error
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Orchestrator fans pages out to isolated workers and merges their batches
// into one page-ordered dataset.
type Orchestrator struct {
	cfg       Config
	newRender render.Factory
	writer    DatasetWriter
	clock     Clock
	ids       IDGenerator
	logger    *zap.Logger
}

// NewOrchestrator validates cfg and wires the run collaborators.
func NewOrchestrator(cfg Config, factory render.Factory, writer DatasetWriter, clock Clock, ids IDGenerator, logger *zap.Logger) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, fmt.Errorf("render factory is required")
	}
	if writer == nil {
		return nil, fmt.Errorf("dataset writer is required")
	}
	return &Orchestrator{
		cfg:       cfg,
		newRender: factory,
		writer:    writer,
		clock:     clock,
		ids:       ids,
		logger:    logger,
	}, nil
}

// Run scrapes pages 1..MaxPage and persists whatever was collected. The
// summary lists every page that produced no entries; the returned error is
// non-nil only when the run cannot start or the dataset cannot be written.
func (o *Orchestrator) Run(ctx context.Context) (corpus.RunSummary, error) {
	runID, err := o.ids.NewID()
	if err != nil {
		return corpus.RunSummary{}, fmt.Errorf("mint run id: %w", err)
	}
	startedAt := o.clock.Now()

	o.logger.Info("scrape run starting",
		zap.String("run_id", runID),
		zap.Int("max_page", o.cfg.MaxPage),
		zap.Int("workers", o.cfg.Workers))

	results := make(chan Batch, o.cfg.MaxPage)
	var wg sync.WaitGroup
	for i, pages := range assignPages(o.cfg.MaxPage, o.cfg.Workers) {
		w := &worker{
			id:        i,
			feed:      newPageFeed(pages),
			results:   results,
			newRender: o.newRender,
			pause:     newPauser(o.cfg.MinDelay, o.cfg.MaxDelay, time.Now().UnixNano()+int64(i)),
			extract:   NewExtractor(o.clock),
			logger:    o.logger.With(zap.Int("worker", i)),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		entries []corpus.Entry
		failed  []corpus.PageError
	)
	for batch := range results {
		if batch.Err != nil {
			failed = append(failed, *batch.Err)
			continue
		}
		entries = append(entries, batch.Entries...)
	}

	// Workers finish out of page order; the dataset is ordered by page with
	// each page's entries kept in site order.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Page < entries[j].Page })
	sort.Slice(failed, func(i, j int) bool { return failed[i].Page < failed[j].Page })

	if err := o.writer.WriteDataset(ctx, entries); err != nil {
		return corpus.RunSummary{}, fmt.Errorf("write dataset: %w", err)
	}

	summary := corpus.RunSummary{
		RunID:        runID,
		StartedAt:    startedAt,
		FinishedAt:   o.clock.Now(),
		PagesPlanned: o.cfg.MaxPage,
		PagesScraped: o.cfg.MaxPage - len(failed),
		Workers:      o.cfg.Workers,
		Entries:      len(entries),
		FailedPages:  failed,
		Output:       o.cfg.Output,
	}

	if summary.Complete() {
		o.logger.Info("scrape run complete",
			zap.String("run_id", runID),
			zap.Int("entries", summary.Entries))
	} else {
		o.logger.Warn("scrape run incomplete",
			zap.String("run_id", runID),
			zap.Int("entries", summary.Entries),
			zap.Int("failed_pages", len(failed)))
	}
	return summary, nil
}
