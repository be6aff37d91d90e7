package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/corpus"
	"github.com/slangwatch/slangcrawler/internal/metrics"
	"github.com/slangwatch/slangcrawler/internal/render"
)

// Batch is one worker's outcome for a single page: entries on success, a
// page error otherwise. Exactly one batch is reported per assigned page.
type Batch struct {
	Page    int
	Entries []corpus.Entry
	Err     *corpus.PageError
}

// worker owns one renderer and works through its private page feed. Workers
// share nothing but the results channel, so one crashing cannot corrupt the
// others.
type worker struct {
	id        int
	feed      *pageFeed
	results   chan<- Batch
	newRender render.Factory
	pause     *pauser
	extract   *Extractor
	logger    *zap.Logger

	current int // page pulled but not yet reported, recovered on panic
}

func (w *worker) run(ctx context.Context) {
	defer w.recoverPanic()

	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	renderer, err := w.newRender()
	if err != nil {
		w.logger.Error("renderer start failed", zap.Error(err))
		w.failRemaining(fmt.Sprintf("renderer start: %v", err))
		return
	}
	defer func() {
		if cerr := renderer.Close(context.Background()); cerr != nil {
			w.logger.Warn("renderer close", zap.Error(cerr))
		}
	}()

	for {
		page, ok := w.feed.Next()
		if !ok {
			return
		}
		w.current = page

		delayStart := time.Now()
		if err := w.pause.Pause(ctx); err != nil {
			metrics.ObservePage("abandoned")
			w.report(page, "run canceled before fetch")
			w.current = 0
			w.failRemaining("run canceled")
			return
		}
		metrics.ObserveDelay(time.Since(delayStart))

		batch, backendDown := w.scrapePage(ctx, renderer, page)
		w.results <- batch
		w.current = 0

		if backendDown {
			w.failRemaining("renderer unavailable")
			return
		}
		if ctx.Err() != nil {
			w.failRemaining("run canceled")
			return
		}
	}
}

// scrapePage renders one page and extracts its entries. The render itself is
// shielded from run cancellation so an in-flight page still completes; the
// renderer's own navigation timeout bounds how long that can take.
func (w *worker) scrapePage(ctx context.Context, renderer render.Renderer, page int) (Batch, bool) {
	renderStart := time.Now()
	nodes, err := renderer.Render(context.WithoutCancel(ctx), page)
	metrics.ObserveRender(time.Since(renderStart))
	if err != nil {
		metrics.ObservePage("error")
		w.logger.Warn("page render failed", zap.Int("page", page), zap.Error(err))
		return errBatch(page, err.Error()), errors.Is(err, render.ErrBackendDown)
	}
	if len(nodes) == 0 {
		metrics.ObservePage("empty")
		return errBatch(page, "no definitions on page"), false
	}

	entries := make([]corpus.Entry, 0, len(nodes))
	for _, node := range nodes {
		entry := w.extract.Extract(node, page)
		if entry.Word == "" {
			// Unusable node; every dataset row needs a word.
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		metrics.ObservePage("empty")
		return errBatch(page, "no usable entries on page"), false
	}

	metrics.ObservePage("ok")
	metrics.AddEntries(len(entries))
	w.logger.Info("page scraped", zap.Int("page", page), zap.Int("entries", len(entries)))
	return Batch{Page: page, Entries: entries}, false
}

func (w *worker) report(page int, reason string) {
	w.results <- errBatch(page, reason)
}

// failRemaining reports every page still in the feed as failed, so the run
// summary accounts for pages this worker will never attempt.
func (w *worker) failRemaining(reason string) {
	for _, page := range w.feed.Drain() {
		metrics.ObservePage("abandoned")
		w.report(page, reason)
	}
}

func (w *worker) recoverPanic() {
	rec := recover()
	if rec == nil {
		return
	}
	w.logger.Error("worker crashed", zap.Int("worker", w.id), zap.Any("panic", rec))
	if page := w.current; page != 0 {
		w.report(page, fmt.Sprintf("worker crashed: %v", rec))
	}
	w.failRemaining("worker crashed")
}

func errBatch(page int, reason string) Batch {
	return Batch{Page: page, Err: &corpus.PageError{Page: page, Reason: reason}}
}
