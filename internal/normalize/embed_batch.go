package normalize

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/corpus"
	"github.com/slangwatch/slangcrawler/internal/embed"
	"github.com/slangwatch/slangcrawler/internal/metrics"
)

// embedRows embeds the cleaned rows in fixed-size batches on a worker pool
// and assembles documents in row order. Each batch retries with backoff; a
// batch that still fails drops only its own rows, and a vector that comes
// back with the wrong width drops only that row. Cancellation of the run
// context is the one fatal outcome.
func (n *Normalizer) embedRows(ctx context.Context, rows []row) ([]corpus.CleanedDocument, int, error) {
	if len(rows) == 0 {
		return []corpus.CleanedDocument{}, 0, nil
	}

	pool, err := ants.NewPool(n.cfg.Concurrency)
	if err != nil {
		return nil, 0, fmt.Errorf("embedding pool: %w", err)
	}
	defer pool.Release()

	// A nil vector after the wait marks a dropped row.
	vectors := make([][]float32, len(rows))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		dropped  int
		fatalErr error
	)
	drop := func(count int) {
		mu.Lock()
		dropped += count
		mu.Unlock()
	}
	fatal := func(err error) {
		mu.Lock()
		if fatalErr == nil {
			fatalErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(rows); start += n.cfg.BatchSize {
		end := min(start+n.cfg.BatchSize, len(rows))
		offset := start

		texts := make([]string, end-start)
		for i, r := range rows[start:end] {
			texts[i] = r.text
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			batchStart := time.Now()
			var got [][]float32
			err := embed.RetryWithBackoff(ctx, func() error {
				var embedErr error
				got, embedErr = n.embedder.EmbedTexts(ctx, texts)
				return embedErr
			}, n.cfg.MaxRetries, n.cfg.RetryDelay)
			metrics.ObserveEmbedBatch(time.Since(batchStart))
			if err != nil {
				if ctx.Err() != nil {
					fatal(ctx.Err())
					return
				}
				n.logger.Warn("embedding batch dropped",
					zap.Int("start_row", offset),
					zap.Int("rows", len(texts)),
					zap.Error(err))
				drop(len(texts))
				return
			}

			dim := n.embedder.Dim()
			for i, v := range got {
				if len(v) == 0 || (dim > 0 && len(v) != dim) {
					n.logger.Warn("embedding row dropped",
						zap.Int("row", offset+i),
						zap.Int("got_dimensions", len(v)),
						zap.Int("want_dimensions", dim))
					drop(1)
					continue
				}
				vectors[offset+i] = v
			}
		})
		if submitErr != nil {
			wg.Done()
			fatal(fmt.Errorf("submit batch: %w", submitErr))
			break
		}
	}
	wg.Wait()

	if fatalErr != nil {
		return nil, 0, fatalErr
	}

	docs := make([]corpus.CleanedDocument, 0, len(rows))
	for i, r := range rows {
		if vectors[i] == nil {
			continue
		}
		docs = append(docs, corpus.CleanedDocument{
			Term:      r.term,
			Year:      r.year,
			Examples:  []string{r.text},
			Embedding: vectors[i],
			Source:    corpus.SourceName,
		})
	}
	return docs, dropped, nil
}
