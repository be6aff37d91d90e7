// Package search serves nearest-neighbor lookups over embedded documents.
package search

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/corpus"
)

// QueryEmbedder embeds one search query.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Result is one search hit.
type Result struct {
	Term     string   `json:"term"`
	Year     int      `json:"year"`
	Examples []string `json:"examples"`
	Score    float32  `json:"score"`
}

// Searcher answers nearest-neighbor queries over an in-memory corpus. Load
// may be called again to swap the corpus; searches in flight keep the
// snapshot they started with.
type Searcher struct {
	embedder QueryEmbedder
	logger   *zap.Logger

	mu      sync.RWMutex
	docs    []corpus.CleanedDocument
	vectors [][]float32
	loaded  bool
}

func New(embedder QueryEmbedder, logger *zap.Logger) *Searcher {
	return &Searcher{embedder: embedder, logger: logger}
}

// Load indexes docs for searching, precomputing unit vectors. Documents
// without a usable embedding are skipped.
func (s *Searcher) Load(docs []corpus.CleanedDocument) {
	kept := make([]corpus.CleanedDocument, 0, len(docs))
	vectors := make([][]float32, 0, len(docs))
	for _, doc := range docs {
		unit := normalizeVector(doc.Embedding)
		if unit == nil {
			s.logger.Warn("skipping document without usable embedding", zap.String("term", doc.Term))
			continue
		}
		kept = append(kept, doc)
		vectors = append(vectors, unit)
	}

	s.mu.Lock()
	s.docs = kept
	s.vectors = vectors
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("search corpus loaded", zap.Int("documents", len(kept)))
}

// Ready reports whether a corpus has been loaded.
func (s *Searcher) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Search returns the limit nearest documents to the query by cosine
// similarity, most similar first. Equal scores keep corpus order.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if limit < 1 {
		limit = 1
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	unit := normalizeVector(vector)
	if unit == nil {
		return nil, fmt.Errorf("query embedded to a zero vector")
	}

	s.mu.RLock()
	docs, vectors := s.docs, s.vectors
	s.mu.RUnlock()

	scored := make([]Result, 0, len(docs))
	for i, doc := range docs {
		// Documents embedded with a different model width cannot be scored.
		if len(vectors[i]) != len(unit) {
			continue
		}
		scored = append(scored, Result{
			Term:     doc.Term,
			Year:     doc.Year,
			Examples: doc.Examples,
			Score:    dot(unit, vectors[i]),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
