// Package docstore persists cleaned documents for the search service.
package docstore

import (
	"context"
	"fmt"

	"github.com/slangwatch/slangcrawler/internal/corpus"
)

// Store persists cleaned documents and reads them back for serving.
type Store interface {
	// Replace swaps the stored corpus for docs.
	Replace(ctx context.Context, docs []corpus.CleanedDocument) error
	// Add appends docs without touching what is already stored.
	Add(ctx context.Context, docs []corpus.CleanedDocument) error
	// All returns every stored document in insertion order.
	All(ctx context.Context) ([]corpus.CleanedDocument, error)
	// Close releases the store's resources.
	Close()
}

// Config selects and configures a document store.
type Config struct {
	Provider string
	Path     string
	DSN      string
	Table    string
}

// Open builds the configured store. An empty provider means JSONL.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Provider {
	case "", "jsonl":
		return NewJSONL(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, PostgresConfig{DSN: cfg.DSN, Table: cfg.Table})
	default:
		return nil, fmt.Errorf("unknown docstore provider %q", cfg.Provider)
	}
}
