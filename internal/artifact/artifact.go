// Package artifact archives run outputs, the dataset and its summary, to a
// blob store. The abstraction keeps the commands independent of a specific
// backend (Google Cloud Storage or the local filesystem).
package artifact

import (
	"context"
	"fmt"
)

// Store saves one named artifact and returns the URI it landed at.
type Store interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Config selects and configures an artifact store.
type Config struct {
	Provider string
	Dir      string
	Bucket   string
	Prefix   string
}

// New builds the configured store. The "none" provider discards artifacts.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Provider {
	case "", "none":
		return Noop{}, nil
	case "local":
		return NewLocal(cfg.Dir, cfg.Prefix)
	case "gcs":
		return NewGCS(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown artifacts provider %q", cfg.Provider)
	}
}

// Noop discards artifacts. Useful for dry runs where nothing is archived.
type Noop struct{}

// Save for Noop does nothing and reports no URI.
func (Noop) Save(context.Context, string, string, []byte) (string, error) {
	return "", nil
}
