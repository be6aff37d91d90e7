package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local writes artifacts under a base directory.
type Local struct {
	dir    string
	prefix string
}

// NewLocal ensures the base directory exists and returns the store.
func NewLocal(dir, prefix string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("artifacts dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}
	return &Local{dir: dir, prefix: prefix}, nil
}

// Save writes data under dir/prefix/name and returns a file:// URI.
func (s *Local) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("artifact name is required")
	}
	full := filepath.Join(s.dir, s.prefix, name)

	// Reject names that would climb out of the base directory.
	base := filepath.Clean(s.dir)
	if !strings.HasPrefix(filepath.Clean(full), base+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact name escapes the base directory")
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create artifact dirs: %w", err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return "file://" + full, nil
}
