package artifact

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// GCS writes artifacts to a Google Cloud Storage bucket. Authentication is
// handled via Application Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS builds the client and verifies the bucket is reachable, so a bad
// configuration fails at startup instead of at the end of a run.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("artifacts bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("bucket %q attributes: %w", bucket, err)
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

// Save uploads data and returns its gs:// URI.
func (s *GCS) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("artifact name is required")
	}
	object := name
	if s.prefix != "" {
		object = path.Join(s.prefix, name)
	}

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			return "", fmt.Errorf("write object %s: %w (close writer: %v)", object, err, closeErr)
		}
		return "", fmt.Errorf("write object %s: %w", object, err)
	}
	// Close finalizes the upload and flushes buffered data.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close writer for %s: %w", object, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

// Close releases the underlying client.
func (s *GCS) Close() error {
	return s.client.Close()
}
