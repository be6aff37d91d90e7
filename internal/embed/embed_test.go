package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_EmbedTexts_ChecksVectorCount(t *testing.T) {
	t.Parallel()

	c := &Client{embedder: stubEmbedder{vectors: [][]float32{{1}}}, dim: 1, logger: zap.NewNop()}
	_, err := c.EmbedTexts(context.Background(), []string{"a", "b"})
	require.ErrorContains(t, err, "got 1 vectors")
}

func TestClient_EmbedTexts_PassesBatchThrough(t *testing.T) {
	t.Parallel()

	want := [][]float32{{1, 0}, {0, 1}}
	c := &Client{embedder: stubEmbedder{vectors: want}, dim: 2, logger: zap.NewNop()}

	got, err := c.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, 2, c.Dim())
}

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, 5, time.Millisecond)

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	t.Parallel()

	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("hard down")
	}, 3, time.Millisecond)

	require.ErrorContains(t, err, "after 3 attempts")
	require.ErrorContains(t, err, "hard down")
	require.Equal(t, 3, calls)
}

func TestRetryWithBackoff_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		cancel()
		return errors.New("transient")
	}, 10, 50*time.Millisecond)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

// --- fakes ---

type stubEmbedder struct {
	vectors [][]float32
	err     error
}

func (s stubEmbedder) EmbedDocuments(_ context.Context, _ []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}

func (s stubEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.vectors) == 0 {
		return nil, nil
	}
	return s.vectors[0], nil
}
