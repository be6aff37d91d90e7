package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slangwatch/slangcrawler/internal/corpus"
)

func sampleDocs() []corpus.CleanedDocument {
	return []corpus.CleanedDocument{
		{
			Term:      "lit",
			Year:      2015,
			Examples:  []string{"Definition of lit: exciting. Example: This party is lit!"},
			Embedding: []float32{0.1, 0.2, 0.3},
			Source:    corpus.SourceName,
		},
		{
			Term:      "on fleek",
			Year:      2016,
			Examples:  []string{"Definition of on fleek: flawless. Example: Eyebrows on fleek."},
			Embedding: []float32{0.4, 0.5, 0.6},
			Source:    corpus.SourceName,
		},
	}
}

func TestJSONL_ReplaceAndAll(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "docs.jsonl")
	store, err := NewJSONL(path)
	require.NoError(t, err)
	defer store.Close()

	docs := sampleDocs()
	require.NoError(t, store.Replace(context.Background(), docs))

	got, err := store.All(context.Background())
	require.NoError(t, err)
	require.Equal(t, docs, got)
}

func TestJSONL_ReplaceOverwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "docs.jsonl")
	store, err := NewJSONL(path)
	require.NoError(t, err)

	docs := sampleDocs()
	require.NoError(t, store.Replace(context.Background(), docs))
	require.NoError(t, store.Replace(context.Background(), docs[:1]))

	got, err := store.All(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "lit", got[0].Term)

	// The rename must not leave temp files next to the store.
	names, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, names, 1)
}

func TestJSONL_AddAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "docs.jsonl")
	store, err := NewJSONL(path)
	require.NoError(t, err)

	docs := sampleDocs()
	require.NoError(t, store.Add(context.Background(), docs[:1]))
	require.NoError(t, store.Add(context.Background(), docs[1:]))

	got, err := store.All(context.Background())
	require.NoError(t, err)
	require.Equal(t, docs, got)
}

func TestJSONL_AllMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store, err := NewJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)

	got, err := store.All(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestNewJSONL_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewJSONL("")
	require.Error(t, err)
}
