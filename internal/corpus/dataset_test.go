package corpus

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteDataset_HeaderExact(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	require.Equal(t, "word,definition,example,contributor,date,upvotes,downvotes,page,scraped_date", lines[0])
}

func TestWriteReadDataset_RoundTrip(t *testing.T) {
	t.Parallel()

	scraped := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		{
			Word:        "lit",
			Definition:  "exciting, excellent",
			Example:     "this party is lit",
			Contributor: "wordsmith",
			Date:        "August 17, 2012",
			Upvotes:     1234,
			Downvotes:   56,
			Page:        1,
			ScrapedDate: scraped,
		},
		{
			Word:        "salty",
			Definition:  "bitter about something minor",
			Example:     "he lost one game, and now he's salty",
			Contributor: "",
			Date:        "",
			Upvotes:     CountUnknown,
			Downvotes:   CountUnknown,
			Page:        2,
			ScrapedDate: scraped,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, entries))

	got, err := ReadDataset(&buf)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestReadDataset_RejectsWrongHeader(t *testing.T) {
	t.Parallel()

	input := "word,definition\nyeet,to throw\n"
	_, err := ReadDataset(strings.NewReader(input))
	require.ErrorContains(t, err, "unexpected dataset header")
}

func TestReadDataset_LenientNumerics(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		strings.Join(DatasetHeader, ","),
		"yeet,to throw,he yeeted it,anon,March 1 2015,n/a,-1,1,not-a-date",
	}, "\n") + "\n"

	entries, err := ReadDataset(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, CountUnknown, entries[0].Upvotes)
	require.Equal(t, CountUnknown, entries[0].Downvotes)
	require.Equal(t, 1, entries[0].Page)
	require.True(t, entries[0].ScrapedDate.IsZero())
}

func TestDatasetFile_WriteCreatesDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "out", "slang.csv")
	file := DatasetFile{Path: path}

	require.NoError(t, file.WriteDataset(context.Background(), []Entry{{
		Word: "yeet", Page: 1, Upvotes: 1, Downvotes: 0,
	}}))

	got, err := file.ReadDataset(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "yeet", got[0].Word)

	// No temp files left behind.
	names, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, names, 1)
}
