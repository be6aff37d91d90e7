package scrape

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOrchestrator(t *testing.T, cfg Config, fr *fakeRenderer, writer *memWriter) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(cfg, fr.factory(), writer,
		fakeClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}, fakeIDs{}, zap.NewNop())
	require.NoError(t, err)
	return o
}

func TestOrchestrator_Run_MergesPagesInOrder(t *testing.T) {
	t.Parallel()

	pages := make(map[int][]*goquery.Selection, 7)
	for p := 1; p <= 7; p++ {
		pages[p] = defNodes(t, fmt.Sprintf("word%d", p))
	}
	fr := &fakeRenderer{pages: pages}
	writer := &memWriter{}

	o := testOrchestrator(t, Config{MaxPage: 7, Workers: 3, Output: "data/slang.csv"}, fr, writer)
	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, "run-test", summary.RunID)
	require.True(t, summary.Complete())
	require.Equal(t, 7, summary.PagesPlanned)
	require.Equal(t, 7, summary.PagesScraped)
	require.Equal(t, 3, summary.Workers)
	require.Equal(t, 7, summary.Entries)
	require.Empty(t, summary.FailedPages)
	require.Equal(t, "data/slang.csv", summary.Output)

	require.Equal(t, 1, writer.calls)
	require.Len(t, writer.entries, 7)
	for i, entry := range writer.entries {
		require.Equal(t, i+1, entry.Page)
		require.Equal(t, fmt.Sprintf("word%d", i+1), entry.Word)
	}
}

func TestOrchestrator_Run_PartialWhenPageTimesOut(t *testing.T) {
	t.Parallel()

	fr := &fakeRenderer{
		pages: map[int][]*goquery.Selection{1: defNodes(t, "yeet", "salty")},
		errs:  map[int]error{2: errors.New("render page 2: context deadline exceeded")},
	}
	writer := &memWriter{}

	o := testOrchestrator(t, Config{MaxPage: 2, Workers: 1}, fr, writer)
	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	require.False(t, summary.Complete())
	require.Equal(t, 1, summary.PagesScraped)
	require.Equal(t, 2, summary.Entries)
	require.Len(t, summary.FailedPages, 1)
	require.Equal(t, 2, summary.FailedPages[0].Page)
	require.Contains(t, summary.FailedPages[0].Reason, "deadline")

	require.Equal(t, 1, writer.calls)
	require.Len(t, writer.entries, 2)
}

func TestOrchestrator_Run_DatasetWrittenOnceWhenCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fr := &fakeRenderer{pages: map[int][]*goquery.Selection{1: defNodes(t, "yeet")}}
	fr.onRender = func(int) { cancel() }
	writer := &memWriter{}

	o := testOrchestrator(t, Config{MaxPage: 3, Workers: 1}, fr, writer)
	summary, err := o.Run(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, writer.calls)
	require.Len(t, writer.entries, 1)
	require.False(t, summary.Complete())
	require.Len(t, summary.FailedPages, 2)
}

func TestOrchestrator_Run_WriterFailureIsFatal(t *testing.T) {
	t.Parallel()

	fr := &fakeRenderer{pages: map[int][]*goquery.Selection{1: defNodes(t, "yeet")}}
	writer := &memWriter{err: errors.New("disk full")}

	o := testOrchestrator(t, Config{MaxPage: 1, Workers: 1}, fr, writer)
	_, err := o.Run(context.Background())
	require.ErrorContains(t, err, "write dataset")
}

func TestNewOrchestrator_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	fr := &fakeRenderer{}
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero max page", Config{MaxPage: 0, Workers: 1}},
		{"zero workers", Config{MaxPage: 1, Workers: 0}},
		{"too many workers", Config{MaxPage: 1, Workers: 5}},
		{"inverted delays", Config{MaxPage: 1, Workers: 1, MinDelay: 2 * time.Second, MaxDelay: time.Second}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewOrchestrator(tc.cfg, fr.factory(), &memWriter{}, fakeClock{}, fakeIDs{}, zap.NewNop())
			require.Error(t, err)
		})
	}
}
