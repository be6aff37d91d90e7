package scrape

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/slangwatch/slangcrawler/internal/corpus"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	x := NewExtractor(fakeClock{now: now})

	nodes := defNodes(t, "yeet")
	require.Len(t, nodes, 1)

	entry := x.Extract(nodes[0], 3)
	require.Equal(t, "yeet", entry.Word)
	require.Equal(t, "meaning of yeet", entry.Definition)
	require.Equal(t, "somebody used yeet today", entry.Example)
	require.Equal(t, "tester", entry.Contributor)
	require.Equal(t, "March 1, 2015", entry.Date)
	require.Equal(t, 10, entry.Upvotes)
	require.Equal(t, 2, entry.Downvotes)
	require.Equal(t, 3, entry.Page)
	require.Equal(t, now, entry.ScrapedDate)
	require.True(t, entry.Valid())
}

func TestExtractor_Extract_EmptyNodeYieldsSentinels(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div class="definition"></div>`))
	require.NoError(t, err)
	node := doc.Find("div.definition").First()

	x := NewExtractor(fakeClock{now: time.Now()})
	entry := x.Extract(node, 7)

	require.Empty(t, entry.Word)
	require.Empty(t, entry.Definition)
	require.Empty(t, entry.Example)
	require.Empty(t, entry.Contributor)
	require.Empty(t, entry.Date)
	require.Equal(t, corpus.CountUnknown, entry.Upvotes)
	require.Equal(t, corpus.CountUnknown, entry.Downvotes)
	require.Equal(t, 7, entry.Page)
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{"1,234 upvotes", 1234},
		{"1,234", 1234},
		{"42", 42},
		{" 7 ", 7},
		{"n/a", corpus.CountUnknown},
		{"", corpus.CountUnknown},
		{"99999999999999999999", corpus.CountUnknown},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, parseCount(tc.in), "parseCount(%q)", tc.in)
	}
}

func TestExtractDate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		line string
		want string
	}{
		{"by ballplayer March 1, 2015", "March 1, 2015"},
		{"by gg 17 August 2012", "17 August 2012"},
		{"by someone March 2015", "March 2015"},
		{"no date in sight", ""},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, extractDate(tc.line), "extractDate(%q)", tc.line)
	}
}

func TestContributorName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ballplayer", contributorName("by ballplayer March 1, 2015", "March 1, 2015"))
	require.Equal(t, "gg", contributorName("by gg", ""))
	require.Equal(t, "", contributorName("", ""))
}
