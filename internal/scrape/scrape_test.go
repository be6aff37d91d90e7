package scrape

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/slangwatch/slangcrawler/internal/corpus"
	"github.com/slangwatch/slangcrawler/internal/metrics"
	"github.com/slangwatch/slangcrawler/internal/render"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

// defNodes renders a minimal listing page with one definition panel per
// word and returns the panels the same way a renderer would.
func defNodes(t *testing.T, words ...string) []*goquery.Selection {
	t.Helper()

	var b strings.Builder
	b.WriteString("<html><body>")
	for _, w := range words {
		fmt.Fprintf(&b, `<div class="definition">
  <h1><a class="word">%s</a></h1>
  <div class="meaning">meaning of %s</div>
  <div class="example">somebody used %s today</div>
  <div class="contributor">by tester March 1, 2015</div>
  <button data-x-bind="thumbUp"><span>10</span></button>
  <button data-x-bind="thumbDown"><span>2</span></button>
</div>`, w, w, w)
	}
	b.WriteString("</body></html>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	require.NoError(t, err)

	var nodes []*goquery.Selection
	doc.Find("div.definition").Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, s)
	})
	return nodes
}

// --- fakes ---

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeIDs struct{ err error }

func (g fakeIDs) NewID() (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "run-test", nil
}

type fakeRenderer struct {
	mu       sync.Mutex
	pages    map[int][]*goquery.Selection
	errs     map[int]error
	panicOn  int
	onRender func(page int)
	closed   int
}

func (f *fakeRenderer) Render(_ context.Context, page int) ([]*goquery.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onRender != nil {
		f.onRender(page)
	}
	if f.panicOn != 0 && page == f.panicOn {
		panic("renderer exploded")
	}
	if err, ok := f.errs[page]; ok {
		return nil, err
	}
	return f.pages[page], nil
}

func (f *fakeRenderer) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeRenderer) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeRenderer) factory() render.Factory {
	return func() (render.Renderer, error) { return f, nil }
}

type memWriter struct {
	calls   int
	entries []corpus.Entry
	err     error
}

func (m *memWriter) WriteDataset(_ context.Context, entries []corpus.Entry) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.entries = append([]corpus.Entry(nil), entries...)
	return nil
}
