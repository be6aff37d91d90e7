// Package render fetches definition index pages and returns their raw
// definition nodes. Rendering is the only part of the scrape stage that
// touches the network; everything downstream works on the returned nodes.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrBackendDown reports that the rendering backend is gone for good and
// cannot serve further pages.
var ErrBackendDown = errors.New("render backend unavailable")

// definitionSelector matches one definition panel on an index page.
const definitionSelector = "div.definition"

// Renderer fetches one index page and returns its definition nodes.
type Renderer interface {
	Render(ctx context.Context, page int) ([]*goquery.Selection, error)
	Close(ctx context.Context) error
}

// Factory builds a private Renderer for one scrape worker.
type Factory func() (Renderer, error)

// Config holds the backend-independent rendering knobs. It is immutable
// once handed to a worker.
type Config struct {
	Backend     string
	BaseURL     string
	UserAgent   string
	NavTimeout  time.Duration
	DomainQPS   float64
	BlockImages bool
}

// New returns a Renderer for cfg.Backend.
func New(cfg Config, logger *zap.Logger) (Renderer, error) {
	switch cfg.Backend {
	case "", "chromedp":
		return NewChrome(cfg, logger)
	case "colly":
		return NewStatic(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown render backend %q", cfg.Backend)
	}
}

// pageURL builds the index URL for a 1-based page number.
func pageURL(base string, page int) string {
	return fmt.Sprintf("%s/?page=%d", strings.TrimRight(base, "/"), page)
}

// parseDefinitions extracts the definition nodes from rendered page HTML.
func parseDefinitions(r io.Reader) ([]*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	var nodes []*goquery.Selection
	doc.Find(definitionSelector).Each(func(_ int, sel *goquery.Selection) {
		nodes = append(nodes, sel)
	})
	return nodes, nil
}

// newLimiter returns a QPS limiter, or nil when unlimited.
func newLimiter(qps float64) *rate.Limiter {
	if qps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(qps), 1)
}
