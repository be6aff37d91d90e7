package render

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Static fetches index pages without a browser, for environments where the
// site serves server-rendered markup.
type Static struct {
	cfg     Config
	logger  *zap.Logger
	limiter *rate.Limiter
	base    *colly.Collector
}

// NewStatic builds the colly-backed renderer.
func NewStatic(cfg Config, logger *zap.Logger) *Static {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &Static{
		cfg:     cfg,
		logger:  logger,
		limiter: newLimiter(cfg.DomainQPS),
		base:    c,
	}
}

// Render issues a plain GET for the page and parses the definition nodes.
func (s *Static) Render(ctx context.Context, page int) ([]*goquery.Selection, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("render rate limit: %w", err)
		}
	}

	collector := s.base.Clone()
	if s.cfg.UserAgent != "" {
		collector.UserAgent = s.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	timeout := s.cfg.NavTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(pageURL(s.cfg.BaseURL, page))
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch page %d canceled: %w", page, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, fetchErr)
		}
	}

	return parseDefinitions(bytes.NewReader(body))
}

// Close is a no-op; every fetch runs on its own cloned collector.
func (s *Static) Close(_ context.Context) error {
	return nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
