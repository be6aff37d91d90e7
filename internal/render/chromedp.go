package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// blockedImagePatterns covers the image types the index pages load; blocking
// them keeps renders fast without changing the definition markup.
var blockedImagePatterns = []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp"}

// Chrome renders pages with one long-lived headless Chrome process. Each
// worker owns its own instance; Render opens a fresh tab per page.
type Chrome struct {
	cfg             Config
	logger          *zap.Logger
	limiter         *rate.Limiter
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
}

// NewChrome starts a headless browser and verifies it is usable.
func NewChrome(cfg Config, logger *zap.Logger) (*Chrome, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Chrome{
		cfg:             cfg,
		logger:          logger,
		limiter:         newLimiter(cfg.DomainQPS),
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (c *Chrome) Close(_ context.Context) error {
	if c == nil {
		return nil
	}
	c.browserCancel()
	c.allocatorCancel()
	return nil
}

// Render opens a tab, waits for the definition panels, and returns them.
// The wait is bounded by NavTimeout; an earlier ctx cancellation aborts the
// tab. A dead browser is reported as ErrBackendDown so the caller can stop
// sending pages here.
func (c *Chrome) Render(ctx context.Context, page int) ([]*goquery.Selection, error) {
	if err := c.browserCtx.Err(); err != nil {
		return nil, fmt.Errorf("page %d: %w", page, ErrBackendDown)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("render rate limit: %w", err)
		}
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, c.cfg.NavTimeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	html, err := c.runTasks(taskCtx, pageURL(c.cfg.BaseURL, page))
	if err != nil {
		if c.browserCtx.Err() != nil {
			return nil, fmt.Errorf("page %d: %w", page, ErrBackendDown)
		}
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	return parseDefinitions(strings.NewReader(html))
}

func (c *Chrome) runTasks(ctx context.Context, url string) (string, error) {
	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(c.cfg.UserAgent),
	}
	if c.cfg.BlockImages {
		tasks = append(tasks, network.SetBlockedURLs(blockedImagePatterns))
	}
	tasks = append(tasks,
		chromedp.Navigate(url),
		chromedp.WaitReady(definitionSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err := chromedp.Run(ctx, tasks); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, nil
}

// forwardCancel aborts the render task when the caller's context ends first.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
