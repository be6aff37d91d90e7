package scrape

// assignPages splits pages 1..maxPage across workers by page number modulo
// the worker count. Neighboring pages land on different workers, which
// spreads slow stretches of the site instead of handing one worker a
// contiguous block.
func assignPages(maxPage, workers int) [][]int {
	assigned := make([][]int, workers)
	for page := 1; page <= maxPage; page++ {
		w := page % workers
		assigned[w] = append(assigned[w], page)
	}
	return assigned
}

// pageFeed hands each assigned page to exactly one caller. The channel is
// filled once and closed, so Next and Drain need no locking of their own.
type pageFeed struct {
	pages chan int
}

func newPageFeed(pages []int) *pageFeed {
	ch := make(chan int, len(pages))
	for _, p := range pages {
		ch <- p
	}
	close(ch)
	return &pageFeed{pages: ch}
}

// Next returns the next page, or false when the feed is exhausted.
func (f *pageFeed) Next() (int, bool) {
	page, ok := <-f.pages
	return page, ok
}

// Drain empties the feed and returns every page that was never handed out.
func (f *pageFeed) Drain() []int {
	var rest []int
	for page := range f.pages {
		rest = append(rest, page)
	}
	return rest
}
