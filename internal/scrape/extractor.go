package scrape

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/slangwatch/slangcrawler/internal/corpus"
	"github.com/slangwatch/slangcrawler/internal/metrics"
)

// Clock abstracts time for capture stamps and run summaries.
type Clock interface {
	Now() time.Time
}

// Selector chains tried per field. The first selector matches the current
// site markup; the rest cover older layouts the site has shipped.
var (
	wordSelectors        = []string{"a.word", ".word"}
	definitionSelectors  = []string{"div.meaning", ".meaning"}
	exampleSelectors     = []string{"div.example", ".example"}
	contributorSelectors = []string{"div.contributor", ".contributor"}
	upvoteSelectors      = []string{"button[data-x-bind='thumbUp'] span", "a.up span.count", ".thumbs .up .count"}
	downvoteSelectors    = []string{"button[data-x-bind='thumbDown'] span", "a.down span.count", ".thumbs .down .count"}
)

// datePatterns match the date inside a contributor line, most specific
// first so "March 1, 2015" is never shortened to "March 1".
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Z][a-z]+ \d{1,2}, \d{4}`),
	regexp.MustCompile(`\d{1,2} [A-Z][a-z]+ \d{4}`),
	regexp.MustCompile(`[A-Z][a-z]+ \d{4}`),
}

var digitRuns = regexp.MustCompile(`\d+`)

// Extractor builds Entry records from rendered definition nodes. Extraction
// is best effort and field independent: a field that cannot be located or
// parsed becomes its sentinel value, never an error.
type Extractor struct {
	clock Clock
}

func NewExtractor(clock Clock) *Extractor {
	return &Extractor{clock: clock}
}

// Extract pulls the entry fields out of one definition node and stamps the
// record with the page number and capture time. It never fails; callers
// decide what to do with records that carry no word.
func (x *Extractor) Extract(sel *goquery.Selection, page int) corpus.Entry {
	contributorLine := textOf(sel, contributorSelectors)
	date := extractDate(contributorLine)

	entry := corpus.Entry{
		Word:        textOf(sel, wordSelectors),
		Definition:  textOf(sel, definitionSelectors),
		Example:     textOf(sel, exampleSelectors),
		Contributor: contributorName(contributorLine, date),
		Date:        date,
		Upvotes:     voteCount(sel, upvoteSelectors),
		Downvotes:   voteCount(sel, downvoteSelectors),
		Page:        page,
		ScrapedDate: x.clock.Now(),
	}
	observeFallbacks(entry)
	return entry
}

func observeFallbacks(e corpus.Entry) {
	missing := map[string]bool{
		"word":        e.Word == "",
		"definition":  e.Definition == "",
		"example":     e.Example == "",
		"contributor": e.Contributor == "",
		"date":        e.Date == "",
		"upvotes":     e.Upvotes == corpus.CountUnknown,
		"downvotes":   e.Downvotes == corpus.CountUnknown,
	}
	for field, miss := range missing {
		if miss {
			metrics.ObserveFieldFallback(field)
		}
	}
}

// textOf returns the first non-empty trimmed text along the selector chain.
func textOf(sel *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		found := sel.Find(s).First()
		if found.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(found.Text()); text != "" {
			return text
		}
	}
	return ""
}

// voteCount locates a vote label and parses it, falling back to
// CountUnknown when no selector matches or nothing numeric is left.
func voteCount(sel *goquery.Selection, selectors []string) int {
	for _, s := range selectors {
		found := sel.Find(s).First()
		if found.Length() == 0 {
			continue
		}
		if n := parseCount(found.Text()); n != corpus.CountUnknown {
			return n
		}
	}
	return corpus.CountUnknown
}

// parseCount keeps only the digit runs of a label before conversion, so
// "1,234 upvotes" parses as 1234. Labels without digits, such as "n/a",
// become CountUnknown.
func parseCount(s string) int {
	digits := strings.Join(digitRuns.FindAllString(s, -1), "")
	if digits == "" {
		return corpus.CountUnknown
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return corpus.CountUnknown
	}
	return n
}

// extractDate pulls the submission date out of a contributor line such as
// "by ballplayer March 1, 2015".
func extractDate(contributorLine string) string {
	for _, re := range datePatterns {
		if m := re.FindString(contributorLine); m != "" {
			return m
		}
	}
	return ""
}

// contributorName strips the date and the "by " prefix from a contributor
// line, leaving the bare username.
func contributorName(contributorLine, date string) string {
	name := contributorLine
	if date != "" {
		name = strings.Replace(name, date, "", 1)
	}
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "by ")
	return strings.TrimSpace(name)
}
