// Package corpus defines the records produced by the scrape and normalize
// stages and the dataset codec shared between them.
package corpus

import "time"

// SourceName labels every cleaned document with its origin.
const SourceName = "urban_dictionary"

// CountUnknown is the sentinel for a vote count the page did not expose in
// parseable form. It is distinct from a genuine zero.
const CountUnknown = -1

// Entry is one scraped definition. Entries are immutable once built; the
// extractor fills unextractable fields with sentinels instead of failing.
type Entry struct {
	Word        string
	Definition  string
	Example     string
	Contributor string
	Date        string
	Upvotes     int
	Downvotes   int
	Page        int
	ScrapedDate time.Time
}

// Valid reports whether the entry satisfies the dataset invariants: a
// non-empty word, vote counts that are non-negative or CountUnknown, and a
// positive page number.
func (e Entry) Valid() bool {
	if e.Word == "" || e.Page < 1 {
		return false
	}
	return validCount(e.Upvotes) && validCount(e.Downvotes)
}

func validCount(n int) bool {
	return n >= 0 || n == CountUnknown
}

// PageError records a page that produced no entries.
type PageError struct {
	Page   int    `json:"page"`
	Reason string `json:"reason"`
}

// RunSummary reports the outcome of one scrape run.
type RunSummary struct {
	RunID        string      `json:"run_id"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   time.Time   `json:"finished_at"`
	PagesPlanned int         `json:"pages_planned"`
	PagesScraped int         `json:"pages_scraped"`
	Workers      int         `json:"workers"`
	Entries      int         `json:"entries"`
	FailedPages  []PageError `json:"failed_pages,omitempty"`
	Output       string      `json:"output"`
}

// Complete reports whether every planned page produced entries.
func (s RunSummary) Complete() bool {
	return len(s.FailedPages) == 0 && s.PagesScraped == s.PagesPlanned
}

// CleanedDocument is one normalized, embedded definition ready for search.
type CleanedDocument struct {
	Term      string    `json:"term"`
	Year      int       `json:"year"`
	Examples  []string  `json:"examples"`
	Embedding []float32 `json:"embedding"`
	Source    string    `json:"source"`
}
