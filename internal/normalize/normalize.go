// Package normalize cleans scraped dataset entries into embedded documents.
package normalize

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/slangwatch/slangcrawler/internal/corpus"
	"github.com/slangwatch/slangcrawler/internal/embed"
	"github.com/slangwatch/slangcrawler/internal/metrics"
)

// minFieldRunes is the shortest definition or example kept. Anything
// shorter carries too little signal to embed.
const minFieldRunes = 6

// Drop reasons, used as stats keys and metric labels.
const (
	dropVotes     = "votes"
	dropDate      = "date"
	dropLength    = "length"
	dropMissing   = "missing"
	dropDuplicate = "duplicate"
	dropEmbed     = "embed"
)

// Config holds the cleaning and embedding knobs.
type Config struct {
	// CaseFold lowercases terms so "Lit" and "lit" merge.
	CaseFold bool
	// RejectSentinelVotes also drops rows whose vote counts never parsed.
	// The default keeps them: an unreadable count is not a downvoted entry.
	RejectSentinelVotes bool
	BatchSize           int
	Concurrency         int
	MaxRetries          int
	RetryDelay          time.Duration
}

// Stats describes one pipeline run: how many rows came in, why rows were
// dropped, and how many documents came out.
type Stats struct {
	RowsIn    int
	Dropped   map[string]int
	Documents int
	// MissingFields counts empty fields across the input, a data-quality
	// diagnostic independent of the drop filters.
	MissingFields map[string]int
}

func newStats(rowsIn int) Stats {
	return Stats{
		RowsIn:        rowsIn,
		Dropped:       make(map[string]int),
		MissingFields: make(map[string]int),
	}
}

// row is one cleaned record waiting for its embedding.
type row struct {
	term string
	year int
	text string
}

// Normalizer turns scraped entries into embedded documents.
type Normalizer struct {
	cfg      Config
	embedder embed.Embedder
	logger   *zap.Logger
}

func New(cfg Config, embedder embed.Embedder, logger *zap.Logger) *Normalizer {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 64
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Normalizer{cfg: cfg, embedder: embedder, logger: logger}
}

// Run cleans entries, drops what cannot be used, embeds the survivors, and
// returns them in dataset order. Duplicate texts resolve in favor of the
// first occurrence.
func (n *Normalizer) Run(ctx context.Context, entries []corpus.Entry) ([]corpus.CleanedDocument, Stats, error) {
	stats := newStats(len(entries))
	for _, e := range entries {
		countMissing(e, stats.MissingFields)
	}

	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		r, reason := n.cleanEntry(e)
		if reason != "" {
			stats.Dropped[reason]++
			metrics.AddDropped(reason, 1)
			continue
		}
		rows = append(rows, r)
	}

	unique := dedupeByText(rows)
	if d := len(rows) - len(unique); d > 0 {
		stats.Dropped[dropDuplicate] = d
		metrics.AddDropped(dropDuplicate, d)
	}

	n.logger.Info("rows cleaned",
		zap.Int("in", stats.RowsIn),
		zap.Int("kept", len(unique)),
		zap.Any("dropped", stats.Dropped))

	docs, embedDropped, err := n.embedRows(ctx, unique)
	if err != nil {
		return nil, stats, err
	}
	if embedDropped > 0 {
		stats.Dropped[dropEmbed] = embedDropped
		metrics.AddDropped(dropEmbed, embedDropped)
	}

	stats.Documents = len(docs)
	metrics.AddDocuments(len(docs))
	return docs, stats, nil
}

// cleanEntry applies the row filters in order and returns a drop reason, or
// a cleaned row when every filter passes.
func (n *Normalizer) cleanEntry(e corpus.Entry) (row, string) {
	if n.rejectedByVotes(e) {
		return row{}, dropVotes
	}

	word := cleanText(e.Word)
	definition := cleanText(e.Definition)
	example := cleanText(e.Example)
	if n.cfg.CaseFold {
		word = strings.ToLower(word)
	}

	year, ok := yearFromDate(cleanText(e.Date))
	if !ok {
		return row{}, dropDate
	}

	if utf8.RuneCountInString(definition) < minFieldRunes || utf8.RuneCountInString(example) < minFieldRunes {
		return row{}, dropLength
	}
	if word == "" {
		return row{}, dropMissing
	}

	return row{term: word, year: year, text: CompositeText(word, definition, example)}, ""
}

// rejectedByVotes drops rows with more downvotes than upvotes. Sentinel
// counts are exempt unless RejectSentinelVotes is set: a count the scraper
// could not read says nothing about the entry's reception.
func (n *Normalizer) rejectedByVotes(e corpus.Entry) bool {
	if e.Upvotes == corpus.CountUnknown || e.Downvotes == corpus.CountUnknown {
		return n.cfg.RejectSentinelVotes
	}
	return e.Downvotes > e.Upvotes
}

func countMissing(e corpus.Entry, missing map[string]int) {
	if e.Word == "" {
		missing["word"]++
	}
	if e.Definition == "" {
		missing["definition"]++
	}
	if e.Example == "" {
		missing["example"]++
	}
	if e.Contributor == "" {
		missing["contributor"]++
	}
	if e.Date == "" {
		missing["date"]++
	}
	if e.Upvotes == corpus.CountUnknown {
		missing["upvotes"]++
	}
	if e.Downvotes == corpus.CountUnknown {
		missing["downvotes"]++
	}
}

// dedupeByText keeps the first row for each composite text.
func dedupeByText(rows []row) []row {
	seen := make(map[string]struct{}, len(rows))
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.text]; ok {
			continue
		}
		seen[r.text] = struct{}{}
		out = append(out, r)
	}
	return out
}
