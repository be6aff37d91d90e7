package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"
)

// DatasetHeader is the exact column order of the persisted dataset. Stage 2
// refuses datasets whose header differs.
var DatasetHeader = []string{
	"word", "definition", "example", "contributor", "date",
	"upvotes", "downvotes", "page", "scraped_date",
}

const scrapedDateLayout = "2006-01-02"

// WriteDataset encodes entries as CSV, header first. An empty run still
// produces the header row.
func WriteDataset(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DatasetHeader); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.Word,
			e.Definition,
			e.Example,
			e.Contributor,
			e.Date,
			strconv.Itoa(e.Upvotes),
			strconv.Itoa(e.Downvotes),
			strconv.Itoa(e.Page),
			e.ScrapedDate.Format(scrapedDateLayout),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write dataset row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	return nil
}

// ReadDataset decodes a dataset written by WriteDataset. Numeric columns
// that fail to parse fall back to sentinels rather than rejecting the row.
func ReadDataset(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if !slices.Equal(header, DatasetHeader) {
		return nil, fmt.Errorf("unexpected dataset header %v", header)
	}

	var entries []Entry
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row: %w", err)
		}
		entries = append(entries, entryFromRecord(record))
	}
	return entries, nil
}

func entryFromRecord(rec []string) Entry {
	e := Entry{
		Word:        rec[0],
		Definition:  rec[1],
		Example:     rec[2],
		Contributor: rec[3],
		Date:        rec[4],
		Upvotes:     atoiOr(rec[5], CountUnknown),
		Downvotes:   atoiOr(rec[6], CountUnknown),
		Page:        atoiOr(rec[7], 0),
	}
	if ts, err := time.Parse(scrapedDateLayout, rec[8]); err == nil {
		e.ScrapedDate = ts
	}
	return e
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// DatasetFile reads and writes a dataset at a fixed path.
type DatasetFile struct {
	Path string
}

// WriteDataset persists entries through a temp file and rename, so the
// dataset appears at Path complete or not at all. It intentionally ignores
// ctx cancellation: a partial run still gets its dataset written.
func (f DatasetFile) WriteDataset(_ context.Context, entries []Entry) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*")
	if err != nil {
		return fmt.Errorf("create dataset temp file: %w", err)
	}
	if err := WriteDataset(tmp, entries); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close dataset temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish dataset: %w", err)
	}
	return nil
}

// ReadDataset loads the dataset at Path.
func (f DatasetFile) ReadDataset(_ context.Context) ([]Entry, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()
	return ReadDataset(file)
}
