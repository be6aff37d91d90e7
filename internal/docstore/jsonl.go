package docstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/slangwatch/slangcrawler/internal/corpus"
)

// maxDocumentLine bounds one encoded document, embedding included.
const maxDocumentLine = 4 * 1024 * 1024

// JSONL stores documents as one JSON object per line. It is the zero-setup
// default for local runs.
type JSONL struct {
	mu   sync.Mutex
	path string
}

func NewJSONL(path string) (*JSONL, error) {
	if path == "" {
		return nil, fmt.Errorf("docstore path is required")
	}
	return &JSONL{path: path}, nil
}

// Replace rewrites the file through a temp-file rename, so readers never see
// a half-written corpus.
func (s *JSONL) Replace(_ context.Context, docs []corpus.CleanedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create docstore dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".docs-*")
	if err != nil {
		return fmt.Errorf("create temp docstore: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeDocs(tmp, docs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp docstore: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace docstore: %w", err)
	}
	return nil
}

// Add appends docs to the file, creating it when missing.
func (s *JSONL) Add(_ context.Context, docs []corpus.CleanedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create docstore dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open docstore: %w", err)
	}
	defer f.Close()
	return writeDocs(f, docs)
}

func writeDocs(f *os.File, docs []corpus.CleanedDocument) error {
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush docstore: %w", err)
	}
	return nil
}

// All reads every stored document. A missing file is an empty corpus.
func (s *JSONL) All(_ context.Context) ([]corpus.CleanedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open docstore: %w", err)
	}
	defer f.Close()

	var docs []corpus.CleanedDocument
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDocumentLine)
	line := 0
	for scanner.Scan() {
		line++
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var doc corpus.CleanedDocument
		if err := json.Unmarshal(scanner.Bytes(), &doc); err != nil {
			return nil, fmt.Errorf("decode document at line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read docstore: %w", err)
	}
	return docs, nil
}

// Close is a no-op; the file is opened per call.
func (s *JSONL) Close() {}
