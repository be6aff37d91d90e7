package docstore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slangwatch/slangcrawler/internal/corpus"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the connection pool behind the Postgres store.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Postgres persists documents in a single table, embeddings included.
type Postgres struct {
	pool  pgxPool
	table string
}

// NewPostgres creates a Postgres-backed store using the provided config.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("docstore.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "slang_documents"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{pool: pool, table: table}, nil
}

// NewPostgresWithPool constructs a store from an existing pool (primarily
// for testing).
func NewPostgresWithPool(pool pgxPool, table string) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "slang_documents"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Postgres{pool: pool, table: table}, nil
}

// EnsureSchema creates the documents table when it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id bigserial PRIMARY KEY,
	term text NOT NULL,
	year int NOT NULL,
	examples text[] NOT NULL,
	embedding real[] NOT NULL,
	source text NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Replace truncates the table and inserts docs.
func (s *Postgres) Replace(ctx context.Context, docs []corpus.CleanedDocument) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s", s.table)); err != nil {
		return fmt.Errorf("truncate %s: %w", s.table, err)
	}
	return s.Add(ctx, docs)
}

// Add inserts docs, keeping their order through the serial id.
func (s *Postgres) Add(ctx context.Context, docs []corpus.CleanedDocument) error {
	query := fmt.Sprintf(`
INSERT INTO %s (term, year, examples, embedding, source)
VALUES ($1,$2,$3,$4,$5)`, s.table)
	for _, doc := range docs {
		if _, err := s.pool.Exec(ctx, query, doc.Term, doc.Year, doc.Examples, doc.Embedding, doc.Source); err != nil {
			return fmt.Errorf("insert %q: %w", doc.Term, err)
		}
	}
	return nil
}

// All returns every stored document in insertion order.
func (s *Postgres) All(ctx context.Context) ([]corpus.CleanedDocument, error) {
	query := fmt.Sprintf(`
SELECT term, year, examples, embedding, source
FROM %s
ORDER BY id`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []corpus.CleanedDocument
	for rows.Next() {
		var doc corpus.CleanedDocument
		if err := rows.Scan(&doc.Term, &doc.Year, &doc.Examples, &doc.Embedding, &doc.Source); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	return docs, nil
}

// Close releases the underlying pool resources.
func (s *Postgres) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
