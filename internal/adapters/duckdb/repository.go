package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

// Repository owns the DuckDB connection used for durable agent state.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the database at path. An empty path opens
// an in-memory database.
func NewRepository(ctx context.Context, path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	// DuckDB allows a single writer per process.
	db.SetMaxOpenConns(1)

	r := &Repository{db: db}
	if err := r.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS seen_casts (
			id VARCHAR PRIMARY KEY,
			first_seen TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_seen_casts_first_seen ON seen_casts(first_seen)`,
	}
	for _, q := range stmts {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}
