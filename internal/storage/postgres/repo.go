// Package postgres implements a Postgres storage.Repository on pgx v5. Rows
// are loaded with COPY FROM STDIN through the pool.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tabclean/internal/table"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string
	// Table may be schema qualified, e.g. "public.salaries".
	Table   string
	Columns []string
}

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository creates a pool and returns a Repository plus its close
// function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, pool.Close, nil
}

// CopyFrom streams rows into the table with COPY.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, splitFQN(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", r.cfg.Table, err)
	}
	return n, nil
}

// Exec runs a single statement on the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// splitFQN converts "schema.table" into pgx.Identifier{"schema", "table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

// MapType maps a column kind to a Postgres type.
func MapType(k table.Kind) string {
	switch k {
	case table.Int:
		return "BIGINT"
	case table.Float:
		return "DOUBLE PRECISION"
	case table.Bool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// quoteIdent quotes one identifier segment, doubling embedded quotes.
func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
