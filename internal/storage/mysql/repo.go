// Package mysql implements a MySQL storage.Repository with
// go-sql-driver/mysql. Each batch becomes one multi-row INSERT.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"tabclean/internal/storage"
	"tabclean/internal/table"
)

// maxPlaceholders stays under MySQL's 65535 prepared-statement parameter cap.
const maxPlaceholders = 60000

// Config holds MySQL repository configuration.
type Config struct {
	// DSN uses the driver format, e.g. "user:pass@tcp(localhost:3306)/db".
	DSN     string
	Table   string
	Columns []string
}

// Repository is a MySQL-backed storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository validates the DSN, opens and pings the database.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	conn, err := mysql.NewConnector(dc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom inserts rows with multi-row INSERT statements inside one
// transaction, splitting when a statement would exceed the placeholder cap.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	perStmt := max(1, maxPlaceholders/len(columns))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	var total int64
	for start := 0; start < len(rows); start += perStmt {
		end := min(start+perStmt, len(rows))
		query, args, err := insertSQL(r.cfg.Table, columns, rows[start:end])
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

// Exec runs a single statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// insertSQL builds INSERT INTO t (cols) VALUES (?,..),(?,..) and its flat
// argument list.
func insertSQL(tableName string, columns []string, rows [][]any) (string, []any, error) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", storage.QuoteFQN(tableName, quoteIdent), strings.Join(quoted, ","))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("mysql: row %d has %d cells, want %d", i, len(row), len(columns))
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(tuple)
		args = append(args, row...)
	}
	return sb.String(), args, nil
}

// MapType maps a column kind to a MySQL type.
func MapType(k table.Kind) string {
	switch k {
	case table.Int:
		return "BIGINT"
	case table.Float:
		return "DOUBLE"
	case table.Bool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// quoteIdent quotes an identifier with backticks, doubling embedded ones.
func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }
