package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tabclean/internal/table"
)

// ColumnDef is one destination column derived from a table column.
type ColumnDef struct {
	Name string
	Kind table.Kind
}

// TableDef describes the destination table.
type TableDef struct {
	// Name may be schema qualified ("dbo.salaries").
	Name    string
	Columns []ColumnDef
}

// Defs derives a TableDef named name from t's columns.
func Defs(name string, t *table.Table) TableDef {
	td := TableDef{Name: name, Columns: make([]ColumnDef, 0, t.NumCols())}
	for _, c := range t.Columns() {
		td.Columns = append(td.Columns, ColumnDef{Name: c.Name, Kind: c.Kind})
	}
	return td
}

// Dialect renders DDL for one backend.
type Dialect struct {
	// Quote quotes a single identifier segment.
	Quote func(string) string
	// Type maps a column kind to the backend's SQL type.
	Type func(table.Kind) string
	// IfNotExists wraps a bare CREATE TABLE statement so it is a no-op when
	// the table exists. Nil means the statement already uses IF NOT EXISTS.
	IfNotExists func(fqn, create string) string
}

// CreateTableSQL renders a CREATE TABLE statement for td. All columns are
// nullable; missing cells are exported as NULL.
func (d Dialect) CreateTableSQL(td TableDef) (string, error) {
	if strings.TrimSpace(td.Name) == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(td.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	cols := make([]string, 0, len(td.Columns))
	for _, c := range td.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", td.Name)
		}
		cols = append(cols, d.Quote(c.Name)+" "+d.Type(c.Kind))
	}
	fqn := QuoteFQN(td.Name, d.Quote)
	if d.IfNotExists != nil {
		create := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", fqn, strings.Join(cols, ",\n  "))
		return d.IfNotExists(td.Name, create), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", fqn, strings.Join(cols, ",\n  ")), nil
}

var (
	ddlMu       sync.RWMutex
	ddlDialects = map[string]Dialect{}
)

// RegisterDDL registers (or replaces) the dialect for kind. Backends call it
// from init.
func RegisterDDL(kind string, d Dialect) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlDialects[kind] = d
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (Dialect, bool) {
	ddlMu.RLock()
	defer ddlMu.RUnlock()
	d, ok := ddlDialects[kind]
	return d, ok
}

// EnsureTable creates td through repo using the dialect registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, td TableDef) error {
	d, ok := DialectFor(kind)
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	stmt, err := d.CreateTableSQL(td)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", td.Name, err)
	}
	return nil
}
