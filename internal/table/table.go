// Package table is the in-memory tabular model every cleaning step operates
// on: an ordered set of named columns sharing one row count.
//
// Cells are stored as `any` with a per-column Kind:
//
//	Text, Categorical -> string
//	Int               -> int64
//	Float             -> float64
//	Bool              -> bool
//
// A nil cell is the missing marker. It is never silently turned into "" or 0;
// only an explicit imputation step may replace it.
package table

import (
	"fmt"
	"strings"
)

// Kind is the semantic type tag of a column.
type Kind int

const (
	Text Kind = iota
	Int
	Float
	Bool
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Numeric reports whether k is Int or Float.
func (k Kind) Numeric() bool { return k == Int || k == Float }

// Key returns the canonical form of a column name used for lookups.
// Callers may pass names with stray surrounding whitespace (e.g. from a
// config file); they resolve to the same column.
func Key(name string) string { return strings.TrimSpace(name) }

// Table is an ordered collection of equally sized columns.
type Table struct {
	cols  []*Column
	index map[string]int
	nrows int
}

// New builds a table from columns. All columns must have the same length and
// distinct names.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("table: column %d is nil", i)
		}
		if err := t.SetColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the shared row count.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in order. The slice is a copy; the columns are not.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[Key(name)]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Has reports whether a column named name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[Key(name)]
	return ok
}

// SetColumn adds c, or replaces the existing column with the same name while
// keeping its position. The column length must match the table row count
// (an empty table adopts the length of its first column).
func (t *Table) SetColumn(c *Column) error {
	c.Name = Key(c.Name)
	if c.Name == "" {
		return fmt.Errorf("table: column name must not be empty")
	}
	if len(t.cols) == 0 {
		t.nrows = len(c.Values)
	} else if len(c.Values) != t.nrows {
		return fmt.Errorf("table: column %q has %d rows, table has %d", c.Name, len(c.Values), t.nrows)
	}
	if i, ok := t.index[c.Name]; ok {
		t.cols[i] = c
		return nil
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// DropColumn removes the named column. It reports whether a column was removed.
func (t *Table) DropColumn(name string) bool {
	i, ok := t.index[Key(name)]
	if !ok {
		return false
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	t.reindex()
	return true
}

// RenameAll renames every column through fn. When two columns map to the
// same name the later column wins and takes the earlier column's position.
func (t *Table) RenameAll(fn func(string) string) {
	out := make([]*Column, 0, len(t.cols))
	pos := make(map[string]int, len(t.cols))
	for _, c := range t.cols {
		c.Name = fn(c.Name)
		if i, ok := pos[c.Name]; ok {
			out[i] = c
			continue
		}
		pos[c.Name] = len(out)
		out = append(out, c)
	}
	t.cols = out
	t.reindex()
}

// Filter keeps only the rows at the given indexes, in the given order.
func (t *Table) Filter(keep []int) {
	for _, c := range t.cols {
		vals := make([]any, len(keep))
		for j, i := range keep {
			vals[j] = c.Values[i]
		}
		c.Values = vals
	}
	t.nrows = len(keep)
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []any {
	out := make([]any, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Values[i]
	}
	return out
}

// Clone returns a deep copy that shares no column storage with t.
func (t *Table) Clone() *Table {
	out := &Table{
		cols:  make([]*Column, len(t.cols)),
		index: make(map[string]int, len(t.cols)),
		nrows: t.nrows,
	}
	for i, c := range t.cols {
		out.cols[i] = c.Clone()
		out.index[c.Name] = i
	}
	return out
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.index[c.Name] = i
	}
}
