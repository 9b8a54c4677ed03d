package table

import (
	"slices"
	"sort"
)

// Column is a named sequence of cells of one Kind. Levels and Ordered are
// only meaningful for Categorical columns.
type Column struct {
	Name    string
	Kind    Kind
	Values  []any
	Levels  []string
	Ordered bool
}

// NewText builds a Text column; nil entries are missing.
func NewText(name string, vals ...any) *Column {
	return &Column{Name: name, Kind: Text, Values: vals}
}

// NewInt builds an Int column. Plain ints are widened to int64.
func NewInt(name string, vals ...any) *Column {
	for i, v := range vals {
		if n, ok := v.(int); ok {
			vals[i] = int64(n)
		}
	}
	return &Column{Name: name, Kind: Int, Values: vals}
}

// NewFloat builds a Float column. Plain ints are widened to float64.
func NewFloat(name string, vals ...any) *Column {
	for i, v := range vals {
		if n, ok := v.(int); ok {
			vals[i] = float64(n)
		}
	}
	return &Column{Name: name, Kind: Float, Values: vals}
}

// NewBool builds a Bool column.
func NewBool(name string, vals ...any) *Column {
	return &Column{Name: name, Kind: Bool, Values: vals}
}

// NewCategorical builds an unordered Categorical column whose levels are the
// sorted distinct non-missing values.
func NewCategorical(name string, vals ...any) *Column {
	c := &Column{Name: name, Kind: Categorical, Values: vals}
	c.RebuildLevels()
	return c
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// MissingCount returns the number of nil cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// HasMissing reports whether any cell is nil.
func (c *Column) HasMissing() bool {
	return slices.Contains(c.Values, nil)
}

// Clone returns a deep copy of c.
func (c *Column) Clone() *Column {
	out := *c
	out.Values = slices.Clone(c.Values)
	out.Levels = slices.Clone(c.Levels)
	return &out
}

// HasLevel reports whether s is a declared level.
func (c *Column) HasLevel(s string) bool {
	return slices.Contains(c.Levels, s)
}

// AddLevel appends s to the level set if absent.
func (c *Column) AddLevel(s string) {
	if !c.HasLevel(s) {
		c.Levels = append(c.Levels, s)
	}
}

// SetLevels replaces the level set.
func (c *Column) SetLevels(levels []string, ordered bool) {
	c.Levels = slices.Clone(levels)
	c.Ordered = ordered
}

// RebuildLevels resets the levels to the sorted distinct non-missing string
// values and clears Ordered.
func (c *Column) RebuildLevels() {
	seen := make(map[string]struct{})
	levels := make([]string, 0)
	for _, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		levels = append(levels, s)
	}
	sort.Strings(levels)
	c.Levels = levels
	c.Ordered = false
}
