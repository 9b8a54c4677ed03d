// Package builtin contains the table cleaning steps.
//
// Deduplicate removes repeated rows by a key made of one or more columns:
//
//   - KeepFirst : keep the earliest occurrence of each key
//   - DropAll   : drop every row whose key occurs more than once
//
// Protected rows (by index or by a marker column value) are never removed,
// but their keys still count when judging the other rows. Rows are always
// scanned in table order and kept rows retain their relative order.
//
// Keys: a row's key is the ordered tuple of its cells under By, encoded with
// a type tag per cell (nil -> "\x00") and joined with "\x1f". Encoded keys are
// bucketed by their xxh3 hash; buckets compare the full encoding, so hash
// collisions never merge distinct keys.
package builtin

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"tabclean/internal/bitmap"
	"tabclean/internal/table"
	"tabclean/internal/transformer"
)

// DedupOptions configures Deduplicate.
type DedupOptions struct {
	Mode DedupMode
	// By lists the key columns; empty means every column.
	By []string
	// ProtectedRows are 0-based row indexes that are never removed.
	ProtectedRows []int
	// ProtectedColumn and ProtectedValues mark rows as protected when the
	// row's cell under ProtectedColumn equals one of ProtectedValues.
	ProtectedColumn string
	ProtectedValues []any
}

// Deduplicate returns a deduplicated copy of t.
func Deduplicate(t *table.Table, opts DedupOptions) (*table.Table, error) {
	return transformer.WithCopy(t, func(cp *table.Table) error {
		return DeduplicateInPlace(cp, opts)
	})
}

// DeduplicateInPlace removes duplicate rows from t.
func DeduplicateInPlace(t *table.Table, opts DedupOptions) error {
	mode := opts.Mode
	if mode == 0 {
		mode = KeepFirst
	}
	if mode != KeepFirst && mode != DropAll {
		return &UnsupportedModeError{Op: "deduplicate", Mode: mode.String()}
	}

	keyCols, err := dedupColumns(t, opts.By)
	if err != nil {
		return err
	}
	protected, err := protectedRows(t, opts)
	if err != nil {
		return err
	}

	n := t.NumRows()
	keys := make([]string, n)
	for i := range n {
		keys[i] = keyOf(keyCols, i)
	}

	keep := make([]int, 0, n)
	seen := newKeySet(n)
	switch mode {
	case KeepFirst:
		for i, k := range keys {
			first := seen.add(k) == 1
			if first || protected.Has(i) {
				keep = append(keep, i)
			}
		}
	case DropAll:
		for _, k := range keys {
			seen.add(k)
		}
		for i, k := range keys {
			if protected.Has(i) || seen.count(k) == 1 {
				keep = append(keep, i)
			}
		}
	}

	if len(keep) != n {
		t.Filter(keep)
	}
	return nil
}

// DeDup is the pipeline step form of DeduplicateInPlace.
type DeDup struct {
	Options DedupOptions
}

func (DeDup) Name() string { return "deduplicate" }

func (d DeDup) Apply(t *table.Table) error { return DeduplicateInPlace(t, d.Options) }

func dedupColumns(t *table.Table, by []string) ([]*table.Column, error) {
	if len(by) == 0 {
		return t.Columns(), nil
	}
	cols := make([]*table.Column, 0, len(by))
	for _, name := range by {
		c, ok := t.Column(name)
		if !ok {
			return nil, &ColumnNotFoundError{Column: name, Op: "deduplicate"}
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func protectedRows(t *table.Table, opts DedupOptions) (*bitmap.Bitmap, error) {
	out := bitmap.New(t.NumRows())
	for _, i := range opts.ProtectedRows {
		out.Set(i)
	}
	if opts.ProtectedColumn == "" {
		return out, nil
	}
	c, ok := t.Column(opts.ProtectedColumn)
	if !ok {
		return nil, &ColumnNotFoundError{Column: opts.ProtectedColumn, Op: "deduplicate"}
	}
	marks := make(map[string]struct{}, len(opts.ProtectedValues))
	for _, v := range opts.ProtectedValues {
		marks[markerOf(v)] = struct{}{}
	}
	for i, v := range c.Values {
		if _, hit := marks[markerOf(v)]; hit {
			out.Set(i)
		}
	}
	return out, nil
}

// markerOf compares protected values by printed form, so a config value of
// "1" protects an Int cell holding 1.
func markerOf(v any) string {
	if v == nil {
		return "\x00"
	}
	return fmt.Sprint(v)
}

func keyOf(cols []*table.Column, row int) string {
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		switch v := c.Values[row].(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteByte('s')
			b.WriteString(v)
		case int64:
			b.WriteByte('i')
			b.WriteString(strconv.FormatInt(v, 10))
		case float64:
			if v == 0 {
				v = 0 // -0 == 0
			}
			b.WriteByte('f')
			b.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
		case bool:
			b.WriteByte('b')
			b.WriteString(strconv.FormatBool(v))
		default:
			b.WriteByte('?')
			b.WriteString(fmt.Sprint(v))
		}
	}
	return b.String()
}

type keyEntry struct {
	key   string
	count int
}

// keySet counts encoded keys in xxh3 buckets.
type keySet struct {
	buckets map[uint64][]keyEntry
}

func newKeySet(hint int) *keySet {
	return &keySet{buckets: make(map[uint64][]keyEntry, hint)}
}

// add records one occurrence of k and returns its new count.
func (s *keySet) add(k string) int {
	h := xxh3.HashString(k)
	b := s.buckets[h]
	for i := range b {
		if b[i].key == k {
			b[i].count++
			return b[i].count
		}
	}
	s.buckets[h] = append(b, keyEntry{key: k, count: 1})
	return 1
}

func (s *keySet) count(k string) int {
	for _, e := range s.buckets[xxh3.HashString(k)] {
		if e.key == k {
			return e.count
		}
	}
	return 0
}
