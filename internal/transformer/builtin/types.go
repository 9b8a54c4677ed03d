package builtin

import (
	"math"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"tabclean/internal/table"
)

// TypeOptions tunes EnforceTypes.
type TypeOptions struct {
	// NumThreshold is the minimum share of parsable values for a text column
	// to become numeric.
	NumThreshold float64
	// MaxFactorLevels is the largest distinct-value count that still becomes
	// categorical.
	MaxFactorLevels int
}

// DefaultTypeOptions returns the 0.9 / 20 thresholds.
func DefaultTypeOptions() TypeOptions {
	return TypeOptions{NumThreshold: 0.9, MaxFactorLevels: 20}
}

// EnforceTypes returns a copy of t in which every Text column has been
// re-typed from its contents. Non-text columns are copied unchanged.
//
// For a text column, cells are trimmed and blank cells become missing. If at
// least NumThreshold of the remaining values parse as numbers the column
// becomes Int (all integral) or Float, with unparsable cells missing.
// Otherwise a column with at most MaxFactorLevels distinct values becomes an
// unordered Categorical with sorted levels, and anything wider stays Text.
//
// Bool is never inferred: "true"/"false" text becomes Categorical. Bool
// columns come only from callers that build them, and are left as they are.
func EnforceTypes(t *table.Table, opts TypeOptions) *table.Table {
	out := t.Clone()
	cols := out.Columns()

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, c := range cols {
		if c.Kind != table.Text {
			continue
		}
		g.Go(func() error {
			enforceColumn(c, opts)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// EnforceStep is the pipeline step form of EnforceTypes. It swaps the
// enforced columns into the table it is applied to.
type EnforceStep struct {
	Options TypeOptions
}

func (EnforceStep) Name() string { return "enforce_types" }

func (s EnforceStep) Apply(t *table.Table) error {
	opts := s.Options
	if opts == (TypeOptions{}) {
		opts = DefaultTypeOptions()
	}
	for _, c := range EnforceTypes(t, opts).Columns() {
		if err := t.SetColumn(c); err != nil {
			return err
		}
	}
	return nil
}

func enforceColumn(c *table.Column, opts TypeOptions) {
	cleaned := make([]any, len(c.Values))
	valid := 0
	for i, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		cleaned[i] = s
		valid++
	}
	if valid == 0 {
		return
	}

	parsed := make([]any, len(cleaned))
	nparsed := 0
	integral := true
	for i, v := range cleaned {
		if v == nil {
			continue
		}
		f, ok := parseNumber(v.(string))
		if !ok {
			continue
		}
		nparsed++
		parsed[i] = f
		if f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
			integral = false
		}
	}

	if float64(nparsed)/float64(valid) >= opts.NumThreshold {
		if integral {
			for i, v := range parsed {
				if v != nil {
					parsed[i] = toInt64(cleaned[i].(string), v.(float64))
				}
			}
			c.Kind = table.Int
		} else {
			c.Kind = table.Float
		}
		c.Values = parsed
		c.Levels, c.Ordered = nil, false
		return
	}

	c.Values = cleaned
	distinct := make(map[string]struct{}, opts.MaxFactorLevels+1)
	for _, v := range cleaned {
		if v == nil {
			continue
		}
		distinct[v.(string)] = struct{}{}
		if len(distinct) > opts.MaxFactorLevels {
			return
		}
	}
	c.Kind = table.Categorical
	c.RebuildLevels()
}

// parseNumber accepts finite decimal and scientific notation.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInt64 prefers an exact integer parse so large IDs keep full precision.
func toInt64(s string, f float64) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return int64(f)
}
