package builtin

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/spf13/cast"

	"tabclean/internal/table"
)

// Default winsorizing quantiles.
const (
	DefaultLowerQuantile = 0.05
	DefaultUpperQuantile = 0.95
)

var errNoValues = errors.New("quantile of empty sequence")

// Quantile returns the p-quantile of vals by linear interpolation between
// closest ranks (Hyndman-Fan type 7): with the values sorted ascending and
// h = (n-1)p, the result is x[floor(h)] + (h-floor(h))(x[floor(h)+1]-x[floor(h)]).
func Quantile(vals []float64, p float64) (float64, error) {
	if len(vals) == 0 {
		return 0, errNoValues
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("quantile %v outside [0,1]", p)
	}
	s := slices.Clone(vals)
	sort.Float64s(s)
	return sortedQuantile(s, p), nil
}

func sortedQuantile(s []float64, p float64) float64 {
	h := float64(len(s)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(s)-1 {
		return s[len(s)-1]
	}
	return s[lo] + (h-float64(lo))*(s[lo+1]-s[lo])
}

func checkQuantiles(lower, upper float64) error {
	if lower < 0 || upper > 1 || lower > upper || math.IsNaN(lower) || math.IsNaN(upper) {
		return fmt.Errorf("winsorize: invalid quantiles [%v, %v]", lower, upper)
	}
	return nil
}

func bounds(vals []float64, lower, upper float64) (float64, float64) {
	s := slices.Clone(vals)
	sort.Float64s(s)
	return sortedQuantile(s, lower), sortedQuantile(s, upper)
}

// WinsorizeValues returns a copy of vals with every value clipped into
// [Quantile(lower), Quantile(upper)].
func WinsorizeValues(vals []float64, lower, upper float64) ([]float64, error) {
	if err := checkQuantiles(lower, upper); err != nil {
		return nil, err
	}
	out := slices.Clone(vals)
	if len(vals) == 0 {
		return out, nil
	}
	lo, hi := bounds(vals, lower, upper)
	for i, v := range out {
		out[i] = min(max(v, lo), hi)
	}
	return out, nil
}

// WinsorizeTable clips every Int and Float column of t with more than one
// row. Quantiles are taken over the non-missing cells and missing cells stay
// missing. An Int column remains Int when both bounds are whole numbers and
// becomes Float otherwise.
func WinsorizeTable(t *table.Table, lower, upper float64) error {
	if err := checkQuantiles(lower, upper); err != nil {
		return err
	}
	if t.NumRows() <= 1 {
		return nil
	}
	for _, c := range t.Columns() {
		if c.Kind.Numeric() {
			winsorizeColumn(c, lower, upper)
		}
	}
	return nil
}

func winsorizeColumn(c *table.Column, lower, upper float64) {
	vals := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v != nil {
			vals = append(vals, cast.ToFloat64(v))
		}
	}
	if len(vals) == 0 {
		return
	}
	lo, hi := bounds(vals, lower, upper)

	keepInt := c.Kind == table.Int && lo == math.Trunc(lo) && hi == math.Trunc(hi)
	for i, v := range c.Values {
		if v == nil {
			continue
		}
		x := min(max(cast.ToFloat64(v), lo), hi)
		if keepInt {
			c.Values[i] = int64(x)
		} else {
			c.Values[i] = x
		}
	}
	if !keepInt {
		c.Kind = table.Float
	}
}

// Winsorize is the pipeline step form of WinsorizeTable. A zero value uses
// the default 0.05/0.95 quantiles.
type Winsorize struct {
	Lower, Upper float64
}

func (Winsorize) Name() string { return "winsorize" }

func (w Winsorize) Apply(t *table.Table) error {
	if w.Lower == 0 && w.Upper == 0 {
		w.Lower, w.Upper = DefaultLowerQuantile, DefaultUpperQuantile
	}
	return WinsorizeTable(t, w.Lower, w.Upper)
}
