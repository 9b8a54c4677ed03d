package builtin

import (
	"math"
	"runtime"
	"slices"
	"sort"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tabclean/internal/table"
	"tabclean/internal/transformer"
)

// ImputeOptions configures ImputeInPlace. Nil methods fall back to Median,
// Mode and Majority.
//
// An Int column stays Int: a Median or Mean fill is rounded half away from
// zero, so the median of {1, 2} fills as 2, not 1.5.
type ImputeOptions struct {
	// Columns restricts imputation; nil means every column.
	Columns []string
	Exclude []string

	Numeric     NumericMethod
	Categorical CategoricalMethod
	Bool        BoolMethod

	// Verbose logs one line per processed column at info level.
	Verbose bool
	Logger  *zap.Logger
}

type imputeResult struct {
	method string
	before int
	after  int
	// handled is false when the column type had nothing to impute.
	handled bool
}

// Impute returns an imputed copy of t.
func Impute(t *table.Table, opts ImputeOptions) (*table.Table, error) {
	return transformer.WithCopy(t, func(cp *table.Table) error {
		return ImputeInPlace(cp, opts)
	})
}

// ImputeInPlace fills missing cells of the selected columns. Each column is
// dispatched on its kind: Bool with missing cells uses the bool method,
// numeric with missing cells the numeric method, and Text with missing cells
// or any Categorical the categorical method. Other columns are left alone.
func ImputeInPlace(t *table.Table, opts ImputeOptions) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	num, cat, bl := opts.Numeric, opts.Categorical, opts.Bool
	if num == nil {
		num = Median{}
	}
	if cat == nil {
		cat = Mode{}
	}
	if bl == nil {
		bl = Majority{}
	}

	cols, err := imputeSelection(t, opts.Columns, opts.Exclude)
	if err != nil {
		return err
	}

	results := make([]imputeResult, len(cols))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range cols {
		g.Go(func() error {
			results[i] = imputeColumn(c, num, cat, bl)
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range cols {
		r := results[i]
		if !r.handled {
			log.Debug("impute: column type not handled",
				zap.String("column", c.Name), zap.Stringer("kind", c.Kind))
			continue
		}
		if opts.Verbose {
			log.Info("imputed column",
				zap.String("column", c.Name),
				zap.String("method", r.method),
				zap.Int("missing_before", r.before),
				zap.Int("missing_after", r.after))
		}
	}
	return nil
}

// Imputer is the pipeline step form of ImputeInPlace.
type Imputer struct {
	Options ImputeOptions
}

func (Imputer) Name() string { return "impute" }

func (i Imputer) Apply(t *table.Table) error { return ImputeInPlace(t, i.Options) }

func imputeSelection(t *table.Table, names, exclude []string) ([]*table.Column, error) {
	if names == nil {
		names = t.Names()
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[table.Key(e)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]*table.Column, 0, len(names))
	for _, n := range names {
		k := table.Key(n)
		if _, ok := skip[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		c, ok := t.Column(k)
		if !ok {
			return nil, &ColumnNotFoundError{Column: k, Op: "impute"}
		}
		out = append(out, c)
	}
	return out, nil
}

func imputeColumn(c *table.Column, num NumericMethod, cat CategoricalMethod, bl BoolMethod) imputeResult {
	before := c.MissingCount()
	var method string
	switch {
	case c.Kind == table.Bool && before > 0:
		method = bl.String()
		imputeBool(c, bl)
	case c.Kind.Numeric() && before > 0:
		method = num.String()
		imputeNumeric(c, num)
	case (c.Kind == table.Text && before > 0) || c.Kind == table.Categorical:
		method = cat.String()
		imputeCategorical(c, cat)
	default:
		return imputeResult{}
	}
	return imputeResult{method: method, before: before, after: c.MissingCount(), handled: true}
}

func imputeNumeric(c *table.Column, m NumericMethod) {
	var fill float64
	switch m := m.(type) {
	case Median:
		vals := numericValues(c)
		if len(vals) == 0 {
			return
		}
		fill = median(vals)
	case Mean:
		vals := numericValues(c)
		if len(vals) == 0 {
			return
		}
		fill = mean(vals)
	case NumericConstant:
		fill = m.Value
	default:
		return
	}

	var v any = fill
	if c.Kind == table.Int {
		v = int64(math.Round(fill))
	}
	fillMissing(c, v)
}

func imputeCategorical(c *table.Column, m CategoricalMethod) {
	switch m := m.(type) {
	case Mode:
		if v, ok := modeOf(c); ok {
			fillMissing(c, v)
		}
	case TextConstant:
		if c.Kind == table.Categorical {
			c.AddLevel(m.Value)
		}
		fillMissing(c, m.Value)
	case NewLevel:
		if c.Kind == table.Categorical {
			c.AddLevel(m.Label)
		}
		fillMissing(c, m.Label)
	}
}

func imputeBool(c *table.Column, m BoolMethod) {
	if _, ok := m.(Majority); !ok {
		return
	}
	var t, f int
	for _, v := range c.Values {
		if b, ok := v.(bool); ok {
			if b {
				t++
			} else {
				f++
			}
		}
	}
	if t == 0 && f == 0 {
		return
	}
	fillMissing(c, t >= f)
}

func fillMissing(c *table.Column, v any) {
	for i, cur := range c.Values {
		if cur == nil {
			c.Values[i] = v
		}
	}
}

func numericValues(c *table.Column) []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		if f, err := cast.ToFloat64E(v); err == nil {
			out = append(out, f)
		}
	}
	return out
}

func median(vals []float64) float64 {
	s := slices.Clone(vals)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// modeOf returns the most frequent non-missing value. Leveled columns count
// over their declared levels and break ties by level order; plain text breaks
// ties by first appearance.
func modeOf(c *table.Column) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, seen := counts[s]; !seen {
			order = append(order, s)
		}
		counts[s]++
	}
	if c.Kind == table.Categorical && len(c.Levels) > 0 {
		order = c.Levels
	}

	best, bestN := "", 0
	for _, s := range order {
		if n := counts[s]; n > bestN {
			best, bestN = s, n
		}
	}
	return best, bestN > 0
}
