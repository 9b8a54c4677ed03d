package builtin

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"tabclean/internal/refdata"
	"tabclean/internal/table"
	"tabclean/internal/transformer"
)

// CurrencyOptions configures ConvertToUSDInPlace. Empty fields take the
// defaults salary, salary_currency, work_year, salary_in_usd and the bundled
// rate table.
type CurrencyOptions struct {
	Mode           CurrencyMode
	SalaryColumn   string
	CurrencyColumn string
	YearColumn     string
	USDColumn      string
	Rates          refdata.Rates
}

func (o CurrencyOptions) withDefaults() CurrencyOptions {
	if o.SalaryColumn == "" {
		o.SalaryColumn = "salary"
	}
	if o.CurrencyColumn == "" {
		o.CurrencyColumn = "salary_currency"
	}
	if o.YearColumn == "" {
		o.YearColumn = "work_year"
	}
	if o.USDColumn == "" {
		o.USDColumn = "salary_in_usd"
	}
	if o.Rates == nil {
		o.Rates = refdata.DefaultRates()
	}
	return o
}

// ConvertToUSD returns a copy of t with the USD column added.
func ConvertToUSD(t *table.Table, opts CurrencyOptions) (*table.Table, error) {
	return transformer.WithCopy(t, func(cp *table.Table) error {
		return ConvertToUSDInPlace(cp, opts)
	})
}

// ConvertToUSDInPlace adds (or overwrites) the USD column as salary times the
// rate for the row's (year, currency). A row with a missing input, a year
// that is not a whole number, or no matching rate gets a missing result.
func ConvertToUSDInPlace(t *table.Table, opts CurrencyOptions) error {
	if opts.Mode != UseExchangeRates {
		return &UnsupportedModeError{Op: "convert_to_usd", Mode: opts.Mode.String()}
	}
	opts = opts.withDefaults()

	var cols [3]*table.Column
	for i, name := range []string{opts.SalaryColumn, opts.CurrencyColumn, opts.YearColumn} {
		c, ok := t.Column(name)
		if !ok {
			return &ColumnNotFoundError{Column: table.Key(name), Op: "convert_to_usd"}
		}
		cols[i] = c
	}
	salary, currency, year := cols[0], cols[1], cols[2]

	out := make([]any, t.NumRows())
	for i := range out {
		amount, ok := decimalCell(salary.Values[i])
		if !ok {
			continue
		}
		if currency.Values[i] == nil || year.Values[i] == nil {
			continue
		}
		y, ok := yearCell(year.Values[i])
		if !ok {
			continue
		}
		rate, ok := opts.Rates.Lookup(y, cast.ToString(currency.Values[i]))
		if !ok {
			continue
		}
		out[i] = amount.Mul(rate).InexactFloat64()
	}
	return t.SetColumn(table.NewFloat(opts.USDColumn, out...))
}

// Currency is the pipeline step form of ConvertToUSDInPlace.
type Currency struct {
	Options CurrencyOptions
}

func (Currency) Name() string { return "convert_to_usd" }

func (c Currency) Apply(t *table.Table) error { return ConvertToUSDInPlace(t, c.Options) }

// yearCell accepts only exactly integral years. A winsorized 2023.8 is not
// 2023.
func yearCell(v any) (int, bool) {
	switch v := v.(type) {
	case int64:
		return int(v), true
	case int:
		return v, true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	case string:
		y, err := strconv.Atoi(strings.TrimSpace(v))
		return y, err == nil
	}
	return 0, false
}

func decimalCell(v any) (decimal.Decimal, bool) {
	switch v := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case int64:
		return decimal.NewFromInt(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	default:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(f), true
	}
}
