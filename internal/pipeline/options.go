package pipeline

import (
	"fmt"

	"github.com/spf13/cast"

	"tabclean/internal/config"
	pcsv "tabclean/internal/parser/csv"
	"tabclean/internal/transformer/builtin"
)

// Options tunes a run. Zero values select each recipe's defaults.
type Options struct {
	// RequiredColumns adds a strict schema check on the raw column names.
	RequiredColumns []string

	// Types tunes type enforcement; zero means 0.9 / 20.
	Types builtin.TypeOptions

	// Dedup configures deduplication. A zero Mode means KeepFirst for
	// LightClean and NoImpute and DropAll for StrictClean and MLReady.
	Dedup builtin.DedupOptions

	// Imputation methods for LightClean; nil means Median / Mode / Majority.
	// StrictClean and MLReady ignore them.
	Numeric     builtin.NumericMethod
	Categorical builtin.CategoricalMethod
	Bool        builtin.BoolMethod

	ImputeColumns []string
	ImputeExclude []string

	// Winsorizing quantiles; both zero means 0.05 / 0.95.
	LowerQuantile float64
	UpperQuantile float64

	// MLReady field normalizer settings.
	CompanySizeMode builtin.NormalMode
	RemoteAllowed   []float64
	RegionColumn    string

	// Currency columns; Rates nil means the runner's reference rates.
	Currency builtin.CurrencyOptions
	// SkipCurrency drops USD conversion from MLReady.
	SkipCurrency bool

	// Input configures CSV loading for RunSource and Export.
	Input pcsv.Options

	// Verbose logs a line per imputed column.
	Verbose bool
}

// OptionsFromConfig decodes a job file options bag.
//
// Recognized keys: required_columns, num_threshold, max_factor_levels,
// dedup_mode, dedup_by, protected_rows, protected_column, protected_values,
// numeric_method, numeric_value, categorical_method, categorical_value,
// bool_method, impute_columns, impute_exclude, lower_quantile,
// upper_quantile, company_size_mode, remote_allowed, region_column,
// salary_column, currency_column, year_column, usd_column, do_currency,
// skip_currency and verbose.
func OptionsFromConfig(o config.Options) (Options, error) {
	def := builtin.DefaultTypeOptions()
	out := Options{
		RequiredColumns: o.StringSlice("required_columns"),
		Types: builtin.TypeOptions{
			NumThreshold:    o.Float("num_threshold", def.NumThreshold),
			MaxFactorLevels: o.Int("max_factor_levels", def.MaxFactorLevels),
		},
		Dedup: builtin.DedupOptions{
			By:              o.StringSlice("dedup_by"),
			ProtectedRows:   o.IntSlice("protected_rows"),
			ProtectedColumn: o.String("protected_column", ""),
		},
		ImputeColumns: o.StringSlice("impute_columns"),
		ImputeExclude: o.StringSlice("impute_exclude"),
		LowerQuantile: o.Float("lower_quantile", 0),
		UpperQuantile: o.Float("upper_quantile", 0),
		RemoteAllowed: o.FloatSlice("remote_allowed"),
		RegionColumn:  o.String("region_column", ""),
		Currency: builtin.CurrencyOptions{
			SalaryColumn:   o.String("salary_column", ""),
			CurrencyColumn: o.String("currency_column", ""),
			YearColumn:     o.String("year_column", ""),
			USDColumn:      o.String("usd_column", ""),
		},
		SkipCurrency: o.Bool("skip_currency", !o.Bool("do_currency", true)),
		Verbose:      o.Bool("verbose", false),
	}
	if out.LowerQuantile != 0 || out.UpperQuantile != 0 {
		if !o.Has("lower_quantile") {
			out.LowerQuantile = builtin.DefaultLowerQuantile
		}
		if !o.Has("upper_quantile") {
			out.UpperQuantile = builtin.DefaultUpperQuantile
		}
	}

	if v := o.Any("protected_values"); v != nil {
		vals, err := cast.ToSliceE(v)
		if err != nil {
			vals = []any{v}
		}
		out.Dedup.ProtectedValues = vals
	}

	var err error
	if s := o.String("dedup_mode", ""); s != "" {
		if out.Dedup.Mode, err = builtin.ParseDedupMode(s); err != nil {
			return Options{}, fmt.Errorf("options.dedup_mode: %w", err)
		}
	}
	if o.Has("numeric_method") {
		out.Numeric, err = builtin.ParseNumericMethod(o.String("numeric_method", ""), o.Float("numeric_value", 0))
		if err != nil {
			return Options{}, fmt.Errorf("options.numeric_method: %w", err)
		}
	}
	if o.Has("categorical_method") {
		out.Categorical, err = builtin.ParseCategoricalMethod(o.String("categorical_method", ""), cast.ToString(o.Any("categorical_value")))
		if err != nil {
			return Options{}, fmt.Errorf("options.categorical_method: %w", err)
		}
	}
	switch s := o.String("bool_method", ""); s {
	case "", "majority":
	default:
		return Options{}, fmt.Errorf("options.bool_method: %w", &builtin.UnsupportedModeError{Op: "impute", Mode: s})
	}
	if out.CompanySizeMode, err = builtin.ParseNormalMode(o.String("company_size_mode", "")); err != nil {
		return Options{}, fmt.Errorf("options.company_size_mode: %w", err)
	}
	return out, nil
}
