// Package pipeline runs the named cleaning recipes.
//
// A recipe is an ordered list of transformer steps applied to a private copy
// of the input table. Steps run one after another; the first failing step
// aborts the run and nothing is rolled back, the partially cleaned copy is
// simply dropped. Every step is timed into the metrics backend and logged
// with the run's run_id.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tabclean/internal/datasource"
	"tabclean/internal/metrics"
	pcsv "tabclean/internal/parser/csv"
	"tabclean/internal/refdata"
	"tabclean/internal/table"
	"tabclean/internal/transformer"
	"tabclean/internal/transformer/builtin"
)

// strictNALevel is the new level StrictClean imputes into categoricals.
const strictNALevel = "NA"

// Sink receives a cleaned table.
type Sink interface {
	WriteTable(ctx context.Context, t *table.Table) error
}

// Sinks writes to each sink in order and stops at the first error.
type Sinks []Sink

func (s Sinks) WriteTable(ctx context.Context, t *table.Table) error {
	for _, sink := range s {
		if err := sink.WriteTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Runner executes recipes against injected reference data.
type Runner struct {
	// Ref supplies mappings and exchange rates. Nil tables fall back to the
	// bundled defaults.
	Ref    refdata.Set
	Logger *zap.Logger
	// Job labels logs and metrics; empty means "tabclean".
	Job string
}

// NewRunner returns a Runner over the bundled reference data.
func NewRunner(logger *zap.Logger, job string) *Runner {
	return &Runner{Ref: refdata.Default(), Logger: logger, Job: job}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) job() string {
	if r.Job == "" {
		return "tabclean"
	}
	return r.Job
}

// ref fills nil tables from the bundled defaults.
func (r *Runner) ref() refdata.Set {
	ref := r.Ref
	if ref.Rates != nil && ref.EmploymentTypes != nil && ref.JobTitles != nil && ref.Countries != nil && ref.Regions != nil {
		return ref
	}
	def := refdata.Default()
	if ref.Rates == nil {
		ref.Rates = def.Rates
	}
	if ref.EmploymentTypes == nil {
		ref.EmploymentTypes = def.EmploymentTypes
	}
	if ref.JobTitles == nil {
		ref.JobTitles = def.JobTitles
	}
	if ref.Countries == nil {
		ref.Countries = def.Countries
	}
	if ref.Regions == nil {
		ref.Regions = def.Regions
	}
	return ref
}

// Steps returns the recipe for mode.
func (r *Runner) Steps(mode Mode, opts Options) ([]transformer.Transformer, error) {
	return r.recipe(mode, opts, r.logger())
}

func (r *Runner) recipe(mode Mode, opts Options, log *zap.Logger) ([]transformer.Transformer, error) {
	switch mode {
	case Minimal:
		return minimalSteps(opts), nil
	case LightClean:
		return append(minimalSteps(opts),
			builtin.DeDup{Options: dedupOptions(opts, builtin.KeepFirst)},
			builtin.Imputer{Options: imputeOptions(opts, opts.Numeric, opts.Categorical, opts.Bool, log)},
		), nil
	case StrictClean:
		return strictSteps(opts, log), nil
	case MLReady:
		return append(strictSteps(opts, log), r.mlReadySteps(opts)...), nil
	case CurrencyFocus:
		return append(minimalSteps(opts), builtin.Currency{Options: r.currencyOptions(opts)}), nil
	case NoImpute:
		return append(minimalSteps(opts), builtin.DeDup{Options: dedupOptions(opts, builtin.KeepFirst)}), nil
	default:
		return nil, &UnsupportedPipelineError{Mode: mode.String()}
	}
}

func minimalSteps(opts Options) []transformer.Transformer {
	var steps []transformer.Transformer
	if len(opts.RequiredColumns) > 0 {
		steps = append(steps, builtin.Require{Fields: opts.RequiredColumns})
	}
	return append(steps, builtin.Names{}, builtin.EnforceStep{Options: opts.Types})
}

func strictSteps(opts Options, log *zap.Logger) []transformer.Transformer {
	return append(minimalSteps(opts),
		builtin.DeDup{Options: dedupOptions(opts, builtin.DropAll)},
		builtin.Winsorize{Lower: opts.LowerQuantile, Upper: opts.UpperQuantile},
		builtin.Imputer{Options: imputeOptions(opts,
			builtin.Median{}, builtin.NewLevel{Label: strictNALevel}, builtin.Majority{}, log)},
	)
}

// mlReadySteps normalizes each known field whose column exists, then
// converts salaries unless SkipCurrency is set.
func (r *Runner) mlReadySteps(opts Options) []transformer.Transformer {
	ref := r.ref()
	fields := []builtin.NormalizeField{
		builtin.EmploymentType{Mapping: ref.EmploymentTypes},
		builtin.CompanySize{Mode: opts.CompanySizeMode, ExtraLevels: []string{strictNALevel}},
		builtin.RemoteRatio{Allowed: opts.RemoteAllowed},
		builtin.JobTitle{Mapping: ref.JobTitles},
		builtin.CountryCode{Mapping: ref.Countries, RegionColumn: opts.RegionColumn, Regions: ref.Regions},
	}
	var steps []transformer.Transformer
	for _, f := range fields {
		steps = append(steps, transformer.When{
			Cond:  transformer.HasColumn(builtin.TargetColumn(f)),
			Inner: builtin.Normalizer{Field: f},
		})
	}
	if !opts.SkipCurrency {
		steps = append(steps, builtin.Currency{Options: r.currencyOptions(opts)})
	}
	return steps
}

func dedupOptions(opts Options, def builtin.DedupMode) builtin.DedupOptions {
	d := opts.Dedup
	if d.Mode == 0 {
		d.Mode = def
	}
	return d
}

func imputeOptions(opts Options, num builtin.NumericMethod, cat builtin.CategoricalMethod, b builtin.BoolMethod, log *zap.Logger) builtin.ImputeOptions {
	return builtin.ImputeOptions{
		Columns:     opts.ImputeColumns,
		Exclude:     opts.ImputeExclude,
		Numeric:     num,
		Categorical: cat,
		Bool:        b,
		Verbose:     opts.Verbose,
		Logger:      log,
	}
}

func (r *Runner) currencyOptions(opts Options) builtin.CurrencyOptions {
	c := opts.Currency
	if c.Rates == nil {
		c.Rates = r.ref().Rates
	}
	return c
}

// Run applies the recipe for mode to a copy of t and returns the copy. t is
// never modified.
func (r *Runner) Run(ctx context.Context, t *table.Table, mode Mode, opts Options) (*table.Table, error) {
	log := r.logger().With(
		zap.String("run_id", uuid.NewString()),
		zap.String("job", r.job()),
		zap.Stringer("mode", mode),
	)
	steps, err := r.recipe(mode, opts, log)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	start := time.Now()
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.applyStep(out, s, log); err != nil {
			return nil, err
		}
	}
	metrics.RecordRows(r.job(), "output", int64(out.NumRows()))
	log.Info("pipeline finished",
		zap.Int("rows_in", t.NumRows()),
		zap.Int("rows_out", out.NumRows()),
		zap.Int("columns", out.NumCols()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (r *Runner) applyStep(t *table.Table, s transformer.Transformer, log *zap.Logger) error {
	before := t.NumRows()
	start := time.Now()
	err := s.Apply(t)
	elapsed := time.Since(start)
	metrics.RecordStep(r.job(), s.Name(), err, elapsed)
	if err != nil {
		log.Error("step failed", zap.String("step", s.Name()), zap.Error(err))
		return fmt.Errorf("step %s: %w", s.Name(), err)
	}
	if dropped := before - t.NumRows(); dropped > 0 {
		metrics.RecordRows(r.job(), "dropped", int64(dropped))
	}
	log.Debug("step done",
		zap.String("step", s.Name()),
		zap.Int("rows", t.NumRows()),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// RunSource loads src as CSV with opts.Input and runs mode on the result.
func (r *Runner) RunSource(ctx context.Context, src datasource.Source, mode Mode, opts Options) (*table.Table, error) {
	t, err := pcsv.LoadSource(ctx, src, opts.Input)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	metrics.RecordRows(r.job(), "loaded", int64(t.NumRows()))
	return r.Run(ctx, t, mode, opts)
}

// Export loads src, runs mode and writes the result to dst. Load, run and
// write failures all come back as errors; on a write failure the cleaned
// table is not returned.
func (r *Runner) Export(ctx context.Context, src datasource.Source, mode Mode, dst Sink, opts Options) (*table.Table, error) {
	if dst == nil {
		return nil, errors.New("export: nil sink")
	}
	out, err := r.RunSource(ctx, src, mode, opts)
	if err != nil {
		return nil, err
	}
	if err := dst.WriteTable(ctx, out); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	metrics.RecordRows(r.job(), "exported", int64(out.NumRows()))
	return out, nil
}
