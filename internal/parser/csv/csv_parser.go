// Package csv loads delimited text into a table and writes tables back out.
//
// Loading is deliberately untyped: every column comes back as Text with
// empty fields as missing. Typing is the job of the cleaning pipeline.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"tabclean/internal/config"
	"tabclean/internal/datasource"
	"tabclean/internal/table"
)

// Options configures Load and Write. The zero value reads and writes plain
// comma-separated text.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune

	// LazyQuotes tolerates stray quotes inside unquoted fields.
	LazyQuotes bool

	// TrimSpace trims every field before the empty check.
	TrimSpace bool

	// Replace lists byte sequences rewritten before decoding.
	Replace []Replacement
}

// OptionsFromConfig reads parser options from a job file options bag:
// comma, lazy_quotes, trim_space and replace ([{"from": .., "to": ..}]).
func OptionsFromConfig(o config.Options) (Options, error) {
	out := Options{
		Comma:      o.Rune("comma", ','),
		LazyQuotes: o.Bool("lazy_quotes", false),
		TrimSpace:  o.Bool("trim_space", false),
	}
	if o.Has("replace") {
		var reps []Replacement
		if err := o.Decode("replace", &reps); err != nil {
			return Options{}, fmt.Errorf("parser options: replace: %w", err)
		}
		out.Replace = reps
	}
	return out, nil
}

func (o Options) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}

// ParseError reports a malformed data row. Line is 1-based and counts the
// header.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("csv line %d: %v", e.Line, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads a header row and then every data row from r. All columns are
// Text; empty fields are missing. A row whose width differs from the header
// fails with a *ParseError naming the line.
func Load(r io.Reader, opts Options) (*table.Table, error) {
	cr := csv.NewReader(rewriteAll(r, opts.Replace))
	cr.Comma = opts.comma()
	cr.LazyQuotes = opts.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read csv header: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	names, err := headerNames(stripHeaderBOM(header))
	if err != nil {
		return nil, err
	}

	cols := make([][]any, len(names))
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.Line, Err: pe.Err}
			}
			return nil, &ParseError{Line: line, Err: err}
		}
		if len(rec) != len(names) {
			ln, _ := cr.FieldPos(0)
			return nil, &ParseError{
				Line: ln,
				Err:  fmt.Errorf("expected %d fields, got %d", len(names), len(rec)),
			}
		}
		for i, v := range rec {
			if opts.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				cols[i] = append(cols[i], nil)
				continue
			}
			cols[i] = append(cols[i], strings.Clone(v))
		}
	}

	t, err := table.New()
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		vals := cols[i]
		if vals == nil {
			vals = []any{}
		}
		if err := t.SetColumn(table.NewText(name, vals...)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// LoadSource opens src and loads it with Load.
func LoadSource(ctx context.Context, src datasource.Source, opts Options) (*table.Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Load(rc, opts)
}

// headerNames trims header cells and names blank ones col_N. Repeated names
// are an error; the table model has one column per name.
func headerNames(h []string) ([]string, error) {
	out := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, c := range h {
		name := table.Key(c)
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		if j, ok := seen[name]; ok {
			return nil, fmt.Errorf("csv header: column %q repeated at positions %d and %d", name, j+1, i+1)
		}
		seen[name] = i
		out[i] = name
	}
	return out, nil
}
