// Package probe samples the head of a CSV source, infers what the cleaning
// pipeline would make of each column and drafts a starter job file.
//
// Only the first MaxBytes are read. The sample is cut at its last newline so
// a half-read record never reaches the parser.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"tabclean/internal/config"
	"tabclean/internal/datasource"
	pcsv "tabclean/internal/parser/csv"
	"tabclean/internal/table"
	"tabclean/internal/transformer/builtin"
)

// DefaultMaxBytes is the sample size when Options.MaxBytes is zero.
const DefaultMaxBytes = 64 << 10

// Options control sampling and the drafted job.
type Options struct {
	Source datasource.Source
	// Location is the path or URL written into the drafted job.
	Location string
	MaxBytes int
	// Delimiter is sniffed from the header line when zero.
	Delimiter rune
	// Name labels the job and output; derived from Location when empty.
	Name string
	// Mode defaults to light_clean.
	Mode string
	// Backend, when set, adds a storage section for that kind.
	Backend string
	Types   builtin.TypeOptions
}

// Column describes one sampled column.
type Column struct {
	Header  string   `json:"header"`
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Missing int      `json:"missing"`
	Levels  []string `json:"levels,omitempty"`
}

// Result is the probe report plus a job file ready to be edited.
type Result struct {
	Delimiter  string          `json:"delimiter"`
	SampleRows int             `json:"sample_rows"`
	Columns    []Column        `json:"columns"`
	Job        config.Pipeline `json:"job"`
}

// ErrEmptySample is returned when the source yields no header line.
var ErrEmptySample = errors.New("probe: empty sample")

// Probe reads a sample from opt.Source and reports the inferred columns.
func Probe(ctx context.Context, opt Options) (Result, error) {
	if opt.Source == nil {
		return Result{}, fmt.Errorf("probe: nil source")
	}
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = DefaultMaxBytes
	}
	if opt.Types == (builtin.TypeOptions{}) {
		opt.Types = builtin.DefaultTypeOptions()
	}

	sample, err := peek(ctx, opt.Source, opt.MaxBytes)
	if err != nil {
		return Result{}, err
	}
	if len(bytes.TrimSpace(sample)) == 0 {
		return Result{}, ErrEmptySample
	}

	comma := opt.Delimiter
	if comma == 0 {
		comma = sniffDelimiter(sample)
	}
	t, err := pcsv.Load(bytes.NewReader(sample), pcsv.Options{Comma: comma, LazyQuotes: true})
	if err != nil {
		return Result{}, fmt.Errorf("parse csv sample: %w", err)
	}
	typed := builtin.EnforceTypes(t, opt.Types)

	res := Result{Delimiter: string(comma), SampleRows: t.NumRows()}
	headers := t.Names()
	for i, c := range typed.Columns() {
		col := Column{
			Header:  headers[i],
			Name:    builtin.StandardizeName(headers[i]),
			Kind:    c.Kind.String(),
			Missing: c.MissingCount(),
		}
		if c.Kind == table.Categorical {
			col.Levels = c.Levels
		}
		res.Columns = append(res.Columns, col)
	}
	res.Job = draftJob(opt, comma, headers)
	return res, nil
}

// peek reads at most n bytes and trims a trailing partial line when the
// limit was hit.
func peek(ctx context.Context, src datasource.Source, n int) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(rc, int64(n))); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	b := buf.Bytes()
	if len(b) == n {
		if i := bytes.LastIndexByte(b, '\n'); i > 0 {
			b = b[:i+1]
		}
	}
	return b, nil
}

var candidates = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the candidate occurring most often outside quotes in
// the header line. Ties go to the earlier candidate; no hit means ','.
func sniffDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	counts := make(map[rune]int, len(candidates))
	quoted := false
	for _, r := range string(line) {
		if r == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[r]++
		}
	}
	best, bestN := ',', 0
	for _, c := range candidates {
		if counts[c] > bestN {
			best, bestN = c, counts[c]
		}
	}
	return best
}

func draftJob(opt Options, comma rune, headers []string) config.Pipeline {
	name := opt.Name
	if name == "" {
		name = nameFromLocation(opt.Location)
	}
	if name == "" {
		name = "input"
	}
	name = builtin.StandardizeName(name)
	mode := opt.Mode
	if mode == "" {
		mode = "light_clean"
	}

	var p config.Pipeline
	p.Job = name
	p.Mode = mode
	if strings.HasPrefix(opt.Location, "http://") || strings.HasPrefix(opt.Location, "https://") {
		p.Source.Kind = "http"
		p.Source.HTTP.URL = opt.Location
		p.Source.HTTP.TimeoutSeconds = 30
	} else {
		p.Source.Kind = "file"
		p.Source.File.Path = opt.Location
	}
	p.Parser.Kind = "csv"
	p.Parser.Options = config.Options{"comma": string(comma)}
	p.Options = config.Options{"required_columns": headers}
	p.Output.Path = name + "_clean.csv"

	if opt.Backend != "" {
		p.Storage.Kind = strings.ToLower(opt.Backend)
		p.Storage.DB.Table = name
		p.Storage.DB.AutoCreateTable = true
		if p.Storage.Kind == "sqlite" {
			p.Storage.DB.DSN = "file:" + name + ".db"
		}
	}
	return p
}

func nameFromLocation(loc string) string {
	if i := strings.IndexAny(loc, "?#"); i >= 0 {
		loc = loc[:i]
	}
	base := path.Base(strings.TrimRight(loc, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
