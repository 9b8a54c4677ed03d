package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tabclean/internal/config"
	"tabclean/internal/datasource"
	"tabclean/internal/datasource/file"
	"tabclean/internal/datasource/httpds"
	"tabclean/internal/metrics"
	"tabclean/internal/metrics/datadog"
	"tabclean/internal/metrics/prompush"
	pcsv "tabclean/internal/parser/csv"
	"tabclean/internal/pipeline"
	"tabclean/internal/probe"
	"tabclean/internal/refdata"
	"tabclean/internal/storage"
)

// adhocPipeline builds a job from command-line flags.
func adhocPipeline(in, out, delimiter string) (config.Pipeline, error) {
	if in == "" {
		return config.Pipeline{}, fmt.Errorf("either -config or -in is required")
	}
	p := config.Pipeline{
		Job:    "adhoc",
		Source: sourceFor(in),
		Parser: config.Parser{Kind: "csv", Options: config.Options{}},
		Output: config.Output{Path: out},
	}
	if delimiter != "" {
		comma, err := pcsv.DecodeDelimiter(delimiter)
		if err != nil {
			return config.Pipeline{}, err
		}
		p.Parser.Options["comma"] = string(comma)
		p.Output.Comma = string(comma)
	}
	return p, nil
}

func sourceFor(in string) config.Source {
	if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
		return config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: in}}
	}
	return config.Source{Kind: "file", File: config.SourceFile{Path: in}}
}

func buildSource(s config.Source, log *zap.Logger) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		client := httpds.NewClient(httpds.Config{
			Timeout:            time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
			Logger:             log,
		})
		return httpds.NewSource(client, s.HTTP.URL), nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%q", s.Kind)
	}
}

// buildSinks returns the CSV sink and the optional storage sink. With neither
// an output path nor storage configured the CSV goes to stdout.
func buildSinks(p config.Pipeline, log *zap.Logger) (pipeline.Sinks, error) {
	comma, err := pcsv.DecodeDelimiter(p.Output.Comma)
	if err != nil {
		return nil, fmt.Errorf("output.comma: %w", err)
	}
	opts := pcsv.Options{Comma: comma}

	var sinks pipeline.Sinks
	switch {
	case p.Output.Path == "-", p.Output.Path == "" && p.Storage.Kind == "":
		sinks = append(sinks, pcsv.StreamSink{W: os.Stdout, Options: opts})
	case p.Output.Path != "":
		sinks = append(sinks, pcsv.FileSink{Path: p.Output.Path, Options: opts})
	}
	if p.Storage.Kind != "" {
		sinks = append(sinks, &storage.Sink{
			Config: storage.Config{
				Kind:  p.Storage.Kind,
				DSN:   p.Storage.DB.DSN,
				Table: p.Storage.DB.Table,
			},
			AutoCreate: p.Storage.DB.AutoCreateTable,
			BatchSize:  p.Runtime.BatchSize,
			Logger:     log,
			Job:        p.Job,
		})
	}
	return sinks, nil
}

func loadRefData(r config.RefData) (refdata.Set, error) {
	ref := refdata.Default()
	if r.RatesPath == "" {
		return ref, nil
	}
	f, err := os.Open(r.RatesPath)
	if err != nil {
		return refdata.Set{}, fmt.Errorf("open rates: %w", err)
	}
	defer f.Close()
	if ref.Rates, err = refdata.LoadRatesCSV(f); err != nil {
		return refdata.Set{}, fmt.Errorf("load rates %s: %w", r.RatesPath, err)
	}
	return ref, nil
}

// runJob loads the source, runs the pipeline and writes every sink.
func runJob(ctx context.Context, p config.Pipeline, log *zap.Logger) error {
	mode, err := pipeline.ParseMode(p.Mode)
	if err != nil {
		return err
	}
	opts, err := pipeline.OptionsFromConfig(p.Options)
	if err != nil {
		return err
	}
	if opts.Input, err = pcsv.OptionsFromConfig(p.Parser.Options); err != nil {
		return fmt.Errorf("parser.options: %w", err)
	}
	src, err := buildSource(p.Source, log)
	if err != nil {
		return err
	}
	sinks, err := buildSinks(p, log)
	if err != nil {
		return err
	}
	ref, err := loadRefData(p.RefData)
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{Ref: ref, Logger: log, Job: p.Job}
	out, err := runner.Export(ctx, src, mode, sinks, opts)
	if err != nil {
		return err
	}
	log.Info("job done",
		zap.String("job", p.Job),
		zap.Stringer("mode", mode),
		zap.Int("rows", out.NumRows()),
		zap.Int("columns", out.NumCols()),
	)
	return nil
}

// runList cleans every input named in listPath with p's settings, writing
// <out-dir>/<name>_clean.csv per input. Inputs run concurrently up to
// concurrency; the first failure cancels the rest.
func runList(ctx context.Context, p config.Pipeline, listPath, outDir string, concurrency int, log *zap.Logger) error {
	inputs, err := file.ReadList(listPath)
	if err != nil {
		return fmt.Errorf("read list: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("list %s has no inputs", listPath)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, concurrency))
	for _, in := range inputs {
		job := p
		job.Source = sourceFor(in)
		job.Output.Path = filepath.Join(outDir, outputName(in))
		g.Go(func() error {
			if err := runJob(gctx, job, log.With(zap.String("input", in))); err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// outputName derives "<base>_clean.csv" from a path or URL.
func outputName(in string) string {
	base := in
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = "input"
	}
	return base + "_clean.csv"
}

// setupMetrics installs the configured backend and returns its flush.
func setupMetrics(p config.Pipeline, log *zap.Logger) (func(), error) {
	nop := func() {}
	flush := func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", zap.Error(err))
		}
	}
	job := p.Job
	if job == "" {
		job = "tabclean"
	}
	switch p.Metrics.Backend {
	case "", "none":
		return nop, nil
	case "pushgateway":
		url := p.Metrics.PushgatewayURL
		if url == "" {
			url = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, url)
		if err != nil {
			return nop, err
		}
		metrics.SetBackend(b)
		log.Info("metrics enabled", zap.String("backend", "pushgateway"), zap.String("url", url))
		return flush, nil
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DogStatsDAddr,
			Namespace:  p.Metrics.Namespace,
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			return nop, err
		}
		metrics.SetBackend(b)
		log.Info("metrics enabled", zap.String("backend", "datadog"), zap.String("addr", p.Metrics.DogStatsDAddr))
		return flush, nil
	default:
		return nop, fmt.Errorf("unknown metrics backend %q", p.Metrics.Backend)
	}
}

// runProbe samples in and writes the probe report, drafted job included, to w.
func runProbe(ctx context.Context, in, delimiter, mode, backend string, maxBytes int, w io.Writer, log *zap.Logger) error {
	p, err := adhocPipeline(in, "", delimiter)
	if err != nil {
		return err
	}
	src, err := buildSource(p.Source, log)
	if err != nil {
		return err
	}
	comma := p.Parser.Options.Rune("comma", 0)
	res, err := probe.Probe(ctx, probe.Options{
		Source:    src,
		Location:  in,
		MaxBytes:  maxBytes,
		Delimiter: comma,
		Mode:      mode,
		Backend:   backend,
	})
	if err != nil {
		return err
	}
	log.Debug("probe done", zap.String("in", in), zap.Int("sample_rows", res.SampleRows), zap.String("delimiter", res.Delimiter))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
