// Command tabclean runs a cleaning pipeline over a CSV file or URL and writes
// the cleaned table to CSV and, optionally, a database table.
//
// Usage:
//
//	tabclean -config jobs/salaries.json
//	tabclean -in data/salaries.csv -mode ml_ready -out out/clean.csv
//	tabclean -config jobs/salaries.json -list inputs.txt -out-dir out/
//	tabclean -probe -in data/salaries.csv -backend sqlite > jobs/salaries.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tabclean/internal/config"
	"tabclean/internal/logging"

	// register all backends with the storage factory.
	_ "tabclean/internal/storage/all"
)

func main() {
	var (
		cfgPath     string
		envFile     string
		in          string
		out         string
		mode        string
		delimiter   string
		listPath    string
		outDir      string
		concurrency int
		metricsFlg  string
		pushURLFlg  string
		logLevel    string
		logFormat   string
		validate    bool
		probeFlg    bool
		probeBytes  int
		backend     string
	)
	flag.StringVar(&cfgPath, "config", "", "job file (JSON); when empty the job is built from -in/-mode/-out")
	flag.StringVar(&envFile, "env", ".env", "dotenv file loaded before reading the environment; missing is fine")
	flag.StringVar(&in, "in", "", "input CSV path or http(s) URL for ad-hoc runs")
	flag.StringVar(&out, "out", "-", "output CSV path for ad-hoc runs; - writes to stdout")
	flag.StringVar(&mode, "mode", "", "pipeline mode; overrides the job file")
	flag.StringVar(&delimiter, "delimiter", "", "input/output delimiter for ad-hoc runs (e.g. ',', ';', tab)")
	flag.StringVar(&listPath, "list", "", "file listing one input per line; each is cleaned with the job settings")
	flag.StringVar(&outDir, "out-dir", "out", "output directory for -list runs")
	flag.IntVar(&concurrency, "concurrency", 2, "parallel inputs for -list runs")
	flag.StringVar(&metricsFlg, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides job file and env)")
	flag.StringVar(&pushURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides job file and env)")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&logFormat, "log-format", "console", "log format: console or json")
	flag.BoolVar(&validate, "validate", false, "validate the job and exit")
	flag.BoolVar(&probeFlg, "probe", false, "sample -in, report inferred columns and draft a job file as JSON")
	flag.IntVar(&probeBytes, "probe-bytes", 0, "bytes sampled by -probe (default 64KiB)")
	flag.StringVar(&backend, "backend", "", "storage kind added to the drafted job (-probe only)")
	flag.Parse()

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fatalf("load %s: %v", envFile, err)
	}

	log := logging.Setup(logLevel, logFormat)
	defer func() { _ = log.Sync() }()

	if probeFlg {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err := runProbe(ctx, in, delimiter, mode, backend, probeBytes, os.Stdout, log)
		stop()
		if err != nil {
			fatalf("probe: %v", err)
		}
		return
	}

	var (
		p   config.Pipeline
		err error
	)
	if cfgPath != "" {
		p, err = config.Load(cfgPath)
		if err != nil {
			fatalf("%v", err)
		}
	} else {
		p, err = adhocPipeline(in, out, delimiter)
		if err != nil {
			fatalf("%v", err)
		}
	}
	if mode != "" {
		p.Mode = mode
	}
	if metricsFlg != "" {
		p.Metrics.Backend = metricsFlg
	}
	if pushURLFlg != "" {
		p.Metrics.PushgatewayURL = pushURLFlg
	}
	config.ApplyEnv(&p, os.Getenv)

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Error("configuration is invalid", zap.String("config", cfgPath))
		os.Exit(1)
	}
	if validate {
		log.Info("configuration is valid", zap.String("config", cfgPath))
		return
	}

	flush, err := setupMetrics(p, log)
	if err != nil {
		log.Warn("metrics disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if listPath != "" {
		err = runList(ctx, p, listPath, outDir, concurrency, log)
	} else {
		err = runJob(ctx, p, log)
	}
	if err != nil {
		log.Error("run failed", zap.String("job", p.Job), zap.Error(err))
		flush()
		os.Exit(1)
	}
	log.Info("completed", zap.String("job", p.Job), zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
