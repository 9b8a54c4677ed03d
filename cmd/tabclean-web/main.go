// Command tabclean-web serves the upload form and the /api/clean endpoint.
//
// Usage:
//
//	tabclean-web -addr :8080
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tabclean/internal/config"
	"tabclean/internal/logging"
	"tabclean/internal/pipeline"
	"tabclean/internal/webui"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	envFile := flag.String("env", ".env", "dotenv file; missing is fine")
	maxBody := flag.Int64("max-body", webui.DefaultMaxBodyBytes, "maximum upload size in bytes")
	optsPath := flag.String("options", "", "job file whose options apply to every request")
	logLevel := flag.String("log-level", "info", "log level")
	logFormat := flag.String("log-format", "console", "log format: console or json")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("load " + *envFile + ": " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logging.Setup(*logLevel, *logFormat)
	defer func() { _ = log.Sync() }()

	var opts pipeline.Options
	if *optsPath != "" {
		p, err := config.Load(*optsPath)
		if err != nil {
			log.Fatal("load options", zap.Error(err))
		}
		if opts, err = pipeline.OptionsFromConfig(p.Options); err != nil {
			log.Fatal("decode options", zap.Error(err))
		}
	}

	srv := webui.NewServer(webui.Config{
		Addr:         *addr,
		MaxBodyBytes: *maxBody,
		Options:      opts,
		Runner:       pipeline.NewRunner(log, "tabclean-web"),
		Logger:       log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server", zap.Error(err))
	}
}
