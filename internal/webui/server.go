// Package webui exposes the cleaning pipelines over HTTP.
//
// Routes:
//
//	GET  /           → upload form
//	POST /api/clean  → CSV in (raw body or multipart "file"), cleaned CSV out
//	GET  /api/modes  → pipeline names as JSON
//	GET  /healthz    → liveness probe
package webui

import (
	"context"
	_ "embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tabclean/internal/pipeline"
)

// DefaultMaxBodyBytes caps uploads when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 32 << 20

// Config controls server startup.
type Config struct {
	Addr string
	// MaxBodyBytes caps the request body; larger uploads get 413.
	MaxBodyBytes int64
	// RequestTimeout bounds a single request; zero means 60s.
	RequestTimeout time.Duration
	// Options are the base run options. The delimiter query parameter
	// overrides Options.Input.Comma per request.
	Options pipeline.Options
	Runner  *pipeline.Runner
	Logger  *zap.Logger
}

// Server wraps http.Server around a chi router.
type Server struct {
	cfg    Config
	router *chi.Mux
	tmpl   *template.Template
	log    *zap.Logger
	server *http.Server
}

// NewServer constructs a Server with routes and the embedded template.
func NewServer(cfg Config) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(cfg.Logger, "tabclean-web")
	}
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		tmpl:   template.Must(template.New("index").Parse(indexHTML)),
		log:    cfg.Logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/modes", s.handleModes)
		r.Post("/clean", s.handleClean)
	})
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe starts the HTTP server on cfg.Addr.
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.log.Info("listening", zap.String("addr", s.cfg.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// requestLogger logs one line per request with status, size and latency.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

//go:embed index.tmpl.html
var indexHTML string
