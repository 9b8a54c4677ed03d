package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	pcsv "tabclean/internal/parser/csv"
	"tabclean/internal/pipeline"
	"tabclean/internal/schema"
	"tabclean/internal/transformer/builtin"
)

type indexData struct {
	Modes   []string
	Default string
}

func modeNames() []string {
	modes := pipeline.Modes()
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = m.String()
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, indexData{Modes: modeNames(), Default: pipeline.LightClean.String()}); err != nil {
		s.log.Error("template error", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"modes":   modeNames(),
		"default": pipeline.LightClean.String(),
	})
}

// handleClean loads the uploaded CSV, runs the requested pipeline and
// streams back the cleaned table as CSV. Nothing is written to the response
// until the whole run has succeeded.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.MaxBodyBytes {
		s.respondError(w, r, &http.MaxBytesError{Limit: s.cfg.MaxBodyBytes})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	body, err := s.uploadBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer body.Close()

	mode, err := pipeline.ParseMode(r.FormValue("mode"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	comma, err := pcsv.DecodeDelimiter(r.FormValue("delimiter"))
	if err != nil {
		s.respondError(w, r, badRequest{err})
		return
	}
	opts := s.cfg.Options
	opts.Input.Comma = comma

	t, err := pcsv.Load(body, opts.Input)
	if err != nil {
		s.respondError(w, r, badRequest{err})
		return
	}
	out, err := s.cfg.Runner.Run(r.Context(), t, mode, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	sink := pcsv.StreamSink{W: &buf, Options: pcsv.Options{Comma: comma}}
	if err := sink.WriteTable(r.Context(), out); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="cleaned.csv"`)
	w.Header().Set("X-Tabclean-Mode", mode.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// uploadBody returns the CSV payload: the "file" part of a multipart form,
// or the raw request body otherwise.
func (s *Server) uploadBody(r *http.Request) (io.ReadCloser, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "multipart/form-data" {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(s.cfg.MaxBodyBytes); err != nil {
		if errors.As(err, new(*http.MaxBytesError)) {
			return nil, err
		}
		return nil, badRequest{err}
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest{err}
	}
	return f, nil
}

// badRequest marks an error caused by the client's input.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		tooBig  *http.MaxBytesError
		bad     badRequest
		mode    *pipeline.UnsupportedPipelineError
		schemaE *schema.SchemaError
		missing *builtin.ColumnNotFoundError
		strat   *builtin.UnsupportedModeError
		norm    *builtin.UnsupportedNormalizationError
	)
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.As(err, &bad),
		errors.As(err, &mode),
		errors.As(err, &schemaE),
		errors.As(err, &missing),
		errors.As(err, &strat),
		errors.As(err, &norm),
		errors.Is(err, builtin.ErrUnknownLevel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	s.log.Warn("request error",
		zap.String("path", r.URL.Path),
		zap.Int("status", code),
		zap.Error(err),
	)
	writeJSON(w, code, errorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
