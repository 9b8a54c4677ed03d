package config

import (
	"fmt"
	"slices"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single lint finding. Path is a dotted path into the job
// file (e.g. "storage.db.table", "options.lower_quantile").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// KnownModes lists the accepted pipeline mode spellings.
var KnownModes = []string{"minimal", "light_clean", "strict_clean", "ml_ready", "currency_focus", "no_impute"}

// KnownStorageKinds lists the storage kinds with a bundled backend.
var KnownStorageKinds = []string{"sqlite", "postgres", "mssql", "mysql"}

// ValidatePipeline lints p without modifying it. Callers decide whether
// warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics for the run",
		})
	}
	issues = append(issues, validateMode(p.Mode)...)
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateOptions(p.Options)...)
	issues = append(issues, validateSinks(p.Output, p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateMode(mode string) []Issue {
	m := strings.ToLower(strings.TrimSpace(mode))
	if m == "" {
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "mode",
			Message:  "mode is empty; defaulting to light_clean",
		}}
	}
	if !slices.Contains(KnownModes, m) {
		return []Issue{{
			Severity: SeverityError,
			Path:     "mode",
			Message:  fmt.Sprintf("unknown mode %q; expected one of %s", mode, strings.Join(KnownModes, ", ")),
		}}
	}
	return nil
}

func validateSource(s Source) []Issue {
	if strings.TrimSpace(s.Kind) == "" {
		return []Issue{{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		}}
	}
	var issues []Issue
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		u := strings.TrimSpace(s.HTTP.URL)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  fmt.Sprintf("http source requires an http(s) url, got %q", s.HTTP.URL),
			})
		}
		if s.HTTP.InsecureSkipVerify {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.http.insecure_skip_verify",
				Message:  "TLS verification is disabled for the http source",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q", s.Kind),
		})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	kind := strings.TrimSpace(p.Kind)
	if kind != "" && kind != "csv" {
		return []Issue{{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q; only csv is available", p.Kind),
		}}
	}
	if c := p.Options.String("comma", ","); len([]rune(c)) != 1 {
		return []Issue{{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", c),
		}}
	}
	return nil
}

func validateOptions(o Options) []Issue {
	var issues []Issue
	lo := o.Float("lower_quantile", 0.05)
	hi := o.Float("upper_quantile", 0.95)
	if lo < 0 || hi > 1 || lo > hi {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "options.lower_quantile",
			Message:  fmt.Sprintf("quantiles must satisfy 0 <= lower <= upper <= 1, got [%v, %v]", lo, hi),
		})
	}
	if t := o.Float("num_threshold", 0.9); t <= 0 || t > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "options.num_threshold",
			Message:  fmt.Sprintf("num_threshold must be in (0, 1], got %v", t),
		})
	}
	if n := o.Int("max_factor_levels", 20); n < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "options.max_factor_levels",
			Message:  "max_factor_levels must not be negative",
		})
	}
	for _, r := range o.IntSlice("protected_rows") {
		if r < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "options.protected_rows",
				Message:  "protected_rows are 0-based and must not be negative",
			})
			break
		}
	}
	return issues
}

func validateSinks(out Output, s Storage) []Issue {
	var issues []Issue
	if strings.TrimSpace(out.Path) == "" && strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "output.path",
			Message:  "no output.path or storage configured; cleaned rows go to stdout",
		})
	}
	if out.Comma != "" && len([]rune(out.Comma)) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", out.Comma),
		})
	}
	if strings.TrimSpace(s.Kind) == "" {
		return issues
	}
	if !slices.Contains(KnownStorageKinds, s.Kind) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage.db.table must not be empty",
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	if r.BatchSize < 0 {
		return []Issue{{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		}}
	}
	return nil
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
		return nil
	case "pushgateway":
		if m.PushgatewayURL == "" {
			return []Issue{{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend without URL; http://localhost:9091 is assumed",
			}}
		}
	case "datadog":
		if m.DogStatsDAddr == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "metrics.dogstatsd_addr",
				Message:  "datadog backend requires dogstatsd_addr",
			}}
		}
	default:
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics disabled", m.Backend),
		}}
	}
	return nil
}
