// Package config defines the JSON job file for tabclean runs.
//
// A job names the input, the pipeline mode and its options, and where the
// cleaned table goes. Decoding uses encoding/json; the free-form options bag
// is read through Options' typed getters.
//
// Example (trimmed):
//
//	{
//	  "job":     "salaries-nightly",
//	  "mode":    "ml_ready",
//	  "source":  { "kind": "file", "file": { "path": "data/salaries.csv" } },
//	  "parser":  { "kind": "csv", "options": { "comma": "," } },
//	  "options": { "required_columns": ["salary"], "company_size_mode": "down_to_up" },
//	  "output":  { "path": "out/salaries_clean.csv" },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "file:out/clean.db", "table": "salaries" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
)

// Pipeline is the top-level object decoded from a job file.
type Pipeline struct {
	// Job labels logs and metrics for this run.
	Job string `json:"job"`

	// Mode names the cleaning pipeline, e.g. "light_clean" or "ml_ready".
	Mode string `json:"mode"`

	Source Source `json:"source"`
	Parser Parser `json:"parser"`

	// Options is the pipeline options bag (required columns, dedup keys,
	// imputation methods, quantiles, currency columns, ...).
	Options Options `json:"options"`

	// Output is the cleaned CSV destination. Optional when Storage is set.
	Output Output `json:"output"`

	// Storage is an optional database sink for the cleaned table.
	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`
	Metrics Metrics       `json:"metrics"`

	// RefData optionally overrides bundled reference tables.
	RefData RefData `json:"refdata"`
}

// RuntimeConfig controls storage batching.
type RuntimeConfig struct {
	BatchSize int `json:"batch_size"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL                string `json:"url"`
	TimeoutSeconds     int    `json:"timeout_seconds"`
	MaxRetries         int    `json:"max_retries"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
}

// Parser selects how the raw source becomes a table.
type Parser struct {
	// Kind selects the parser. Current value: "csv".
	Kind string `json:"kind"`

	// Options for CSV: comma (string), lazy_quotes (bool).
	Options Options `json:"options"`
}

// Output configures the CSV writer.
type Output struct {
	Path  string `json:"path"`
	Comma string `json:"comma"`
}

// Storage selects the database sink. An empty Kind disables it.
type Storage struct {
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn"`

	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table"`

	// AutoCreateTable creates Table from the cleaned column kinds when true.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Metrics selects the metrics backend: "pushgateway", "datadog" or "none".
type Metrics struct {
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DogStatsDAddr  string `json:"dogstatsd_addr"`
	Namespace      string `json:"namespace"`
}

// RefData points at optional replacement reference tables.
type RefData struct {
	// RatesPath is a "year,currency,rate" CSV replacing the bundled rates.
	RatesPath string `json:"rates_path"`
}

// Load reads and decodes a job file.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// Env variable names read by ApplyEnv.
const (
	EnvMetricsBackend = "TABCLEAN_METRICS_BACKEND"
	EnvPushgatewayURL = "TABCLEAN_PUSHGATEWAY_URL"
	EnvDogStatsDAddr  = "TABCLEAN_DOGSTATSD_ADDR"
	EnvStorageDSN     = "TABCLEAN_STORAGE_DSN"
)

// ApplyEnv fills empty metrics and storage settings from the environment.
// Values already present in the job file win.
func ApplyEnv(p *Pipeline, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if *dst == "" {
			*dst = strings.TrimSpace(getenv(key))
		}
	}
	set(&p.Metrics.Backend, EnvMetricsBackend)
	set(&p.Metrics.PushgatewayURL, EnvPushgatewayURL)
	set(&p.Metrics.DogStatsDAddr, EnvDogStatsDAddr)
	set(&p.Storage.DB.DSN, EnvStorageDSN)
}

// Options is a JSON object read through typed getters. Each getter returns
// def when the key is absent or cannot be converted. Numbers and booleans
// given as strings are accepted.
type Options map[string]any

// Has reports whether key is present.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, err := cast.ToBoolE(v); err == nil {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and are truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
		if n, err := cast.ToIntE(v); err == nil {
			return n
		}
	}
	return def
}

// Float returns the float64 value for key or def.
func (o Options) Float(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		if f, err := cast.ToFloat64E(v); err == nil {
			return f
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for single-character settings such as a delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns the string-valued entries of an object value. Returns an
// empty map when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		} else if m, ok := v.(map[string]string); ok {
			for k, s := range m {
				res[k] = s
			}
		}
	}
	return res
}

// StringSlice returns an array value as strings. A single string is treated
// as a one-element list. Returns nil when the key is missing.
func (o Options) StringSlice(key string) []string {
	v, ok := o[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case string:
		return []string{vv}
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// IntSlice returns an array value as ints; entries that do not convert are
// skipped.
func (o Options) IntSlice(key string) []int {
	v, ok := o[key]
	if !ok {
		return nil
	}
	list, err := cast.ToSliceE(v)
	if err != nil {
		return nil
	}
	out := make([]int, 0, len(list))
	for _, x := range list {
		if n, err := cast.ToIntE(x); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// FloatSlice returns an array value as float64s; entries that do not convert
// are skipped.
func (o Options) FloatSlice(key string) []float64 {
	v, ok := o[key]
	if !ok {
		return nil
	}
	list, err := cast.ToSliceE(v)
	if err != nil {
		return nil
	}
	out := make([]float64, 0, len(list))
	for _, x := range list {
		if f, err := cast.ToFloat64E(x); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// Any returns the raw value for key.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// Decode re-encodes the value for key and decodes it into dst, for nested
// option objects with a fixed shape. An absent key leaves dst untouched.
func (o Options) Decode(key string, dst any) error {
	v, ok := o[key]
	if !ok {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("option %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("option %s: %w", key, err)
	}
	return nil
}

// UnmarshalJSON makes a missing or null options object decode to an empty,
// non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
