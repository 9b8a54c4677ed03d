package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

const sampleJob = `{
  "job": "salaries-nightly",
  "mode": "ml_ready",
  "source": { "kind": "file", "file": { "path": "testdata/salaries.csv" } },
  "parser": { "kind": "csv", "options": { "comma": ";", "lazy_quotes": true } },
  "options": {
    "required_columns": ["salary", "salary_currency"],
    "dedup_by": ["id"],
    "protected_rows": [0, 4],
    "lower_quantile": 0.01,
    "company_size_mode": "up_to_down",
    "skip_currency": "true"
  },
  "output": { "path": "out/clean.csv" },
  "storage": { "kind": "sqlite", "db": { "dsn": "file:clean.db", "table": "salaries", "auto_create_table": true } },
  "runtime": { "batch_size": 500 },
  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://gw:9091" },
  "refdata": { "rates_path": "rates.csv" }
}`

func TestPipeline_Decode(t *testing.T) {
	t.Parallel()

	var p Pipeline
	if err := json.Unmarshal([]byte(sampleJob), &p); err != nil {
		t.Fatalf("json.Unmarshal(Pipeline): %v", err)
	}

	if p.Job != "salaries-nightly" || p.Mode != "ml_ready" {
		t.Fatalf("job/mode = %q/%q", p.Job, p.Mode)
	}
	if p.Source.Kind != "file" || p.Source.File.Path != "testdata/salaries.csv" {
		t.Fatalf("source decoded = %#v", p.Source)
	}
	if got := p.Parser.Options.Rune("comma", ','); got != ';' {
		t.Fatalf("parser.options.comma = %q, want ';'", got)
	}
	if !p.Parser.Options.Bool("lazy_quotes", false) {
		t.Fatal("parser.options.lazy_quotes = false, want true")
	}

	if got := p.Options.StringSlice("required_columns"); !reflect.DeepEqual(got, []string{"salary", "salary_currency"}) {
		t.Fatalf("required_columns = %#v", got)
	}
	if got := p.Options.IntSlice("protected_rows"); !reflect.DeepEqual(got, []int{0, 4}) {
		t.Fatalf("protected_rows = %#v", got)
	}
	if got := p.Options.Float("lower_quantile", 0.05); got != 0.01 {
		t.Fatalf("lower_quantile = %v", got)
	}
	if !p.Options.Bool("skip_currency", false) {
		t.Fatal("string booleans should decode")
	}

	if p.Storage.Kind != "sqlite" || p.Storage.DB.Table != "salaries" || !p.Storage.DB.AutoCreateTable {
		t.Fatalf("storage decoded = %#v", p.Storage)
	}
	if p.Runtime.BatchSize != 500 {
		t.Fatalf("runtime.batch_size = %d", p.Runtime.BatchSize)
	}
	if p.Metrics.Backend != "pushgateway" || p.Metrics.PushgatewayURL != "http://gw:9091" {
		t.Fatalf("metrics decoded = %#v", p.Metrics)
	}
	if p.RefData.RatesPath != "rates.csv" {
		t.Fatalf("refdata decoded = %#v", p.RefData)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "job.json")
	if err := os.WriteFile(good, []byte(sampleJob), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(good)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Job != "salaries-nightly" {
		t.Fatalf("job = %q", p.Job)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"job":"x","transform":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("unknown fields should be rejected")
	}

	if _, err := Load(filepath.Join(dir, "nope.json")); err == nil {
		t.Fatal("missing file should error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvMetricsBackend: "datadog",
		EnvDogStatsDAddr:  "127.0.0.1:8125",
		EnvStorageDSN:     "postgres://u@h/db",
		EnvPushgatewayURL: "http://ignored",
	}
	p := Pipeline{Metrics: Metrics{PushgatewayURL: "http://from-file"}}
	ApplyEnv(&p, func(k string) string { return env[k] })

	if p.Metrics.Backend != "datadog" || p.Metrics.DogStatsDAddr != "127.0.0.1:8125" {
		t.Fatalf("metrics = %#v", p.Metrics)
	}
	if p.Metrics.PushgatewayURL != "http://from-file" {
		t.Fatalf("file value should win, got %q", p.Metrics.PushgatewayURL)
	}
	if p.Storage.DB.DSN != "postgres://u@h/db" {
		t.Fatalf("dsn = %q", p.Storage.DB.DSN)
	}
}

func TestOptions_ScalarsDefaultsAndCoercion(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":  "hello",
		"b":  true,
		"bs": "false",
		"i":  float64(42), // encoding/json decodes numbers as float64
		"is": "7",
		"f":  "0.25",
		"r":  ",",
		"x":  []any{"not", "a", "number"},
	}

	if got := o.String("s", "def"); got != "hello" {
		t.Fatalf("String(s) = %q, want hello", got)
	}
	if got := o.String("i", "def"); got != "def" {
		t.Fatalf("String(i) = %q, want def", got)
	}
	if got := o.Bool("b", false); !got {
		t.Fatalf("Bool(b) = %v, want true", got)
	}
	if got := o.Bool("bs", true); got {
		t.Fatalf("Bool(bs) = %v, want false", got)
	}
	if got := o.Int("i", 0); got != 42 {
		t.Fatalf("Int(i) = %d, want 42", got)
	}
	if got := o.Int("is", 0); got != 7 {
		t.Fatalf("Int(is) = %d, want 7", got)
	}
	if got := o.Int("x", 9); got != 9 {
		t.Fatalf("Int(x) = %d, want default 9", got)
	}
	if got := o.Float("f", 0); got != 0.25 {
		t.Fatalf("Float(f) = %v, want 0.25", got)
	}
	if got := o.Float("missing", 1.5); got != 1.5 {
		t.Fatalf("Float(missing) = %v, want 1.5", got)
	}
	if got := o.Rune("r", ';'); got != ',' {
		t.Fatalf("Rune(r) = %q, want ','", got)
	}
	if !o.Has("x") || o.Has("missing") {
		t.Fatal("Has mismatch")
	}

	o["r2"] = "ž"
	r := o.Rune("r2", 'x')
	if !utf8.ValidRune(r) || string(r) != "ž" {
		t.Fatalf("Rune(r2) = %#U, want ž", r)
	}
}

func TestOptions_Collections(t *testing.T) {
	t.Parallel()

	o := Options{
		"m":      map[string]any{"FT": "Full-time", "X": 1},
		"s1":     []any{"alpha", "beta", 3},
		"s2":     []string{"gamma"},
		"one":    "solo",
		"ints":   []any{float64(1), "2", "x"},
		"floats": []any{float64(0), 50, "100"},
	}

	if sm := o.StringMap("m"); !reflect.DeepEqual(sm, map[string]string{"FT": "Full-time"}) {
		t.Fatalf("StringMap(m) = %#v", sm)
	}
	if sm := o.StringMap("missing"); sm == nil || len(sm) != 0 {
		t.Fatalf("StringMap(missing) = %#v, want empty map", sm)
	}
	if ss := o.StringSlice("s1"); !reflect.DeepEqual(ss, []string{"alpha", "beta"}) {
		t.Fatalf("StringSlice(s1) = %#v", ss)
	}
	if ss := o.StringSlice("s2"); !reflect.DeepEqual(ss, []string{"gamma"}) {
		t.Fatalf("StringSlice(s2) = %#v", ss)
	}
	if ss := o.StringSlice("one"); !reflect.DeepEqual(ss, []string{"solo"}) {
		t.Fatalf("StringSlice(one) = %#v", ss)
	}
	if o.StringSlice("missing") != nil {
		t.Fatal("StringSlice(missing) should be nil")
	}
	if is := o.IntSlice("ints"); !reflect.DeepEqual(is, []int{1, 2}) {
		t.Fatalf("IntSlice(ints) = %#v", is)
	}
	if fs := o.FloatSlice("floats"); !reflect.DeepEqual(fs, []float64{0, 50, 100}) {
		t.Fatalf("FloatSlice(floats) = %#v", fs)
	}
	if o.Any("missing") != nil {
		t.Fatal("Any(missing) should be nil")
	}
}

func TestOptions_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"options": null}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts == nil || len(w.Opts) != 0 {
		t.Fatalf("Opts after null unmarshal = %#v, want non-nil empty map", w.Opts)
	}

	if err := json.Unmarshal([]byte(`{"options": {"a":"x","n": 3}}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts.String("a", "") != "x" || w.Opts.Int("n", 0) != 3 {
		t.Fatalf("Opts = %#v", w.Opts)
	}
}

func TestOptions_Decode(t *testing.T) {
	t.Parallel()

	var o Options
	if err := json.Unmarshal([]byte(`{"pairs": [{"from": "a", "to": "b"}], "bad": "x"}`), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	type pair struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	var got []pair
	if err := o.Decode("pairs", &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, []pair{{From: "a", To: "b"}}) {
		t.Fatalf("Decode(pairs) = %#v", got)
	}

	if err := o.Decode("bad", &got); err == nil || !strings.Contains(err.Error(), "option bad") {
		t.Fatalf("Decode(bad) err = %v", err)
	}

	got = nil
	if err := o.Decode("absent", &got); err != nil || got != nil {
		t.Fatalf("Decode(absent) = %#v, %v", got, err)
	}
}
