package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabclean/internal/metrics"
)

// samples flattens the registry into "name{k=v,...}" -> value. Counters
// report their value, summaries their sample count.
func samples(t *testing.T, b *Backend) map[string]float64 {
	t.Helper()
	mfs, err := b.reg.Gather()
	require.NoError(t, err)

	out := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			out[mf.GetName()+labelString(m.GetLabel())] = value(mf.GetType(), m)
		}
	}
	return out
}

func labelString(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	kv := make([]string, 0, len(pairs))
	for _, p := range pairs {
		kv = append(kv, p.GetName()+"="+p.GetValue())
	}
	sort.Strings(kv)
	return "{" + strings.Join(kv, ",") + "}"
}

func value(typ dto.MetricType, m *dto.Metric) float64 {
	switch typ {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_SUMMARY:
		return float64(m.GetSummary().GetSampleCount())
	}
	return -1
}

func TestNewBackend(t *testing.T) {
	_, err := NewBackend("job", "")
	assert.Error(t, err)

	b, err := NewBackend("", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, "tabclean", b.jobName)
	assert.Equal(t, "http://pushgateway:9091", b.gatewayURL)

	b, err = NewBackend("salaries", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, "salaries", b.jobName)
}

func TestBackendRecords(t *testing.T) {
	b, err := NewBackend("salaries", "http://unused")
	require.NoError(t, err)

	ok := metrics.Labels{"step": "impute", "status": "success"}
	b.IncCounter(metrics.StepTotal, 1, ok)
	b.IncCounter(metrics.StepTotal, 2, ok)
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "impute", "status": "error"})
	b.IncCounter(metrics.RowsTotal, 120, metrics.Labels{"kind": "loaded"})
	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": "dropped"})
	b.IncCounter(metrics.BatchesTotal, 4, nil)
	b.IncCounter("not_a_metric", 9, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, ok)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.75, ok)
	b.ObserveHistogram(metrics.StepTotal, 1, ok)

	got := samples(t, b)
	assert.Equal(t, map[string]float64{
		"tabclean_step_total{status=success,step=impute}":            3,
		"tabclean_step_total{status=error,step=impute}":              1,
		"tabclean_rows_total{kind=loaded}":                           120,
		"tabclean_rows_total{kind=dropped}":                          3,
		"tabclean_batches_total":                                     4,
		"tabclean_step_duration_seconds{status=success,step=impute}": 2,
	}, got)
}

func TestBackendZeroValueIsSafe(t *testing.T) {
	var b Backend
	assert.NotPanics(t, func() {
		b.IncCounter(metrics.StepTotal, 1, nil)
		b.IncCounter(metrics.RowsTotal, 1, nil)
		b.IncCounter(metrics.BatchesTotal, 1, nil)
		b.ObserveHistogram(metrics.StepDurationSeconds, 1, nil)
	})
}

func TestFlush(t *testing.T) {
	type pushed struct {
		method, path string
		body         []byte
	}
	reqs := make(chan pushed, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqs <- pushed{r.Method, r.URL.Path, body}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBackend("salaries-nightly", srv.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.RowsTotal, 10, metrics.Labels{"kind": "output"})
	require.NoError(t, b.Flush())

	got := <-reqs
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/metrics/job/salaries-nightly", got.path)
	assert.Contains(t, string(got.body), metrics.RowsTotal)
}

func TestFlushGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBackend("x", srv.URL)
	require.NoError(t, err)
	assert.Error(t, b.Flush())
}

func BenchmarkIncCounterStep(b *testing.B) {
	be, err := NewBackend("bench", "http://unused")
	if err != nil {
		b.Fatal(err)
	}
	lbls := metrics.Labels{"step": "deduplicate", "status": "success"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		be.IncCounter(metrics.StepTotal, 1, lbls)
	}
}
