package webui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"tabclean/internal/pipeline"
)

const salariesCSV = "Work Year,Salary,Salary Currency,Company Size\n" +
	"2023,100000,EUR,M\n" +
	"2023,,USD,S\n" +
	"2023,100000,EUR,M\n"

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, contentType, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.String()
}

func TestHealthAndModes(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/modes")
	require.NoError(t, err)
	defer resp.Body.Close()
	var got struct {
		Modes   []string `json:"modes"`
		Default string   `json:"default"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []string{"minimal", "light_clean", "strict_clean", "ml_ready", "currency_focus", "no_impute"}, got.Modes)
	assert.Equal(t, "light_clean", got.Default)
}

func TestIndexListsModes(t *testing.T) {
	srv := newTestServer(t, Config{})
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), `<option value="light_clean" selected>`)
	assert.Contains(t, buf.String(), `<option value="ml_ready">`)
}

func TestClean_RawBody(t *testing.T) {
	srv := newTestServer(t, Config{})
	resp, body := post(t, srv.URL+"/api/clean?mode=no_impute", "text/csv", salariesCSV)

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no_impute", resp.Header.Get("X-Tabclean-Mode"))
	assert.Equal(t, "work_year,salary,salary_currency,company_size\n"+
		"2023,100000,EUR,M\n"+
		"2023,,USD,S\n", body)
}

func TestClean_DefaultModeAndDelimiter(t *testing.T) {
	srv := newTestServer(t, Config{})
	in := strings.ReplaceAll(salariesCSV, ",", ";")
	resp, body := post(t, srv.URL+"/api/clean?delimiter=semicolon", "text/csv", in)

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "light_clean", resp.Header.Get("X-Tabclean-Mode"))
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "work_year;salary;salary_currency;company_size", lines[0])
	assert.Equal(t, "2023;100000;USD;S", lines[2], "median imputed salary")
}

func TestClean_Multipart(t *testing.T) {
	srv := newTestServer(t, Config{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("mode", "currency_focus"))
	fw, err := mw.CreateFormFile("file", "salaries.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte(salariesCSV))
	require.NoError(t, mw.Close())

	resp, body := post(t, srv.URL+"/api/clean", mw.FormDataContentType(), buf.String())
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.True(t, strings.HasPrefix(body, "work_year,salary,salary_currency,company_size,salary_in_usd\n"), body)
}

func TestClean_Errors(t *testing.T) {
	srv := newTestServer(t, Config{MaxBodyBytes: 64})

	tests := []struct {
		name string
		url  string
		body string
		want int
		msg  string
	}{
		{name: "unknown mode", url: "/api/clean?mode=turbo", body: "a\n1\n", want: http.StatusBadRequest, msg: "unsupported pipeline mode"},
		{name: "bad delimiter", url: "/api/clean?delimiter=ab", body: "a\n1\n", want: http.StatusBadRequest, msg: "invalid delimiter"},
		{name: "ragged row", url: "/api/clean", body: "a,b\n1\n", want: http.StatusBadRequest, msg: "csv line 2"},
		{name: "empty", url: "/api/clean", body: "", want: http.StatusBadRequest, msg: "empty input"},
		{name: "too large", url: "/api/clean", body: "a\n" + strings.Repeat("1\n", 64), want: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv.URL+tt.url, "text/csv", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, body)
			var er errorResponse
			require.NoError(t, json.Unmarshal([]byte(body), &er))
			assert.Equal(t, tt.want, er.Code)
			assert.Contains(t, er.Error, tt.msg)
		})
	}
}

func TestClean_RequiredColumnsFromBaseOptions(t *testing.T) {
	srv := newTestServer(t, Config{Options: pipeline.Options{RequiredColumns: []string{"salary", "job_title"}}})
	resp, body := post(t, srv.URL+"/api/clean?mode=minimal", "text/csv", salariesCSV)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "job_title")
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	srv := newTestServer(t, Config{Logger: zap.New(core)})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/healthz", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("disk on fire")))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("step x: %w", &pipeline.UnsupportedPipelineError{Mode: "x"})))
}
