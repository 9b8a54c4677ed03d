package csv

import (
	"bytes"
	"strings"
	"testing"
)

func buildCSV(n int) []byte {
	var sb strings.Builder
	sb.Grow(n * 64)
	sb.WriteString("work_year,job_title,salary,salary_currency,company_location\n")
	for i := 0; i < n; i++ {
		sb.WriteString("2023,Data Scientist,85000,EUR,fr\n")
	}
	return []byte(sb.String())
}

func BenchmarkLoad(b *testing.B) {
	data := buildCSV(50_000)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		tb, err := Load(bytes.NewReader(data), Options{})
		if err != nil {
			b.Fatal(err)
		}
		if tb.NumRows() == 0 {
			b.Fatal("no rows parsed")
		}
	}
}

func BenchmarkLoad_WithReplace(b *testing.B) {
	data := buildCSV(50_000)
	opts := Options{Replace: []Replacement{{From: "Data Scientist", To: "DS"}}}
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		if _, err := Load(bytes.NewReader(data), opts); err != nil {
			b.Fatal(err)
		}
	}
}
