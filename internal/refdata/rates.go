// Package refdata holds the static lookup tables used by the normalizers and
// the currency converter. Everything here is plain data passed into the
// transforms by value; nothing in the cleaning code reads package globals.
package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RateKey identifies one exchange rate.
type RateKey struct {
	Year     int
	Currency string
}

// Rates maps (year, ISO-4217 code) to the multiplier that converts an amount
// in that currency to USD.
type Rates map[RateKey]decimal.Decimal

// Lookup returns the rate for currency in year. Codes are matched
// case-insensitively.
func (r Rates) Lookup(year int, currency string) (decimal.Decimal, bool) {
	d, ok := r[RateKey{Year: year, Currency: strings.ToUpper(strings.TrimSpace(currency))}]
	return d, ok
}

// Years returns the sorted distinct years present for currency.
func (r Rates) Years(currency string) []int {
	cur := strings.ToUpper(currency)
	var out []int
	for k := range r {
		if k.Currency == cur {
			out = append(out, k.Year)
		}
	}
	sort.Ints(out)
	return out
}

// defaultRateTable is currency -> rates for 2020..2024.
var defaultRateTable = map[string][5]string{
	"USD": {"1", "1", "1", "1", "1"},
	"EUR": {"1.1422", "1.1827", "1.0530", "1.0813", "1.0824"},
	"GBP": {"1.2837", "1.3757", "1.2369", "1.2435", "1.2781"},
	"INR": {"0.01350", "0.01352", "0.01273", "0.01212", "0.01197"},
	"CAD": {"0.7461", "0.7980", "0.7687", "0.7410", "0.7302"},
	"AUD": {"0.6903", "0.7513", "0.6947", "0.6642", "0.6603"},
	"JPY": {"0.009370", "0.009110", "0.007620", "0.007120", "0.006610"},
	"BRL": {"0.1960", "0.1854", "0.1938", "0.2003", "0.1857"},
	"CHF": {"1.0658", "1.0939", "1.0475", "1.1135", "1.1357"},
	"PLN": {"0.2570", "0.2589", "0.2238", "0.2384", "0.2513"},
	"SGD": {"0.7249", "0.7441", "0.7253", "0.7442", "0.7479"},
	"MXN": {"0.04666", "0.04934", "0.04971", "0.05637", "0.05470"},
}

const defaultFirstYear = 2020

// DefaultRates returns a fresh copy of the bundled rate table.
func DefaultRates() Rates {
	out := make(Rates, len(defaultRateTable)*5)
	for cur, vals := range defaultRateTable {
		for i, s := range vals {
			out[RateKey{Year: defaultFirstYear + i, Currency: cur}] = decimal.RequireFromString(s)
		}
	}
	return out
}

// LoadRatesCSV reads a "year,currency,rate" CSV (header required) into Rates.
func LoadRatesCSV(r io.Reader) (Rates, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read rates header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range []string{"year", "currency", "rate"} {
		if _, ok := idx[want]; !ok {
			return nil, fmt.Errorf("rates csv: missing %q column", want)
		}
	}

	out := Rates{}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("rates csv line %d: %w", line, err)
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[idx["year"]]))
		if err != nil {
			return nil, fmt.Errorf("rates csv line %d: year: %w", line, err)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rec[idx["rate"]]))
		if err != nil {
			return nil, fmt.Errorf("rates csv line %d: rate: %w", line, err)
		}
		cur := strings.ToUpper(strings.TrimSpace(rec[idx["currency"]]))
		out[RateKey{Year: year, Currency: cur}] = rate
	}
}
