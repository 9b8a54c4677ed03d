package refdata

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRates_USDIsExactlyOne(t *testing.T) {
	r := DefaultRates()
	for _, y := range r.Years("USD") {
		d, ok := r.Lookup(y, "usd")
		require.True(t, ok)
		assert.True(t, d.Equal(decimal.NewFromInt(1)), "year %d", y)
	}
	assert.Equal(t, []int{2020, 2021, 2022, 2023, 2024}, r.Years("USD"))
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	a := Default()
	a.Countries["atlantis"] = "AT"
	delete(a.Rates, RateKey{Year: 2022, Currency: "EUR"})

	b := Default()
	_, ok := b.Countries["atlantis"]
	assert.False(t, ok)
	_, ok = b.Rates.Lookup(2022, "EUR")
	assert.True(t, ok)
}

func TestLoadRatesCSV(t *testing.T) {
	in := "year,currency,rate\n2023, eur ,1.08\n2023,USD,1\n"
	r, err := LoadRatesCSV(strings.NewReader(in))
	require.NoError(t, err)

	d, ok := r.Lookup(2023, "EUR")
	require.True(t, ok)
	assert.Equal(t, "1.08", d.String())
	assert.Len(t, r, 2)
}

func TestLoadRatesCSV_Errors(t *testing.T) {
	_, err := LoadRatesCSV(strings.NewReader("year,currency\n2023,EUR\n"))
	assert.ErrorContains(t, err, `"rate"`)

	_, err = LoadRatesCSV(strings.NewReader("year,currency,rate\nabc,EUR,1\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestRegionsCoverCountryCodes(t *testing.T) {
	s := Default()
	for name, code := range s.Countries {
		_, ok := s.Regions[code]
		assert.True(t, ok, "country %q -> %q has no region", name, code)
	}
}
