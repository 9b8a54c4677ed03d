package builtin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabclean/internal/table"
)

func TestNormalize_EmploymentType(t *testing.T) {
	tb := table.MustNew(table.NewText("employment_type", "FT", "PT", "XX", nil, "FL"))
	out, err := Normalize(tb, EmploymentType{})
	require.NoError(t, err)

	c, _ := out.Column("employment_type")
	assert.Equal(t, table.Categorical, c.Kind)
	assert.False(t, c.Ordered)
	assert.Equal(t, []any{"Full-time", "Part-time", "XX", nil, "Freelance"}, c.Values)
	assert.Equal(t, []string{"Freelance", "Full-time", "Part-time", "XX"}, c.Levels)
}

func TestNormalize_CompanySize(t *testing.T) {
	tb := table.MustNew(table.NewText("company_size", "M", nil, "S", "L"))

	up, err := Normalize(tb, CompanySize{Mode: DowntoUp})
	require.NoError(t, err)
	c, _ := up.Column("company_size")
	assert.Equal(t, table.Categorical, c.Kind)
	assert.True(t, c.Ordered)
	assert.Equal(t, []string{"S", "M", "L"}, c.Levels)

	down, err := Normalize(tb, CompanySize{Mode: UptoDown})
	require.NoError(t, err)
	c, _ = down.Column("company_size")
	assert.Equal(t, []string{"L", "M", "S"}, c.Levels)
	assert.Equal(t, []any{"M", nil, "S", "L"}, c.Values)
}

func TestNormalize_CompanySizeUnknownLevel(t *testing.T) {
	tb := table.MustNew(table.NewText("company_size", "S", "XL"))
	err := NormalizeInPlace(tb, CompanySize{})
	require.ErrorIs(t, err, ErrUnknownLevel)
	assert.Contains(t, err.Error(), `"XL"`)

	c, _ := tb.Column("company_size")
	assert.Equal(t, table.Text, c.Kind, "column untouched on failure")
}

func TestNormalize_CompanySizeExtraLevels(t *testing.T) {
	tb := table.MustNew(table.NewText("company_size", "S", "NA", "L"))
	out, err := Normalize(tb, CompanySize{Mode: UptoDown, ExtraLevels: []string{"NA", "S"}})
	require.NoError(t, err)
	c, _ := out.Column("company_size")
	assert.Equal(t, []string{"L", "M", "S", "NA"}, c.Levels)
	assert.Equal(t, []any{"S", "NA", "L"}, c.Values)
}

func TestNormalize_CompanySizeBadMode(t *testing.T) {
	tb := table.MustNew(table.NewText("company_size", "S"))
	err := NormalizeInPlace(tb, CompanySize{Mode: NormalMode(42)})
	var ue *UnsupportedNormalizationError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "company_size", ue.Field)
}

func TestNormalize_RemoteRatio(t *testing.T) {
	tb := table.MustNew(
		table.NewInt("remote_ratio", 0, 20, 25, 75, 90, nil),
		table.NewFloat("f", 0.3, 0.8),
	)
	require.NoError(t, NormalizeInPlace(tb, RemoteRatio{}))
	c, _ := tb.Column("remote_ratio")
	assert.Equal(t, table.Int, c.Kind)
	assert.Equal(t, []any{int64(0), int64(0), int64(0), int64(50), int64(100), nil}, c.Values)

	require.NoError(t, NormalizeInPlace(tb, RemoteRatio{Column: "f", Allowed: []float64{0, 0.5, 1}}))
	f, _ := tb.Column("f")
	assert.Equal(t, table.Float, f.Kind)
	assert.Equal(t, []any{0.5, 1.0}, f.Values)
}

func TestNormalize_RemoteRatioRejectsText(t *testing.T) {
	tb := table.MustNew(table.NewText("remote_ratio", "50"))
	var ue *UnsupportedNormalizationError
	require.ErrorAs(t, NormalizeInPlace(tb, RemoteRatio{}), &ue)
}

func TestNormalize_JobTitle(t *testing.T) {
	tb := table.MustNew(table.NewCategorical("job_title", "ML Engineer", "DATA SCIENTIST", "Astronaut", nil))
	mapping := map[string]string{"ML Engineer": "Machine Learning Engineer", "data scientist": "Data Scientist"}
	require.NoError(t, NormalizeInPlace(tb, JobTitle{Mapping: mapping}))

	c, _ := tb.Column("job_title")
	assert.Equal(t, []any{"Machine Learning Engineer", "Data Scientist", "Astronaut", nil}, c.Values)
	assert.Equal(t, []string{"Astronaut", "Data Scientist", "Machine Learning Engineer"}, c.Levels)
}

func TestNormalize_CountryCodeWithRegion(t *testing.T) {
	tb := table.MustNew(table.NewText("company_location", "US", "fr", "UnknownLand", nil))
	out, err := Normalize(tb, CountryCode{RegionColumn: "region"})
	require.NoError(t, err)

	code, _ := out.Column("company_location")
	assert.Equal(t, []any{"US", "FR", "UnknownLand", nil}, code.Values)

	region, ok := out.Column("region")
	require.True(t, ok)
	assert.Equal(t, []any{"North America", "Europe", nil, nil}, region.Values)
	assert.False(t, tb.Has("region"))
}

func TestNormalize_CountryCodeInjectedTables(t *testing.T) {
	tb := table.MustNew(table.NewText("loc", "Atlantis"))
	require.NoError(t, NormalizeInPlace(tb, CountryCode{
		Column:       "loc",
		Mapping:      map[string]string{"atlantis": "AT"},
		RegionColumn: "r",
		Regions:      map[string]string{"AT": "Ocean"},
	}))
	loc, _ := tb.Column("loc")
	r, _ := tb.Column("r")
	assert.Equal(t, []any{"AT"}, loc.Values)
	assert.Equal(t, []any{"Ocean"}, r.Values)
}

func TestNormalize_MissingColumn(t *testing.T) {
	tb := table.MustNew(table.NewText("other", "x"))
	for _, f := range []NormalizeField{EmploymentType{}, CompanySize{}, RemoteRatio{}, JobTitle{}, CountryCode{}} {
		err := NormalizeInPlace(tb, f)
		var nf *ColumnNotFoundError
		require.True(t, errors.As(err, &nf), "%T", f)
		assert.Equal(t, TargetColumn(f), nf.Column)
		assert.Contains(t, nf.Op, f.field())
	}
}

func TestNormalize_NilField(t *testing.T) {
	tb := table.MustNew(table.NewText("x", "x"))
	var ue *UnsupportedNormalizationError
	require.ErrorAs(t, NormalizeInPlace(tb, nil), &ue)
}

func TestNormalizer_Name(t *testing.T) {
	assert.Equal(t, "normalize_country_code", Normalizer{Field: CountryCode{}}.Name())
	assert.Equal(t, "company_location", TargetColumn(CountryCode{}))
	assert.Equal(t, "loc", TargetColumn(CountryCode{Column: " loc "}))
}
