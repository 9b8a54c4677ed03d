package builtin

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"tabclean/internal/refdata"
	"tabclean/internal/table"
	"tabclean/internal/transformer"
)

// NormalizeField selects a field rule for NormalizeInPlace. The set of rules
// is closed: EmploymentType, CompanySize, RemoteRatio, JobTitle and
// CountryCode.
type NormalizeField interface {
	field() string
	defaultColumn() string
}

// EmploymentType rewrites short employment codes (FT, PT, CT, FL) to labels.
type EmploymentType struct {
	Column  string            // default "employment_type"
	Mapping map[string]string // default refdata employment codes
}

// CompanySize turns the column into an ordered categorical over S/M/L.
// ExtraLevels are accepted after the three sizes, e.g. an imputation label.
type CompanySize struct {
	Column      string // default "company_size"
	Mode        NormalMode
	ExtraLevels []string
}

// RemoteRatio snaps each value to the nearest allowed ratio.
type RemoteRatio struct {
	Column  string    // default "remote_ratio"
	Allowed []float64 // default 0, 50, 100
}

// JobTitle canonicalizes job titles through Mapping.
type JobTitle struct {
	Column  string            // default "job_title"
	Mapping map[string]string // default refdata job titles
}

// CountryCode maps country names or codes to ISO2 and optionally derives a
// region column from the resulting code.
type CountryCode struct {
	Column       string            // default "company_location"
	Mapping      map[string]string // default refdata countries
	RegionColumn string            // empty: no region column
	Regions      map[string]string // default refdata regions
}

func (EmploymentType) field() string { return "employment_type" }
func (CompanySize) field() string    { return "company_size" }
func (RemoteRatio) field() string    { return "remote_ratio" }
func (JobTitle) field() string       { return "job_title" }
func (CountryCode) field() string    { return "country_code" }

func (EmploymentType) defaultColumn() string { return "employment_type" }
func (CompanySize) defaultColumn() string    { return "company_size" }
func (RemoteRatio) defaultColumn() string    { return "remote_ratio" }
func (JobTitle) defaultColumn() string       { return "job_title" }
func (CountryCode) defaultColumn() string    { return "company_location" }

// TargetColumn returns the column a field rule operates on.
func TargetColumn(f NormalizeField) string {
	var col string
	switch f := f.(type) {
	case EmploymentType:
		col = f.Column
	case CompanySize:
		col = f.Column
	case RemoteRatio:
		col = f.Column
	case JobTitle:
		col = f.Column
	case CountryCode:
		col = f.Column
	case nil:
		return ""
	}
	if col == "" {
		col = f.defaultColumn()
	}
	return table.Key(col)
}

var companySizeLevels = map[NormalMode][]string{
	DowntoUp: {"S", "M", "L"},
	UptoDown: {"L", "M", "S"},
}

var defaultRemoteRatios = []float64{0, 50, 100}

// Normalize returns a copy of t with field normalized.
func Normalize(t *table.Table, field NormalizeField) (*table.Table, error) {
	return transformer.WithCopy(t, func(cp *table.Table) error {
		return NormalizeInPlace(cp, field)
	})
}

// NormalizeInPlace applies the rule for field to t.
func NormalizeInPlace(t *table.Table, field NormalizeField) error {
	switch f := field.(type) {
	case EmploymentType:
		c, err := normalizeTarget(t, f.Column, f)
		if err != nil {
			return err
		}
		m := f.Mapping
		if m == nil {
			m = refdata.Default().EmploymentTypes
		}
		normalizeEmployment(c, m)
		return nil
	case CompanySize:
		levels, ok := companySizeLevels[f.Mode]
		if !ok {
			return &UnsupportedNormalizationError{Field: f.field(), Detail: "mode " + f.Mode.String()}
		}
		c, err := normalizeTarget(t, f.Column, f)
		if err != nil {
			return err
		}
		levels = slices.Clone(levels)
		for _, l := range f.ExtraLevels {
			if !slices.Contains(levels, l) {
				levels = append(levels, l)
			}
		}
		return normalizeCompanySize(c, levels)
	case RemoteRatio:
		c, err := normalizeTarget(t, f.Column, f)
		if err != nil {
			return err
		}
		allowed := f.Allowed
		if len(allowed) == 0 {
			allowed = defaultRemoteRatios
		}
		if !c.Kind.Numeric() {
			return &UnsupportedNormalizationError{Field: f.field(), Detail: "column kind " + c.Kind.String()}
		}
		normalizeRemote(c, allowed)
		return nil
	case JobTitle:
		c, err := normalizeTarget(t, f.Column, f)
		if err != nil {
			return err
		}
		m := f.Mapping
		if m == nil {
			m = refdata.Default().JobTitles
		}
		normalizeJobTitle(c, m)
		return nil
	case CountryCode:
		c, err := normalizeTarget(t, f.Column, f)
		if err != nil {
			return err
		}
		ref := refdata.Default()
		m, regions := f.Mapping, f.Regions
		if m == nil {
			m = ref.Countries
		}
		if regions == nil {
			regions = ref.Regions
		}
		return normalizeCountry(t, c, m, f.RegionColumn, regions)
	case nil:
		return &UnsupportedNormalizationError{Field: "<nil>"}
	default:
		return &UnsupportedNormalizationError{Field: fmt.Sprintf("%T", field)}
	}
}

// Normalizer is the pipeline step form of NormalizeInPlace.
type Normalizer struct {
	Field NormalizeField
}

func (n Normalizer) Name() string {
	if n.Field == nil {
		return "normalize"
	}
	return "normalize_" + n.Field.field()
}

func (n Normalizer) Apply(t *table.Table) error { return NormalizeInPlace(t, n.Field) }

func normalizeTarget(t *table.Table, col string, f NormalizeField) (*table.Column, error) {
	if col == "" {
		col = f.defaultColumn()
	}
	c, ok := t.Column(col)
	if !ok {
		return nil, &ColumnNotFoundError{Column: table.Key(col), Op: "normalize " + f.field()}
	}
	return c, nil
}

func normalizeEmployment(c *table.Column, codes map[string]string) {
	for i, v := range c.Values {
		if v == nil {
			continue
		}
		s := cast.ToString(v)
		if label, ok := codes[s]; ok {
			s = label
		}
		c.Values[i] = s
	}
	c.Kind = table.Categorical
	c.RebuildLevels()
}

func normalizeCompanySize(c *table.Column, levels []string) error {
	allowed := make(map[string]struct{}, len(levels))
	for _, l := range levels {
		allowed[l] = struct{}{}
	}
	vals := make([]any, len(c.Values))
	for i, v := range c.Values {
		if v == nil {
			continue
		}
		s := cast.ToString(v)
		if _, ok := allowed[s]; !ok {
			return fmt.Errorf("company_size: column %q row %d value %q: %w", c.Name, i, s, ErrUnknownLevel)
		}
		vals[i] = s
	}
	c.Values = vals
	c.Kind = table.Categorical
	c.SetLevels(levels, true)
	return nil
}

// normalizeRemote replaces each value by the nearest allowed value; a tie
// goes to the value listed first.
func normalizeRemote(c *table.Column, allowed []float64) {
	integral := true
	for _, a := range allowed {
		if a != math.Trunc(a) {
			integral = false
		}
	}
	asInt := c.Kind == table.Int && integral
	for i, v := range c.Values {
		if v == nil {
			continue
		}
		x, err := cast.ToFloat64E(v)
		if err != nil {
			continue
		}
		best, bestD := allowed[0], math.Abs(x-allowed[0])
		for _, a := range allowed[1:] {
			if d := math.Abs(x - a); d < bestD {
				best, bestD = a, d
			}
		}
		if asInt {
			c.Values[i] = int64(best)
		} else {
			c.Values[i] = best
		}
	}
	if !asInt {
		c.Kind = table.Float
	}
}

func normalizeJobTitle(c *table.Column, titles map[string]string) {
	for i, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if hit, ok := titles[s]; ok {
			c.Values[i] = hit
		} else if hit, ok := titles[strings.ToLower(s)]; ok {
			c.Values[i] = hit
		}
	}
	if c.Kind == table.Categorical {
		c.RebuildLevels()
	}
}

func normalizeCountry(t *table.Table, c *table.Column, countries map[string]string, regionCol string, regions map[string]string) error {
	for i, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		c.Values[i] = lookupCountry(countries, s)
	}
	if c.Kind == table.Categorical {
		c.RebuildLevels()
	}
	if regionCol == "" {
		return nil
	}

	out := make([]any, len(c.Values))
	for i, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if r, ok := regions[s]; ok {
			out[i] = r
		}
	}
	rc := table.NewCategorical(regionCol, out...)
	return t.SetColumn(rc)
}

// lookupCountry tries s as given, then upper-cased, then lower-cased. A miss
// keeps s as its own code.
func lookupCountry(m map[string]string, s string) string {
	if code, ok := m[s]; ok {
		return code
	}
	if code, ok := m[strings.ToUpper(s)]; ok {
		return code
	}
	if code, ok := m[strings.ToLower(s)]; ok {
		return code
	}
	return s
}
