package builtin

import "fmt"

// NumericMethod selects how missing numeric cells are filled.
type NumericMethod interface {
	numericMethod()
	String() string
}

// CategoricalMethod selects how missing text or categorical cells are filled.
type CategoricalMethod interface {
	categoricalMethod()
	String() string
}

// BoolMethod selects how missing boolean cells are filled.
type BoolMethod interface {
	boolMethod()
	String() string
}

// Median fills with the median of the non-missing values.
type Median struct{}

// Mean fills with the arithmetic mean of the non-missing values.
type Mean struct{}

// NumericConstant fills with a fixed value.
type NumericConstant struct{ Value float64 }

// Mode fills with the most frequent non-missing value.
type Mode struct{}

// TextConstant fills with a fixed string.
type TextConstant struct{ Value string }

// NewLevel fills with Label, declaring it as a level first when the column
// is categorical.
type NewLevel struct{ Label string }

// Majority fills with whichever of true/false is more common.
type Majority struct{}

func (Median) numericMethod()          {}
func (Mean) numericMethod()            {}
func (NumericConstant) numericMethod() {}

func (Mode) categoricalMethod()         {}
func (TextConstant) categoricalMethod() {}
func (NewLevel) categoricalMethod()     {}

func (Majority) boolMethod() {}

func (Median) String() string            { return "median" }
func (Mean) String() string              { return "mean" }
func (m NumericConstant) String() string { return fmt.Sprintf("constant(%g)", m.Value) }
func (Mode) String() string              { return "mode" }
func (m TextConstant) String() string    { return fmt.Sprintf("constant(%q)", m.Value) }
func (m NewLevel) String() string        { return fmt.Sprintf("new_level(%q)", m.Label) }
func (Majority) String() string          { return "majority" }

// DedupMode selects which duplicates are removed. The zero value means
// "use the caller's default".
type DedupMode int

const (
	KeepFirst DedupMode = iota + 1
	DropAll
)

func (m DedupMode) String() string {
	switch m {
	case KeepFirst:
		return "keep_first"
	case DropAll:
		return "drop_all"
	default:
		return fmt.Sprintf("dedup_mode(%d)", int(m))
	}
}

// ParseDedupMode accepts the config spellings of DedupMode.
func ParseDedupMode(s string) (DedupMode, error) {
	switch s {
	case "keep_first", "keep-first", "first":
		return KeepFirst, nil
	case "drop_all", "drop-all", "all":
		return DropAll, nil
	}
	return 0, &UnsupportedModeError{Op: "deduplicate", Mode: s}
}

// NormalMode picks the ordering of a leveled field.
type NormalMode int

const (
	DowntoUp NormalMode = iota // small -> large
	UptoDown                   // large -> small
)

func (m NormalMode) String() string {
	switch m {
	case DowntoUp:
		return "down_to_up"
	case UptoDown:
		return "up_to_down"
	default:
		return fmt.Sprintf("normal_mode(%d)", int(m))
	}
}

// ParseNormalMode accepts the config spellings of NormalMode.
func ParseNormalMode(s string) (NormalMode, error) {
	switch s {
	case "down_to_up", "downtoup", "asc", "":
		return DowntoUp, nil
	case "up_to_down", "uptodown", "desc":
		return UptoDown, nil
	}
	return 0, &UnsupportedModeError{Op: "normalize", Mode: s}
}

// CurrencyMode selects the conversion strategy.
type CurrencyMode int

const (
	UseExchangeRates CurrencyMode = iota
)

func (m CurrencyMode) String() string {
	if m == UseExchangeRates {
		return "use_exchange_rates"
	}
	return fmt.Sprintf("currency_mode(%d)", int(m))
}

// ParseNumericMethod accepts "median", "mean" and "constant" (with value).
func ParseNumericMethod(s string, value float64) (NumericMethod, error) {
	switch s {
	case "median", "":
		return Median{}, nil
	case "mean":
		return Mean{}, nil
	case "constant":
		return NumericConstant{Value: value}, nil
	}
	return nil, &UnsupportedModeError{Op: "impute", Mode: s}
}

// ParseCategoricalMethod accepts "mode", "constant" and "new_level".
func ParseCategoricalMethod(s, value string) (CategoricalMethod, error) {
	switch s {
	case "mode", "":
		return Mode{}, nil
	case "constant":
		return TextConstant{Value: value}, nil
	case "new_level":
		if value == "" {
			value = "NA"
		}
		return NewLevel{Label: value}, nil
	}
	return nil, &UnsupportedModeError{Op: "impute", Mode: s}
}
