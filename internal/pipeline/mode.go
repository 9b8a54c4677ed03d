package pipeline

import (
	"fmt"
	"strings"
)

// Mode names a fixed cleaning recipe.
type Mode int

const (
	// Minimal: schema check (when required columns are given), name
	// standardization and type enforcement.
	Minimal Mode = iota
	// LightClean: Minimal, keep-first dedup and imputation.
	LightClean
	// StrictClean: Minimal, drop-all dedup, winsorizing and forced
	// median / "NA" level / majority imputation.
	StrictClean
	// MLReady: StrictClean, field normalizers for the columns present and
	// USD conversion.
	MLReady
	// CurrencyFocus: Minimal and USD conversion.
	CurrencyFocus
	// NoImpute: Minimal and dedup; missing values stay.
	NoImpute
)

var modeNames = [...]string{
	Minimal:       "minimal",
	LightClean:    "light_clean",
	StrictClean:   "strict_clean",
	MLReady:       "ml_ready",
	CurrencyFocus: "currency_focus",
	NoImpute:      "no_impute",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Modes lists every mode in declaration order.
func Modes() []Mode {
	out := make([]Mode, len(modeNames))
	for i := range modeNames {
		out[i] = Mode(i)
	}
	return out
}

// ParseMode reads a mode name. Case, surrounding space and '-' for '_' are
// tolerated; the empty string is LightClean.
func ParseMode(s string) (Mode, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if key == "" {
		return LightClean, nil
	}
	for i, name := range modeNames {
		if key == name {
			return Mode(i), nil
		}
	}
	return 0, &UnsupportedPipelineError{Mode: s}
}

// UnsupportedPipelineError reports a mode with no recipe.
type UnsupportedPipelineError struct {
	Mode string
}

func (e *UnsupportedPipelineError) Error() string {
	return fmt.Sprintf("unsupported pipeline mode %q", e.Mode)
}
