// Package schema checks a table's column set against a required set.
//
// Checks are flat presence tests; there is no type or constraint language.
package schema

import (
	"fmt"
	"strings"

	"tabclean/internal/table"
)

// Mode selects how a missing column is reported.
type Mode int

const (
	// Strict fails with *SchemaError when any required column is absent.
	Strict Mode = iota
	// Lenient never fails and returns the missing columns instead.
	Lenient
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// SchemaError lists the required columns that were not found, in the order
// they were requested.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// Validate returns the required columns absent from t, in the order given.
// In Strict mode a non-empty result is returned as *SchemaError instead.
func Validate(t *table.Table, required []string, mode Mode) ([]string, error) {
	var missing []string
	for _, name := range required {
		key := table.Key(name)
		if !t.Has(key) {
			missing = append(missing, key)
		}
	}
	switch mode {
	case Strict:
		if len(missing) > 0 {
			return nil, &SchemaError{Missing: missing}
		}
		return nil, nil
	case Lenient:
		if missing == nil {
			missing = []string{}
		}
		return missing, nil
	default:
		return nil, fmt.Errorf("schema: unsupported mode %s", mode)
	}
}

// Check is Validate with a boolean mode switch.
func Check(t *table.Table, required []string, strict bool) ([]string, error) {
	if strict {
		return Validate(t, required, Strict)
	}
	return Validate(t, required, Lenient)
}
