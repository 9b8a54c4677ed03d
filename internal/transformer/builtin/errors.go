package builtin

import (
	"errors"
	"fmt"
)

// ErrUnknownLevel is returned when a value is not one of a fixed level set.
var ErrUnknownLevel = errors.New("value outside declared levels")

// ColumnNotFoundError reports that an operation's target column is absent.
type ColumnNotFoundError struct {
	Column string
	Op     string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("%s: column %q not found", e.Op, e.Column)
}

// UnsupportedModeError reports a strategy tag with no implementation.
type UnsupportedModeError struct {
	Op   string
	Mode string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("%s: unsupported mode %s", e.Op, e.Mode)
}

// UnsupportedNormalizationError reports a field/mode pair with no rule.
type UnsupportedNormalizationError struct {
	Field  string
	Detail string
}

func (e *UnsupportedNormalizationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("normalize: no rule for field %s", e.Field)
	}
	return fmt.Sprintf("normalize: no rule for field %s (%s)", e.Field, e.Detail)
}
