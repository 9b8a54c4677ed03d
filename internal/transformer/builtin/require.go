package builtin

import (
	"tabclean/internal/schema"
	"tabclean/internal/table"
)

// Require fails the step when any of Fields is not a column of the table.
type Require struct {
	Fields []string
}

func (Require) Name() string { return "validate_schema" }

// Apply returns a *schema.SchemaError naming every absent field.
func (r Require) Apply(t *table.Table) error {
	_, err := schema.Validate(t, r.Fields, schema.Strict)
	return err
}
