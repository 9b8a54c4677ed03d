package builtin

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"tabclean/internal/table"
)

// StandardizeName converts arbitrary header text into a lowercase ASCII
// identifier:
//  1. lowercase
//  2. strip accents (NFD -> remove Mn -> NFC)
//  3. every run of characters outside [a-z0-9] becomes one underscore
//  4. trim leading/trailing underscores; fall back to "col" if empty
//
// The result is a fixed point: StandardizeName(StandardizeName(s)) equals
// StandardizeName(s).
func StandardizeName(s string) string {
	s = strings.ToLower(s)

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	prevUnderscore := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}

// StandardizeNames renames every column of t in place. If two columns
// standardize to the same name, the later column's data replaces the earlier
// one at the earlier position.
func StandardizeNames(t *table.Table) {
	t.RenameAll(StandardizeName)
}

// StandardizeAll applies StandardizeNames to each table.
func StandardizeAll(ts ...*table.Table) {
	for _, t := range ts {
		StandardizeNames(t)
	}
}

// Names is the pipeline step form of StandardizeNames.
type Names struct{}

func (Names) Name() string { return "standardize_names" }

func (Names) Apply(t *table.Table) error {
	StandardizeNames(t)
	return nil
}
