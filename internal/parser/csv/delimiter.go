package csv

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// delimiterNames are the spelled-out delimiters accepted by DecodeDelimiter.
var delimiterNames = map[string]rune{
	"comma":     ',',
	"semicolon": ';',
	"tab":       '\t',
	`\t`:        '\t',
	"pipe":      '|',
	"space":     ' ',
}

// DecodeDelimiter turns a flag or query value into a field delimiter. Empty
// means ','. Names such as "tab" or "semicolon" are accepted; anything else
// must be a single character.
func DecodeDelimiter(s string) (rune, error) {
	if s == "" {
		return ',', nil
	}
	if r, ok := delimiterNames[strings.ToLower(s)]; ok {
		return r, nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}
