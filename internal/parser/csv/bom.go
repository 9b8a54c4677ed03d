package csv

import "strings"

const utf8BOM = "\uFEFF"

// stripHeaderBOM removes a UTF-8 BOM from the first header cell.
func stripHeaderBOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers
}
