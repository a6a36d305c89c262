package core

// convert.go turns raw CSV cells into typed values.
//
// Score exports come out of spreadsheets as often as out of pipelines, so
// numeric cells are parsed permissively: surrounding whitespace, currency
// symbols, thousands separators, Excel formula prefixes and accounting
// negatives are all accepted. Anything still not a number becomes NaN,
// never zero.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ToNumber converts a cell to float64, returning NaN for empty or
// non-numeric input.
func ToNumber(s string) float64 {
	s = CleanCell(s)
	if s == "" {
		return math.NaN()
	}

	// Accounting format "(123.45)"
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return math.NaN()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Only range errors reach here; the regex already rejected syntax errors.
		return math.NaN()
	}
	return f
}

// CleanCell removes common CSV artifacts from a cell value:
// surrounding whitespace, the Excel formula prefix (="...") and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching; the first occurrence
// of a repeated header wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// Cell returns the cell for a column, or "" if the column is absent.
func (h HeaderIndex) Cell(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// FormatFixed2 renders a number rounded to two decimals. NaN renders as
// "NaN" so it stays distinguishable from a real zero score.
func FormatFixed2(v Value) string {
	if v.Kind != KindNumber {
		return v.String()
	}
	return strconv.FormatFloat(v.Num, 'f', 2, 64)
}

// FormatRaw renders a value as-is.
func FormatRaw(v Value) string {
	return v.String()
}
