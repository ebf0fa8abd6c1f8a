package table

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex matches integers, decimals, and scientific notation.
// Literals such as NaN, Inf, hex floats and digit separators are rejected.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber parses the trimmed text as a finite number.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// IsNumeric reports whether the trimmed text is non-empty and parses as a
// finite number.
func IsNumeric(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// DetectColumnType infers a column type from its values: TypeAuto when every
// value is blank, TypeNumber when every non-blank value is numeric, otherwise
// TypeString.
func DetectColumnType(values []string) ColumnType {
	seen := false
	for _, v := range values {
		if IsBlank(v) {
			continue
		}
		seen = true
		if !IsNumeric(v) {
			return TypeString
		}
	}
	if !seen {
		return TypeAuto
	}
	return TypeNumber
}

// DetectColumnTypes infers the type of every column from rows. Rows shorter
// than cols contribute blanks.
func DetectColumnTypes(rows [][]string, cols int) []ColumnType {
	types := make([]ColumnType, cols)
	values := make([]string, len(rows))
	for c := 0; c < cols; c++ {
		for r, row := range rows {
			if c < len(row) {
				values[r] = row[c]
			} else {
				values[r] = ""
			}
		}
		types[c] = DetectColumnType(values)
	}
	return types
}
