package codec

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvedit/internal/table"
)

// QuoteStyle selects when fields are quoted.
type QuoteStyle string

const (
	QuoteAsNeeded QuoteStyle = "as-needed"
	QuoteAlways   QuoteStyle = "always"
)

// ParseQuoteStyle converts a user-supplied string to a QuoteStyle.
func ParseQuoteStyle(s string) (QuoteStyle, error) {
	switch QuoteStyle(s) {
	case QuoteAsNeeded, QuoteAlways:
		return QuoteStyle(s), nil
	}
	return "", fmt.Errorf("invalid quote style %q (must be as-needed or always)", s)
}

// StringifyOptions configures Stringify.
type StringifyOptions struct {
	Delimiter  rune
	HasHeader  bool
	QuoteChar  rune
	QuoteStyle QuoteStyle
}

// DefaultStringifyOptions mirrors DefaultParseOptions with as-needed quoting.
func DefaultStringifyOptions() StringifyOptions {
	return StringifyOptions{
		Delimiter:  ',',
		HasHeader:  true,
		QuoteChar:  '"',
		QuoteStyle: QuoteAsNeeded,
	}
}

// Stringify renders t as delimited text, one record per line joined by "\n".
//
// A numeric value in a Number column is never quoted. Otherwise QuoteAlways
// quotes every field and QuoteAsNeeded quotes fields containing the quote
// character, the delimiter, "\n" or "\r". Header cells are escaped as strings.
func Stringify(t *table.Table, opts StringifyOptions) string {
	var b strings.Builder
	first := true

	writeRecord := func(values []string, header bool) {
		if !first {
			b.WriteByte('\n')
		}
		first = false
		for i, v := range values {
			if i > 0 {
				b.WriteRune(opts.Delimiter)
			}
			typ := table.TypeString
			if !header {
				typ = t.ColumnType(i)
			}
			b.WriteString(escapeField(v, typ, opts))
		}
	}

	if opts.HasHeader && len(t.Headers) > 0 {
		writeRecord(t.Headers, true)
	}
	for _, row := range t.Rows {
		writeRecord(row, false)
	}
	return b.String()
}

func escapeField(v string, typ table.ColumnType, opts StringifyOptions) string {
	if typ == table.TypeNumber && table.IsNumeric(v) && !needsQuote(v, opts.Delimiter, opts.QuoteChar) {
		return v
	}
	if opts.QuoteChar == 0 {
		return v
	}
	if opts.QuoteStyle != QuoteAlways && !needsQuote(v, opts.Delimiter, opts.QuoteChar) {
		return v
	}
	return Quote(v, opts.QuoteChar)
}

func needsQuote(v string, delimiter, quote rune) bool {
	return strings.ContainsRune(v, quote) ||
		strings.ContainsRune(v, delimiter) ||
		strings.ContainsAny(v, "\n\r")
}

// Quote wraps v in quote, doubling every embedded quote.
func Quote(v string, quote rune) string {
	q := string(quote)
	return q + strings.ReplaceAll(v, q, q+q) + q
}
