// Package codec converts between delimiter-separated text and tables.
//
// Parsing never fails: unterminated quotes, ragged rows, and stray characters
// all produce some well-formed [table.Table]. Stringify is the inverse of
// Parse for any table Parse can produce.
package codec

import (
	"strings"
	"unicode/utf8"
)

// scanState is the state of the quoting state machine.
type scanState int

const (
	stateUnquoted  scanState = iota
	stateQuoted              // inside a quoted field
	stateQuoteSeen           // quote seen inside a quoted field; next rune decides
)

// Tokenize splits text into records using a single left-to-right scan.
//
// Inside a quoted field a doubled quote is a literal quote, a lone quote ends
// quoting, and every other rune (line breaks included) is kept verbatim.
// Outside quoting a quote only opens quoting at the start of a field; mid-field
// it is literal. The delimiter ends a field; "\n" or "\r\n" ends the field and
// the record. Trailing content without a terminator still closes the final
// record. A zero quote rune disables quoting.
//
// Tokenize does not drop blank records; see Parse.
func Tokenize(text string, delimiter, quote rune) [][]string {
	var (
		records    [][]string
		record     []string
		field      strings.Builder
		state      = stateUnquoted
		fieldStart = true
		touched    = false
	)

	endField := func() {
		record = append(record, field.String())
		field.Reset()
		fieldStart = true
		touched = false
	}
	endRecord := func() {
		records = append(records, record)
		record = nil
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])

		switch state {
		case stateQuoted:
			if r == quote {
				state = stateQuoteSeen
			} else {
				field.WriteRune(r)
			}
			i += size
			continue

		case stateQuoteSeen:
			if r == quote {
				field.WriteRune(quote)
				state = stateQuoted
				i += size
				continue
			}
			// Lone quote closed the field; r is handled as unquoted input.
			state = stateUnquoted
		}

		switch {
		case quote != 0 && r == quote && fieldStart:
			state = stateQuoted
			fieldStart = false
			touched = true
		case r == delimiter:
			endField()
		case r == '\n':
			endField()
			endRecord()
		case r == '\r' && i+1 < len(text) && text[i+1] == '\n':
			endField()
			endRecord()
			size++
		default:
			field.WriteRune(r)
			fieldStart = false
		}
		i += size
	}

	if touched || field.Len() > 0 || len(record) > 0 {
		endField()
		endRecord()
	}

	return records
}
