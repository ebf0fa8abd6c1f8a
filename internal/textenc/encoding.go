// Package textenc converts between raw file bytes and text for the editor.
//
// The supported encodings are a closed set: UTF-8 with and without a byte
// order mark, Shift_JIS and EUC-JP. Legacy encodings go through
// golang.org/x/text; UTF-8 input is stripped of its BOM and sanitized so the
// parser always sees valid text.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// Encoding names one of the supported byte encodings.
type Encoding string

const (
	UTF8     Encoding = "utf-8"
	UTF8BOM  Encoding = "utf-8-bom"
	ShiftJIS Encoding = "shift_jis"
	EUCJP    Encoding = "euc-jp"

	// Auto asks the caller to run DetectEncoding.
	Auto Encoding = "auto"
)

// All lists the supported encodings in display order.
var All = []Encoding{UTF8, UTF8BOM, ShiftJIS, EUCJP}

var (
	// ErrUnknownEncoding is returned for names outside the supported set.
	ErrUnknownEncoding = errors.New("unknown encoding")

	// ErrUnencodable is returned when text contains characters the target
	// encoding cannot represent.
	ErrUnencodable = errors.New("text cannot be represented in encoding")
)

// utf8BOM is the UTF-8 byte order mark.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var aliases = map[string]Encoding{
	"utf-8":     UTF8,
	"utf8":      UTF8,
	"utf-8-bom": UTF8BOM,
	"utf8bom":   UTF8BOM,
	"utf-8-sig": UTF8BOM,
	"shift_jis": ShiftJIS,
	"shift-jis": ShiftJIS,
	"sjis":      ShiftJIS,
	"euc-jp":    EUCJP,
	"eucjp":     EUCJP,
	"auto":      Auto,
	"":          Auto,
}

// Parse converts a user-supplied name (case-insensitive, common aliases
// accepted) to an Encoding. The empty string means Auto.
func Parse(name string) (Encoding, error) {
	if e, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// legacy returns the x/text codec for a double-byte encoding.
func (e Encoding) legacy() (encoding.Encoding, bool) {
	switch e {
	case ShiftJIS:
		return japanese.ShiftJIS, true
	case EUCJP:
		return japanese.EUCJP, true
	}
	return nil, false
}

// Valid reports whether e is a concrete supported encoding.
func (e Encoding) Valid() bool {
	switch e {
	case UTF8, UTF8BOM, ShiftJIS, EUCJP:
		return true
	}
	return false
}

// Decode converts raw bytes in encoding e to text. Auto runs DetectEncoding
// first.
func Decode(b []byte, e Encoding) (string, error) {
	if e == Auto {
		e = DetectEncoding(b)
	}
	r, err := NewReader(bytes.NewReader(b), e)
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", e, err)
	}
	return string(out), nil
}

// Encode converts text to bytes in encoding e. UTF8BOM prefixes the byte
// order mark.
func Encode(s string, e Encoding) ([]byte, error) {
	switch e {
	case UTF8:
		return []byte(s), nil
	case UTF8BOM:
		out := make([]byte, 0, len(utf8BOM)+len(s))
		out = append(out, utf8BOM...)
		return append(out, s...), nil
	}

	codec, ok := e.legacy()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, e)
	}
	out, err := codec.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrUnencodable, e, err)
	}
	return out, nil
}
