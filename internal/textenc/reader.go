package textenc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// NewReader returns a reader yielding UTF-8 text decoded from r.
//
// UTF-8 input has its BOM removed and invalid bytes replaced with '?'.
// Legacy encodings are decoded through x/text.
func NewReader(r io.Reader, e Encoding) (io.Reader, error) {
	switch e {
	case UTF8, UTF8BOM:
		return NewUTF8Sanitizer(NewBOMSkippingReader(r)), nil
	}
	codec, ok := e.legacy()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, e)
	}
	return transform.NewReader(r, codec.NewDecoder()), nil
}

// BOMSkippingReader drops a leading UTF-8 byte order mark.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader wraps r.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' while streaming.
// A multi-byte sequence split across reads is held back until it completes.
type UTF8Sanitizer struct {
	r       io.Reader
	pending []byte
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

// sanitize rewrites data in place and returns the number of bytes to emit.
// Unless atEOF, an incomplete trailing sequence is moved to pending.
func (s *UTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	end := len(data)
	if !atEOF {
		if tail := incompleteTrailingBytes(data); tail > 0 {
			end -= tail
			s.pending = append(s.pending, data[end:]...)
		}
	}
	if utf8.Valid(data[:end]) {
		return end
	}

	w := 0
	for i := 0; i < end; {
		r, size := utf8.DecodeRune(data[i:end])
		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			i++
			continue
		}
		copy(data[w:], data[i:i+size])
		w += size
		i += size
	}
	return w
}

// incompleteTrailingBytes returns how many bytes at the end of data start a
// multi-byte sequence that has not finished yet.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		c := data[len(data)-i]
		if c >= 0xC0 {
			if i < runeLen(c) {
				return i
			}
			return 0
		}
		if c&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen is the sequence length announced by lead byte c.
func runeLen(c byte) int {
	switch {
	case c < 0x80:
		return 1
	case c < 0xC0:
		return 0
	case c < 0xE0:
		return 2
	case c < 0xF0:
		return 3
	}
	return 4
}

// CountingReader counts the bytes read through it.
type CountingReader struct {
	r     io.Reader
	Bytes int64
	Limit int64
}

// NewCountingReader wraps r. A positive limit makes Read fail with
// ErrTooLarge once more than limit bytes have been read.
func NewCountingReader(r io.Reader, limit int64) *CountingReader {
	return &CountingReader{r: r, Limit: limit}
}

// ErrTooLarge is returned by CountingReader when its limit is exceeded.
var ErrTooLarge = errors.New("input exceeds size limit")

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.Bytes += int64(n)
	if c.Limit > 0 && c.Bytes > c.Limit {
		return n, ErrTooLarge
	}
	return n, err
}
