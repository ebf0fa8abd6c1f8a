package textenc

import (
	"bytes"
	"unicode/utf8"
)

const (
	// detectSampleBytes bounds how much input DetectEncoding scores.
	detectSampleBytes = 1000

	// minLegacyPairs is the fewest double-byte pairs needed to pick a legacy
	// encoding over UTF-8.
	minLegacyPairs = 2
)

// DetectEncoding guesses the encoding of b.
//
// A UTF-8 BOM wins outright, then input that is valid UTF-8. Otherwise the
// first 1000 bytes are scored for Shift_JIS and EUC-JP lead/trail byte pairs
// and the higher score is used when it reaches minLegacyPairs. The default is
// UTF8.
func DetectEncoding(b []byte) Encoding {
	if bytes.HasPrefix(b, utf8BOM) {
		return UTF8BOM
	}

	sample := b
	if len(sample) > detectSampleBytes {
		sample = sample[:detectSampleBytes]
	}
	if utf8.Valid(trimPartialRune(sample)) {
		return UTF8
	}

	sjis := scoreShiftJIS(sample)
	euc := scoreEUCJP(sample)
	switch {
	case sjis >= minLegacyPairs && sjis > euc:
		return ShiftJIS
	case euc >= minLegacyPairs && euc >= sjis:
		return EUCJP
	}
	return UTF8
}

// trimPartialRune drops an incomplete multi-byte sequence cut off by sampling.
func trimPartialRune(b []byte) []byte {
	if n := incompleteTrailingBytes(b); n > 0 {
		return b[:len(b)-n]
	}
	return b
}

func scoreShiftJIS(b []byte) int {
	score := 0
	for i := 0; i+1 < len(b); i++ {
		lead, trail := b[i], b[i+1]
		if isSJISLead(lead) && isSJISTrail(trail) {
			score++
			i++
		}
	}
	return score
}

func isSJISLead(c byte) bool {
	return (c >= 0x81 && c <= 0x9F) || (c >= 0xE0 && c <= 0xFC)
}

func isSJISTrail(c byte) bool {
	return (c >= 0x40 && c <= 0x7E) || (c >= 0x80 && c <= 0xFC)
}

func scoreEUCJP(b []byte) int {
	score := 0
	for i := 0; i+1 < len(b); i++ {
		lead, trail := b[i], b[i+1]
		switch {
		case lead == 0x8E && trail >= 0xA1 && trail <= 0xDF:
			// half-width katakana
			score++
			i++
		case isEUCByte(lead) && isEUCByte(trail):
			score++
			i++
		}
	}
	return score
}

func isEUCByte(c byte) bool {
	return c >= 0xA1 && c <= 0xFE
}
