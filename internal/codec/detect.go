package codec

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Candidates are the delimiters DetectDelimiter chooses from, in tie-break
// order.
var Candidates = []rune{',', '\t', ';', '|'}

// detectSampleLines is how many leading lines DetectDelimiter inspects.
const detectSampleLines = 10

// DetectDelimiter infers the most likely field separator of text.
//
// For every candidate it counts unquoted occurrences per sampled line and
// scores the lines with a non-zero count by mean / (variance + 1), so a
// delimiter that appears a consistent number of times beats one that is
// merely frequent. Falls back to ',' when no candidate occurs.
func DetectDelimiter(text string) rune {
	lines := strings.SplitN(text, "\n", detectSampleLines+1)
	if len(lines) > detectSampleLines {
		lines = lines[:detectSampleLines]
	}

	best := ','
	bestScore := -1.0
	for _, c := range Candidates {
		score, ok := delimiterScore(lines, c)
		if ok && score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}

func delimiterScore(lines []string, delimiter rune) (float64, bool) {
	var counts []float64
	for _, line := range lines {
		if n := countUnquoted(line, delimiter); n > 0 {
			counts = append(counts, float64(n))
		}
	}
	if len(counts) == 0 {
		return 0, false
	}

	var sum float64
	for _, n := range counts {
		sum += n
	}
	mean := sum / float64(len(counts))

	var variance float64
	for _, n := range counts {
		d := n - mean
		variance += d * d
	}
	variance /= float64(len(counts))

	return mean / (variance + 1), true
}

// countUnquoted counts delimiter occurrences outside double-quoted spans.
func countUnquoted(line string, delimiter rune) int {
	n := 0
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == delimiter && !quoted:
			n++
		}
	}
	return n
}

// ParseDelimiter converts a user-supplied delimiter to a rune. "auto" and
// the empty string report auto=true; "tab" and `\t` are accepted for tabs.
func ParseDelimiter(s string) (d rune, auto bool, err error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, true, nil
	case "tab", `\t`:
		return '\t', false, nil
	case "comma":
		return ',', false, nil
	case "semicolon":
		return ';', false, nil
	case "pipe":
		return '|', false, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, false, fmt.Errorf("invalid delimiter %q", s)
	}
	d, _ = utf8.DecodeRuneInString(s)
	if d == '\n' || d == '\r' || d == '"' {
		return 0, false, fmt.Errorf("invalid delimiter %q", s)
	}
	return d, false, nil
}
