package view

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/JonMunkholm/csvedit/internal/table"
)

// Direction is a sort direction.
type Direction string

const (
	DirNone Direction = "none"
	DirAsc  Direction = "asc"
	DirDesc Direction = "desc"
)

// ParseDirection converts a user-supplied string to a Direction. The empty
// string is DirNone.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case DirNone, DirAsc, DirDesc:
		return d, nil
	case "":
		return DirNone, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", s)
}

// NoColumn marks a SortState without a sort column.
const NoColumn = -1

// SortState is the single active sort column and its direction.
type SortState struct {
	Column    int       `json:"column"`
	Direction Direction `json:"direction"`
}

// Unsorted is the SortState that keeps storage order.
var Unsorted = SortState{Column: NoColumn, Direction: DirNone}

// Active reports whether s reorders rows.
func (s SortState) Active() bool {
	return s.Column >= 0 && (s.Direction == DirAsc || s.Direction == DirDesc)
}

// ToggleSort returns the sort state after the user clicks column col.
// A new column sorts ascending; the active column cycles asc, desc, then
// back to storage order.
func ToggleSort(s SortState, col int) SortState {
	if s.Column != col {
		return SortState{Column: col, Direction: DirAsc}
	}
	switch s.Direction {
	case DirAsc:
		return SortState{Column: col, Direction: DirDesc}
	case DirDesc:
		return Unsorted
	default:
		return SortState{Column: col, Direction: DirAsc}
	}
}

// WithColumnInserted shifts the sort column right when col is at or before it.
func (s SortState) WithColumnInserted(col int) SortState {
	if s.Column >= 0 && s.Column >= col {
		s.Column++
	}
	return s
}

// WithColumnRemoved clears the sort when its column is removed and shifts it
// left when an earlier column is removed.
func (s SortState) WithColumnRemoved(col int) SortState {
	switch {
	case s.Column == col:
		return Unsorted
	case s.Column > col:
		s.Column--
	}
	return s
}

// sortKey is the precomputed comparison key of one cell.
type sortKey struct {
	blank   bool
	numeric bool
	num     float64
	folded  string
	raw     string
}

// sortIndices stably sorts indices by column col of t.
func sortIndices(t *table.Table, indices []int, s SortState) {
	col := s.Column
	fold := cases.Fold()

	keys := make(map[int]sortKey, len(indices))
	anyNumeric := false
	for _, i := range indices {
		v := t.Rows[i][col]
		k := sortKey{raw: v, blank: table.IsBlank(v)}
		if !k.blank {
			k.num, k.numeric = table.ParseNumber(v)
			anyNumeric = anyNumeric || k.numeric
		}
		keys[i] = k
	}

	numericSort := false
	switch t.ColumnType(col) {
	case table.TypeNumber:
		numericSort = true
	case table.TypeAuto:
		numericSort = anyNumeric
	}

	if !numericSort {
		for i, k := range keys {
			k.folded = fold.String(k.raw)
			keys[i] = k
		}
	}

	sign := 1
	if s.Direction == DirDesc {
		sign = -1
	}

	slices.SortStableFunc(indices, func(a, b int) int {
		ka, kb := keys[a], keys[b]

		// Blanks trail in either direction.
		if ka.blank || kb.blank {
			return boolOrder(ka.blank, kb.blank)
		}

		if numericSort {
			// Unparseable cells trail numbers in either direction.
			if !ka.numeric || !kb.numeric {
				if ka.numeric != kb.numeric {
					return boolOrder(!ka.numeric, !kb.numeric)
				}
				return sign * compareText(ka.raw, kb.raw, ka.raw, kb.raw)
			}
			switch {
			case ka.num < kb.num:
				return -sign
			case ka.num > kb.num:
				return sign
			}
			return 0
		}

		return sign * compareText(ka.folded, kb.folded, ka.raw, kb.raw)
	})
}

// compareText compares folded text naturally, using the raw text only to
// break ties between values that fold equal.
func compareText(fa, fb, ra, rb string) int {
	if c := CompareNatural(fa, fb); c != 0 {
		return c
	}
	return CompareNatural(ra, rb)
}

// boolOrder orders false before true.
func boolOrder(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}
