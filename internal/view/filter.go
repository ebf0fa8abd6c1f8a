// Package view computes the display order of a table: the subset of storage
// rows that pass every column filter, optionally sorted by one column.
//
// Nothing here mutates a table. The display order is a plain []int of
// storage indices, recomputed by the caller whenever the table, the filters
// or the sort change.
package view

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/JonMunkholm/csvedit/internal/table"
)

// ColumnFilter is a predicate over one column's cells. The only
// implementations are StringFilter and NumberFilter.
type ColumnFilter interface {
	columnFilter()
}

// StringFilter matches cells containing Value, ignoring case.
type StringFilter struct {
	Value string
}

// NumberFilter matches numeric cells for which `cell Operator Value` holds.
type NumberFilter struct {
	Operator Operator
	Value    float64
}

func (StringFilter) columnFilter() {}
func (NumberFilter) columnFilter() {}

// Operator is a NumberFilter comparison.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
)

// ParseOperator converts a user-supplied string to an Operator.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(strings.TrimSpace(s)); op {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return op, nil
	}
	return "", fmt.Errorf("invalid operator %q", s)
}

// Holds reports whether `a op b` is true. Unknown operators never hold.
func (op Operator) Holds(a, b float64) bool {
	switch op {
	case OpEqual:
		return a == b
	case OpNotEqual:
		return a != b
	case OpGreater:
		return a > b
	case OpLess:
		return a < b
	case OpGreaterEqual:
		return a >= b
	case OpLessEqual:
		return a <= b
	}
	return false
}

// FilterState maps a column index to its filter. At most one filter per
// column; all entries must match for a row to be displayed.
type FilterState map[int]ColumnFilter

// Clone returns an independent copy of f.
func (f FilterState) Clone() FilterState {
	c := make(FilterState, len(f))
	for col, flt := range f {
		c[col] = flt
	}
	return c
}

// WithColumnInserted shifts filters at or after col one column to the right.
func (f FilterState) WithColumnInserted(col int) FilterState {
	c := make(FilterState, len(f))
	for k, flt := range f {
		if k >= col {
			k++
		}
		c[k] = flt
	}
	return c
}

// WithColumnRemoved drops the filter on col and shifts later filters left.
func (f FilterState) WithColumnRemoved(col int) FilterState {
	c := make(FilterState, len(f))
	for k, flt := range f {
		switch {
		case k == col:
			continue
		case k > col:
			k--
		}
		c[k] = flt
	}
	return c
}

// matcher evaluates filters with case folding done once per filter value.
type matcher struct {
	fold    cases.Caser
	filters map[int]compiledFilter
}

type compiledFilter struct {
	filter ColumnFilter
	folded string
}

func newMatcher(filters FilterState) *matcher {
	m := &matcher{
		fold:    cases.Fold(),
		filters: make(map[int]compiledFilter, len(filters)),
	}
	for col, f := range filters {
		cf := compiledFilter{filter: f}
		if sf, ok := f.(StringFilter); ok {
			cf.folded = m.fold.String(sf.Value)
		}
		m.filters[col] = cf
	}
	return m
}

// row reports whether every filter matches row. Filters on columns the row
// does not have are ignored.
func (m *matcher) row(row []string) bool {
	for col, cf := range m.filters {
		if col < 0 || col >= len(row) {
			continue
		}
		if !m.cell(cf, row[col]) {
			return false
		}
	}
	return true
}

func (m *matcher) cell(cf compiledFilter, value string) bool {
	switch f := cf.filter.(type) {
	case StringFilter:
		return strings.Contains(m.fold.String(value), cf.folded)
	case NumberFilter:
		n, ok := table.ParseNumber(value)
		return ok && f.Operator.Holds(n, f.Value)
	default:
		return false
	}
}

// Match reports whether a single cell value satisfies f.
func Match(f ColumnFilter, value string) bool {
	m := newMatcher(FilterState{0: f})
	return m.cell(m.filters[0], value)
}
