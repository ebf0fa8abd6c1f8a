// Package table provides the in-memory model for a delimited-text document.
//
// A [Table] is treated as an immutable value. Every mutator in this package
// returns a new *Table that shares unchanged rows with its input, or the input
// pointer itself when the operation is a no-op (out-of-range index, unchanged
// value). Callers compare pointers to skip downstream recomputation:
//
//	next := table.UpdateCell(t, 0, 2, "42")
//	if next == t {
//	    return // nothing changed
//	}
//
// Row order in a Table is the storage order. Filtering and sorting never
// reorder it; see package view for the display order.
package table

import (
	"fmt"
	"slices"
)

// ColumnType is the per-column type tag.
type ColumnType string

const (
	TypeAuto   ColumnType = "auto"
	TypeString ColumnType = "string"
	TypeNumber ColumnType = "number"
)

// Valid reports whether c is one of the known column types.
func (c ColumnType) Valid() bool {
	switch c {
	case TypeAuto, TypeString, TypeNumber:
		return true
	}
	return false
}

// ParseColumnType converts a user-supplied string to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	c := ColumnType(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid column type %q (must be auto, string, or number)", s)
	}
	return c, nil
}

// HeaderRow is the row index that addresses the header row.
const HeaderRow = -1

// DefaultColumnPrefix is the prefix used for synthetic header names.
const DefaultColumnPrefix = "Column"

// Table holds headers, rows and per-column types.
//
// Invariants: len(row) == len(Headers) for every row, and
// len(ColumnTypes) == len(Headers).
type Table struct {
	Headers     []string     `json:"headers"`
	Rows        [][]string   `json:"rows"`
	HasHeader   bool         `json:"hasHeader"`
	ColumnTypes []ColumnType `json:"columnTypes"`
}

// Empty returns a table with no headers and no rows.
func Empty(hasHeader bool) *Table {
	return &Table{
		Headers:     []string{},
		Rows:        [][]string{},
		HasHeader:   hasHeader,
		ColumnTypes: []ColumnType{},
	}
}

// New returns a blank table with cols synthetic headers and rows empty rows.
// All columns start as TypeAuto.
func New(cols, rows int, prefix string) *Table {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}

	t := &Table{
		Headers:     SyntheticHeaders(cols, prefix),
		Rows:        make([][]string, rows),
		HasHeader:   true,
		ColumnTypes: make([]ColumnType, cols),
	}
	for i := range t.Rows {
		t.Rows[i] = make([]string, cols)
	}
	for i := range t.ColumnTypes {
		t.ColumnTypes[i] = TypeAuto
	}
	return t
}

// SyntheticHeaders returns n header names of the form "{prefix} {i+1}".
func SyntheticHeaders(n int, prefix string) []string {
	if prefix == "" {
		prefix = DefaultColumnPrefix
	}
	headers := make([]string, n)
	for i := range headers {
		headers[i] = syntheticName(prefix, i+1)
	}
	return headers
}

func syntheticName(prefix string, n int) string {
	return fmt.Sprintf("%s %d", prefix, n)
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.Headers)
}

// Cell returns the value at (row, col). Row HeaderRow addresses the headers.
// The second result is false when the position is out of range.
func (t *Table) Cell(row, col int) (string, bool) {
	if col < 0 || col >= len(t.Headers) {
		return "", false
	}
	if row == HeaderRow {
		return t.Headers[col], true
	}
	if row < 0 || row >= len(t.Rows) {
		return "", false
	}
	return t.Rows[row][col], true
}

// Column returns a copy of every data value in column col.
func (t *Table) Column(col int) []string {
	if col < 0 || col >= len(t.Headers) {
		return nil
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[col]
	}
	return values
}

// ColumnType returns the type of column col, or TypeAuto when out of range.
func (t *Table) ColumnType(col int) ColumnType {
	if col < 0 || col >= len(t.ColumnTypes) {
		return TypeAuto
	}
	return t.ColumnTypes[col]
}

// Equal reports whether two tables hold the same headers, rows, header flag
// and column types.
func (t *Table) Equal(o *Table) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	if t.HasHeader != o.HasHeader ||
		!slices.Equal(t.Headers, o.Headers) ||
		!slices.Equal(t.ColumnTypes, o.ColumnTypes) ||
		len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Rows {
		if !slices.Equal(t.Rows[i], o.Rows[i]) {
			return false
		}
	}
	return true
}

// shallow returns a copy of t that shares every backing slice.
func (t *Table) shallow() *Table {
	c := *t
	return &c
}
