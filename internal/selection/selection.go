// Package selection models rectangular cell and whole-row selections over a
// table's display coordinates, and moves cell blocks in and out of the
// tab-separated clipboard wire format.
//
// Row -1 addresses the header row. Row indices >= 0 are display positions;
// they are translated to storage rows through the display indices produced
// by package view.
package selection

import "github.com/JonMunkholm/csvedit/internal/table"

// CellPosition addresses one cell. Row table.HeaderRow is the header.
type CellPosition struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Range is a rectangular selection. Start is the anchor and End the focus;
// neither is reordered when stored.
type Range struct {
	Start CellPosition `json:"start"`
	End   CellPosition `json:"end"`
}

// NewRange returns a single-cell range at p.
func NewRange(p CellPosition) Range {
	return Range{Start: p, End: p}
}

// Normalize returns r with Start <= End on both axes.
func (r Range) Normalize() Range {
	return Range{
		Start: CellPosition{Row: min(r.Start.Row, r.End.Row), Col: min(r.Start.Col, r.End.Col)},
		End:   CellPosition{Row: max(r.Start.Row, r.End.Row), Col: max(r.Start.Col, r.End.Col)},
	}
}

// Extend moves the focus to p, keeping the anchor.
func (r Range) Extend(p CellPosition) Range {
	return Range{Start: r.Start, End: p}
}

// Contains reports whether p lies inside the rectangle.
func (r Range) Contains(p CellPosition) bool {
	n := r.Normalize()
	return p.Row >= n.Start.Row && p.Row <= n.End.Row &&
		p.Col >= n.Start.Col && p.Col <= n.End.Col
}

// IsSingleCell reports whether anchor and focus are the same cell.
func (r Range) IsSingleCell() bool {
	return r.Start == r.End
}

// Height returns the number of rows spanned.
func (r Range) Height() int {
	n := r.Normalize()
	return n.End.Row - n.Start.Row + 1
}

// Width returns the number of columns spanned.
func (r Range) Width() int {
	n := r.Normalize()
	return n.End.Col - n.Start.Col + 1
}

// clip intersects the normalized rectangle with rows [-1, rows) and columns
// [0, cols). The second result is false when nothing remains.
func (r Range) clip(rows, cols int) (Range, bool) {
	n := r.Normalize()
	n.Start.Row = max(n.Start.Row, table.HeaderRow)
	n.Start.Col = max(n.Start.Col, 0)
	n.End.Row = min(n.End.Row, rows-1)
	n.End.Col = min(n.End.Col, cols-1)
	if n.Start.Row > n.End.Row || n.Start.Col > n.End.Col {
		return Range{}, false
	}
	return n, true
}

// RowRange is a whole-row selection with an anchor row and a focus row.
type RowRange struct {
	StartRow int `json:"startRow"`
	EndRow   int `json:"endRow"`
}

// Normalize returns r with StartRow <= EndRow.
func (r RowRange) Normalize() RowRange {
	return RowRange{StartRow: min(r.StartRow, r.EndRow), EndRow: max(r.StartRow, r.EndRow)}
}

// Extend moves the focus row, keeping the anchor.
func (r RowRange) Extend(row int) RowRange {
	return RowRange{StartRow: r.StartRow, EndRow: row}
}

// Contains reports whether row lies inside the range.
func (r RowRange) Contains(row int) bool {
	n := r.Normalize()
	return row >= n.StartRow && row <= n.EndRow
}

// Rows returns the selected display rows in ascending order.
func (r RowRange) Rows() []int {
	n := r.Normalize()
	rows := make([]int, 0, n.EndRow-n.StartRow+1)
	for i := n.StartRow; i <= n.EndRow; i++ {
		rows = append(rows, i)
	}
	return rows
}

// State is the current selection. At most one of Cells and Rows is set.
type State struct {
	Cells *Range    `json:"cells,omitempty"`
	Rows  *RowRange `json:"rows,omitempty"`
}

// Empty reports whether nothing is selected.
func (s State) Empty() bool {
	return s.Cells == nil && s.Rows == nil
}

// SelectCell starts a new cell selection at p, clearing any row selection.
func (s State) SelectCell(p CellPosition) State {
	r := NewRange(p)
	return State{Cells: &r}
}

// ExtendCell moves the focus of the cell selection to p. Without a cell
// selection it behaves like SelectCell.
func (s State) ExtendCell(p CellPosition) State {
	if s.Cells == nil {
		return s.SelectCell(p)
	}
	r := s.Cells.Extend(p)
	return State{Cells: &r}
}

// SelectRow starts a new row selection at row, clearing any cell selection.
func (s State) SelectRow(row int) State {
	return State{Rows: &RowRange{StartRow: row, EndRow: row}}
}

// ExtendRow moves the focus of the row selection to row. Without a row
// selection it behaves like SelectRow.
func (s State) ExtendRow(row int) State {
	if s.Rows == nil {
		return s.SelectRow(row)
	}
	r := s.Rows.Extend(row)
	return State{Rows: &r}
}

// Rect returns the selection as a rectangle over a table with cols columns.
// A row selection spans every column.
func (s State) Rect(cols int) (Range, bool) {
	switch {
	case s.Cells != nil:
		return *s.Cells, true
	case s.Rows != nil && cols > 0:
		n := s.Rows.Normalize()
		return Range{
			Start: CellPosition{Row: n.StartRow, Col: 0},
			End:   CellPosition{Row: n.EndRow, Col: cols - 1},
		}, true
	}
	return Range{}, false
}
