package selection

import "github.com/JonMunkholm/csvedit/internal/table"

// Copy serializes the cells inside r to the clipboard wire format.
func Copy(t *table.Table, indices []int, r Range) string {
	return Serialize(Extract(t, indices, r))
}

// Cut serializes the cells inside r and clears the data cells among them.
func Cut(t *table.Table, indices []int, r Range) (string, *table.Table) {
	return Copy(t, indices, r), Clear(t, indices, r)
}

// Clear empties every data cell inside r. Header cells are left alone.
func Clear(t *table.Table, indices []int, r Range) *table.Table {
	n, ok := r.clip(len(indices), t.ColumnCount())
	if !ok {
		return t
	}

	var updates []table.CellUpdate
	for dr := max(n.Start.Row, 0); dr <= n.End.Row; dr++ {
		row, ok := storageRow(indices, dr)
		if !ok {
			continue
		}
		for c := n.Start.Col; c <= n.End.Col; c++ {
			updates = append(updates, table.CellUpdate{Row: row, Col: c})
		}
	}
	return table.UpdateCells(t, updates)
}

// Paste writes clipboard text into the table starting at the top-left cell
// of target. Cells falling outside the table are dropped. A single copied
// value is broadcast to every cell of a multi-cell target.
//
// It returns the new table and the rectangle actually written, or the input
// table and false when nothing landed inside the table.
func Paste(t *table.Table, indices []int, target Range, text string) (*table.Table, Range, bool) {
	block := Deserialize(text)
	if len(block) == 0 {
		return t, Range{}, false
	}

	n := target.Normalize()
	var area Range
	if len(block) == 1 && len(block[0]) == 1 && !target.IsSingleCell() {
		area = n
	} else {
		width := 0
		for _, row := range block {
			width = max(width, len(row))
		}
		area = Range{
			Start: n.Start,
			End:   CellPosition{Row: n.Start.Row + len(block) - 1, Col: n.Start.Col + width - 1},
		}
	}

	clipped, ok := area.clip(len(indices), t.ColumnCount())
	if !ok {
		return t, Range{}, false
	}

	var updates []table.CellUpdate
	for dr := clipped.Start.Row; dr <= clipped.End.Row; dr++ {
		row, ok := storageRow(indices, dr)
		if !ok {
			continue
		}
		for c := clipped.Start.Col; c <= clipped.End.Col; c++ {
			v, ok := blockValue(block, dr-area.Start.Row, c-area.Start.Col)
			if !ok {
				continue
			}
			updates = append(updates, table.CellUpdate{Row: row, Col: c, Value: v})
		}
	}
	return table.UpdateCells(t, updates), clipped, true
}

// blockValue reads block[r][c], broadcasting a 1x1 block to any offset.
// Ragged rows read as missing past their end.
func blockValue(block [][]string, r, c int) (string, bool) {
	if len(block) == 1 && len(block[0]) == 1 {
		return block[0][0], true
	}
	if r < 0 || r >= len(block) || c < 0 || c >= len(block[r]) {
		return "", false
	}
	return block[r][c], true
}

// FillDown copies a source row into the cells below it.
//
// When r spans one row the source is the row directly above it (the header
// when r is on the first data row). Otherwise the source is the top row of r
// and the targets are the remaining rows. No-op without a valid source.
func FillDown(t *table.Table, indices []int, r Range) *table.Table {
	n, ok := r.clip(len(indices), t.ColumnCount())
	if !ok {
		return t
	}

	src := n.Start.Row
	first := n.Start.Row + 1
	if n.Height() == 1 {
		src = n.Start.Row - 1
		first = n.Start.Row
	}
	srcRow, ok := storageRow(indices, src)
	if !ok {
		return t
	}

	var updates []table.CellUpdate
	for dr := max(first, 0); dr <= n.End.Row; dr++ {
		row, ok := storageRow(indices, dr)
		if !ok {
			continue
		}
		for c := n.Start.Col; c <= n.End.Col; c++ {
			v, _ := t.Cell(srcRow, c)
			updates = append(updates, table.CellUpdate{Row: row, Col: c, Value: v})
		}
	}
	return table.UpdateCells(t, updates)
}

// FillRight copies a source column into the cells to its right.
//
// When r spans one column the source is the column directly to its left.
// Otherwise the source is the left column of r and the targets are the
// remaining columns. No-op without a valid source.
func FillRight(t *table.Table, indices []int, r Range) *table.Table {
	n, ok := r.clip(len(indices), t.ColumnCount())
	if !ok {
		return t
	}

	src := n.Start.Col
	first := n.Start.Col + 1
	if n.Width() == 1 {
		src = n.Start.Col - 1
		first = n.Start.Col
	}
	if src < 0 {
		return t
	}

	var updates []table.CellUpdate
	for dr := n.Start.Row; dr <= n.End.Row; dr++ {
		row, ok := storageRow(indices, dr)
		if !ok {
			continue
		}
		v, _ := t.Cell(row, src)
		for c := first; c <= n.End.Col; c++ {
			updates = append(updates, table.CellUpdate{Row: row, Col: c, Value: v})
		}
	}
	return table.UpdateCells(t, updates)
}
