package table

import (
	"slices"
)

// End is the insertion index meaning "append".
const End = -1

// CellUpdate is one entry of a batch update. Row HeaderRow targets headers.
type CellUpdate struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

// AddRow inserts a row of empty strings at index. End, or any index outside
// [0, RowCount], appends.
func AddRow(t *Table, index int) *Table {
	if index < 0 || index > len(t.Rows) {
		index = len(t.Rows)
	}

	next := t.shallow()
	next.Rows = slices.Insert(slices.Clone(t.Rows), index, make([]string, len(t.Headers)))
	return next
}

// RemoveRow removes the row at index. Out-of-range indices return t.
func RemoveRow(t *Table, index int) *Table {
	if index < 0 || index >= len(t.Rows) {
		return t
	}

	next := t.shallow()
	next.Rows = slices.Delete(slices.Clone(t.Rows), index, index+1)
	return next
}

// RemoveRows removes every listed row. Duplicates and out-of-range indices
// are ignored; removal runs in descending order so earlier removals do not
// shift later targets. Returns t when nothing is removed.
func RemoveRows(t *Table, indices []int) *Table {
	targets := make([]int, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(t.Rows) {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return t
	}

	slices.Sort(targets)
	targets = slices.Compact(targets)

	rows := slices.Clone(t.Rows)
	for i := len(targets) - 1; i >= 0; i-- {
		idx := targets[i]
		rows = slices.Delete(rows, idx, idx+1)
	}

	next := t.shallow()
	next.Rows = rows
	return next
}

// AddColumn inserts an empty column at index with the given type and a
// synthetic header built from prefix. End, or any index outside
// [0, ColumnCount], appends. An invalid type falls back to TypeAuto.
func AddColumn(t *Table, index int, typ ColumnType, prefix string) *Table {
	if index < 0 || index > len(t.Headers) {
		index = len(t.Headers)
	}
	if !typ.Valid() {
		typ = TypeAuto
	}
	if prefix == "" {
		prefix = DefaultColumnPrefix
	}

	next := t.shallow()
	next.Headers = slices.Insert(slices.Clone(t.Headers), index, uniqueHeader(t.Headers, prefix))
	next.ColumnTypes = slices.Insert(slices.Clone(t.ColumnTypes), index, typ)
	next.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		next.Rows[i] = slices.Insert(slices.Clone(row), index, "")
	}
	return next
}

// uniqueHeader returns the first "{prefix} {n}" with n > len(headers) that is
// not already taken.
func uniqueHeader(headers []string, prefix string) string {
	n := len(headers) + 1
	for {
		name := syntheticName(prefix, n)
		if !slices.Contains(headers, name) {
			return name
		}
		n++
	}
}

// RemoveColumn removes column index from headers, every row, and the column
// types. Out-of-range indices return t.
func RemoveColumn(t *Table, index int) *Table {
	if index < 0 || index >= len(t.Headers) {
		return t
	}

	next := t.shallow()
	next.Headers = slices.Delete(slices.Clone(t.Headers), index, index+1)
	next.ColumnTypes = slices.Delete(slices.Clone(t.ColumnTypes), index, index+1)
	next.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		next.Rows[i] = slices.Delete(slices.Clone(row), index, index+1)
	}
	return next
}

// UpdateCell sets one cell. Row HeaderRow updates Headers[col]. Out-of-range
// positions and unchanged values return t.
func UpdateCell(t *Table, row, col int, value string) *Table {
	return UpdateCells(t, []CellUpdate{{Row: row, Col: col, Value: value}})
}

// UpdateCells applies a batch of updates. Each mutated backing slice is
// cloned at most once regardless of the number of updates touching it.
// Invalid or no-op updates are skipped; if none apply, t is returned.
// Later updates to the same cell win.
func UpdateCells(t *Table, updates []CellUpdate) *Table {
	var (
		next         *Table
		headersOwned bool
		rowsOwned    bool
		owned        map[int]bool
	)

	for _, u := range updates {
		current, ok := t.Cell(u.Row, u.Col)
		if !ok {
			continue
		}
		if next == nil {
			if current == u.Value {
				continue
			}
			next = t.shallow()
		} else if v, _ := next.Cell(u.Row, u.Col); v == u.Value {
			continue
		}

		if u.Row == HeaderRow {
			if !headersOwned {
				next.Headers = slices.Clone(t.Headers)
				headersOwned = true
			}
			next.Headers[u.Col] = u.Value
			continue
		}

		if !rowsOwned {
			next.Rows = slices.Clone(t.Rows)
			rowsOwned = true
			owned = make(map[int]bool)
		}
		if !owned[u.Row] {
			next.Rows[u.Row] = slices.Clone(t.Rows[u.Row])
			owned[u.Row] = true
		}
		next.Rows[u.Row][u.Col] = u.Value
	}

	if next == nil {
		return t
	}
	return next
}

// UpdateColumnType sets the type tag of column col. Out-of-range columns,
// invalid types, and unchanged types return t.
func UpdateColumnType(t *Table, col int, typ ColumnType) *Table {
	if col < 0 || col >= len(t.ColumnTypes) || !typ.Valid() || t.ColumnTypes[col] == typ {
		return t
	}

	next := t.shallow()
	next.ColumnTypes = slices.Clone(t.ColumnTypes)
	next.ColumnTypes[col] = typ
	return next
}

// RedetectColumnTypes recomputes every column type from the current rows.
// Returns t when no type changes.
func RedetectColumnTypes(t *Table) *Table {
	types := DetectColumnTypes(t.Rows, len(t.Headers))
	if slices.Equal(types, t.ColumnTypes) {
		return t
	}

	next := t.shallow()
	next.ColumnTypes = types
	return next
}
