package view

import "github.com/JonMunkholm/csvedit/internal/table"

// NotFound is returned by the index lookups when there is no mapping.
const NotFound = -1

// ComputeDisplayIndices returns the storage indices of the rows to display,
// in display order.
//
// Rows are filtered first: with no filters every row survives, otherwise a
// row survives only if every filter matches. The survivors are then stably
// sorted when s is active. Blank cells always sort last; in a numeric sort,
// cells that do not parse as numbers sort after the numbers and before the
// blanks. Number columns sort numerically, String columns naturally, and Auto
// columns numerically if any surviving cell is numeric.
func ComputeDisplayIndices(t *table.Table, filters FilterState, s SortState) []int {
	indices := make([]int, 0, len(t.Rows))
	if len(filters) == 0 {
		for i := range t.Rows {
			indices = append(indices, i)
		}
	} else {
		m := newMatcher(filters)
		for i, row := range t.Rows {
			if m.row(row) {
				indices = append(indices, i)
			}
		}
	}

	if s.Active() && s.Column < t.ColumnCount() && len(indices) > 1 {
		sortIndices(t, indices, s)
	}
	return indices
}

// DisplayToDataIndex maps a display position to its storage index.
func DisplayToDataIndex(indices []int, display int) int {
	if display < 0 || display >= len(indices) {
		return NotFound
	}
	return indices[display]
}

// DataToDisplayIndex maps a storage index to its display position. Returns
// NotFound when the row is filtered out.
func DataToDisplayIndex(indices []int, data int) int {
	for i, idx := range indices {
		if idx == data {
			return i
		}
	}
	return NotFound
}
