package session

import (
	"fmt"

	"github.com/JonMunkholm/csvedit/internal/selection"
	"github.com/JonMunkholm/csvedit/internal/table"
	"github.com/JonMunkholm/csvedit/internal/view"
)

// Mutations below report whether the table changed. A change that leaves the
// table as it was is not recorded in the undo history.

// UpdateCells applies a batch of cell edits addressed by storage row.
// Row table.HeaderRow edits the headers.
func (s *Session) UpdateCells(updates []table.CellUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.commit(table.UpdateCells(s.table, updates))
}

// AddRow inserts a blank row before storage row index, or appends when index
// is table.End.
func (s *Session) AddRow(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.commit(table.AddRow(s.table, index))
}

// RemoveRows removes rows. With display set, rows are display positions and
// are translated through the current display order first.
func (s *Session) RemoveRows(rows []int, display bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if display {
		indices := s.displayIndices()
		storage := make([]int, 0, len(rows))
		for _, d := range rows {
			if idx := view.DisplayToDataIndex(indices, d); idx != view.NotFound {
				storage = append(storage, idx)
			}
		}
		rows = storage
	}

	if !s.commit(table.RemoveRows(s.table, rows)) {
		return false
	}
	s.sel = selection.State{}
	return true
}

// AddColumn inserts a column of type typ before index, or appends when index
// is table.End. Filters and sort on later columns shift right.
func (s *Session) AddColumn(index int, typ table.ColumnType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	cols := s.table.ColumnCount()
	if index < 0 || index > cols {
		index = cols
	}
	next := table.AddColumn(s.table, index, typ, s.prefix)
	return s.commitStructure(next, s.filters.WithColumnInserted(index), s.sort.WithColumnInserted(index))
}

// RemoveColumn removes column col together with any filter or sort on it.
func (s *Session) RemoveColumn(col int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	next := table.RemoveColumn(s.table, col)
	if next == s.table {
		return false
	}
	return s.commitStructure(next, s.filters.WithColumnRemoved(col), s.sort.WithColumnRemoved(col))
}

// SetColumnType sets the declared type of col.
func (s *Session) SetColumnType(col int, typ table.ColumnType) (bool, error) {
	if !typ.Valid() {
		return false, fmt.Errorf("%w: column type %q", ErrInvalidOption, typ)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if col < 0 || col >= s.table.ColumnCount() {
		return false, fmt.Errorf("%w: column %d", ErrOutOfRange, col)
	}
	return s.commit(table.UpdateColumnType(s.table, col, typ)), nil
}

// RedetectTypes re-infers every column type from the current data.
func (s *Session) RedetectTypes() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.commit(table.RedetectColumnTypes(s.table))
}

// commitStructure commits a column change along with the remapped filters
// and sort, and clears the selection. Callers hold s.mu.
func (s *Session) commitStructure(next *table.Table, filters view.FilterState, sort view.SortState) bool {
	if !s.commit(next) {
		return false
	}
	s.filters = filters
	s.sort = sort
	s.sel = selection.State{}
	return true
}

// SetFilter replaces the filter on col.
func (s *Session) SetFilter(col int, f view.ColumnFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if col < 0 || col >= s.table.ColumnCount() {
		return fmt.Errorf("%w: column %d", ErrOutOfRange, col)
	}
	filters := s.filters.Clone()
	filters[col] = f
	s.filters = filters
	s.sel = selection.State{}
	s.invalidate()
	return nil
}

// ClearFilter removes the filter on col, if any.
func (s *Session) ClearFilter(col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if _, ok := s.filters[col]; !ok {
		return
	}
	filters := s.filters.Clone()
	delete(filters, col)
	s.filters = filters
	s.sel = selection.State{}
	s.invalidate()
}

// ClearFilters removes every filter.
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if len(s.filters) == 0 {
		return
	}
	s.filters = view.FilterState{}
	s.sel = selection.State{}
	s.invalidate()
}

// ToggleSort advances the sort on col and returns the new state.
func (s *Session) ToggleSort(col int) (view.SortState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if col < 0 || col >= s.table.ColumnCount() {
		return s.sort, fmt.Errorf("%w: column %d", ErrOutOfRange, col)
	}
	s.sort = view.ToggleSort(s.sort, col)
	s.sel = selection.State{}
	s.invalidate()
	return s.sort, nil
}

// Selection returns the current selection.
func (s *Session) Selection() selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// SetSelection replaces the selection. Positions are display rows.
func (s *Session) SetSelection(st selection.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if st.Cells != nil && st.Rows != nil {
		st.Rows = nil
	}
	s.sel = st
}

// SelectCell starts a cell selection at p, or extends the current one.
func (s *Session) SelectCell(p selection.CellPosition, extend bool) selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if extend {
		s.sel = s.sel.ExtendCell(p)
	} else {
		s.sel = s.sel.SelectCell(p)
	}
	return s.sel
}

// SelectRow starts a row selection at display row, or extends the current one.
func (s *Session) SelectRow(row int, extend bool) selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if extend {
		s.sel = s.sel.ExtendRow(row)
	} else {
		s.sel = s.sel.SelectRow(row)
	}
	return s.sel
}

// rect returns the selected rectangle. Callers hold s.mu.
func (s *Session) rect() (selection.Range, error) {
	r, ok := s.sel.Rect(s.table.ColumnCount())
	if !ok {
		return selection.Range{}, ErrNoSelection
	}
	return r, nil
}

// Copy returns the selected cells in clipboard wire format.
func (s *Session) Copy() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	r, err := s.rect()
	if err != nil {
		return "", err
	}
	return selection.Copy(s.table, s.displayIndices(), r), nil
}

// Cut returns the selected cells in clipboard wire format and clears them.
func (s *Session) Cut() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	r, err := s.rect()
	if err != nil {
		return "", err
	}
	text, next := selection.Cut(s.table, s.displayIndices(), r)
	s.commit(next)
	return text, nil
}

// Paste writes clipboard text at the selection and selects the written area.
func (s *Session) Paste(text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	r, err := s.rect()
	if err != nil {
		return false, err
	}
	next, area, ok := selection.Paste(s.table, s.displayIndices(), r, text)
	if !ok {
		return false, nil
	}
	changed := s.commit(next)
	s.sel = selection.State{Cells: &area}
	return changed, nil
}

// ClearSelected empties the selected data cells.
func (s *Session) ClearSelected() (bool, error) {
	return s.applyToSelection(selection.Clear)
}

// FillDown copies the top selected row into the rows below it.
func (s *Session) FillDown() (bool, error) {
	return s.applyToSelection(selection.FillDown)
}

// FillRight copies the leftmost selected column into the columns to its right.
func (s *Session) FillRight() (bool, error) {
	return s.applyToSelection(selection.FillRight)
}

func (s *Session) applyToSelection(op func(*table.Table, []int, selection.Range) *table.Table) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	r, err := s.rect()
	if err != nil {
		return false, err
	}
	return s.commit(op(s.table, s.displayIndices(), r)), nil
}
