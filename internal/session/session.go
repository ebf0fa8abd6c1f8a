// Package session holds the editing sessions of the host: one table per
// session together with its filters, sort, selection and undo history.
//
// Tables are immutable values, so a session only swaps pointers. Every
// session method takes the session's mutex; the store guards the session map
// separately.
package session

import (
	"sync"
	"time"

	"github.com/JonMunkholm/csvedit/internal/selection"
	"github.com/JonMunkholm/csvedit/internal/table"
	"github.com/JonMunkholm/csvedit/internal/textenc"
	"github.com/JonMunkholm/csvedit/internal/view"
)

// Source records how a session's text was read so exports can default to
// the same dialect.
type Source struct {
	Encoding  textenc.Encoding `json:"encoding"`
	Delimiter rune             `json:"-"`
	QuoteChar rune             `json:"-"`
}

// snapshot is one undo/redo entry.
type snapshot struct {
	table   *table.Table
	filters view.FilterState
	sort    view.SortState
}

// Session is one open table.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Source    Source

	mu         sync.Mutex
	lastAccess time.Time
	table      *table.Table
	filters    view.FilterState
	sort       view.SortState
	sel        selection.State
	indices    []int
	undo       []snapshot
	redo       []snapshot
	maxUndo    int
	prefix     string
}

func newSession(id, name string, t *table.Table, src Source, opts Options, now time.Time) *Session {
	if src.Delimiter == 0 {
		src.Delimiter = ','
	}
	if src.QuoteChar == 0 {
		src.QuoteChar = '"'
	}
	return &Session{
		ID:         id,
		Name:       name,
		CreatedAt:  now,
		Source:     src,
		lastAccess: now,
		table:      t,
		filters:    view.FilterState{},
		sort:       view.Unsorted,
		maxUndo:    opts.MaxUndo,
		prefix:     opts.ColumnPrefix,
	}
}

// touch records an access. Callers hold s.mu.
func (s *Session) touch() {
	s.lastAccess = time.Now()
}

// LastAccess returns when the session was last used.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess.Before(cutoff)
}

// Table returns the current table. The value must not be modified.
func (s *Session) Table() *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.table
}

// displayIndices returns the cached display order, recomputing it when the
// table, filters or sort changed. Callers hold s.mu.
func (s *Session) displayIndices() []int {
	if s.indices == nil {
		s.indices = view.ComputeDisplayIndices(s.table, s.filters, s.sort)
	}
	return s.indices
}

// invalidate drops the cached display order. Callers hold s.mu.
func (s *Session) invalidate() {
	s.indices = nil
}

func (s *Session) current() snapshot {
	return snapshot{table: s.table, filters: s.filters, sort: s.sort}
}

func (s *Session) restore(snap snapshot) {
	s.table = snap.table
	s.filters = snap.filters
	s.sort = snap.sort
	s.sel = selection.State{}
	s.invalidate()
}

// commit installs next as the current table and records the previous state
// for undo. It reports false, recording nothing, when next is the current
// table. Callers hold s.mu.
func (s *Session) commit(next *table.Table) bool {
	if next == s.table {
		return false
	}
	s.pushUndo(s.current())
	s.redo = nil
	s.table = next
	s.invalidate()
	return true
}

func (s *Session) pushUndo(snap snapshot) {
	s.undo = append(s.undo, snap)
	if s.maxUndo > 0 && len(s.undo) > s.maxUndo {
		s.undo = s.undo[len(s.undo)-s.maxUndo:]
	}
}

// Undo restores the state before the last change.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if len(s.undo) == 0 {
		return ErrNothingToUndo
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.current())
	s.restore(prev)
	return nil
}

// Redo reapplies the last undone change.
func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if len(s.redo) == 0 {
		return ErrNothingToRedo
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.pushUndo(s.current())
	s.restore(next)
	return nil
}

// Summary is the listing form of a session.
type Summary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Rows       int       `json:"rows"`
	Columns    int       `json:"columns"`
	Encoding   string    `json:"encoding"`
	Delimiter  string    `json:"delimiter"`
	CreatedAt  time.Time `json:"createdAt"`
	LastAccess time.Time `json:"lastAccess"`
}

// Summary describes the session without its cells.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		ID:         s.ID,
		Name:       s.Name,
		Rows:       s.table.RowCount(),
		Columns:    s.table.ColumnCount(),
		Encoding:   string(s.Source.Encoding),
		Delimiter:  string(s.Source.Delimiter),
		CreatedAt:  s.CreatedAt,
		LastAccess: s.lastAccess,
	}
}

// DisplayRow is one visible row with its storage index.
type DisplayRow struct {
	Index int      `json:"index"`
	Cells []string `json:"cells"`
}

// View is a page of the display order plus the editing state.
type View struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Headers     []string                `json:"headers"`
	ColumnTypes []table.ColumnType      `json:"columnTypes"`
	HasHeader   bool                    `json:"hasHeader"`
	Rows        []DisplayRow            `json:"rows"`
	Offset      int                     `json:"offset"`
	TotalRows   int                     `json:"totalRows"`
	VisibleRows int                     `json:"visibleRows"`
	Filters     map[int]view.FilterSpec `json:"filters"`
	Sort        view.SortState          `json:"sort"`
	Selection   selection.State         `json:"selection"`
	CanUndo     bool                    `json:"canUndo"`
	CanRedo     bool                    `json:"canRedo"`
	Delimiter   string                  `json:"delimiter"`
	Encoding    textenc.Encoding        `json:"encoding"`
}

// View returns up to limit display rows starting at display position offset.
// A non-positive limit returns every row.
func (s *Session) View(offset, limit int) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	indices := s.displayIndices()
	offset = min(max(offset, 0), len(indices))
	end := len(indices)
	if limit > 0 {
		end = min(offset+limit, end)
	}

	rows := make([]DisplayRow, 0, end-offset)
	for _, idx := range indices[offset:end] {
		rows = append(rows, DisplayRow{Index: idx, Cells: s.table.Rows[idx]})
	}

	return View{
		ID:          s.ID,
		Name:        s.Name,
		Headers:     s.table.Headers,
		ColumnTypes: s.table.ColumnTypes,
		HasHeader:   s.table.HasHeader,
		Rows:        rows,
		Offset:      offset,
		TotalRows:   s.table.RowCount(),
		VisibleRows: len(indices),
		Filters:     view.Specs(s.filters),
		Sort:        s.sort,
		Selection:   s.sel,
		CanUndo:     len(s.undo) > 0,
		CanRedo:     len(s.redo) > 0,
		Delimiter:   string(s.Source.Delimiter),
		Encoding:    s.Source.Encoding,
	}
}

// DisplayIndices returns a copy of the current display order.
func (s *Session) DisplayIndices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.displayIndices()...)
}
