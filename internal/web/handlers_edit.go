package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/csvedit/internal/session"
	"github.com/JonMunkholm/csvedit/internal/table"
	"github.com/JonMunkholm/csvedit/internal/view"
)

type cellsRequest struct {
	Updates []table.CellUpdate `json:"updates"`
}

// handleUpdateCells applies a batch of cell writes addressed by storage row.
// Row -1 renames headers.
func (s *Server) handleUpdateCells(w http.ResponseWriter, r *http.Request) {
	var req cellsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	changed := sessionFrom(r.Context()).UpdateCells(req.Updates)
	s.respondMutation(w, r, "update_cells", changed)
}

type addRowRequest struct {
	Index *int `json:"index"`
}

func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	var req addRowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	index := table.End
	if req.Index != nil {
		index = *req.Index
	}
	changed := sessionFrom(r.Context()).AddRow(index)
	s.respondMutation(w, r, "add_row", changed)
}

type removeRowsRequest struct {
	Rows []int `json:"rows"`
	// Display addresses rows by their position in the current view.
	Display bool `json:"display"`
}

func (s *Server) handleRemoveRows(w http.ResponseWriter, r *http.Request) {
	var req removeRowsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	changed := sessionFrom(r.Context()).RemoveRows(req.Rows, req.Display)
	s.respondMutation(w, r, "remove_rows", changed)
}

type addColumnRequest struct {
	Index *int   `json:"index"`
	Type  string `json:"type"`
}

func (s *Server) handleAddColumn(w http.ResponseWriter, r *http.Request) {
	var req addColumnRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	typ := table.TypeAuto
	if req.Type != "" {
		parsed, err := table.ParseColumnType(req.Type)
		if err != nil {
			fail(w, r, wrapInvalid(err))
			return
		}
		typ = parsed
	}
	index := table.End
	if req.Index != nil {
		index = *req.Index
	}
	changed := sessionFrom(r.Context()).AddColumn(index, typ)
	s.respondMutation(w, r, "add_column", changed)
}

func (s *Server) handleRemoveColumn(w http.ResponseWriter, r *http.Request) {
	col, err := columnParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	changed := sessionFrom(r.Context()).RemoveColumn(col)
	s.respondMutation(w, r, "remove_column", changed)
}

type columnTypeRequest struct {
	Type string `json:"type"`
}

func (s *Server) handleSetColumnType(w http.ResponseWriter, r *http.Request) {
	col, err := columnParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req columnTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	typ, err := table.ParseColumnType(req.Type)
	if err != nil {
		fail(w, r, wrapInvalid(err))
		return
	}
	changed, err := sessionFrom(r.Context()).SetColumnType(col, typ)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.respondMutation(w, r, "set_column_type", changed)
}

func (s *Server) handleRedetectTypes(w http.ResponseWriter, r *http.Request) {
	changed := sessionFrom(r.Context()).RedetectTypes()
	s.respondMutation(w, r, "redetect_types", changed)
}

// handleSetFilter replaces the filter on {col} with the FilterSpec body.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	col, err := columnParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var spec view.FilterSpec
	if !decodeJSON(w, r, &spec) {
		return
	}
	f, err := spec.Filter()
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := sessionFrom(r.Context()).SetFilter(col, f); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, s.pageOf(r, sessionFrom(r.Context())))
}

func (s *Server) handleClearFilter(w http.ResponseWriter, r *http.Request) {
	col, err := columnParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	sessionFrom(r.Context()).ClearFilter(col)
	writeJSON(w, s.pageOf(r, sessionFrom(r.Context())))
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).ClearFilters()
	writeJSON(w, s.pageOf(r, sessionFrom(r.Context())))
}

// handleToggleSort advances {col} through none, asc and desc.
func (s *Server) handleToggleSort(w http.ResponseWriter, r *http.Request) {
	col, err := columnParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if _, err := sessionFrom(r.Context()).ToggleSort(col); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, s.pageOf(r, sessionFrom(r.Context())))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).Undo(); err != nil {
		fail(w, r, err)
		return
	}
	s.respondMutation(w, r, "undo", true)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).Redo(); err != nil {
		fail(w, r, err)
		return
	}
	s.respondMutation(w, r, "redo", true)
}

func wrapInvalid(err error) error {
	return fmt.Errorf("%w: %v", session.ErrInvalidOption, err)
}
