package web

import (
	"net/http"

	"github.com/JonMunkholm/csvedit/internal/selection"
)

// selectionRequest either replaces the selection with Cells or Rows, or,
// when Cell or Row is set, starts or extends a selection from a click.
type selectionRequest struct {
	Cells  *selection.Range        `json:"cells"`
	Rows   *selection.RowRange     `json:"rows"`
	Cell   *selection.CellPosition `json:"cell"`
	Row    *int                    `json:"row"`
	Extend bool                    `json:"extend"`
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess := sessionFrom(r.Context())

	var st selection.State
	switch {
	case req.Cell != nil:
		st = sess.SelectCell(*req.Cell, req.Extend)
	case req.Row != nil:
		st = sess.SelectRow(*req.Row, req.Extend)
	default:
		sess.SetSelection(selection.State{Cells: req.Cells, Rows: req.Rows})
		st = sess.Selection()
	}
	writeJSON(w, st)
}

// clipboardPayload carries text in the clipboard wire format.
type clipboardPayload struct {
	Text string `json:"text"`
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	text, err := sessionFrom(r.Context()).Copy()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, clipboardPayload{Text: text})
}

// handleCut returns the cut text along with the edited view.
func (s *Server) handleCut(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	text, err := sess.Cut()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, struct {
		clipboardPayload
		View any `json:"view"`
	}{clipboardPayload{Text: text}, s.pageOf(r, sess)})
}

func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	var req clipboardPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	changed, err := sessionFrom(r.Context()).Paste(req.Text)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.respondMutation(w, r, "paste", changed)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	changed, err := sessionFrom(r.Context()).ClearSelected()
	if err != nil {
		fail(w, r, err)
		return
	}
	s.respondMutation(w, r, "clear", changed)
}

func (s *Server) handleFillDown(w http.ResponseWriter, r *http.Request) {
	changed, err := sessionFrom(r.Context()).FillDown()
	if err != nil {
		fail(w, r, err)
		return
	}
	s.respondMutation(w, r, "fill_down", changed)
}

func (s *Server) handleFillRight(w http.ResponseWriter, r *http.Request) {
	changed, err := sessionFrom(r.Context()).FillRight()
	if err != nil {
		fail(w, r, err)
		return
	}
	s.respondMutation(w, r, "fill_right", changed)
}
