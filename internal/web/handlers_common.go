package web

// Shared helpers for the session handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvedit/internal/session"
	"github.com/JonMunkholm/csvedit/internal/web/templates"
)

// maxJSONBody bounds request bodies other than file opens.
const maxJSONBody = 8 << 20

// mutationResponse reports whether an edit changed the table, together with
// the first page of the resulting view.
type mutationResponse struct {
	Changed bool         `json:"changed"`
	View    session.View `json:"view"`
}

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched. On failure it writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

// columnParam parses the {col} URL parameter.
func columnParam(r *http.Request) (int, error) {
	col, err := strconv.Atoi(chi.URLParam(r, "col"))
	if err != nil || col < 0 {
		return 0, fmt.Errorf("%w: column %q", session.ErrOutOfRange, chi.URLParam(r, "col"))
	}
	return col, nil
}

// respondMutation writes the outcome of an edit and logs changes.
func (s *Server) respondMutation(w http.ResponseWriter, r *http.Request, op string, changed bool) {
	sess := sessionFrom(r.Context())
	if changed {
		sessionLogger(r).Debug("table edited", "op", op)
	}
	writeJSON(w, mutationResponse{Changed: changed, View: s.pageOf(r, sess)})
}

// renderPage renders body inside the page layout.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, title string, body templ.Component) {
	templ.Handler(templates.Layout(title, body)).ServeHTTP(w, r)
}
