package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/csvedit/internal/session"
	"github.com/JonMunkholm/csvedit/internal/textenc"
	"github.com/JonMunkholm/csvedit/internal/web/templates"
	"github.com/JonMunkholm/csvedit/internal/xlsx"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// handleOpenSession opens a file sent either as the raw request body or as
// the multipart field "file". Options come from the query string or from
// multipart form values: name, encoding, delimiter, quote, header, sheet.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemory)

	name := ""
	var body io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			fail(w, r, uploadError(err))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			fail(w, r, session.ErrNoFile)
			return
		}
		defer file.Close()
		name = header.Filename
		if ct := header.Header.Get("Content-Type"); ct != "" {
			mediaType, _, _ = mime.ParseMediaType(ct)
		}
		body = file
	}

	data, err := io.ReadAll(textenc.NewCountingReader(body, maxSize))
	if err != nil {
		fail(w, r, uploadError(err))
		return
	}
	if len(data) == 0 {
		fail(w, r, session.ErrNoFile)
		return
	}

	if v := formValue(r, "name"); v != "" {
		name = v
	}
	req, err := s.openRequest(r, name, data)
	if err != nil {
		fail(w, r, err)
		return
	}
	req.Workbook = mediaType == xlsx.ContentType || strings.EqualFold(path.Ext(name), ".xlsx")

	sess, err := s.store.Open(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sess.Summary())
}

// openRequest builds the store request from form values, falling back to
// the editor defaults in the configuration.
func (s *Server) openRequest(r *http.Request, name string, data []byte) (session.OpenRequest, error) {
	req := session.OpenRequest{
		Name:      name,
		Data:      data,
		Delimiter: s.cfg.Editor.Delimiter,
		HasHeader: s.cfg.Editor.HasHeader,
		QuoteChar: s.cfg.Editor.QuoteRune(),
		Sheet:     formValue(r, "sheet"),
	}

	encName := formValue(r, "encoding")
	if encName == "" {
		encName = s.cfg.Editor.InputEncoding
	}
	enc, err := textenc.Parse(encName)
	if err != nil {
		return req, err
	}
	req.Encoding = enc

	if v := formValue(r, "delimiter"); v != "" {
		req.Delimiter = v
	}
	if v := formValue(r, "quote"); v != "" {
		q, size := utf8.DecodeRuneInString(v)
		if size != len(v) || q == utf8.RuneError {
			return req, fmt.Errorf("%w: quote must be a single character", session.ErrInvalidOption)
		}
		req.QuoteChar = q
	}
	if v := formValue(r, "header"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("%w: header must be true or false", session.ErrInvalidOption)
		}
		req.HasHeader = b
	}
	return req, nil
}

// formValue reads key from the multipart form when there is one, then from
// the query string. The raw body is never parsed as a form.
func formValue(r *http.Request, key string) string {
	if r.MultipartForm != nil {
		if vs := r.MultipartForm.Value[key]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
	}
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, textenc.ErrTooLarge) {
		return fmt.Errorf("%w: %v", session.ErrFileTooLarge, err)
	}
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingFile) {
		return session.ErrNoFile
	}
	return err
}

type blankRequest struct {
	Name string `json:"name"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

func (s *Server) handleBlankSession(w http.ResponseWriter, r *http.Request) {
	req := blankRequest{Cols: 1}
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.store.Create(req.Name, req.Cols, req.Rows)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sess.Summary())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.List())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.pageOf(r, sessionFrom(r.Context())))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.store.Delete(sess.ID); err != nil {
		fail(w, r, err)
		return
	}
	sessionLogger(r).Info("session closed", "name", sess.Name)
	w.WriteHeader(http.StatusNoContent)
}

// pageOf returns the view page selected by the offset and limit query
// parameters. The limit defaults to the configured page size.
func (s *Server) pageOf(r *http.Request, sess *session.Session) session.View {
	offset := parseIntParam(r, "offset", 0)
	limit := parseIntParam(r, "limit", s.cfg.Session.PageSize)
	return sess.View(offset, limit)
}

// parseIntParam parses a non-negative integer query parameter with a
// default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "csvedit", templates.SessionList(s.store.List()))
}

func (s *Server) handleTablePage(w http.ResponseWriter, r *http.Request) {
	v := s.pageOf(r, sessionFrom(r.Context()))
	s.renderPage(w, r, v.Name, templates.TablePage(v))
}
