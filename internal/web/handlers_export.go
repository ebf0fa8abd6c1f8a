package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/csvedit/internal/codec"
	"github.com/JonMunkholm/csvedit/internal/pgexport"
	"github.com/JonMunkholm/csvedit/internal/session"
	"github.com/JonMunkholm/csvedit/internal/textenc"
)

// handleExport downloads the table as text. Query parameters: format (csv,
// tsv, txt), encoding, quote (as-needed, always), delimiter and visible
// (export only the filtered rows in display order).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format, err := textenc.ParseFormat(q.Get("format"))
	if err != nil {
		fail(w, r, wrapInvalid(err))
		return
	}
	encName := q.Get("encoding")
	if encName == "" {
		encName = s.cfg.Editor.OutputEncoding
	}
	enc, err := textenc.Parse(encName)
	if err != nil {
		fail(w, r, err)
		return
	}
	quoteName := q.Get("quote")
	if quoteName == "" {
		quoteName = s.cfg.Editor.QuoteStyle
	}
	quote, err := codec.ParseQuoteStyle(quoteName)
	if err != nil {
		fail(w, r, wrapInvalid(err))
		return
	}
	visible, err := boolParam(r, "visible")
	if err != nil {
		fail(w, r, err)
		return
	}

	out, err := sessionFrom(r.Context()).Export(session.ExportRequest{
		Format:      format,
		Encoding:    enc,
		QuoteStyle:  quote,
		Delimiter:   q.Get("delimiter"),
		VisibleOnly: visible,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	sessionLogger(r).Info("table exported", "format", format, "encoding", enc, "bytes", len(out.Data))
	writeDownload(w, out)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	visible, err := boolParam(r, "visible")
	if err != nil {
		fail(w, r, err)
		return
	}
	out, err := sessionFrom(r.Context()).ExportWorkbook(visible)
	if err != nil {
		fail(w, r, err)
		return
	}
	sessionLogger(r).Info("table exported", "format", "xlsx", "bytes", len(out.Data))
	writeDownload(w, out)
}

func writeDownload(w http.ResponseWriter, out session.Export) {
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(out.Filename)))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.Write(out.Data)
}

// sanitizeFilename keeps a download name inside a quoted header value: path
// separators, quotes and control characters become underscores.
func sanitizeFilename(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"' || r == ';':
			return '_'
		case unicode.IsControl(r):
			return '_'
		case r > unicode.MaxASCII:
			return '_'
		}
		return r
	}, name)
	clean = strings.TrimLeft(clean, ".")
	if clean == "" {
		return "table"
	}
	return clean
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", session.ErrInvalidOption, name)
	}
	return b, nil
}

type publishRequest struct {
	// Table is the destination, optionally schema-qualified. Defaults to the
	// session's file name without extension.
	Table string `json:"table"`
}

// handlePublish replaces a PostgreSQL table with the session's table inside
// one transaction.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		fail(w, r, session.ErrPublishDisabled)
		return
	}
	var req publishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess := sessionFrom(r.Context())
	name := req.Table
	if name == "" {
		base := strings.TrimSuffix(session.ExportName(sess.Name, ""), ".")
		name = strings.ReplaceAll(base, ".", "_")
	}
	if _, err := pgexport.ParseIdentifier(name); err != nil {
		fail(w, r, wrapInvalid(err))
		return
	}

	ctx := r.Context()
	if s.cfg.Database.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Database.PublishTimeout)
		defer cancel()
	}

	start := time.Now()
	t := sess.Table()
	var result pgexport.Result
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		result, err = pgexport.Publish(ctx, tx, name, t)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	sessionLogger(r).Info("table published",
		"table", result.Table,
		"rows", result.Rows,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, result)
}
