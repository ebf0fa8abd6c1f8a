package web

// errors.go turns handler errors into responses.
//
// The technical error is logged with the request id; the client gets the
// session.MapError message and support code, as JSON for API routes, as an
// alert fragment for HTMX requests and as plain text otherwise.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/JonMunkholm/csvedit/internal/pgexport"
	"github.com/JonMunkholm/csvedit/internal/session"
	"github.com/JonMunkholm/csvedit/internal/textenc"
	"github.com/JonMunkholm/csvedit/internal/view"
	"github.com/JonMunkholm/csvedit/internal/web/templates"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errBadRequest  = errors.New("malformed request body")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrFileTooLarge), errors.Is(err, textenc.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrTooManyOpens), errors.Is(err, session.ErrPublishDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrTooManySessions), errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, session.ErrNothingToUndo), errors.Is(err, session.ErrNothingToRedo),
		errors.Is(err, session.ErrNoSelection):
		return http.StatusConflict
	case errors.Is(err, session.ErrEmptyInput), errors.Is(err, session.ErrNoFile),
		errors.Is(err, session.ErrOutOfRange), errors.Is(err, session.ErrInvalidOption),
		errors.Is(err, session.ErrUnreadableSheet), errors.Is(err, view.ErrInvalidFilter),
		errors.Is(err, textenc.ErrUnknownEncoding), errors.Is(err, textenc.ErrUnencodable),
		errors.Is(err, pgexport.ErrNoColumns), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// fail responds with the status statusFor picks.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

// respondError logs err and writes the user-facing form in the format the
// client asked for.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := session.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
	default:
		http.Error(w, msg.Message+" ("+msg.Code+")", status)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client prefers JSON. API routes always do.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
