package session

// Error codes are quoted by users to support staff. Sentinel errors are
// matched with errors.Is first; anything else falls back to case-insensitive
// substring patterns on the error text.
//
//	FILE001  input exceeds the size limit
//	FILE002  input contains no data
//	FILE003  no file in the request
//	FILE004  spreadsheet could not be read
//	FILE005  too many files being opened at once
//	ENC001   unknown encoding name
//	ENC002   text not representable in the chosen encoding
//	SES001   session not found or expired
//	SES002   session limit reached
//	SES003   nothing to undo
//	SES004   nothing to redo
//	SEL001   operation needs a selection
//	TBL001   column or row out of range
//	TBL002   invalid filter
//	TBL003   invalid option value
//	DB001    database publishing not configured
//	DB002    nothing to publish
//	DB003    database unreachable
//	DB004    database timeout
//	RATE001  rate limited
//	REQ001   request cancelled
//	REQ002   request timed out
//	ERR000   anything else

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvedit/internal/pgexport"
	"github.com/JonMunkholm/csvedit/internal/textenc"
	"github.com/JonMunkholm/csvedit/internal/view"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many open sessions")
	ErrEmptyInput      = errors.New("input contains no data")
	ErrFileTooLarge    = errors.New("file too large")
	ErrNoFile          = errors.New("no file provided")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrNoSelection     = errors.New("no selection")
	ErrOutOfRange      = errors.New("index out of range")
	ErrInvalidOption   = errors.New("invalid option")
	ErrPublishDisabled = errors.New("database publishing is not configured")
	ErrUnreadableSheet = errors.New("spreadsheet could not be read")
)

// UserMessage is the user-facing form of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum size", "Split the file or raise UPLOAD_MAX_FILE_SIZE", "FILE001"}},
	{textenc.ErrTooLarge, UserMessage{"File exceeds the maximum size", "Split the file or raise UPLOAD_MAX_FILE_SIZE", "FILE001"}},
	{ErrEmptyInput, UserMessage{"The file contains no data", "Choose a file with at least one line", "FILE002"}},
	{ErrNoFile, UserMessage{"No file was provided", "Select a file to open", "FILE003"}},
	{ErrUnreadableSheet, UserMessage{"The spreadsheet could not be read", "Save it as .xlsx and try again", "FILE004"}},
	{ErrTooManyOpens, UserMessage{"The server is busy opening other files", "Wait a moment and try again", "FILE005"}},
	{textenc.ErrUnknownEncoding, UserMessage{"Unknown text encoding", "Use utf-8, utf-8-bom, shift_jis, or euc-jp", "ENC001"}},
	{textenc.ErrUnencodable, UserMessage{"Some characters cannot be saved in this encoding", "Export as utf-8 instead", "ENC002"}},
	{ErrSessionNotFound, UserMessage{"Editing session not found", "The session may have expired. Open the file again", "SES001"}},
	{ErrTooManySessions, UserMessage{"Too many files are open", "Close a file before opening another", "SES002"}},
	{ErrNothingToUndo, UserMessage{"Nothing to undo", "", "SES003"}},
	{ErrNothingToRedo, UserMessage{"Nothing to redo", "", "SES004"}},
	{ErrNoSelection, UserMessage{"Nothing is selected", "Select cells or rows first", "SEL001"}},
	{ErrOutOfRange, UserMessage{"That row or column does not exist", "Reload the table and try again", "TBL001"}},
	{view.ErrInvalidFilter, UserMessage{"The filter is not valid", "Number filters need an operator and a numeric value", "TBL002"}},
	{ErrInvalidOption, UserMessage{"An option value is not valid", "Check the request parameters", "TBL003"}},
	{ErrPublishDisabled, UserMessage{"Publishing to a database is not configured", "Set DATABASE_URL and restart the server", "DB001"}},
	{pgexport.ErrNoColumns, UserMessage{"The table has no columns to publish", "Add at least one column", "DB002"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are checked in order after the sentinels; the first match
// wins, so specific patterns go before general ones.
var errorPatterns = []errorPattern{
	{"connection refused", UserMessage{"Unable to connect to the database", "Try again in a few moments", "DB003"}},
	{"connection reset", UserMessage{"The database connection was interrupted", "Try again", "DB003"}},
	{"rate limit", UserMessage{"Too many requests", "Wait a moment before trying again", "RATE001"}},
	{"context canceled", UserMessage{"The request was cancelled", "Try again", "REQ001"}},
	{"context deadline exceeded", UserMessage{"The request timed out", "Try a smaller file or try again later", "REQ002"}},
	{"timeout", UserMessage{"The database operation timed out", "Try again later", "DB004"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Try again or contact support",
	Code:    "ERR000",
}

// MapError converts err to a user-facing message. A nil error maps to the
// zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: X). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	if msg.Action == "" {
		return fmt.Sprintf("%s (Code: %s)", msg.Message, msg.Code)
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
