package session

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvedit/internal/codec"
	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/JonMunkholm/csvedit/internal/table"
	"github.com/JonMunkholm/csvedit/internal/textenc"
	"github.com/JonMunkholm/csvedit/internal/xlsx"
)

// Options configures a Store. Zero values select the defaults.
type Options struct {
	MaxSessions  int
	TTL          time.Duration
	MaxUndo      int
	MaxFileSize  int64
	ColumnPrefix string
	Limiter      *Limiter
}

const (
	DefaultMaxSessions = 100
	DefaultTTL         = 2 * time.Hour
	DefaultMaxUndo     = 100
	DefaultMaxFileSize = 100 << 20
)

func (o Options) withDefaults() Options {
	if o.MaxSessions <= 0 {
		o.MaxSessions = DefaultMaxSessions
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxUndo <= 0 {
		o.MaxUndo = DefaultMaxUndo
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.ColumnPrefix == "" {
		o.ColumnPrefix = table.DefaultColumnPrefix
	}
	if o.Limiter == nil {
		o.Limiter = NewLimiter(0, 0)
	}
	return o
}

// Store owns every open session.
type Store struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty store.
func NewStore(opts Options) *Store {
	return &Store{
		opts:     opts.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Limiter returns the store's open limiter.
func (st *Store) Limiter() *Limiter {
	return st.opts.Limiter
}

// OpenRequest describes raw file bytes to open.
type OpenRequest struct {
	Name         string
	Data         []byte
	Encoding     textenc.Encoding // Auto detects
	Delimiter    string           // "auto" or empty detects
	HasHeader    bool
	QuoteChar    rune // 0 means '"'
	ColumnPrefix string

	// Workbook reads Data as an .xlsx file; Sheet picks the sheet, the
	// first when empty. Encoding, Delimiter and QuoteChar are ignored.
	Workbook bool
	Sheet    string
}

// Open decodes and parses req.Data into a new session.
//
// At most the limiter's slot count of opens run at once. Input that parses to
// no headers and no rows fails with ErrEmptyInput.
func (st *Store) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	if len(req.Data) == 0 {
		return nil, ErrEmptyInput
	}
	if int64(len(req.Data)) > st.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(req.Data), st.opts.MaxFileSize)
	}

	if err := st.opts.Limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer st.opts.Limiter.Release()

	start := time.Now()

	prefix := req.ColumnPrefix
	if prefix == "" {
		prefix = st.opts.ColumnPrefix
	}

	if req.Workbook {
		t, err := xlsx.Read(bytes.NewReader(req.Data), req.Sheet, codec.ParseOptions{
			HasHeader:        req.HasHeader,
			ColumnNamePrefix: prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableSheet, err)
		}
		return st.register(ctx, req.Name, t, Source{Encoding: textenc.UTF8}, start)
	}

	enc := req.Encoding
	if enc == "" || enc == textenc.Auto {
		enc = textenc.DetectEncoding(req.Data)
	}
	text, err := textenc.Decode(req.Data, enc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	delim, auto, err := codec.ParseDelimiter(req.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	if auto {
		delim = codec.DetectDelimiter(text)
	}

	quote := req.QuoteChar
	if quote == 0 {
		quote = '"'
	}

	t := codec.Parse(text, codec.ParseOptions{
		Delimiter:        delim,
		HasHeader:        req.HasHeader,
		QuoteChar:        quote,
		ColumnNamePrefix: prefix,
	})
	return st.register(ctx, req.Name, t, Source{Encoding: enc, Delimiter: delim, QuoteChar: quote}, start)
}

func (st *Store) register(ctx context.Context, name string, t *table.Table, src Source, start time.Time) (*Session, error) {
	if t.ColumnCount() == 0 && t.RowCount() == 0 {
		return nil, ErrEmptyInput
	}

	s, err := st.Add(name, t, src)
	if err != nil {
		return nil, err
	}

	logging.WithFields(ctx, "session_id", s.ID).Info("session opened",
		"name", s.Name,
		"encoding", s.Source.Encoding,
		"delimiter", string(s.Source.Delimiter),
		"rows", t.RowCount(),
		"cols", t.ColumnCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return s, nil
}

// Create starts a session holding a blank cols x rows table.
func (st *Store) Create(name string, cols, rows int) (*Session, error) {
	if cols < 0 || rows < 0 {
		return nil, fmt.Errorf("%w: negative table size", ErrInvalidOption)
	}
	if name == "" {
		name = "untitled.csv"
	}
	return st.Add(name, table.New(cols, rows, st.opts.ColumnPrefix), Source{Encoding: textenc.UTF8})
}

// Add registers an already built table as a new session.
func (st *Store) Add(name string, t *table.Table, src Source) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.opts.MaxSessions {
		return nil, ErrTooManySessions
	}
	if src.Encoding == "" {
		src.Encoding = textenc.UTF8
	}
	s := newSession(uuid.NewString(), strings.TrimSpace(name), t, src, st.opts, time.Now())
	st.sessions[s.ID] = s
	return s, nil
}

// Get returns the session with id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes the session with id.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

// List returns every session, most recently created first.
func (st *Store) List() []Summary {
	st.mu.RLock()
	all := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.mu.RUnlock()

	out := make([]Summary, 0, len(all))
	for _, s := range all {
		out = append(out, s.Summary())
	}
	slices.SortFunc(out, func(a, b Summary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Count returns the number of open sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle since before now minus the TTL and returns
// how many were removed.
func (st *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-st.opts.TTL)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.idleSince(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
