package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/csvedit/internal/codec"
	"github.com/JonMunkholm/csvedit/internal/config"
	"github.com/JonMunkholm/csvedit/internal/session"
	"github.com/JonMunkholm/csvedit/internal/table"
	"github.com/JonMunkholm/csvedit/internal/xlsx"
)

const itemsCSV = "name,qty\nb,2\na,10\nc,1\n"

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Upload:  config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second},
		Session: config.SessionConfig{TTL: time.Hour, SweepInterval: time.Minute, MaxSessions: 10, MaxUndo: 10, PageSize: 100},
		Editor: config.EditorConfig{
			Delimiter:     "auto",
			QuoteChar:     `"`,
			QuoteStyle:    "as-needed",
			ColumnPrefix:  "Column",
			HasHeader:     true,
			InputEncoding: "auto",
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
}

type testServer struct {
	t     *testing.T
	srv   *Server
	store *session.Store
}

func newTestServer(t *testing.T, db TxBeginner) *testServer {
	t.Helper()
	cfg := testConfig()
	store := session.NewStore(session.Options{MaxSessions: cfg.Session.MaxSessions, MaxUndo: cfg.Session.MaxUndo})
	srv := NewServer(store, cfg, db)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testServer{t: t, srv: srv, store: store}
}

func (ts *testServer) do(method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doJSON(method, target string, v any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var body []byte
	if v != nil {
		var err error
		if body, err = json.Marshal(v); err != nil {
			ts.t.Fatalf("marshal: %v", err)
		}
	}
	return ts.do(method, target, "application/json", body)
}

func (ts *testServer) open(text string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/sessions?name=items.csv", "text/csv", []byte(text))
	if rec.Code != http.StatusCreated {
		ts.t.Fatalf("open status = %d, body = %s", rec.Code, rec.Body)
	}
	var sum session.Summary
	decode(ts.t, rec, &sum)
	return sum.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, rec, &resp)
	return resp.Code
}

func cellsOf(v session.View) [][]string {
	out := make([][]string, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Cells
	}
	return out
}

func TestOpenAndView(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.open(itemsCSV)

	rec := ts.do(http.MethodGet, "/api/sessions/"+id, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var v session.View
	decode(t, rec, &v)
	if strings.Join(v.Headers, ",") != "name,qty" {
		t.Errorf("Headers = %v, want [name qty]", v.Headers)
	}
	if v.TotalRows != 3 || len(v.Rows) != 3 {
		t.Errorf("rows = %d/%d, want 3/3", len(v.Rows), v.TotalRows)
	}

	rec = ts.do(http.MethodGet, "/api/sessions/"+id+"?offset=1&limit=1", "", nil)
	decode(t, rec, &v)
	if len(v.Rows) != 1 || v.Rows[0].Index != 1 || v.Offset != 1 {
		t.Errorf("page = %+v, want storage row 1 at offset 1", v.Rows)
	}

	rec = ts.do(http.MethodGet, "/api/sessions", "", nil)
	var list []session.Summary
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID != id {
		t.Errorf("list = %+v", list)
	}
}

func TestOpenMultipart(t *testing.T) {
	ts := newTestServer(t, nil)

	var body bytes.Buffer
	mpw := multipart.NewWriter(&body)
	mpw.WriteField("delimiter", "tab")
	mpw.WriteField("header", "false")
	fw, err := mpw.CreateFormFile("file", "data.tsv")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("x\ty\n1\t2\n"))
	mpw.Close()

	rec := ts.do(http.MethodPost, "/api/sessions", mpw.FormDataContentType(), body.Bytes())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var sum session.Summary
	decode(t, rec, &sum)
	if sum.Name != "data.tsv" || sum.Rows != 2 || sum.Columns != 2 || sum.Delimiter != "\t" {
		t.Errorf("summary = %+v", sum)
	}
}

func TestOpenWorkbook(t *testing.T) {
	ts := newTestServer(t, nil)

	var buf bytes.Buffer
	if err := xlsx.Write(&buf, codec.Parse(itemsCSV, codec.DefaultParseOptions()), ""); err != nil {
		t.Fatal(err)
	}
	rec := ts.do(http.MethodPost, "/api/sessions?name=items.xlsx", "application/octet-stream", buf.Bytes())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var sum session.Summary
	decode(t, rec, &sum)
	if sum.Rows != 3 || sum.Columns != 2 {
		t.Errorf("summary = %+v, want 3 rows 2 cols", sum)
	}
}

func TestOpenErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"empty body", "/api/sessions", "", http.StatusBadRequest, "FILE003"},
		{"blank lines", "/api/sessions", "\n\n", http.StatusBadRequest, "FILE002"},
		{"bad encoding", "/api/sessions?encoding=latin-9", "a,b", http.StatusBadRequest, "ENC001"},
		{"bad header flag", "/api/sessions?header=maybe", "a,b", http.StatusBadRequest, "TBL003"},
		{"bad workbook", "/api/sessions?name=x.xlsx", "not a zip", http.StatusBadRequest, "FILE004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, tt.target, "text/csv", []byte(tt.body))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := errorCode(t, rec); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestSessionNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodGet, "/api/sessions/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if got := errorCode(t, rec); got != "SES001" {
		t.Errorf("code = %q, want SES001", got)
	}
}

func TestBlankAndDelete(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.doJSON(http.MethodPost, "/api/sessions/blank", blankRequest{Name: "new.csv", Cols: 3, Rows: 2})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var sum session.Summary
	decode(t, rec, &sum)
	if sum.Columns != 3 || sum.Rows != 2 {
		t.Errorf("summary = %+v", sum)
	}

	if rec := ts.do(http.MethodDelete, "/api/sessions/"+sum.ID, "", nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := ts.do(http.MethodDelete, "/api/sessions/"+sum.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestEditFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.open(itemsCSV)
	base := "/api/sessions/" + id

	var resp mutationResponse
	rec := ts.doJSON(http.MethodPost, base+"/cells", cellsRequest{Updates: []table.CellUpdate{{Row: 0, Col: 1, Value: "5"}}})
	decode(t, rec, &resp)
	if !resp.Changed || resp.View.Rows[0].Cells[1] != "5" {
		t.Errorf("update: changed=%v rows=%v", resp.Changed, cellsOf(resp.View))
	}

	rec = ts.doJSON(http.MethodPost, base+"/cells", cellsRequest{Updates: []table.CellUpdate{{Row: 0, Col: 1, Value: "5"}}})
	decode(t, rec, &resp)
	if resp.Changed {
		t.Error("identical update reported a change")
	}

	var v session.View
	rec = ts.do(http.MethodPost, base+"/sort/1", "", nil)
	decode(t, rec, &v)
	if got := cellsOf(v); got[0][0] != "c" || got[2][0] != "a" {
		t.Errorf("sorted rows = %v, want c first and a last", got)
	}

	rec = ts.doJSON(http.MethodPut, base+"/filters/1", map[string]string{"type": "number", "operator": ">", "value": "2"})
	decode(t, rec, &v)
	if v.VisibleRows != 2 {
		t.Errorf("VisibleRows = %d, want 2", v.VisibleRows)
	}

	rec = ts.doJSON(http.MethodPut, base+"/filters/1", map[string]string{"type": "number", "operator": "~", "value": "2"})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "TBL002" {
		t.Errorf("invalid filter status = %d body = %s", rec.Code, rec.Body)
	}
	rec = ts.doJSON(http.MethodPut, base+"/filters/9", map[string]string{"value": "x"})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "TBL001" {
		t.Errorf("out of range filter status = %d body = %s", rec.Code, rec.Body)
	}

	rec = ts.do(http.MethodDelete, base+"/filters/1", "", nil)
	decode(t, rec, &v)
	if v.VisibleRows != 3 {
		t.Errorf("VisibleRows after clear = %d, want 3", v.VisibleRows)
	}

	rec = ts.doJSON(http.MethodPost, base+"/columns", addColumnRequest{Type: "number"})
	decode(t, rec, &resp)
	if len(resp.View.Headers) != 3 {
		t.Errorf("Headers after add = %v", resp.View.Headers)
	}
	rec = ts.do(http.MethodDelete, base+"/columns/2", "", nil)
	decode(t, rec, &resp)
	if !resp.Changed || len(resp.View.Headers) != 2 {
		t.Errorf("remove column: %+v", resp)
	}
	rec = ts.doJSON(http.MethodPut, base+"/columns/0/type", columnTypeRequest{Type: "bogus"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type status = %d, want 400", rec.Code)
	}

	rec = ts.doJSON(http.MethodPost, base+"/rows", nil)
	decode(t, rec, &resp)
	if resp.View.TotalRows != 4 {
		t.Errorf("TotalRows after add = %d, want 4", resp.View.TotalRows)
	}
	rec = ts.doJSON(http.MethodPost, base+"/rows/delete", removeRowsRequest{Rows: []int{3}})
	decode(t, rec, &resp)
	if resp.View.TotalRows != 3 {
		t.Errorf("TotalRows after delete = %d, want 3", resp.View.TotalRows)
	}

	rec = ts.do(http.MethodPost, base+"/undo", "", nil)
	decode(t, rec, &resp)
	if resp.View.TotalRows != 4 || !resp.View.CanRedo {
		t.Errorf("undo: TotalRows=%d CanRedo=%v", resp.View.TotalRows, resp.View.CanRedo)
	}
	rec = ts.do(http.MethodPost, base+"/redo", "", nil)
	decode(t, rec, &resp)
	if resp.View.TotalRows != 3 {
		t.Errorf("redo: TotalRows=%d, want 3", resp.View.TotalRows)
	}
	if rec := ts.do(http.MethodPost, base+"/redo", "", nil); rec.Code != http.StatusConflict {
		t.Errorf("empty redo status = %d, want 409", rec.Code)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.open(itemsCSV)
	rec := ts.do(http.MethodPost, "/api/sessions/"+id+"/rows", "application/json", []byte(`{"idx":1}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestClipboardFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.open(itemsCSV)
	base := "/api/sessions/" + id

	if rec := ts.do(http.MethodPost, base+"/copy", "", nil); rec.Code != http.StatusConflict || errorCode(t, rec) != "SEL001" {
		t.Errorf("copy without selection: status = %d body = %s", rec.Code, rec.Body)
	}

	ts.doJSON(http.MethodPut, base+"/selection", map[string]any{"cell": map[string]int{"row": 0, "col": 0}})
	rec := ts.doJSON(http.MethodPut, base+"/selection", map[string]any{"cell": map[string]int{"row": 1, "col": 1}, "extend": true})
	var st struct {
		Cells *struct {
			Start struct{ Row, Col int }
			End   struct{ Row, Col int }
		}
	}
	decode(t, rec, &st)
	if st.Cells == nil || st.Cells.Start.Row != 0 || st.Cells.End.Row != 1 || st.Cells.End.Col != 1 {
		t.Errorf("extended selection = %s", rec.Body)
	}

	var clip clipboardPayload
	decode(t, ts.do(http.MethodPost, base+"/copy", "", nil), &clip)
	if clip.Text != "b\t2\na\t10" {
		t.Errorf("copy = %q, want %q", clip.Text, "b\t2\na\t10")
	}

	ts.doJSON(http.MethodPut, base+"/selection", map[string]any{"cell": map[string]int{"row": 2, "col": 0}})
	var resp mutationResponse
	decode(t, ts.doJSON(http.MethodPost, base+"/paste", clipboardPayload{Text: "x\ty"}), &resp)
	if got := resp.View.Rows[2].Cells; got[0] != "x" || got[1] != "y" {
		t.Errorf("row 2 after paste = %v", got)
	}

	decode(t, ts.do(http.MethodPost, base+"/clear", "", nil), &resp)
	if got := resp.View.Rows[2].Cells; got[0] != "" || got[1] != "" {
		t.Errorf("row 2 after clear = %v", got)
	}

	ts.doJSON(http.MethodPut, base+"/selection", map[string]any{"cells": map[string]any{
		"start": map[string]int{"row": 0, "col": 0}, "end": map[string]int{"row": 2, "col": 0},
	}})
	decode(t, ts.do(http.MethodPost, base+"/fill-down", "", nil), &resp)
	for i, row := range cellsOf(resp.View) {
		if row[0] != "b" {
			t.Errorf("row %d after fill-down = %v, want b in column 0", i, row)
		}
	}

	ts.doJSON(http.MethodPut, base+"/selection", map[string]any{"row": 0})
	rec = ts.do(http.MethodPost, base+"/cut", "", nil)
	var cut struct {
		Text string       `json:"text"`
		View session.View `json:"view"`
	}
	decode(t, rec, &cut)
	if cut.Text != "b\t2" {
		t.Errorf("cut = %q, want %q", cut.Text, "b\t2")
	}
	if got := cut.View.Rows[0].Cells; got[0] != "" || got[1] != "" {
		t.Errorf("row 0 after cut = %v", got)
	}

	ts.doJSON(http.MethodPut, base+"/selection", map[string]any{"cells": map[string]any{
		"start": map[string]int{"row": 1, "col": 0}, "end": map[string]int{"row": 1, "col": 1},
	}})
	decode(t, ts.do(http.MethodPost, base+"/fill-right", "", nil), &resp)
	if got := resp.View.Rows[1].Cells; got[1] != "b" {
		t.Errorf("row 1 after fill-right = %v, want b in column 1", got)
	}
}

func TestExport(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.open("name;qty\n\"a;b\";1\n")

	tests := []struct {
		name        string
		query       string
		wantType    string
		wantFile    string
		wantBody    string
		wantBOMSize int
	}{
		{"source dialect", "", "text/csv", "items.csv", "name;qty\n\"a;b\";1", 0},
		{"tsv", "?format=tsv", "text/tab-separated-values", "items.tsv", "name\tqty\na;b\t1", 0},
		{"always quote", "?quote=always&delimiter=comma", "text/csv", "items.csv", "\"name\",\"qty\"\n\"a;b\",1", 0},
		{"bom", "?encoding=utf-8-bom", "text/csv", "items.csv", "name;qty\n\"a;b\";1", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/sessions/"+id+"/export"+tt.query, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="`+tt.wantFile+`"`) {
				t.Errorf("Content-Disposition = %q, want %s", got, tt.wantFile)
			}
			if got := rec.Body.String()[tt.wantBOMSize:]; got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}

	if rec := ts.do(http.MethodGet, "/api/sessions/"+id+"/export?format=pdf", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", rec.Code)
	}
}

func TestExportXLSX(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.open(itemsCSV)

	rec := ts.do(http.MethodGet, "/api/sessions/"+id+"/export.xlsx", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != xlsx.ContentType {
		t.Errorf("Content-Type = %q", got)
	}
	tbl, err := xlsx.Read(bytes.NewReader(rec.Body.Bytes()), "", codec.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if tbl.RowCount() != 3 || tbl.Rows[1][1] != "10" {
		t.Errorf("rows = %v", tbl.Rows)
	}
}

type fakeTx struct {
	pgx.Tx
	execs     []string
	copied    int64
	committed bool
}

func (f *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (f *fakeTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	for src.Next() {
		if _, err := src.Values(); err != nil {
			return f.copied, err
		}
		f.copied++
	}
	return f.copied, src.Err()
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if f.committed {
		return pgx.ErrTxClosed
	}
	return nil
}

type fakeDB struct{ tx *fakeTx }

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) { return d.tx, nil }

func TestPublish(t *testing.T) {
	tx := &fakeTx{}
	ts := newTestServer(t, &fakeDB{tx: tx})
	id := ts.open(itemsCSV)

	rec := ts.doJSON(http.MethodPost, "/api/sessions/"+id+"/publish", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if !tx.committed {
		t.Error("transaction not committed")
	}
	if tx.copied != 3 {
		t.Errorf("copied = %d, want 3", tx.copied)
	}
	if len(tx.execs) != 2 || !strings.Contains(tx.execs[1], `"items"`) {
		t.Errorf("statements = %v, want drop and create of \"items\"", tx.execs)
	}

	rec = ts.doJSON(http.MethodPost, "/api/sessions/"+id+"/publish", publishRequest{Table: "a.b.c"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad table name status = %d, want 400", rec.Code)
	}
}

func TestPublishDisabled(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.open(itemsCSV)
	rec := ts.doJSON(http.MethodPost, "/api/sessions/"+id+"/publish", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if got := errorCode(t, rec); got != "DB001" {
		t.Errorf("code = %q, want DB001", got)
	}
}

func TestPages(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.open("name\n<b>bold</b>\n")

	rec := ts.do(http.MethodGet, "/sessions/"+id, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<b>bold</b>") || !strings.Contains(body, "&lt;b&gt;bold&lt;/b&gt;") {
		t.Errorf("cell not escaped: %s", body)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}

	rec = ts.do(http.MethodGet, "/", "", nil)
	if !strings.Contains(rec.Body.String(), "/sessions/"+id) {
		t.Errorf("index does not link the session: %s", rec.Body)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing", nil)
	req.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "SES001") {
		t.Errorf("htmx error = %d %s", rec.Code, rec.Body)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	srv := NewServer(session.NewStore(session.Options{}), cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", rec.Code)
	}

	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := &rateLimiter{visitors: map[string]*visitor{}, rate: 2, window: time.Minute, done: make(chan struct{})}
	now := time.Now()

	if !rl.allow("1.1.1.1", now) || !rl.allow("1.1.1.1", now) {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("1.1.1.1", now) {
		t.Error("third request in window should be limited")
	}
	if !rl.allow("2.2.2.2", now) {
		t.Error("other clients have their own budget")
	}
	if !rl.allow("1.1.1.1", now.Add(2*time.Minute)) {
		t.Error("budget should reset after the window")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, UploadLimit: 1}
	srv := NewServer(session.NewStore(session.Options{}), cfg, nil)
	defer srv.Shutdown(context.Background())

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
		return rec
	}
	if rec := get(); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := get()
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.csv", "report.csv"},
		{`a"b.csv`, "a_b.csv"},
		{"../etc/passwd", "_etc_passwd"},
		{"line\nbreak.csv", "line_break.csv"},
		{"日本.csv", "__.csv"},
		{"...", "table"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.open(itemsCSV)

	rec := ts.do(http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Status   string                `json:"status"`
		Sessions int                   `json:"sessions"`
		Opens    session.LimiterStatus `json:"opens"`
	}
	decode(t, rec, &resp)
	if resp.Status != "ok" || resp.Sessions != 1 {
		t.Errorf("healthz = %+v, want ok with 1 session", resp)
	}
	if resp.Opens.Active != 0 || resp.Opens.MaxConcurrent == 0 {
		t.Errorf("opens = %+v, want idle limiter", resp.Opens)
	}
}
