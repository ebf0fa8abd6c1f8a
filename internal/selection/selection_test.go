package selection

import (
	"reflect"
	"testing"

	"github.com/JonMunkholm/csvedit/internal/table"
)

func grid() *table.Table {
	return &table.Table{
		Headers: []string{"h0", "h1", "h2"},
		Rows: [][]string{
			{"a0", "a1", "a2"},
			{"b0", "b1", "b2"},
			{"c0", "c1", "c2"},
			{"d0", "d1", "d2"},
		},
		HasHeader:   true,
		ColumnTypes: []table.ColumnType{table.TypeString, table.TypeString, table.TypeString},
	}
}

var identity = []int{0, 1, 2, 3}

func rng(r1, c1, r2, c2 int) Range {
	return Range{Start: CellPosition{Row: r1, Col: c1}, End: CellPosition{Row: r2, Col: c2}}
}

func TestRange_AnchorSurvivesReverseExtension(t *testing.T) {
	var s State
	s = s.SelectCell(CellPosition{Row: 2, Col: 2})
	s = s.ExtendCell(CellPosition{Row: 0, Col: 0})
	s = s.ExtendCell(CellPosition{Row: 1, Col: 1})

	if got, want := s.Cells.Normalize(), rng(1, 1, 2, 2); got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
	if got := s.Cells.Start; got != (CellPosition{Row: 2, Col: 2}) {
		t.Errorf("anchor = %+v, want (2,2)", got)
	}
	if got, want := *s.Cells, rng(2, 2, 1, 1); got != want {
		t.Errorf("stored range = %+v, want %+v", got, want)
	}
}

func TestState_MutuallyExclusive(t *testing.T) {
	var s State
	s = s.SelectCell(CellPosition{Row: 0, Col: 0})
	s = s.ExtendRow(2)
	if s.Cells != nil || s.Rows == nil {
		t.Fatalf("after ExtendRow: %+v", s)
	}

	s = s.ExtendRow(0)
	if got := *s.Rows; got != (RowRange{StartRow: 2, EndRow: 0}) {
		t.Errorf("Rows = %+v, want anchor 2 focus 0", got)
	}
	if got := s.Rows.Rows(); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("Rows() = %v", got)
	}

	s = s.ExtendCell(CellPosition{Row: 1, Col: 1})
	if s.Rows != nil || s.Cells == nil || !s.Cells.IsSingleCell() {
		t.Errorf("after ExtendCell: %+v", s)
	}
}

func TestState_Rect(t *testing.T) {
	s := State{}.SelectRow(3).ExtendRow(1)
	got, ok := s.Rect(3)
	if !ok || got != rng(1, 0, 3, 2) {
		t.Errorf("Rect() = %+v, %v", got, ok)
	}
	if _, ok := (State{}).Rect(3); ok {
		t.Error("empty state should have no rect")
	}
}

func TestRange_Contains(t *testing.T) {
	r := rng(3, 2, 1, 0)
	if !r.Contains(CellPosition{Row: 2, Col: 1}) {
		t.Error("Contains inner cell = false")
	}
	if r.Contains(CellPosition{Row: 0, Col: 1}) {
		t.Error("Contains outer cell = true")
	}
	if r.Width() != 3 || r.Height() != 3 {
		t.Errorf("size = %dx%d, want 3x3", r.Height(), r.Width())
	}
}

func TestSerialize(t *testing.T) {
	block := [][]string{
		{"plain", "tab\there"},
		{"line\nbreak", `say "hi"`},
		{"", "cr\r"},
	}
	want := "plain\t\"tab\there\"\n\"line\nbreak\"\t\"say \"\"hi\"\"\"\n\t\"cr\r\""
	if got := Serialize(block); got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestClipboardRoundTrip(t *testing.T) {
	block := [][]string{
		{"a\tb", "c\nd", `e"f`},
		{"", "x", "crlf\r\nend"},
	}
	if got := Deserialize(Serialize(block)); !reflect.DeepEqual(got, block) {
		t.Errorf("round trip = %q, want %q", got, block)
	}
}

func TestClipboardRoundTrip_TrailingEmptyCell(t *testing.T) {
	tests := []struct {
		name  string
		block [][]string
		wire  string
	}{
		{"after a value", [][]string{{"a"}, {""}}, "a\n\"\""},
		{"only empty cells", [][]string{{""}, {""}}, "\n\"\""},
		{"single empty cell", [][]string{{""}}, "\"\""},
		{"after special text", [][]string{{"\r\n\t"}, {" "}, {""}}, "\"\r\n\t\"\n \n\"\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := Serialize(tt.block)
			if wire != tt.wire {
				t.Errorf("Serialize() = %q, want %q", wire, tt.wire)
			}
			if got := Deserialize(wire); !reflect.DeepEqual(got, tt.block) {
				t.Errorf("round trip = %q, want %q", got, tt.block)
			}
		})
	}
}

func TestDeserialize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][]string
	}{
		{"trailing newline", "a\tb\n", [][]string{{"a", "b"}}},
		{"trailing crlf", "a\tb\r\nc\td\r\n", [][]string{{"a", "b"}, {"c", "d"}}},
		{"trailing empty line", "a\n\n", [][]string{{"a"}}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Deserialize(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Deserialize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestCopy_UsesDisplayOrderAndHeader(t *testing.T) {
	indices := []int{3, 1}
	got := Copy(grid(), indices, rng(1, 1, -1, 0))
	want := "h0\th1\nd0\td1\nb0\tb1"
	if got != want {
		t.Errorf("Copy() = %q, want %q", got, want)
	}
}

func TestCut(t *testing.T) {
	tbl := grid()
	text, next := Cut(tbl, identity, rng(-1, 0, 0, 1))

	if text != "h0\th1\na0\ta1" {
		t.Errorf("Cut() text = %q", text)
	}
	if next.Headers[0] != "h0" {
		t.Errorf("header cleared: %v", next.Headers)
	}
	if want := []string{"", "", "a2"}; !reflect.DeepEqual(next.Rows[0], want) {
		t.Errorf("row 0 = %v, want %v", next.Rows[0], want)
	}
	if tbl.Rows[0][0] != "a0" {
		t.Error("Cut modified its input")
	}
}

func TestPaste(t *testing.T) {
	tests := []struct {
		name     string
		target   Range
		text     string
		wantHdr  []string
		wantRows [][]string
		wantArea Range
	}{
		{
			name:    "block clipped at edges",
			target:  rng(2, 1, 2, 1),
			text:    "x\ty\tz\nu\tv\tw\nq\tq\tq",
			wantHdr: []string{"h0", "h1", "h2"},
			wantRows: [][]string{
				{"a0", "a1", "a2"},
				{"b0", "b1", "b2"},
				{"c0", "x", "y"},
				{"d0", "u", "v"},
			},
			wantArea: rng(2, 1, 3, 2),
		},
		{
			name:    "paste into header",
			target:  rng(-1, 0, -1, 0),
			text:    "id\tname\n1\t2\n",
			wantHdr: []string{"id", "name", "h2"},
			wantRows: [][]string{
				{"1", "2", "a2"},
				{"b0", "b1", "b2"},
				{"c0", "c1", "c2"},
				{"d0", "d1", "d2"},
			},
			wantArea: rng(-1, 0, 0, 1),
		},
		{
			name:    "single value broadcast to selection",
			target:  rng(1, 2, 0, 1),
			text:    "z",
			wantHdr: []string{"h0", "h1", "h2"},
			wantRows: [][]string{
				{"a0", "z", "z"},
				{"b0", "z", "z"},
				{"c0", "c1", "c2"},
				{"d0", "d1", "d2"},
			},
			wantArea: rng(0, 1, 1, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, area, ok := Paste(grid(), identity, tt.target, tt.text)
			if !ok {
				t.Fatal("Paste() ok = false")
			}
			if !reflect.DeepEqual(got.Headers, tt.wantHdr) {
				t.Errorf("Headers = %v, want %v", got.Headers, tt.wantHdr)
			}
			if !reflect.DeepEqual(got.Rows, tt.wantRows) {
				t.Errorf("Rows = %v, want %v", got.Rows, tt.wantRows)
			}
			if area != tt.wantArea {
				t.Errorf("area = %+v, want %+v", area, tt.wantArea)
			}
		})
	}
}

func TestPaste_OutsideTableIsNoOp(t *testing.T) {
	tbl := grid()
	got, _, ok := Paste(tbl, identity, rng(10, 0, 10, 0), "x")
	if ok || got != tbl {
		t.Errorf("Paste outside = (%p, %v), want input and false", got, ok)
	}
}

func TestPaste_ThroughFilteredView(t *testing.T) {
	got, _, _ := Paste(grid(), []int{2, 0}, rng(0, 0, 0, 0), "p\nq")
	if got.Rows[2][0] != "p" || got.Rows[0][0] != "q" {
		t.Errorf("Rows = %v", got.Rows)
	}
	if got.Rows[1][0] != "b0" {
		t.Errorf("hidden row changed: %v", got.Rows[1])
	}
}

func TestFillDown(t *testing.T) {
	tests := []struct {
		name  string
		r     Range
		check func(t *testing.T, got *table.Table)
	}{
		{
			name: "single cell copies row above",
			r:    rng(2, 0, 2, 0),
			check: func(t *testing.T, got *table.Table) {
				if got.Rows[2][0] != "b0" {
					t.Errorf("(2,0) = %q, want b0", got.Rows[2][0])
				}
			},
		},
		{
			name: "first row copies header",
			r:    rng(0, 0, 0, 0),
			check: func(t *testing.T, got *table.Table) {
				if got.Rows[0][0] != "h0" {
					t.Errorf("(0,0) = %q, want h0", got.Rows[0][0])
				}
			},
		},
		{
			name: "multi-row broadcasts top row",
			r:    rng(3, 2, 1, 1),
			check: func(t *testing.T, got *table.Table) {
				for _, r := range []int{2, 3} {
					if got.Rows[r][1] != "b1" || got.Rows[r][2] != "b2" {
						t.Errorf("row %d = %v", r, got.Rows[r])
					}
				}
				if got.Rows[3][0] != "d0" {
					t.Errorf("column outside range changed: %v", got.Rows[3])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, FillDown(grid(), identity, tt.r))
		})
	}
}

func TestFillDown_HeaderHasNoSource(t *testing.T) {
	tbl := grid()
	if got := FillDown(tbl, identity, rng(-1, 0, -1, 2)); got != tbl {
		t.Error("FillDown on header row should be a no-op")
	}
}

func TestFillRight(t *testing.T) {
	got := FillRight(grid(), identity, rng(0, 1, 1, 1))
	if got.Rows[0][1] != "a0" || got.Rows[1][1] != "b0" {
		t.Errorf("single column fill = %v", got.Rows[:2])
	}

	got = FillRight(grid(), identity, rng(2, 0, 2, 2))
	if want := []string{"c0", "c0", "c0"}; !reflect.DeepEqual(got.Rows[2], want) {
		t.Errorf("multi column fill = %v, want %v", got.Rows[2], want)
	}

	tbl := grid()
	if got := FillRight(tbl, identity, rng(0, 0, 3, 0)); got != tbl {
		t.Error("FillRight from first column should be a no-op")
	}
}

func TestClear_SkipsHeaderAndHiddenRows(t *testing.T) {
	got := Clear(grid(), []int{1}, rng(-1, 0, 5, 2))
	if got.Headers[0] != "h0" {
		t.Errorf("Headers = %v", got.Headers)
	}
	if want := []string{"", "", ""}; !reflect.DeepEqual(got.Rows[1], want) {
		t.Errorf("row 1 = %v", got.Rows[1])
	}
	if got.Rows[0][0] != "a0" {
		t.Errorf("row 0 = %v", got.Rows[0])
	}
}
