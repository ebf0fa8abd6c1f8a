package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvedit/internal/codec"
	"github.com/JonMunkholm/csvedit/internal/selection"
	"github.com/JonMunkholm/csvedit/internal/textenc"
	"github.com/JonMunkholm/csvedit/internal/xlsx"
)

const itemsCSV = "name;qty\nb;2\na;10\nc;1\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDetect(t *testing.T) {
	path := writeFile(t, "items.csv", []byte(itemsCSV))
	out, err := run(t, "detect", path)
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	for _, want := range []string{"encoding:  utf-8", "delimiter: semicolon", "rows:      3", "columns:   2", "types:     string, number"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDetect_ShiftJIS(t *testing.T) {
	data, err := textenc.Encode("名前\t値\n日本\t1\n", textenc.ShiftJIS)
	if err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "detect", writeFile(t, "jp.txt", data))
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	if !strings.Contains(out, "encoding:  shift_jis") || !strings.Contains(out, "delimiter: tab") {
		t.Errorf("output = %s", out)
	}
}

func TestView(t *testing.T) {
	path := writeFile(t, "items.csv", []byte(itemsCSV))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"all rows", nil, "name\tqty\nb\t2\na\t10\nc\t1\n"},
		{"numeric sort", []string{"--sort", "qty"}, "name\tqty\nc\t1\nb\t2\na\t10\n"},
		{"descending by index", []string{"--sort", "1:desc"}, "name\tqty\na\t10\nb\t2\nc\t1\n"},
		{"number filter", []string{"--filter", "qty:>=:2"}, "name\tqty\nb\t2\na\t10\n"},
		{"text filter", []string{"--filter", "name:A"}, "name\tqty\na\t10\n"},
		{"headerless", []string{"--no-header"}, "name\tqty\nb\t2\na\t10\nc\t1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"view", path}, tt.args...)...)
			if err != nil {
				t.Fatalf("view error = %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}

	if _, err := run(t, "view", path, "--sort", "missing"); err == nil {
		t.Error("expected error for unknown sort column")
	}
	if _, err := run(t, "view", path, "--filter", "qty"); err == nil {
		t.Error("expected error for filter without value")
	}
}

func TestConvert(t *testing.T) {
	in := writeFile(t, "items.csv", []byte(itemsCSV))
	dir := t.TempDir()

	tsv := filepath.Join(dir, "items.tsv")
	if _, err := run(t, "convert", in, tsv); err != nil {
		t.Fatalf("convert error = %v", err)
	}
	got, _ := os.ReadFile(tsv)
	if string(got) != "name\tqty\nb\t2\na\t10\nc\t1" {
		t.Errorf("tsv = %q", got)
	}

	sjis := filepath.Join(dir, "items.csv")
	if _, err := run(t, "convert", in, sjis, "--to-encoding", "utf-8-bom", "--quote-style", "always"); err != nil {
		t.Fatalf("convert error = %v", err)
	}
	got, _ = os.ReadFile(sjis)
	if !bytes.HasPrefix(got, []byte{0xEF, 0xBB, 0xBF}) {
		t.Errorf("missing BOM: %q", got)
	}
	if want := "\"name\",\"qty\"\n\"b\",2"; !strings.HasPrefix(string(got[3:]), want) {
		t.Errorf("csv = %q, want prefix %q", got[3:], want)
	}

	book := filepath.Join(dir, "items.xlsx")
	if _, err := run(t, "convert", in, book); err != nil {
		t.Fatalf("convert error = %v", err)
	}
	f, err := os.Open(book)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tbl, err := xlsx.Read(f, "", codec.DefaultParseOptions())
	if err != nil {
		t.Fatalf("xlsx.Read error = %v", err)
	}
	if tbl.RowCount() != 3 || tbl.Headers[1] != "qty" {
		t.Errorf("workbook = %v %v", tbl.Headers, tbl.Rows)
	}

	out, err := run(t, "view", book)
	if err != nil {
		t.Fatalf("view workbook error = %v", err)
	}
	if out != "name\tqty\nb\t2\na\t10\nc\t1\n" {
		t.Errorf("view workbook = %q", out)
	}

	out, err = run(t, "detect", book)
	if err != nil {
		t.Fatalf("detect workbook error = %v", err)
	}
	for _, want := range []string{"format:    xlsx", "sheets:    " + xlsx.DefaultSheet, "rows:      3"} {
		if !strings.Contains(out, want) {
			t.Errorf("detect workbook missing %q:\n%s", want, out)
		}
	}
}

func TestCopy(t *testing.T) {
	path := writeFile(t, "items.csv", []byte("name,note\na,\"x\ty\"\nb,plain\n"))

	var clip string
	orig := writeClipboard
	writeClipboard = func(s string) error { clip = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	out, err := run(t, "copy", "--stdout", path, "-1:0-1:1")
	if err != nil {
		t.Fatalf("copy error = %v", err)
	}
	want := "name\tnote\na\t\"x\ty\"\nb\tplain"
	if out != want+"\n" {
		t.Errorf("stdout = %q, want %q", out, want+"\n")
	}
	if got := selection.Deserialize(strings.TrimSuffix(out, "\n")); got[1][1] != "x\ty" {
		t.Errorf("round trip cell = %q", got[1][1])
	}
	if clip != "" {
		t.Error("--stdout should not touch the clipboard")
	}
}

func TestCopy_ClipboardReportsClippedSize(t *testing.T) {
	path := writeFile(t, "items.csv", []byte(itemsCSV))

	var clip string
	orig := writeClipboard
	writeClipboard = func(s string) error { clip = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"copy", "--sort", "qty", path, "-1:1-5:4"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("copy error = %v", err)
	}
	if want := "qty\n1\n2\n10"; clip != want {
		t.Errorf("clipboard = %q, want %q", clip, want)
	}
	if !strings.Contains(errOut.String(), "copied 4x1 cells") {
		t.Errorf("stderr = %q, want clipped size 4x1", errOut.String())
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    selection.Range
		wantErr bool
	}{
		{"0:0-2:3", selection.Range{Start: selection.CellPosition{Row: 0, Col: 0}, End: selection.CellPosition{Row: 2, Col: 3}}, false},
		{"-1:1--1:2", selection.Range{Start: selection.CellPosition{Row: -1, Col: 1}, End: selection.CellPosition{Row: -1, Col: 2}}, false},
		{"3:4", selection.NewRange(selection.CellPosition{Row: 3, Col: 4}), false},
		{"a:b", selection.Range{}, true},
		{"-2:0", selection.Range{}, true},
		{"1", selection.Range{}, true},
	}
	for _, tt := range tests {
		got, err := parseRange(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseRange(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
