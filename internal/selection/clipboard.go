package selection

import (
	"strings"

	"github.com/JonMunkholm/csvedit/internal/codec"
	"github.com/JonMunkholm/csvedit/internal/table"
	"github.com/JonMunkholm/csvedit/internal/view"
)

// Wire format separators. The clipboard always uses tabs and double quotes,
// independent of the table's own delimiter.
const (
	wireDelimiter = '\t'
	wireQuote     = '"'
)

// Serialize renders a block of cells as the clipboard wire format: one line
// per row joined by "\n", cells joined by tabs. A cell containing a tab,
// line break or quote is wrapped in quotes with embedded quotes doubled.
// A final row holding one empty cell is written as "" so it survives
// Deserialize.
func Serialize(block [][]string) string {
	var b strings.Builder
	for i, row := range block {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, v := range row {
			if j > 0 {
				b.WriteRune(wireDelimiter)
			}
			if len(row) == 1 && v == "" && i == len(block)-1 {
				b.WriteString(codec.Quote("", wireQuote))
				continue
			}
			b.WriteString(escapeWire(v))
		}
	}
	return b.String()
}

func escapeWire(v string) string {
	if strings.ContainsAny(v, "\t\n\r\"") {
		return codec.Quote(v, wireQuote)
	}
	return v
}

// Deserialize parses clipboard wire text into a block of cells. Rows are
// separated by "\n" or "\r\n"; a trailing line break does not add a row.
func Deserialize(text string) [][]string {
	block := codec.Tokenize(text, wireDelimiter, wireQuote)
	if n := len(block); n > 0 && isEmptyRow(block[n-1]) && strings.HasSuffix(text, "\n") {
		block = block[:n-1]
	}
	return block
}

func isEmptyRow(row []string) bool {
	return len(row) == 0 || (len(row) == 1 && row[0] == "")
}

// Extract returns the cells inside r, clipped to the table, in display
// order. Row -1 reads the headers.
func Extract(t *table.Table, indices []int, r Range) [][]string {
	n, ok := r.clip(len(indices), t.ColumnCount())
	if !ok {
		return nil
	}

	block := make([][]string, 0, n.End.Row-n.Start.Row+1)
	for dr := n.Start.Row; dr <= n.End.Row; dr++ {
		row, ok := storageRow(indices, dr)
		if !ok {
			continue
		}
		line := make([]string, 0, n.End.Col-n.Start.Col+1)
		for c := n.Start.Col; c <= n.End.Col; c++ {
			v, _ := t.Cell(row, c)
			line = append(line, v)
		}
		block = append(block, line)
	}
	return block
}

// storageRow maps a display row to a storage row. The header maps to
// table.HeaderRow.
func storageRow(indices []int, display int) (int, bool) {
	if display == table.HeaderRow {
		return table.HeaderRow, true
	}
	row := view.DisplayToDataIndex(indices, display)
	return row, row != view.NotFound
}
