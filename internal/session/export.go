package session

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/JonMunkholm/csvedit/internal/codec"
	"github.com/JonMunkholm/csvedit/internal/table"
	"github.com/JonMunkholm/csvedit/internal/textenc"
	"github.com/JonMunkholm/csvedit/internal/xlsx"
)

// ExportRequest selects the output dialect. Zero values fall back to the
// format's defaults and the dialect the session was read with.
type ExportRequest struct {
	Format     textenc.ExportFormat
	Encoding   textenc.Encoding
	QuoteStyle codec.QuoteStyle
	Delimiter  string
	// VisibleOnly exports the filtered rows in display order.
	VisibleOnly bool
}

// Export is an encoded file ready to download.
type Export struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Export stringifies and encodes the session's table.
func (s *Session) Export(req ExportRequest) (Export, error) {
	format := req.Format
	if format == "" {
		format = textenc.FormatCSV
	}
	quoteStyle := req.QuoteStyle
	if quoteStyle == "" {
		quoteStyle = codec.QuoteAsNeeded
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	delim := format.Delimiter()
	if format == textenc.FormatCSV {
		delim = s.Source.Delimiter
	}
	if req.Delimiter != "" {
		d, auto, err := codec.ParseDelimiter(req.Delimiter)
		if err != nil {
			return Export{}, fmt.Errorf("%w: %v", ErrInvalidOption, err)
		}
		if !auto {
			delim = d
		}
	}

	enc := req.Encoding
	if enc == "" || enc == textenc.Auto {
		enc = s.Source.Encoding
	}

	t := s.table
	if req.VisibleOnly {
		t = visibleTable(t, s.displayIndices())
	}

	text := codec.Stringify(t, codec.StringifyOptions{
		Delimiter:  delim,
		HasHeader:  t.HasHeader,
		QuoteChar:  s.Source.QuoteChar,
		QuoteStyle: quoteStyle,
	})
	data, err := textenc.Encode(text, enc)
	if err != nil {
		return Export{}, err
	}

	return Export{
		Data:        data,
		Filename:    ExportName(s.Name, format.Extension()),
		ContentType: format.ContentType(),
	}, nil
}

// ExportWorkbook writes the session's table as an .xlsx workbook with a
// single sheet.
func (s *Session) ExportWorkbook(visibleOnly bool) (Export, error) {
	s.mu.Lock()
	t := s.table
	if visibleOnly {
		t = visibleTable(t, s.displayIndices())
	}
	s.touch()
	name := s.Name
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := xlsx.Write(&buf, t, xlsx.DefaultSheet); err != nil {
		return Export{}, err
	}
	return Export{
		Data:        buf.Bytes(),
		Filename:    ExportName(name, ".xlsx"),
		ContentType: xlsx.ContentType,
	}, nil
}

func visibleTable(t *table.Table, indices []int) *table.Table {
	rows := make([][]string, len(indices))
	for i, idx := range indices {
		rows[i] = t.Rows[idx]
	}
	return &table.Table{
		Headers:     t.Headers,
		Rows:        rows,
		HasHeader:   t.HasHeader,
		ColumnTypes: t.ColumnTypes,
	}
}

// ExportName replaces the extension of name with ext. Names without a base
// become "table".
func ExportName(name, ext string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "table"
	}
	return base + "." + strings.TrimPrefix(ext, ".")
}
