package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/csvedit/internal/codec"
	"github.com/JonMunkholm/csvedit/internal/table"
	"github.com/JonMunkholm/csvedit/internal/textenc"
	"github.com/JonMunkholm/csvedit/internal/xlsx"
)

// loaded is a parsed input file and the dialect it was read with.
type loaded struct {
	table     *table.Table
	encoding  textenc.Encoding
	delimiter rune
	quote     rune
	workbook  bool
	sheets    []string
}

func isWorkbook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// load reads path, detecting the encoding and delimiter unless opts fixes
// them. .xlsx files go through the workbook reader.
func load(path string, opts *readOptions) (*loaded, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isWorkbook(path) {
		t, err := xlsx.Read(bytes.NewReader(data), opts.sheet, codec.ParseOptions{
			HasHeader:        !opts.noHeader,
			ColumnNamePrefix: table.DefaultColumnPrefix,
		})
		if err != nil {
			return nil, err
		}
		sheets, err := xlsx.Sheets(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return &loaded{table: t, encoding: textenc.UTF8, delimiter: ',', quote: '"', workbook: true, sheets: sheets}, nil
	}

	enc, err := textenc.Parse(opts.encoding)
	if err != nil {
		return nil, err
	}
	if enc == textenc.Auto {
		enc = textenc.DetectEncoding(data)
	}
	text, err := textenc.Decode(data, enc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	delim, auto, err := codec.ParseDelimiter(opts.delimiter)
	if err != nil {
		return nil, err
	}
	if auto {
		delim = codec.DetectDelimiter(text)
	}
	quote, err := quoteRune(opts.quote)
	if err != nil {
		return nil, err
	}

	t := codec.Parse(text, codec.ParseOptions{
		Delimiter:        delim,
		HasHeader:        !opts.noHeader,
		QuoteChar:        quote,
		ColumnNamePrefix: table.DefaultColumnPrefix,
	})
	slog.Debug("file loaded",
		"path", path,
		"encoding", enc,
		"delimiter", string(delim),
		"rows", t.RowCount(),
		"cols", t.ColumnCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &loaded{table: t, encoding: enc, delimiter: delim, quote: quote}, nil
}

func quoteRune(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("quote must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// delimiterName is the human form of a delimiter.
func delimiterName(d rune) string {
	switch d {
	case '\t':
		return "tab"
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '|':
		return "pipe"
	}
	return string(d)
}
