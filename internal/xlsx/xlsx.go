// Package xlsx converts tables to and from Excel workbooks.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/csvedit/internal/codec"
	"github.com/JonMunkholm/csvedit/internal/table"
)

// DefaultSheet names the sheet written when the caller gives none.
const DefaultSheet = "Sheet1"

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Write renders t as a single-sheet workbook. Numeric values in Number
// columns are written as numbers, everything else as strings. The header row
// is written only when t.HasHeader is set.
func Write(w io.Writer, t *table.Table, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return fmt.Errorf("name sheet %q: %w", sheet, err)
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	rowNum := 1
	writeRow := func(values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		rowNum++
		return sw.SetRow(cell, values)
	}

	if t.HasHeader && len(t.Headers) > 0 {
		header := make([]any, len(t.Headers))
		for i, h := range t.Headers {
			header[i] = h
		}
		if err := writeRow(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range t.Rows {
		if err := writeRow(cellValues(t, row)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValues(t *table.Table, row []string) []any {
	values := make([]any, len(row))
	for c, v := range row {
		if t.ColumnType(c) == table.TypeNumber {
			if n, ok := table.ParseNumber(v); ok {
				values[c] = n
				continue
			}
		}
		values[c] = v
	}
	return values
}

// Read loads one sheet of a workbook, the first when sheet is empty. Rows go
// through the same blank filtering, padding, header and type inference rules
// as codec.Parse; the delimiter and quote options are ignored.
func Read(r io.Reader, sheet string, opts codec.ParseOptions) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return table.Empty(opts.HasHeader), nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return codec.FromRecords(rows, opts), nil
}

// Sheets lists the sheet names of a workbook in order.
func Sheets(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
