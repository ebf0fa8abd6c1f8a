package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvedit/internal/codec"
	"github.com/JonMunkholm/csvedit/internal/selection"
	"github.com/JonMunkholm/csvedit/internal/table"
	"github.com/JonMunkholm/csvedit/internal/textenc"
	"github.com/JonMunkholm/csvedit/internal/view"
	"github.com/JonMunkholm/csvedit/internal/xlsx"
)

var errNoClipboard = errors.New("no clipboard available on this system; use --stdout")

// writeClipboard is replaced in tests.
var writeClipboard = func(text string) error {
	if clipboard.Unsupported {
		return errNoClipboard
	}
	return clipboard.WriteAll(text)
}

func newDetectCmd(opts *readOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE",
		Short: "Print the detected encoding, delimiter and shape of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := load(args[0], opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if in.workbook {
				fmt.Fprintln(out, "format:    xlsx")
				fmt.Fprintf(out, "sheets:    %s\n", strings.Join(in.sheets, ", "))
			} else {
				fmt.Fprintf(out, "encoding:  %s\n", in.encoding)
				fmt.Fprintf(out, "delimiter: %s\n", delimiterName(in.delimiter))
			}
			fmt.Fprintf(out, "rows:      %d\n", in.table.RowCount())
			fmt.Fprintf(out, "columns:   %d\n", in.table.ColumnCount())
			types := make([]string, len(in.table.ColumnTypes))
			for i, t := range in.table.ColumnTypes {
				types[i] = string(t)
			}
			fmt.Fprintf(out, "types:     %s\n", strings.Join(types, ", "))
			return nil
		},
	}
}

type convertOptions struct {
	encoding   string
	delimiter  string
	quoteStyle string
}

func newConvertCmd(opts *readOptions) *cobra.Command {
	co := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Re-encode, re-delimit or re-quote a file",
		Long: `convert reads IN and writes OUT. The output format follows OUT's extension:
.csv, .tsv, .txt or .xlsx. Text output keeps the input encoding unless
--to-encoding is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := load(args[0], opts)
			if err != nil {
				return err
			}
			data, err := convert(in, args[1], co)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], data, 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", in.table.RowCount(), args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&co.encoding, "to-encoding", "", "Output encoding (default: input encoding)")
	cmd.Flags().StringVar(&co.delimiter, "to-delimiter", "", "Output delimiter (default: format default)")
	cmd.Flags().StringVar(&co.quoteStyle, "quote-style", "as-needed", "Quoting: as-needed or always")
	return cmd
}

// convert renders in for the format implied by outPath.
func convert(in *loaded, outPath string, co *convertOptions) ([]byte, error) {
	if isWorkbook(outPath) {
		var buf bytes.Buffer
		if err := xlsx.Write(&buf, in.table, xlsx.DefaultSheet); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	format := textenc.FormatFromFilename(outPath)
	delim := format.Delimiter()
	if co.delimiter != "" {
		d, auto, err := codec.ParseDelimiter(co.delimiter)
		if err != nil {
			return nil, err
		}
		if !auto {
			delim = d
		}
	}
	style, err := codec.ParseQuoteStyle(co.quoteStyle)
	if err != nil {
		return nil, err
	}
	enc := in.encoding
	if co.encoding != "" {
		if enc, err = textenc.Parse(co.encoding); err != nil {
			return nil, err
		}
		if enc == textenc.Auto {
			enc = in.encoding
		}
	}

	text := codec.Stringify(in.table, codec.StringifyOptions{
		Delimiter:  delim,
		HasHeader:  in.table.HasHeader,
		QuoteChar:  in.quote,
		QuoteStyle: style,
	})
	return textenc.Encode(text, enc)
}

// viewOptions select and order the rows of a table.
type viewOptions struct {
	filters []string
	sort    string
}

func (vo *viewOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&vo.filters, "filter", nil, "Filter as col:value (text) or col:op:value (number, op one of = != > < >= <=); repeatable")
	cmd.Flags().StringVar(&vo.sort, "sort", "", "Sort as col or col:desc")
}

// displayIndices applies the filters and sort to t.
func (vo *viewOptions) displayIndices(t *table.Table) ([]int, error) {
	filters := view.FilterState{}
	for _, spec := range vo.filters {
		col, f, err := parseFilter(t, spec)
		if err != nil {
			return nil, err
		}
		filters[col] = f
	}
	sort := view.Unsorted
	if vo.sort != "" {
		var err error
		if sort, err = parseSort(t, vo.sort); err != nil {
			return nil, err
		}
	}
	return view.ComputeDisplayIndices(t, filters, sort), nil
}

func newViewCmd(opts *readOptions) *cobra.Command {
	vo := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "view FILE",
		Short: "Print filtered and sorted rows as tab-separated text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := load(args[0], opts)
			if err != nil {
				return err
			}
			indices, err := vo.displayIndices(in.table)
			if err != nil {
				return err
			}

			block := make([][]string, 0, len(indices)+1)
			if in.table.HasHeader {
				block = append(block, in.table.Headers)
			}
			for _, idx := range indices {
				block = append(block, in.table.Rows[idx])
			}
			if len(block) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), selection.Serialize(block))
			}
			return nil
		},
	}
	vo.register(cmd)
	return cmd
}

func newCopyCmd(opts *readOptions) *cobra.Command {
	vo := &viewOptions{}
	var toStdout bool
	cmd := &cobra.Command{
		Use:   "copy [flags] FILE RANGE",
		Short: "Copy a range of cells to the system clipboard",
		Long: `copy places the cells of RANGE on the clipboard as tab-separated text that
spreadsheets paste as cells. RANGE is r1:c1-r2:c2 or r:c, 0-based, with row -1
for the header. Rows count in the order left by --filter and --sort.

Flags go before FILE, so a header range such as -1:0-1:1 is read as RANGE:

  csvedit copy --stdout items.csv -1:0-2:1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := load(args[0], opts)
			if err != nil {
				return err
			}
			r, err := parseRange(args[1])
			if err != nil {
				return err
			}
			indices, err := vo.displayIndices(in.table)
			if err != nil {
				return err
			}

			block := selection.Extract(in.table, indices, r)
			text := selection.Serialize(block)
			if toStdout {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			if err := writeClipboard(text); err != nil {
				if errors.Is(err, errNoClipboard) {
					return err
				}
				return fmt.Errorf("write clipboard: %w", err)
			}
			width := 0
			if len(block) > 0 {
				width = len(block[0])
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "copied %dx%d cells\n", len(block), width)
			return nil
		},
	}
	vo.register(cmd)
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print instead of writing the clipboard")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// parseColumn resolves a column given by index or header name.
func parseColumn(t *table.Table, s string) (int, error) {
	if i, err := strconv.Atoi(s); err == nil {
		if i < 0 || i >= t.ColumnCount() {
			return 0, fmt.Errorf("column %d out of range (table has %d)", i, t.ColumnCount())
		}
		return i, nil
	}
	for i, h := range t.Headers {
		if strings.EqualFold(h, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown column %q", s)
}

// parseFilter parses col:value or col:op:value. A middle part that is not an
// operator belongs to the text value.
func parseFilter(t *table.Table, spec string) (int, view.ColumnFilter, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 {
		return 0, nil, fmt.Errorf("invalid filter %q (want col:value or col:op:value)", spec)
	}
	col, err := parseColumn(t, parts[0])
	if err != nil {
		return 0, nil, err
	}
	if len(parts) == 3 {
		if _, err := view.ParseOperator(parts[1]); err == nil {
			f, err := view.FilterSpec{Type: view.KindNumber, Operator: parts[1], Value: parts[2]}.Filter()
			return col, f, err
		}
		return col, view.StringFilter{Value: parts[1] + ":" + parts[2]}, nil
	}
	return col, view.StringFilter{Value: parts[1]}, nil
}

func parseSort(t *table.Table, spec string) (view.SortState, error) {
	name, dir, _ := strings.Cut(spec, ":")
	col, err := parseColumn(t, name)
	if err != nil {
		return view.Unsorted, err
	}
	if dir == "" {
		dir = string(view.DirAsc)
	}
	d, err := view.ParseDirection(dir)
	if err != nil {
		return view.Unsorted, err
	}
	return view.SortState{Column: col, Direction: d}, nil
}

// parseRange parses r1:c1-r2:c2 or a single r:c. Row -1 is the header, so
// the separator is the '-' that follows a digit.
func parseRange(s string) (selection.Range, error) {
	split := -1
	for i := 1; i < len(s); i++ {
		if s[i] == '-' && s[i-1] >= '0' && s[i-1] <= '9' {
			split = i
			break
		}
	}
	if split < 0 {
		p, err := parsePosition(s)
		if err != nil {
			return selection.Range{}, err
		}
		return selection.NewRange(p), nil
	}
	start, err := parsePosition(s[:split])
	if err != nil {
		return selection.Range{}, err
	}
	end, err := parsePosition(s[split+1:])
	if err != nil {
		return selection.Range{}, err
	}
	return selection.Range{Start: start, End: end}, nil
}

func parsePosition(s string) (selection.CellPosition, error) {
	rs, cs, ok := strings.Cut(s, ":")
	if !ok {
		return selection.CellPosition{}, fmt.Errorf("invalid cell %q (want row:col)", s)
	}
	row, err := strconv.Atoi(rs)
	if err != nil || row < table.HeaderRow {
		return selection.CellPosition{}, fmt.Errorf("invalid row in %q", s)
	}
	col, err := strconv.Atoi(cs)
	if err != nil || col < 0 {
		return selection.CellPosition{}, fmt.Errorf("invalid column in %q", s)
	}
	return selection.CellPosition{Row: row, Col: col}, nil
}
