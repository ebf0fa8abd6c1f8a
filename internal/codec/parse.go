package codec

import (
	"github.com/JonMunkholm/csvedit/internal/table"
)

// ParseOptions configures Parse.
type ParseOptions struct {
	Delimiter        rune
	HasHeader        bool
	QuoteChar        rune
	ColumnNamePrefix string
}

// DefaultParseOptions returns comma-delimited, double-quoted, header-first
// options.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Delimiter:        ',',
		HasHeader:        true,
		QuoteChar:        '"',
		ColumnNamePrefix: table.DefaultColumnPrefix,
	}
}

// Parse converts delimited text into a table.
//
// Records consisting of a single empty field are dropped as blank-line
// artifacts, then every record is padded to the widest one. With HasHeader
// the first record becomes the headers; otherwise synthetic headers are
// generated. Column types are inferred from data rows only.
func Parse(text string, opts ParseOptions) *table.Table {
	return FromRecords(Tokenize(text, opts.Delimiter, opts.QuoteChar), opts)
}

// FromRecords builds a table from already-split records using the same blank
// filtering, padding, header and type inference rules as Parse. The records
// slice may be modified.
func FromRecords(records [][]string, opts ParseOptions) *table.Table {
	kept := records[:0]
	width := 0
	for _, rec := range records {
		if isBlankRecord(rec) {
			continue
		}
		kept = append(kept, rec)
		width = max(width, len(rec))
	}

	if len(kept) == 0 {
		return table.Empty(opts.HasHeader)
	}

	for i, rec := range kept {
		for len(rec) < width {
			rec = append(rec, "")
		}
		kept[i] = rec
	}

	var headers []string
	rows := kept
	if opts.HasHeader {
		headers = kept[0]
		rows = kept[1:]
	} else {
		headers = table.SyntheticHeaders(width, opts.ColumnNamePrefix)
	}

	return &table.Table{
		Headers:     headers,
		Rows:        append([][]string{}, rows...),
		HasHeader:   opts.HasHeader,
		ColumnTypes: table.DetectColumnTypes(rows, width),
	}
}

func isBlankRecord(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && rec[0] == "")
}
