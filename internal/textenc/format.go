package textenc

import (
	"fmt"
	"strings"
)

// ExportFormat is a plaintext download format.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatTSV ExportFormat = "tsv"
	FormatTXT ExportFormat = "txt"
)

// ParseFormat converts a user-supplied name or file extension to an
// ExportFormat. The empty string means FormatCSV.
func ParseFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.TrimPrefix(strings.ToLower(s), ".")); f {
	case FormatCSV, FormatTSV, FormatTXT:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown export format %q (must be csv, tsv, or txt)", s)
}

// Extension returns the file extension including the leading dot.
func (f ExportFormat) Extension() string {
	return "." + string(f)
}

// Delimiter is the field separator used for f unless the caller overrides it.
func (f ExportFormat) Delimiter() rune {
	if f == FormatTSV || f == FormatTXT {
		return '\t'
	}
	return ','
}

// ContentType is the MIME type served for f.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatTSV:
		return "text/tab-separated-values"
	case FormatTXT:
		return "text/plain"
	}
	return "text/csv"
}

// FormatFromFilename picks the export format matching name's extension,
// falling back to FormatCSV.
func FormatFromFilename(name string) ExportFormat {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return FormatCSV
	}
	f, err := ParseFormat(name[i:])
	if err != nil {
		return FormatCSV
	}
	return f
}
