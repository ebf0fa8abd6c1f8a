// Package pgexport publishes a table to PostgreSQL.
//
// The target table is dropped and recreated on every publish: Number columns
// become NUMERIC, everything else TEXT, and rows are bulk loaded with the
// COPY protocol. Blank cells load as NULL.
package pgexport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/csvedit/internal/table"
)

// ErrNoColumns is returned when publishing a table without columns.
var ErrNoColumns = errors.New("table has no columns")

// DB is the subset of pgx used for publishing. Satisfied by *pgxpool.Pool,
// *pgx.Conn and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Result describes a completed publish.
type Result struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Rows    int64    `json:"rows"`
}

// Publish replaces tableName with the contents of t and returns the number
// of rows copied. Run it inside a transaction to make the replacement atomic.
func Publish(ctx context.Context, db DB, tableName string, t *table.Table) (Result, error) {
	if t.ColumnCount() == 0 {
		return Result{}, ErrNoColumns
	}

	ident, err := ParseIdentifier(tableName)
	if err != nil {
		return Result{}, err
	}
	cols := ColumnNames(t.Headers)

	if _, err := db.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
		return Result{}, fmt.Errorf("drop %s: %w", ident.Sanitize(), err)
	}
	if _, err := db.Exec(ctx, CreateTableSQL(ident, cols, t.ColumnTypes)); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", ident.Sanitize(), err)
	}

	n, err := db.CopyFrom(ctx, ident, cols, pgx.CopyFromSlice(len(t.Rows), func(i int) ([]any, error) {
		return rowValues(t, i), nil
	}))
	if err != nil {
		return Result{}, fmt.Errorf("copy into %s: %w", ident.Sanitize(), err)
	}

	return Result{Table: ident.Sanitize(), Columns: cols, Rows: n}, nil
}

// ParseIdentifier splits an optionally schema-qualified name.
func ParseIdentifier(name string) (pgx.Identifier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("table name is required")
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid table name %q", name)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
	}
	return pgx.Identifier(parts), nil
}

// CreateTableSQL returns the CREATE TABLE statement for cols.
func CreateTableSQL(ident pgx.Identifier, cols []string, types []table.ColumnType) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		sqlType := "TEXT"
		if i < len(types) && types[i] == table.TypeNumber {
			sqlType = "NUMERIC"
		}
		defs[i] = pgx.Identifier{c}.Sanitize() + " " + sqlType
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident.Sanitize(), strings.Join(defs, ", "))
}

// ColumnNames derives database column names from headers: lower case, spaces
// replaced by underscores, blanks named column_N, duplicates suffixed _2, _3.
func ColumnNames(headers []string) []string {
	names := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	for i, h := range headers {
		base := toDBColumnName(h)
		if base == "" {
			base = "column_" + strconv.Itoa(i+1)
		}
		name := base
		for n := 2; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func toDBColumnName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

func rowValues(t *table.Table, i int) []any {
	row := t.Rows[i]
	vals := make([]any, len(row))
	for c, v := range row {
		if t.ColumnType(c) == table.TypeNumber {
			vals[c] = ToPgNumeric(v)
		} else {
			vals[c] = ToPgText(v)
		}
	}
	return vals
}

// ToPgText converts a cell to pgtype.Text; empty cells are NULL.
// Whitespace is kept as text.
func ToPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgNumeric converts a cell to pgtype.Numeric; blank or non-numeric cells
// are NULL.
func ToPgNumeric(s string) pgtype.Numeric {
	f, ok := table.ParseNumber(s)
	if !ok {
		return pgtype.Numeric{}
	}

	var n pgtype.Numeric
	if err := n.Scan(strings.TrimSpace(s)); err == nil {
		return n
	}
	// Retry with the plain decimal form of the parsed value.
	if err := n.Scan(strconv.FormatFloat(f, 'f', -1, 64)); err != nil {
		return pgtype.Numeric{}
	}
	return n
}
