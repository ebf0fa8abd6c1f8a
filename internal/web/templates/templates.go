// Package templates renders the editor's HTML pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvedit/internal/session"
	"github.com/JonMunkholm/csvedit/internal/table"
	"github.com/JonMunkholm/csvedit/internal/view"
)

// write writes the concatenation of parts, stopping at the first error.
func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

func esc(s string) string { return templ.EscapeString(s) }

func href(s string) string { return esc(string(templ.URL(s))) }

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(title), `</title></head><body>`,
			`<header><a href="/">csvedit</a></header><main>`,
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</main></body></html>`)
	})
}

// ErrorAlert is the fragment returned to HTMX requests that fail.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<div class="alert alert-error" role="alert"><p>`, esc(message), `</p>`); err != nil {
			return err
		}
		if action != "" {
			if err := write(w, `<p class="alert-action">`, esc(action), `</p>`); err != nil {
				return err
			}
		}
		if code != "" {
			if err := write(w, `<small>Error code: `, esc(code), `</small>`); err != nil {
				return err
			}
		}
		return write(w, `</div>`)
	})
}

// SessionList is the index page listing open sessions.
func SessionList(items []session.Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<h1>Open tables</h1>`); err != nil {
			return err
		}
		if len(items) == 0 {
			return write(w, `<p class="empty">No open tables. POST a file to /api/sessions to start.</p>`)
		}
		if err := write(w, `<table class="sessions"><thead><tr>`,
			`<th>Name</th><th>Rows</th><th>Columns</th><th>Encoding</th><th>Last used</th>`,
			`</tr></thead><tbody>`); err != nil {
			return err
		}
		for _, s := range items {
			if err := write(w, `<tr><td><a href="`, href("/sessions/"+s.ID), `">`, esc(s.Name), `</a></td>`,
				`<td>`, strconv.Itoa(s.Rows), `</td><td>`, strconv.Itoa(s.Columns), `</td>`,
				`<td>`, esc(s.Encoding), `</td><td>`, esc(s.LastAccess.Format("2006-01-02 15:04:05")), `</td></tr>`,
			); err != nil {
				return err
			}
		}
		return write(w, `</tbody></table>`)
	})
}

// TablePage renders one page of a session's display order.
func TablePage(v session.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<h1>`, esc(v.Name), `</h1>`,
			`<p class="summary">`, fmt.Sprintf("%d of %d rows", v.VisibleRows, v.TotalRows),
			` &middot; `, esc(string(v.Encoding)), ` &middot; delimiter `, esc(delimiterLabel(v.Delimiter)), `</p>`,
			`<p class="downloads"><a href="`, href("/api/sessions/"+v.ID+"/export"), `">CSV</a> `,
			`<a href="`, href("/api/sessions/"+v.ID+"/export.xlsx"), `">Excel</a></p>`,
			`<table class="grid" data-session="`, esc(v.ID), `"><thead><tr><th class="rownum">#</th>`,
		); err != nil {
			return err
		}
		for col, h := range v.Headers {
			if err := headerCell(w, v, col, h); err != nil {
				return err
			}
		}
		if err := write(w, `</tr></thead><tbody>`); err != nil {
			return err
		}
		for i, row := range v.Rows {
			display := v.Offset + i
			if err := write(w, `<tr data-row="`, strconv.Itoa(row.Index), `"><td class="rownum">`,
				strconv.Itoa(display+1), `</td>`); err != nil {
				return err
			}
			for col, cell := range row.Cells {
				class := "cell"
				if col < len(v.ColumnTypes) && v.ColumnTypes[col] == table.TypeNumber {
					class += " num"
				}
				if selected(v, display, col) {
					class += " selected"
				}
				if err := write(w, `<td class="`, class, `">`, esc(cell), `</td>`); err != nil {
					return err
				}
			}
			if err := write(w, `</tr>`); err != nil {
				return err
			}
		}
		return write(w, `</tbody></table>`)
	})
}

func headerCell(w io.Writer, v session.View, col int, name string) error {
	typ := table.TypeAuto
	if col < len(v.ColumnTypes) {
		typ = v.ColumnTypes[col]
	}
	arrow := ""
	if v.Sort.Column == col {
		switch v.Sort.Direction {
		case view.DirAsc:
			arrow = " &#9650;"
		case view.DirDesc:
			arrow = " &#9660;"
		}
	}
	filter := ""
	if spec, ok := v.Filters[col]; ok {
		label := spec.Value
		if spec.Operator != "" {
			label = spec.Operator + " " + label
		}
		filter = `<span class="filter">` + esc(label) + `</span>`
	}
	return write(w, `<th data-col="`, strconv.Itoa(col), `" data-type="`, esc(string(typ)), `">`,
		esc(name), arrow, filter, `</th>`)
}

func selected(v session.View, row, col int) bool {
	switch {
	case v.Selection.Cells != nil:
		r := v.Selection.Cells.Normalize()
		return row >= r.Start.Row && row <= r.End.Row && col >= r.Start.Col && col <= r.End.Col
	case v.Selection.Rows != nil:
		return v.Selection.Rows.Contains(row)
	}
	return false
}

func delimiterLabel(d string) string {
	switch d {
	case "\t":
		return "tab"
	case ",":
		return "comma"
	case ";":
		return "semicolon"
	case "|":
		return "pipe"
	}
	return d
}
