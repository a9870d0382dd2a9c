// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/davetashner/checkview/internal/errorsview"
	"github.com/davetashner/checkview/internal/issuetable"
	"github.com/davetashner/checkview/internal/pagination"
	"github.com/davetashner/checkview/internal/perfdb"
	"github.com/davetashner/checkview/internal/results"
)

func init() {
	RegisterFormatter(NewTableFormatter())
}

var (
	colorRed   = color.New(color.FgRed)
	colorGreen = color.New(color.FgGreen)
	colorBold  = color.New(color.Bold)
)

func styleError(s string) string { return colorRed.Sprint(s) }

// TableFormatter writes views as aligned terminal tables. Cells carrying an
// issue are shown in red with the issue label after the value.
type TableFormatter struct {
	// MaxCellWidth truncates long values; 0 keeps them whole.
	MaxCellWidth int
}

var _ Formatter = (*TableFormatter)(nil)

// NewTableFormatter returns a TableFormatter that truncates cells at 40
// runes.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{MaxCellWidth: 40}
}

// Name returns the format name.
func (f *TableFormatter) Name() string { return "table" }

// Format writes doc.View, which must be one of the known view-models.
func (f *TableFormatter) Format(doc Document, w io.Writer) error {
	switch v := doc.View.(type) {
	case *errorsview.View:
		return f.errors(v, w)
	case *issuetable.TableView:
		return f.issues(v, w)
	case *results.View:
		return f.results(v, w)
	case perfdb.Overview:
		return f.overview(v, w)
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	default:
		return fmt.Errorf("table format does not support %T", doc.View)
	}
}

func (f *TableFormatter) grid(cols ...GridColumn) *Grid {
	g := NewGrid(cols...)
	g.MaxWidth = f.MaxCellWidth
	return g
}

func cellText(value, issue string) GridCell {
	if issue == "" {
		return GridCell{Text: value}
	}
	text := issue
	if value != "" {
		text = value + " [" + issue + "]"
	}
	return GridCell{Text: text, Style: styleError}
}

func title(w io.Writer, s string) error {
	_, err := fmt.Fprintf(w, "%s\n\n", colorBold.Sprint(s))
	return err
}

func (f *TableFormatter) errors(v *errorsview.View, w io.Writer) error {
	if err := title(w, fmt.Sprintf("%s: %d errors", v.Dataset, v.ErrorCount)); err != nil {
		return err
	}
	if len(v.Rows) == 0 {
		_, err := fmt.Fprintln(w, colorGreen.Sprint("  No issues found."))
		return err
	}

	// Columns are the union of entry fields in first-seen order.
	var fields []string
	seen := make(map[string]bool)
	for _, e := range v.Rows {
		for _, fld := range e.Fields {
			if !seen[fld] {
				seen[fld] = true
				fields = append(fields, fld)
			}
		}
	}

	cols := []GridColumn{{Header: "Entry", Align: AlignRight}}
	for _, fld := range fields {
		cols = append(cols, GridColumn{Header: fld})
	}
	g := f.grid(cols...)
	for _, e := range v.Rows {
		cells := []GridCell{{Text: strconv.Itoa(e.EntryNumber)}}
		for _, fld := range fields {
			c, _ := e.Cell(fld)
			cells = append(cells, cellText(c.Value, c.Error))
		}
		g.AddStyledRow(cells...)
	}
	if err := g.Render(w); err != nil {
		return err
	}
	return issueCounts(w, v.IssueCounts)
}

func issueCounts(w io.Writer, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)

	g := NewGrid(GridColumn{Header: "Field"}, GridColumn{Header: "Issues", Align: AlignRight})
	for _, n := range names {
		g.AddRow(n, strconv.Itoa(counts[n]))
	}
	return g.Render(w)
}

func (f *TableFormatter) issues(v *issuetable.TableView, w io.Writer) error {
	name := v.Organisation.String("name")
	if name == "" {
		name = v.Organisation.String("organisation")
	}
	if err := title(w, fmt.Sprintf("%s / %s: %s", name, v.Dataset.String("dataset"), v.ErrorHeading)); err != nil {
		return err
	}

	cols := make([]GridColumn, len(v.Table.Columns))
	for i, c := range v.Table.Columns {
		cols[i] = GridColumn{Header: c}
	}
	g := f.grid(cols...)
	for _, row := range v.Table.Rows {
		cells := make([]GridCell, len(v.Table.Columns))
		for i, c := range v.Table.Columns {
			cell := row.Columns[c]
			value := cell.Value
			if cell.HTML != "" {
				value = stripTags(cell.HTML)
			}
			issue := ""
			if cell.Error != nil {
				issue = cell.Error.Message
			}
			cells[i] = cellText(value, issue)
		}
		g.AddStyledRow(cells...)
	}
	if err := g.Render(w); err != nil {
		return err
	}
	return pageLine(w, v.Pagination)
}

func (f *TableFormatter) results(v *results.View, w io.Writer) error {
	if v.Error != nil {
		if err := title(w, "Validation failed"); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "  %s\n", colorRed.Sprint(v.Error.Message))
		return err
	}

	heading := "No errors"
	if len(v.ErrorSummary) > 0 {
		heading = fmt.Sprintf("%d error types", len(v.ErrorSummary))
	}
	if err := title(w, fmt.Sprintf("Request %s: %s", v.ID, heading)); err != nil {
		return err
	}
	for _, s := range v.ErrorSummary {
		if _, err := fmt.Fprintf(w, "  - %s\n", s); err != nil {
			return err
		}
	}
	if len(v.ErrorSummary) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	cols := []GridColumn{{Header: "Entry", Align: AlignRight}}
	for _, c := range v.Columns {
		cols = append(cols, GridColumn{Header: c})
	}
	g := f.grid(cols...)
	for _, row := range v.VerboseRows {
		cells := []GridCell{{Text: strconv.Itoa(row.EntryNumber)}}
		for _, c := range v.Columns {
			cell := row.Columns[c]
			issue := ""
			if cell.Error != nil {
				issue = cell.Error.Message
			}
			cells = append(cells, cellText(cell.Value, issue))
		}
		g.AddStyledRow(cells...)
	}
	if err := g.Render(w); err != nil {
		return err
	}
	if v.Pagination != nil {
		return pageLine(w, *v.Pagination)
	}
	return nil
}

func (f *TableFormatter) overview(v perfdb.Overview, w io.Writer) error {
	names := make([]string, 0, len(v.Datasets))
	for n := range v.Datasets {
		names = append(names, n)
	}
	sort.Strings(names)

	g := f.grid(GridColumn{Header: "Dataset"}, GridColumn{Header: "Endpoint"}, GridColumn{Header: "Status"})
	for _, n := range names {
		st := v.Datasets[n]
		status := GridCell{Text: "No issues", Style: func(s string) string { return colorGreen.Sprint(s) }}
		switch {
		case st.Error != "":
			status = GridCell{Text: st.Error, Style: styleError}
		case st.Issue != "":
			status = GridCell{Text: st.Issue}
		}
		g.AddStyledRow(GridCell{Text: n}, GridCell{Text: st.Endpoint}, status)
	}
	return g.Render(w)
}

// pageLine prints "Page n of m" from a pagination state.
func pageLine(w io.Writer, p pagination.State) error {
	current, last := 0, 0
	for _, it := range p.Items {
		if it.Type != pagination.TypeNumber {
			continue
		}
		if it.Current {
			current = it.Number
		}
		last = max(last, it.Number)
	}
	if last <= 1 {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n  Page %d of %d\n", current, last)
	return err
}

// stripTags returns the text content of a single-element HTML fragment.
func stripTags(s string) string {
	start := strings.Index(s, ">")
	end := strings.LastIndex(s, "<")
	if start < 0 || end <= start {
		return html.UnescapeString(s)
	}
	return html.UnescapeString(s[start+1 : end])
}
