// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Alignment controls how a column's content is justified.
type Alignment int

const (
	// AlignLeft pads on the right (default).
	AlignLeft Alignment = iota
	// AlignRight pads on the left.
	AlignRight
)

// Styler decorates a cell after padding widths are computed.
type Styler func(value string) string

// GridColumn describes one column of a Grid.
type GridColumn struct {
	Header string
	Align  Alignment
}

// GridCell is a value plus an optional style.
type GridCell struct {
	Text  string
	Style Styler
}

// Grid renders aligned text tables. Widths count runes, so non-ASCII cell
// values line up.
type Grid struct {
	columns []GridColumn
	rows    [][]GridCell
	// MaxWidth truncates longer cells with an ellipsis; 0 disables.
	MaxWidth int
}

// NewGrid creates a grid with the given columns.
func NewGrid(columns ...GridColumn) *Grid {
	return &Grid{columns: columns}
}

// AddRow appends a row of plain values. Extra values are dropped; missing
// values are empty.
func (g *Grid) AddRow(values ...string) {
	row := make([]GridCell, len(g.columns))
	for i := range row {
		if i < len(values) {
			row[i].Text = values[i]
		}
	}
	g.rows = append(g.rows, row)
}

// AddStyledRow appends a row whose cells may carry a Styler.
func (g *Grid) AddStyledRow(cells ...GridCell) {
	row := make([]GridCell, len(g.columns))
	copy(row, cells)
	g.rows = append(g.rows, row)
}

func (g *Grid) clip(s string) string {
	if g.MaxWidth <= 0 || utf8.RuneCountInString(s) <= g.MaxWidth {
		return s
	}
	r := []rune(s)
	return string(r[:g.MaxWidth-1]) + "…"
}

// Render writes the grid to w.
func (g *Grid) Render(w io.Writer) error {
	if len(g.columns) == 0 {
		return nil
	}

	widths := make([]int, len(g.columns))
	for i, c := range g.columns {
		widths[i] = utf8.RuneCountInString(c.Header)
	}
	for _, row := range g.rows {
		for i := range row {
			row[i].Text = g.clip(row[i].Text)
			if n := utf8.RuneCountInString(row[i].Text); n > widths[i] {
				widths[i] = n
			}
		}
	}

	bold := color.New(color.Bold)
	header := make([]GridCell, len(g.columns))
	for i, c := range g.columns {
		header[i] = GridCell{Text: c.Header, Style: func(s string) string { return bold.Sprint(s) }}
	}
	if err := g.line(w, header, widths); err != nil {
		return err
	}

	sep := make([]string, len(widths))
	for i, n := range widths {
		sep[i] = strings.Repeat("-", n)
	}
	if _, err := fmt.Fprintf(w, "  %s\n", strings.Join(sep, "  ")); err != nil {
		return fmt.Errorf("render grid: %w", err)
	}

	for _, row := range g.rows {
		if err := g.line(w, row, widths); err != nil {
			return err
		}
	}
	return nil
}

func (g *Grid) line(w io.Writer, cells []GridCell, widths []int) error {
	parts := make([]string, len(cells))
	for i, c := range cells {
		shown := c.Text
		if c.Style != nil {
			shown = c.Style(c.Text)
		}
		// Pad on the plain text width; styling adds invisible bytes.
		pad := strings.Repeat(" ", max(widths[i]-utf8.RuneCountInString(c.Text), 0))
		if g.columns[i].Align == AlignRight {
			parts[i] = pad + shown
		} else {
			parts[i] = shown + pad
		}
	}
	if _, err := fmt.Fprintf(w, "  %s\n", strings.TrimRight(strings.Join(parts, "  "), " ")); err != nil {
		return fmt.Errorf("render grid: %w", err)
	}
	return nil
}
