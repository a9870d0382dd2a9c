// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package issuetable

import (
	"fmt"
	"html"
	"net/url"

	"github.com/davetashner/checkview/internal/pagination"
	"github.com/davetashner/checkview/internal/perfdb"
	"github.com/davetashner/checkview/internal/pipeline"
)

// referenceField is rendered as a link to the entry page.
const referenceField = "reference"

// CellError carries the issue shown on a cell.
type CellError struct {
	Message string `json:"message"`
}

// Cell is one column of an entity row. Exactly one of Value or HTML is
// meaningful.
type Cell struct {
	Value string     `json:"value"`
	HTML  string     `json:"html,omitempty"`
	Error *CellError `json:"error,omitempty"`
}

// Row is one entity of the table.
type Row struct {
	Columns map[string]Cell `json:"columns"`
}

// Table is the entity table of the view.
type Table struct {
	Columns []string `json:"columns"`
	Fields  []string `json:"fields"`
	Rows    []Row    `json:"rows"`
}

// TableView is the view-model of the issue table page.
type TableView struct {
	Organisation pipeline.Record  `json:"organisation"`
	Dataset      pipeline.Record  `json:"dataset"`
	ErrorHeading string           `json:"errorHeading"`
	IssueType    string           `json:"issueType"`
	IssueField   string           `json:"issueField"`
	Table        Table            `json:"tableParams"`
	Pagination   pagination.State `json:"pagination"`
}

// basePath is the issue table path without the page number.
func basePath(p Params) string {
	return fmt.Sprintf("/organisations/%s/%s/%s/%s/",
		url.PathEscape(p.LPA), url.PathEscape(p.Dataset),
		url.PathEscape(p.IssueType), url.PathEscape(p.IssueField))
}

// PageHref returns the link to page n of the table.
func PageHref(p Params) pagination.HrefFunc {
	base := basePath(p)
	return func(n int) string { return fmt.Sprintf("%s%d", base, n) }
}

// EntryHref returns the link to one entry.
func EntryHref(p Params, entryNumber int) string {
	return fmt.Sprintf("%sentry/%d", basePath(p), entryNumber)
}

// BuildTable lays out entities against the dataset specification. Issues on
// fields outside the specification still get a cell.
func BuildTable(p Params, spec perfdb.Specification, entities []pipeline.Record) (Table, error) {
	fields := spec.FieldNames()
	t := Table{Columns: fields, Fields: fields, Rows: make([]Row, 0, len(entities))}

	for _, ent := range entities {
		cols := make(map[string]Cell, len(fields))
		for _, f := range fields {
			v := ent.String(f)
			if f == referenceField {
				link := EntryHref(p, ent.Int("entry_number"))
				cols[f] = Cell{HTML: fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(link), html.EscapeString(v))}
				continue
			}
			cols[f] = Cell{Value: v}
		}

		issues, err := perfdb.ParseIssueMap(ent.String("issues"))
		if err != nil {
			return Table{}, fmt.Errorf("entry %d: %w", ent.Int("entry_number"), err)
		}
		for field, issueType := range issues {
			c := cols[field]
			c.Error = &CellError{Message: issueType}
			cols[field] = c
		}
		t.Rows = append(t.Rows, Row{Columns: cols})
	}
	return t, nil
}
