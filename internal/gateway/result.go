// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package gateway

import (
	"context"
	"fmt"

	"github.com/davetashner/checkview/internal/columnmap"
	"github.com/davetashner/checkview/internal/pagination"
	"github.com/davetashner/checkview/internal/validation"
)

// Request states reported by the API.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusComplete   = "COMPLETE"
	StatusFailed     = "FAILED"
)

// DefaultPageSize is used by FetchDetails when pageSize is not positive.
const DefaultPageSize = 50

// Request is the API's view of one validation request.
type Request struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Params   map[string]any `json:"params"`
	Response *Response      `json:"response"`
}

// Response is the body of a processed request.
type Response struct {
	Data  *ResponseData  `json:"data"`
	Error *ResponseError `json:"error"`
}

// ResponseData summarises a completed request.
type ResponseData struct {
	ErrorSummary   []string                 `json:"error-summary"`
	ColumnFieldLog []validation.ColumnField `json:"column-field-log"`
}

// ResponseError describes why a request failed.
type ResponseError struct {
	Code        string `json:"errCode"`
	Type        string `json:"errType"`
	Message     string `json:"errMsg"`
	Description string `json:"errDescription,omitempty"`
}

// DetailIssue is one issue attached to a detail row.
type DetailIssue struct {
	Field     string              `json:"field"`
	IssueType string              `json:"issue-type"`
	Severity  validation.Severity `json:"severity"`
	Message   string              `json:"message"`
	Value     string              `json:"value"`
}

// FactField is one field of a transformed row.
type FactField struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Detail is one row of the response details.
type Detail struct {
	EntryNumber    int               `json:"entry_number"`
	LineNumber     int               `json:"line_number"`
	ConvertedRow   validation.RawRow `json:"converted_row"`
	IssueLogs      []DetailIssue     `json:"issue_logs"`
	TransformedRow []FactField       `json:"transformed_row"`
}

// VerboseCell is one column of a verbose row.
type VerboseCell struct {
	Value string     `json:"value"`
	Error *CellIssue `json:"error,omitempty"`
}

// CellIssue describes the issue shown on a cell.
type CellIssue struct {
	Message string `json:"message"`
}

// VerboseRow is a detail row keyed by column with issues attached.
type VerboseRow struct {
	EntryNumber int                    `json:"entryNumber"`
	Columns     map[string]VerboseCell `json:"columns"`
}

// Result wraps a fetched request and, once FetchDetails has run, one page
// of its details.
type Result struct {
	client *Client
	req    Request

	details  []Detail
	total    int
	pageSize int
}

// NewResult builds a Result without a client, for callers that already hold
// the request and its details.
func NewResult(req Request, details []Detail, total, pageSize int) *Result {
	return &Result{req: req, details: details, total: total, pageSize: pageSize}
}

// ID returns the request ID.
func (r *Result) ID() string { return r.req.ID }

// Status returns the raw request status.
func (r *Result) Status() string { return r.req.Status }

// IsComplete reports whether the API has finished with the request, either
// way.
func (r *Result) IsComplete() bool {
	return r.req.Status == StatusComplete || r.req.Status == StatusFailed
}

// IsFailed reports whether the request failed.
func (r *Result) IsFailed() bool { return r.req.Status == StatusFailed }

// HasErrors reports whether the completed request carries an error summary.
func (r *Result) HasErrors() bool { return len(r.ErrorSummary()) > 0 }

// ErrorSummary returns the summary lines of a completed request.
func (r *Result) ErrorSummary() []string {
	if r.req.Response == nil || r.req.Response.Data == nil {
		return nil
	}
	return r.req.Response.Data.ErrorSummary
}

// Params returns the request parameters.
func (r *Result) Params() map[string]any { return r.req.Params }

// Error returns the failure description of a failed request.
func (r *Result) Error() *ResponseError {
	if r.req.Response == nil {
		return nil
	}
	return r.req.Response.Error
}

func (r *Result) columnFieldLog() []validation.ColumnField {
	if r.req.Response == nil || r.req.Response.Data == nil {
		return nil
	}
	return r.req.Response.Data.ColumnFieldLog
}

// FetchDetails loads one page of details. An empty severity fetches every
// row.
func (r *Result) FetchDetails(ctx context.Context, page, pageSize int, severity validation.Severity) error {
	if r.client == nil {
		return fmt.Errorf("fetch details: result has no client")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	details, total, err := r.client.details(ctx, r.req.ID, pagination.Offset(page, pageSize), pageSize, severity)
	if err != nil {
		return err
	}
	r.details = details
	r.total = total
	r.pageSize = pageSize
	return nil
}

// Details returns the fetched page.
func (r *Result) Details() []Detail { return r.details }

// Columns returns the raw column names of the fetched rows in first-seen
// order.
func (r *Result) Columns() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range r.details {
		for _, c := range d.ConvertedRow.Columns() {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Fields returns the mapped field names of the column-field log.
func (r *Result) Fields() []string {
	log := r.columnFieldLog()
	out := make([]string, 0, len(log))
	for _, cf := range log {
		out = append(out, cf.Field)
	}
	return out
}

// FieldMappings maps each raw column to its field. Columns absent from the
// log map to themselves.
func (r *Result) FieldMappings() map[string]string {
	idx := columnmap.NewIndex(r.columnFieldLog())
	out := make(map[string]string)
	for _, c := range r.Columns() {
		out[c] = idx.MappedNameOf(c)
	}
	return out
}

// RowsWithVerboseColumns returns the fetched rows with issues attached to the
// raw column each issue's field maps back to. With filterErrors set, rows
// without issues are dropped.
func (r *Result) RowsWithVerboseColumns(filterErrors bool) []VerboseRow {
	idx := columnmap.NewIndex(r.columnFieldLog())
	out := make([]VerboseRow, 0, len(r.details))
	for _, d := range r.details {
		if filterErrors && len(d.IssueLogs) == 0 {
			continue
		}
		cols := make(map[string]VerboseCell, d.ConvertedRow.Len())
		for _, c := range d.ConvertedRow.Columns() {
			cols[c] = VerboseCell{Value: d.ConvertedRow.Value(c)}
		}
		for _, is := range d.IssueLogs {
			col := idx.RawNameOf(is.Field)
			cell := cols[col]
			if cell.Value == "" {
				cell.Value = is.Value
			}
			cell.Error = &CellIssue{Message: is.Message}
			cols[col] = cell
		}
		out = append(out, VerboseRow{EntryNumber: d.EntryNumber, Columns: cols})
	}
	return out
}

// Geometries returns the geometry and point values of the fetched rows.
func (r *Result) Geometries() []string {
	var out []string
	for _, d := range r.details {
		for _, f := range d.TransformedRow {
			if (f.Field == "geometry" || f.Field == "point") && f.Value != "" {
				out = append(out, f.Value)
				break
			}
		}
	}
	return out
}

// TotalResults returns the row count reported with the last page.
func (r *Result) TotalResults() int { return r.total }

// Pagination returns the pagination state for page, windowed by p.
func (r *Result) Pagination(p pagination.Paginator, page int, href pagination.HrefFunc) pagination.State {
	size := r.pageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return p.Compute(pagination.TotalPages(r.total, size), page, href)
}
