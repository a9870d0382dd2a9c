// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package results decides what to show for a validation request: a redirect
// to its status page while it is still running, the failure view, or one
// page of its rows.
package results

import (
	"context"
	"fmt"
	"net/url"

	"github.com/davetashner/checkview/internal/gateway"
	"github.com/davetashner/checkview/internal/pagination"
	"github.com/davetashner/checkview/internal/validation"
)

// PageSize is the number of rows per results page.
const PageSize = 50

// Kind is the decision taken for a request.
type Kind int

// Decisions.
const (
	KindRedirect Kind = iota
	KindFailed
	KindErrors
	KindNoErrors
)

func (k Kind) String() string {
	switch k {
	case KindRedirect:
		return "redirect"
	case KindFailed:
		return "failed"
	case KindErrors:
		return "errors"
	case KindNoErrors:
		return "no-errors"
	default:
		return "unknown"
	}
}

// Templates per decision.
const (
	TemplateFailed   = "results/failedRequest"
	TemplateErrors   = "results/errors"
	TemplateNoErrors = "results/no-errors"
)

// Accessor fetches a validation request.
type Accessor interface {
	Get(ctx context.Context, id string) (*gateway.Result, error)
}

var _ Accessor = (*gateway.Client)(nil)

// Details is the subset of a request result the view reads. gateway.Result
// implements it.
type Details interface {
	IsComplete() bool
	IsFailed() bool
	HasErrors() bool
	FetchDetails(ctx context.Context, page, pageSize int, severity validation.Severity) error
	Params() map[string]any
	ErrorSummary() []string
	Columns() []string
	Fields() []string
	FieldMappings() map[string]string
	RowsWithVerboseColumns(filterErrors bool) []gateway.VerboseRow
	Geometries() []string
	Pagination(p pagination.Paginator, page int, href pagination.HrefFunc) pagination.State
	Error() *gateway.ResponseError
}

var _ Details = (*gateway.Result)(nil)

// View is the view-model of the results pages. The failure view carries
// only RequestParams and Error.
type View struct {
	Template      string                 `json:"template"`
	RequestParams map[string]any         `json:"requestParams"`
	ErrorSummary  []string               `json:"errorSummary,omitempty"`
	Columns       []string               `json:"columns,omitempty"`
	Fields        []string               `json:"fields,omitempty"`
	Mappings      map[string]string      `json:"mappings,omitempty"`
	VerboseRows   []gateway.VerboseRow   `json:"verboseRows,omitempty"`
	Geometries    []string               `json:"geometries,omitempty"`
	Pagination    *pagination.State      `json:"pagination,omitempty"`
	ID            string                 `json:"id,omitempty"`
	Error         *gateway.ResponseError `json:"error,omitempty"`
}

// Outcome is the decision for one request. Location is set for redirects;
// View is set otherwise.
type Outcome struct {
	Kind     Kind
	Location string
	View     *View
}

// StatusLocation is where a running request redirects to.
func StatusLocation(id string) string { return "/status/" + url.PathEscape(id) }

// PageHref links to page n of a request's results.
func PageHref(id string) pagination.HrefFunc {
	base := "/results/" + url.PathEscape(id) + "/"
	return func(n int) string { return fmt.Sprintf("%s%d", base, n) }
}

// Decide fetches request id and decides what to show for page. Pages are
// windowed by pager.
func Decide(ctx context.Context, acc Accessor, pager pagination.Paginator, id string, page int) (Outcome, error) {
	res, err := acc.Get(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("get request %s: %w", id, err)
	}
	return DecideFor(ctx, res, pager, id, page)
}

// DecideFor decides what to show for an already fetched request.
func DecideFor(ctx context.Context, res Details, pager pagination.Paginator, id string, page int) (Outcome, error) {
	if page < 1 {
		page = 1
	}

	if !res.IsComplete() {
		return Outcome{Kind: KindRedirect, Location: StatusLocation(id)}, nil
	}
	if res.IsFailed() {
		return Outcome{Kind: KindFailed, View: &View{
			Template:      TemplateFailed,
			RequestParams: res.Params(),
			Error:         res.Error(),
		}}, nil
	}

	kind, tmpl := KindNoErrors, TemplateNoErrors
	var fetchErr error
	if res.HasErrors() {
		kind, tmpl = KindErrors, TemplateErrors
		fetchErr = res.FetchDetails(ctx, page, PageSize, validation.SeverityError)
	} else {
		fetchErr = res.FetchDetails(ctx, page, 0, "")
	}
	if fetchErr != nil {
		return Outcome{}, fmt.Errorf("fetch details for %s: %w", id, fetchErr)
	}

	pages := res.Pagination(pager, page, PageHref(id))
	return Outcome{Kind: kind, View: &View{
		Template:      tmpl,
		RequestParams: res.Params(),
		ErrorSummary:  res.ErrorSummary(),
		Columns:       res.Columns(),
		Fields:        res.Fields(),
		Mappings:      res.FieldMappings(),
		VerboseRows:   res.RowsWithVerboseColumns(res.HasErrors()),
		Geometries:    res.Geometries(),
		Pagination:    &pages,
		ID:            id,
	}}, nil
}
