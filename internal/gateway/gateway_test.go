// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/checkview/internal/pagination"
	"github.com/davetashner/checkview/internal/pipeline"
	"github.com/davetashner/checkview/internal/validation"
)

const completeWithErrors = `{
  "id": "abc",
  "status": "COMPLETE",
  "params": {"dataset": "article-4-direction", "collection": "article-4-direction"},
  "response": {"data": {
    "error-summary": ["2 start dates are invalid"],
    "column-field-log": [{"column": "StartDate", "field": "start-date"}, {"column": "Reference", "field": "reference"}]
  }}
}`

const detailsPage = `[
  {"entry_number": 1, "line_number": 2,
   "converted_row": {"Reference": "A1", "StartDate": "32/13/2020"},
   "issue_logs": [{"field": "start-date", "issue-type": "invalid-date", "severity": "error", "message": "Start date is invalid", "value": "32/13/2020"}],
   "transformed_row": [{"field": "reference", "value": "A1"}, {"field": "geometry", "value": "POINT(1 2)"}]},
  {"entry_number": 2, "line_number": 3,
   "converted_row": {"Reference": "A2", "StartDate": "2020-01-01", "Notes": "ok"},
   "issue_logs": [],
   "transformed_row": [{"field": "point", "value": "POINT(3 4)"}]}
]`

type apiStub struct {
	status      int
	requestBody string
	lastQuery   string
}

func (a *apiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.status != 0 {
		w.WriteHeader(a.status)
		return
	}
	switch {
	case strings.HasSuffix(r.URL.Path, "/response-details"):
		a.lastQuery = r.URL.RawQuery
		w.Header().Set("X-Pagination-Total-Results", "120")
		fmt.Fprint(w, detailsPage)
	case strings.HasPrefix(r.URL.Path, "/requests/"):
		fmt.Fprint(w, a.requestBody)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newStubClient(t *testing.T, stub *apiStub) *Client {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second)
}

func TestGet_CompleteWithErrors(t *testing.T) {
	c := newStubClient(t, &apiStub{requestBody: completeWithErrors})

	res, err := c.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.ID())
	assert.True(t, res.IsComplete())
	assert.False(t, res.IsFailed())
	assert.True(t, res.HasErrors())
	assert.Equal(t, []string{"2 start dates are invalid"}, res.ErrorSummary())
	assert.Equal(t, "article-4-direction", res.Params()["dataset"])
	assert.Equal(t, []string{"start-date", "reference"}, res.Fields())
	assert.Nil(t, res.Error())
}

func TestGet_Statuses(t *testing.T) {
	tests := []struct {
		status   string
		complete bool
		failed   bool
	}{
		{StatusPending, false, false},
		{StatusProcessing, false, false},
		{StatusComplete, true, false},
		{StatusFailed, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			body := fmt.Sprintf(`{"id": "x", "status": %q, "response": {"error": {"errMsg": "boom"}}}`, tt.status)
			c := newStubClient(t, &apiStub{requestBody: body})
			res, err := c.Get(context.Background(), "x")
			require.NoError(t, err)
			assert.Equal(t, tt.complete, res.IsComplete())
			assert.Equal(t, tt.failed, res.IsFailed())
			assert.False(t, res.HasErrors())
			require.NotNil(t, res.Error())
			assert.Equal(t, "boom", res.Error().Message)
		})
	}
}

func TestFetchDetails(t *testing.T) {
	stub := &apiStub{requestBody: completeWithErrors}
	c := newStubClient(t, stub)
	res, err := c.Get(context.Background(), "abc")
	require.NoError(t, err)

	require.NoError(t, res.FetchDetails(context.Background(), 2, 50, validation.SeverityError))
	assert.Contains(t, stub.lastQuery, "offset=50")
	assert.Contains(t, stub.lastQuery, "limit=50")
	assert.Contains(t, stub.lastQuery, "jsonpath=")
	assert.Equal(t, 120, res.TotalResults())

	assert.Equal(t, []string{"Reference", "StartDate", "Notes"}, res.Columns())
	assert.Equal(t, map[string]string{"Reference": "reference", "StartDate": "start-date", "Notes": "Notes"}, res.FieldMappings())
	assert.Equal(t, []string{"POINT(1 2)", "POINT(3 4)"}, res.Geometries())

	all := res.RowsWithVerboseColumns(false)
	require.Len(t, all, 2)
	cell := all[0].Columns["StartDate"]
	require.NotNil(t, cell.Error)
	assert.Equal(t, "Start date is invalid", cell.Error.Message)
	assert.Equal(t, "32/13/2020", cell.Value)
	assert.Nil(t, all[0].Columns["Reference"].Error)

	onlyErrors := res.RowsWithVerboseColumns(true)
	require.Len(t, onlyErrors, 1)
	assert.Equal(t, 1, onlyErrors[0].EntryNumber)

	p := res.Pagination(pagination.Paginator{Radius: pagination.DefaultRadius}, 2, func(n int) string { return fmt.Sprintf("/results/abc/%d", n) })
	require.NotNil(t, p.Previous)
	assert.Equal(t, "/results/abc/1", p.Previous.Href)
	require.NotNil(t, p.Next)
	assert.Equal(t, "/results/abc/3", p.Next.Href)
	assert.Len(t, p.Items, 3)
}

func TestFetchDetails_NoSeverity(t *testing.T) {
	stub := &apiStub{requestBody: completeWithErrors}
	c := newStubClient(t, stub)
	res, err := c.Get(context.Background(), "abc")
	require.NoError(t, err)

	require.NoError(t, res.FetchDetails(context.Background(), 1, 0, ""))
	assert.NotContains(t, stub.lastQuery, "jsonpath")
	assert.Contains(t, stub.lastQuery, "offset=0")
}

func TestFetchDetails_NoClient(t *testing.T) {
	res := NewResult(Request{ID: "x"}, nil, 0, 0)
	assert.Error(t, res.FetchDetails(context.Background(), 1, 50, ""))
	assert.Empty(t, res.Pagination(pagination.Paginator{}, 1, func(int) string { return "" }).Items)
}

func TestHTTPError_Messages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, MsgBadRequest},
		{http.StatusNotFound, MsgNotFound},
		{http.StatusInternalServerError, MsgServerError},
		{http.StatusTeapot, MsgOther},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newStubClient(t, &apiStub{status: tt.status})
			_, err := c.Get(context.Background(), "abc")
			require.Error(t, err)

			var herr *HTTPError
			require.True(t, errors.As(err, &herr))
			assert.Equal(t, tt.status, herr.StatusCode)
			assert.Equal(t, tt.want, herr.Message())
			assert.ErrorIs(t, err, pipeline.ErrUpstream)
			assert.Equal(t, pipeline.FailureUpstream, pipeline.Classify(err))
		})
	}
}

func TestGet_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewClient("http://"+addr, time.Second)
	_, err = c.Get(context.Background(), "abc")
	require.Error(t, err)

	var herr *HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, 0, herr.StatusCode)
	assert.Equal(t, MsgUnreachable, herr.Message())
	assert.ErrorIs(t, err, pipeline.ErrUpstream)
}

func TestGet_Malformed(t *testing.T) {
	c := newStubClient(t, &apiStub{requestBody: "{not json"})
	_, err := c.Get(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrMalformed)
}

func TestPagination_Radius(t *testing.T) {
	res := NewResult(Request{ID: "abc"}, nil, 500, 50)
	href := func(n int) string { return fmt.Sprintf("/results/abc/%d", n) }

	wide := res.Pagination(pagination.Paginator{Radius: 2}, 5, href)
	assert.Len(t, wide.Items, 9, "1 2 3 4 5 6 7 … 10")

	narrow := res.Pagination(pagination.Paginator{Radius: 0}, 5, href)
	assert.Len(t, narrow.Items, 5, "1 … 5 … 10")
}
