// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package issuetable

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/checkview/internal/messages"
	"github.com/davetashner/checkview/internal/pagination"
	"github.com/davetashner/checkview/internal/perfdb"
	"github.com/davetashner/checkview/internal/pipeline"
)

// routeFetcher answers a query with the first route whose key appears in
// the SQL text.
type routeFetcher struct {
	mu     sync.Mutex
	routes []route
	seen   []pipeline.Query
}

type route struct {
	contains string
	recs     []pipeline.Record
	err      error
}

var _ pipeline.Fetcher = (*routeFetcher)(nil)

func (f *routeFetcher) Fetch(_ context.Context, q pipeline.Query) ([]pipeline.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, q)
	for _, r := range f.routes {
		if strings.Contains(q.SQL, r.contains) {
			return r.recs, r.err
		}
	}
	return nil, nil
}

func (f *routeFetcher) queried(fragment string) []pipeline.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pipeline.Query
	for _, q := range f.seen {
		if strings.Contains(q.SQL, fragment) {
			out = append(out, q)
		}
	}
	return out
}

const specJSON = `[{'dataset': 'article-4-direction', 'fields': [{'field': 'reference'}, {'field': 'name'}, {'field': 'start-date'}]}]`

func happyRoutes() []route {
	return []route{
		{contains: "FROM organisation", recs: []pipeline.Record{{"organisation": "local-authority:CMD", "name": "Camden"}}},
		{contains: "FROM dataset", recs: []pipeline.Record{{"dataset": "article-4-direction", "name": "Article 4 direction"}}},
		{contains: "reporting_latest_endpoints rle", recs: []pipeline.Record{{"resource": "res-latest", "status": "200"}}},
		{contains: "json_group_object", recs: []pipeline.Record{
			{"entry_number": int64(4), "reference": "A4-1", "name": "North", "start-date": "2020-13-01", "issues": `{"start-date": "invalid-date"}`},
			{"entry_number": int64(9), "reference": "A4-2", "name": "", "issues": `{"name": "missing-value", "notes": "unknown-field"}`},
		}},
		{contains: "COUNT(DISTINCT entry_number)", recs: []pipeline.Record{{"count": int64(120)}}},
		{contains: "FROM specification", recs: []pipeline.Record{{"specification": "article-4", "datasets": "article-4-direction", "json": specJSON}}},
		{contains: "entity_count", recs: []pipeline.Record{{"entity_count": int64(300)}}},
	}
}

func testResolver() *messages.Resolver {
	return messages.NewReadyResolver(messages.NewCatalog(map[string]messages.Templates{
		"invalid-date": {
			Singular:         "1 date is invalid",
			Plural:           "{} dates are invalid",
			EntitiesSingular: "{} entry has an invalid date",
			EntitiesPlural:   "{} entries have an invalid date",
		},
	}))
}

func testParams() Params {
	return Params{LPA: "local-authority:CMD", Dataset: "article-4-direction", IssueType: "invalid-date", IssueField: "start-date"}
}

func TestRun_BuildsView(t *testing.T) {
	f := &routeFetcher{routes: happyRoutes()}
	e := pipeline.NewEngine(f, nil)

	p := testParams()
	p.PageNumber = "2"
	view, out := Run(context.Background(), e, Deps{Messages: testResolver()}, p)
	require.Equal(t, pipeline.StateCompleted, out.State, "err: %v", out.Err)
	require.NotNil(t, view)
	assert.Equal(t, Template, out.Template)

	assert.Equal(t, "Camden", view.Organisation.String("name"))
	assert.Equal(t, "Article 4 direction", view.Dataset.String("name"))
	assert.Equal(t, "120 entries have an invalid date", view.ErrorHeading)
	assert.Equal(t, []string{"reference", "name", "start-date"}, view.Table.Columns)

	require.Len(t, view.Table.Rows, 2)
	row := view.Table.Rows[0].Columns
	assert.Equal(t,
		`<a href="/organisations/local-authority:CMD/article-4-direction/invalid-date/start-date/entry/4">A4-1</a>`,
		row["reference"].HTML)
	assert.Equal(t, "North", row["name"].Value)
	require.NotNil(t, row["start-date"].Error)
	assert.Equal(t, "invalid-date", row["start-date"].Error.Message)
	assert.Nil(t, row["name"].Error)

	second := view.Table.Rows[1].Columns
	require.NotNil(t, second["notes"].Error, "issue on a field outside the specification still gets a cell")
	assert.Equal(t, "", second["notes"].Value)
	assert.Equal(t, "missing-value", second["name"].Error.Message)

	// 120 entities at 50 per page is 3 pages.
	require.NotNil(t, view.Pagination.Previous)
	assert.Equal(t, "/organisations/local-authority:CMD/article-4-direction/invalid-date/start-date/1", view.Pagination.Previous.Href)
	require.Len(t, view.Pagination.Items, 3)
	assert.True(t, view.Pagination.Items[1].Current)

	// Page 2 is offset 50.
	ents := f.queried("json_group_object")
	require.Len(t, ents, 1)
	args := ents[0].Args
	assert.Equal(t, []any{50, 50}, args[len(args)-2:])
	assert.Equal(t, "res-latest", args[0])
	assert.Equal(t, "article-4-direction", ents[0].Database)
}

func TestRun_ResourceIDSkipsLookup(t *testing.T) {
	f := &routeFetcher{routes: happyRoutes()}
	e := pipeline.NewEngine(f, nil)

	p := testParams()
	p.ResourceID = "res-given"
	_, out := Run(context.Background(), e, Deps{Messages: testResolver()}, p)
	require.Equal(t, pipeline.StateCompleted, out.State, "err: %v", out.Err)

	assert.Empty(t, f.queried("reporting_latest_endpoints"))
	ents := f.queried("json_group_object")
	require.Len(t, ents, 1)
	assert.Equal(t, "res-given", ents[0].Args[0])
}

func TestRun_DefaultPage(t *testing.T) {
	f := &routeFetcher{routes: happyRoutes()}
	view, out := Run(context.Background(), pipeline.NewEngine(f, nil), Deps{Messages: testResolver()}, testParams())
	require.Equal(t, pipeline.StateCompleted, out.State)
	assert.Nil(t, view.Pagination.Previous)
	assert.True(t, view.Pagination.Items[0].Current)

	ents := f.queried("json_group_object")
	args := ents[0].Args
	assert.Equal(t, 0, args[len(args)-1])
}

func TestRun_InvalidParams(t *testing.T) {
	f := &routeFetcher{routes: happyRoutes()}
	var logged *pipeline.StepError
	steps := append(Steps(Deps{Messages: testResolver()}),
		pipeline.OnError("capture", func(_ *pipeline.Context, serr *pipeline.StepError) { logged = serr }))

	pc := pipeline.NewContext(Params{LPA: "x", PageNumber: "zero"}.Map())
	out := pipeline.NewEngine(f, nil).Run(context.Background(), pc, steps)

	require.Equal(t, pipeline.StateFailed, out.State)
	assert.Equal(t, 0, out.Err.Index)
	assert.Equal(t, pipeline.FailureInvalidParams, pipeline.Classify(out.Err))
	assert.Contains(t, out.Err.Error(), "dataset is required")
	assert.Contains(t, out.Err.Error(), "pageNumber must be a positive integer")
	require.NotNil(t, logged)
	assert.Empty(t, f.queried(""), "nothing fetched after validation fails")
}

func TestRun_MissingOrganisation(t *testing.T) {
	routes := happyRoutes()
	routes[0].recs = nil
	f := &routeFetcher{routes: routes}
	_, out := Run(context.Background(), pipeline.NewEngine(f, nil), Deps{Messages: testResolver()}, testParams())

	require.Equal(t, pipeline.StateFailed, out.State)
	assert.Equal(t, "org and dataset", out.Err.Step)
	assert.Equal(t, pipeline.FailureNotFound, pipeline.Classify(out.Err))
}

func TestRun_UpstreamFailure(t *testing.T) {
	routes := happyRoutes()
	routes[4].err = fmt.Errorf("datasette: %w", pipeline.ErrUpstream)
	f := &routeFetcher{routes: routes}
	_, out := Run(context.Background(), pipeline.NewEngine(f, nil), Deps{Messages: testResolver()}, testParams())

	require.Equal(t, pipeline.StateFailed, out.State)
	assert.Equal(t, "issue entities count", out.Err.Step)
	assert.Equal(t, pipeline.FailureUpstream, pipeline.Classify(out.Err))
}

func TestRun_UnknownIssueTypeHeading(t *testing.T) {
	f := &routeFetcher{routes: happyRoutes()}
	p := testParams()
	p.IssueType = "no-such-type"
	_, out := Run(context.Background(), pipeline.NewEngine(f, nil), Deps{Messages: testResolver()}, p)

	require.Equal(t, pipeline.StateFailed, out.State)
	assert.Equal(t, "template params", out.Err.Step)
	assert.Equal(t, pipeline.FailureUnknownIssueType, pipeline.Classify(out.Err))
}

func TestRun_NoSpecification(t *testing.T) {
	f := &routeFetcher{routes: happyRoutes()}
	p := testParams()
	p.Dataset = "tree"
	_, out := Run(context.Background(), pipeline.NewEngine(f, nil), Deps{Messages: testResolver()}, p)

	require.Equal(t, pipeline.StateFailed, out.State)
	assert.ErrorIs(t, out.Err, perfdb.ErrNoSpecification)
}

func TestBuildTable_MalformedIssues(t *testing.T) {
	spec := perfdb.Specification{Fields: []perfdb.Field{{Field: "reference"}}}
	_, err := BuildTable(testParams(), spec, []pipeline.Record{{"reference": "x", "issues": "{oops"}})
	assert.Error(t, err)
}

func TestBuildTable_EscapesReference(t *testing.T) {
	spec := perfdb.Specification{Fields: []perfdb.Field{{Field: "reference"}}}
	table, err := BuildTable(testParams(), spec, []pipeline.Record{{"reference": "<b>", "entry_number": int64(1)}})
	require.NoError(t, err)
	assert.Contains(t, table.Rows[0].Columns["reference"].HTML, "&lt;b&gt;")
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, testParams().Validate())

	p := testParams()
	p.PageNumber = "3"
	assert.NoError(t, p.Validate())

	err := Params{}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrInvalidParams)
	for _, name := range []string{ParamLPA, ParamDataset, ParamIssueType, ParamIssueField} {
		assert.Contains(t, err.Error(), name+" is required")
	}
}

func TestPageHref(t *testing.T) {
	p := Params{LPA: "CMD", Dataset: "tree", IssueType: "invalid value", IssueField: "f"}
	assert.Equal(t, "/organisations/CMD/tree/invalid%20value/f/7", PageHref(p)(7))
	assert.Equal(t, "/organisations/CMD/tree/invalid%20value/f/entry/3", EntryHref(p, 3))
}

func TestRun_PaginatorRadius(t *testing.T) {
	p := testParams()
	p.PageNumber = "6"

	run := func(d Deps) []string {
		f := &routeFetcher{routes: happyRoutes()}
		view, out := Run(context.Background(), pipeline.NewEngine(f, nil), d, p)
		require.Equal(t, pipeline.StateCompleted, out.State, "err: %v", out.Err)
		var labels []string
		for _, it := range view.Pagination.Items {
			if it.Ellipsis {
				labels = append(labels, "…")
				continue
			}
			labels = append(labels, fmt.Sprint(it.Number))
		}
		return labels
	}

	assert.Equal(t, []string{"1", "…", "4", "5", "6", "7", "8", "…", "12"},
		run(Deps{Messages: testResolver(), PageSize: 10}))
	assert.Equal(t, []string{"1", "…", "6", "…", "12"},
		run(Deps{Messages: testResolver(), PageSize: 10, Paginator: &pagination.Paginator{Radius: 0}}))
}

func TestRun_NoCatalogs(t *testing.T) {
	f := &routeFetcher{routes: happyRoutes()}
	_, out := Run(context.Background(), pipeline.NewEngine(f, nil), Deps{}, testParams())

	require.Equal(t, pipeline.StateFailed, out.State)
	assert.Equal(t, "template params", out.Err.Step)
	assert.ErrorIs(t, out.Err, messages.ErrNoCatalogs)
}
