// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package issuetable assembles the pipeline behind the organisation issue
// table: the entities of one dataset that carry a given issue on a given
// field, one page at a time.
package issuetable

import (
	"context"
	"fmt"

	"github.com/davetashner/checkview/internal/messages"
	"github.com/davetashner/checkview/internal/pagination"
	"github.com/davetashner/checkview/internal/perfdb"
	"github.com/davetashner/checkview/internal/pipeline"
)

// Template is the name handed to the renderer.
const Template = "organisations/issueTable.html"

// Context slots written by the pipeline.
const (
	SlotOrganisation       = "orgInfo"
	SlotDataset            = "dataset"
	SlotResource           = "resource"
	SlotEntitiesWithIssues = "entitiesWithIssues"
	SlotIssueEntitiesCount = "issueEntitiesCount"
	SlotSpecifications     = "specifications"
	SlotSpecification      = "specification"
	SlotEntityCount        = "entityCount"
	SlotPagination         = "pagination"
	SlotView               = "templateParams"
)

// Deps are the collaborators of the pipeline.
type Deps struct {
	Messages *messages.Resolver
	PageSize int
	// Paginator is nil for the default radius.
	Paginator *pagination.Paginator
}

func (d Deps) pageSize() int {
	if d.PageSize <= 0 {
		return perfdb.PageSize
	}
	return d.PageSize
}

// Pager returns the configured paginator or one with the default radius.
func (d Deps) Pager() pagination.Paginator {
	if d.Paginator == nil {
		return pagination.Paginator{Radius: pagination.DefaultRadius}
	}
	return *d.Paginator
}

// Steps returns the issue table pipeline.
func Steps(d Deps) []pipeline.Step {
	size := d.pageSize()

	return []pipeline.Step{
		pipeline.Func("validate params", func(_ context.Context, pc *pipeline.Context) error {
			return ParamsFrom(pc).Validate()
		}),
		pipeline.Func("default page", func(_ context.Context, pc *pipeline.Context) error {
			if pc.Param(ParamPageNumber) == "" {
				pc.SetParam(ParamPageNumber, "1")
			}
			return nil
		}),
		pipeline.Parallel("org and dataset",
			pipeline.FetchOne("org info", SlotOrganisation, func(pc *pipeline.Context) (pipeline.Query, error) {
				return perfdb.OrgInfo(pc.Param(ParamLPA)), nil
			}).WithResult(required("organisation")),
			pipeline.FetchOne("dataset info", SlotDataset, func(pc *pipeline.Context) (pipeline.Query, error) {
				return perfdb.DatasetInfo(pc.Param(ParamDataset)), nil
			}).WithResult(required("dataset")),
		),
		pipeline.If("resource",
			func(pc *pipeline.Context) bool { return pc.Param(ParamResourceID) != "" },
			pipeline.Ref(pipeline.Func("take resource id", func(_ context.Context, pc *pipeline.Context) error {
				pc.Set(SlotResource, perfdb.Resource{Resource: pc.Param(ParamResourceID)})
				return nil
			})),
			pipeline.Ref(pipeline.FetchOne("latest resource", SlotResource, func(pc *pipeline.Context) (pipeline.Query, error) {
				return perfdb.LatestResource(pc.Param(ParamLPA), pc.Param(ParamDataset)), nil
			}).WithResult(func(recs []pipeline.Record) (any, error) {
				return perfdb.ResourceFrom(first(recs))
			})),
		),
		pipeline.Fetch("entities with issues", SlotEntitiesWithIssues, func(pc *pipeline.Context) (pipeline.Query, error) {
			res, err := resource(pc)
			if err != nil {
				return pipeline.Query{}, err
			}
			page := pagination.ParsePage(pc.Param(ParamPageNumber))
			return perfdb.EntitiesWithIssues(pc.Param(ParamDataset), res.Resource,
				pc.Param(ParamIssueType), pc.Param(ParamIssueField), size, pagination.Offset(page, size)), nil
		}),
		pipeline.FetchOne("issue entities count", SlotIssueEntitiesCount, func(pc *pipeline.Context) (pipeline.Query, error) {
			res, err := resource(pc)
			if err != nil {
				return pipeline.Query{}, err
			}
			return perfdb.IssueEntitiesCount(pc.Param(ParamDataset), res.Resource,
				pc.Param(ParamIssueType), pc.Param(ParamIssueField)), nil
		}).WithResult(count("count")),
		pipeline.Fetch("specification", SlotSpecifications, func(*pipeline.Context) (pipeline.Query, error) {
			return perfdb.Specifications(), nil
		}).WithResult(func(recs []pipeline.Record) (any, error) {
			return perfdb.ParseSpecifications(recs)
		}),
		pipeline.Func("dataset specification", func(_ context.Context, pc *pipeline.Context) error {
			specs, _ := pipeline.Value[map[string]perfdb.Specification](pc, SlotSpecifications)
			spec, err := perfdb.SpecificationFor(specs, pc.Param(ParamDataset))
			if err != nil {
				return err
			}
			pc.Set(SlotSpecification, spec)
			return nil
		}),
		pipeline.FetchOne("entity count", SlotEntityCount, func(pc *pipeline.Context) (pipeline.Query, error) {
			res, err := resource(pc)
			if err != nil {
				return pipeline.Query{}, err
			}
			return perfdb.EntityCount(pc.Param(ParamDataset), res.Resource), nil
		}).WithResult(count("entity_count")),
		pipeline.Func("pagination", func(_ context.Context, pc *pipeline.Context) error {
			n, _ := pipeline.Value[int](pc, SlotIssueEntitiesCount)
			page := pagination.ParsePage(pc.Param(ParamPageNumber))
			state := d.Pager().Compute(pagination.TotalPages(n, size), page, PageHref(ParamsFrom(pc)))
			pc.Set(SlotPagination, state)
			return nil
		}),
		pipeline.Func("template params", func(ctx context.Context, pc *pipeline.Context) error {
			view, err := buildView(ctx, d.Messages, pc)
			if err != nil {
				return err
			}
			pc.Set(SlotView, view)
			return nil
		}),
		pipeline.Render("issue table", Template, func(pc *pipeline.Context) (any, error) {
			v, ok := pipeline.Value[*TableView](pc, SlotView)
			if !ok {
				return nil, fmt.Errorf("no view prepared")
			}
			return v, nil
		}),
		pipeline.OnError("log page error", func(pc *pipeline.Context, serr *pipeline.StepError) {
			pc.Logger().Error("issue table page failed",
				"lpa", pc.Param(ParamLPA), "dataset", pc.Param(ParamDataset),
				"issue_type", pc.Param(ParamIssueType), "issue_field", pc.Param(ParamIssueField),
				"step", serr.Step, "failure", pipeline.Classify(serr), "error", serr.Err)
		}),
	}
}

func buildView(ctx context.Context, resolver *messages.Resolver, pc *pipeline.Context) (*TableView, error) {
	p := ParamsFrom(pc)
	org, _ := pipeline.Value[pipeline.Record](pc, SlotOrganisation)
	ds, _ := pipeline.Value[pipeline.Record](pc, SlotDataset)
	spec, _ := pipeline.Value[perfdb.Specification](pc, SlotSpecification)
	entities, _ := pipeline.Value[[]pipeline.Record](pc, SlotEntitiesWithIssues)
	issueCount, _ := pipeline.Value[int](pc, SlotIssueEntitiesCount)
	pages, _ := pipeline.Value[pagination.State](pc, SlotPagination)

	table, err := BuildTable(p, spec, entities)
	if err != nil {
		return nil, err
	}

	if resolver == nil {
		return nil, fmt.Errorf("error heading: %w", messages.ErrNoCatalogs)
	}
	heading, err := resolver.Message(ctx, p.IssueType, issueCount, true)
	if err != nil {
		return nil, fmt.Errorf("error heading: %w", err)
	}

	return &TableView{
		Organisation: org,
		Dataset:      ds,
		ErrorHeading: heading,
		IssueType:    p.IssueType,
		IssueField:   p.IssueField,
		Table:        table,
		Pagination:   pages,
	}, nil
}

func resource(pc *pipeline.Context) (perfdb.Resource, error) {
	res, ok := pipeline.Value[perfdb.Resource](pc, SlotResource)
	if !ok || res.Resource == "" {
		return perfdb.Resource{}, fmt.Errorf("resource: %w", pipeline.ErrNotFound)
	}
	return res, nil
}

func first(recs []pipeline.Record) pipeline.Record {
	if len(recs) == 0 {
		return nil
	}
	return recs[0]
}

// required stores the first record and fails when there is none.
func required(what string) func([]pipeline.Record) (any, error) {
	return func(recs []pipeline.Record) (any, error) {
		rec := first(recs)
		if rec == nil {
			return nil, fmt.Errorf("%s: %w", what, pipeline.ErrNotFound)
		}
		return rec, nil
	}
}

// count stores column of the first record as an int, 0 when absent.
func count(column string) func([]pipeline.Record) (any, error) {
	return func(recs []pipeline.Record) (any, error) {
		rec := first(recs)
		if rec == nil {
			return 0, nil
		}
		return rec.Int(column), nil
	}
}

// Run executes the issue table pipeline for p. The view is nil unless the
// run completed.
func Run(ctx context.Context, e *pipeline.Engine, d Deps, p Params) (*TableView, pipeline.Outcome) {
	pc := pipeline.NewContext(p.Map())
	out := e.Run(ctx, pc, Steps(d))
	if out.State != pipeline.StateCompleted {
		return nil, out
	}
	v, _ := out.View.(*TableView)
	return v, out
}
