// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package issuetable

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/davetashner/checkview/internal/pipeline"
)

// Request parameter names.
const (
	ParamLPA        = "lpa"
	ParamDataset    = "dataset"
	ParamIssueType  = "issue_type"
	ParamIssueField = "issue_field"
	ParamPageNumber = "pageNumber"
	ParamResourceID = "resourceId"
)

// Params are the request parameters of the issue table.
type Params struct {
	LPA        string
	Dataset    string
	IssueType  string
	IssueField string
	PageNumber string
	ResourceID string
}

// ParamsFrom reads Params from a pipeline context.
func ParamsFrom(pc *pipeline.Context) Params {
	return Params{
		LPA:        pc.Param(ParamLPA),
		Dataset:    pc.Param(ParamDataset),
		IssueType:  pc.Param(ParamIssueType),
		IssueField: pc.Param(ParamIssueField),
		PageNumber: pc.Param(ParamPageNumber),
		ResourceID: pc.Param(ParamResourceID),
	}
}

// Map returns the parameters as a pipeline parameter map. Empty optional
// parameters are left out.
func (p Params) Map() map[string]string {
	m := map[string]string{
		ParamLPA:        p.LPA,
		ParamDataset:    p.Dataset,
		ParamIssueType:  p.IssueType,
		ParamIssueField: p.IssueField,
	}
	if p.PageNumber != "" {
		m[ParamPageNumber] = p.PageNumber
	}
	if p.ResourceID != "" {
		m[ParamResourceID] = p.ResourceID
	}
	return m
}

// Validate checks that the required parameters are present and that a
// supplied page number is a positive integer. Every problem is reported.
func (p Params) Validate() error {
	var errs []error
	required := []struct{ name, value string }{
		{ParamLPA, p.LPA},
		{ParamDataset, p.Dataset},
		{ParamIssueType, p.IssueType},
		{ParamIssueField, p.IssueField},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.name))
		}
	}
	if p.PageNumber != "" {
		if n, err := strconv.Atoi(p.PageNumber); err != nil || n < 1 {
			errs = append(errs, fmt.Errorf("%s must be a positive integer, got %q", ParamPageNumber, p.PageNumber))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", pipeline.ErrInvalidParams, errors.Join(errs...))
	}
	return nil
}
