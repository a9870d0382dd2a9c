// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package errorsview builds the upload error report: every entry that has an
// issue, its cells keyed by field, and a per-field issue count.
package errorsview

import (
	"path/filepath"
	"strings"

	"github.com/davetashner/checkview/internal/aggregate"
	"github.com/davetashner/checkview/internal/columnmap"
	"github.com/davetashner/checkview/internal/validation"
)

// indexThreshold is the column-field log size above which lookups go
// through a precomputed index.
const indexThreshold = 32

// AllowedFileTypes are the upload extensions the validator accepts.
var AllowedFileTypes = []string{"csv", "xls", "xlsx", "json", "geojson", "gml", "gpkg"}

// AllowedFileType reports whether name has an accepted extension.
// Extensions compare case-sensitively.
func AllowedFileType(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	for _, t := range AllowedFileTypes {
		if ext == t {
			return true
		}
	}
	return false
}

// View is the error report view-model.
type View struct {
	ColumnNames []string          `json:"columnNames"`
	Rows        []aggregate.Entry `json:"rows"`
	IssueCounts map[string]int    `json:"issueCounts"`
	ErrorCount  int               `json:"errorCount"`
	Dataset     string            `json:"dataset"`
	DataSubject string            `json:"dataSubject"`
}

// Options tune Build.
type Options struct {
	Filter  aggregate.Filter
	Labeler aggregate.Labeler
}

// Build aggregates report for display. Column names come from the first
// converted row.
func Build(report *validation.Report, dataset, dataSubject string, opts Options) (*View, error) {
	aopts := aggregate.Options{Filter: opts.Filter, Labeler: opts.Labeler}
	if len(report.ColumnFieldLog) > indexThreshold {
		aopts.Mapper = columnmap.NewIndex(report.ColumnFieldLog)
	}

	res, err := aggregate.AggregateWith(report.ConvertedCSV, report.IssueLog, report.ColumnFieldLog, aopts)
	if err != nil {
		return nil, err
	}

	cols := report.ColumnNames()
	if cols == nil {
		cols = []string{}
	}
	return &View{
		ColumnNames: cols,
		Rows:        res.Entries,
		IssueCounts: res.Counts,
		ErrorCount:  report.ErrorCount(),
		Dataset:     dataset,
		DataSubject: dataSubject,
	}, nil
}
