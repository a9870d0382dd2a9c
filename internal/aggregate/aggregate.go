// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package aggregate joins converted rows, issues, and the column-field log
// into per-entry annotated records with per-field error counts.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/davetashner/checkview/internal/columnmap"
	"github.com/davetashner/checkview/internal/validation"
)

// ErrRowOutOfRange is returned when an issue's line number does not address
// a row of the converted table. It wraps validation.ErrMalformed.
var ErrRowOutOfRange = fmt.Errorf("%w: issue line outside converted table", validation.ErrMalformed)

// RowError describes an issue whose line number has no converted row.
type RowError struct {
	EntryNumber int
	LineNumber  int
	Index       int
	Rows        int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("entry %d: line %d resolves to row %d, table has %d rows",
		e.EntryNumber, e.LineNumber, e.Index, e.Rows)
}

// Unwrap returns ErrRowOutOfRange.
func (e *RowError) Unwrap() error { return ErrRowOutOfRange }

// Mapper translates between raw column names and mapped field names.
// Both columnmap.Scan and *columnmap.Index implement it.
type Mapper interface {
	MappedNameOf(raw string) string
	RawNameOf(mapped string) string
}

// Labeler turns an issue type into the label stored on a cell.
type Labeler func(issueType string) (string, error)

// Identity is the default Labeler: the issue type is its own label.
func Identity(issueType string) (string, error) { return issueType, nil }

// Filter selects which issues are applied. The zero value keeps every issue.
type Filter struct {
	Severity validation.Severity
}

// Keep reports whether an issue with severity sev passes the filter.
func (f Filter) Keep(sev validation.Severity) bool {
	return f.Severity == "" || f.Severity == sev
}

// Options tunes an aggregation run.
type Options struct {
	Filter  Filter
	Mapper  Mapper  // defaults to a linear scan of the column-field log
	Labeler Labeler // defaults to Identity
}

// Aggregate applies issues to the rows they reference. Entries are returned
// in the order their entry numbers were first seen in issues.
func Aggregate(rows []validation.RawRow, issues []validation.Issue, log []validation.ColumnField, filter Filter) (*Result, error) {
	return AggregateWith(rows, issues, log, Options{Filter: filter})
}

// AggregateWith is Aggregate with explicit options.
func AggregateWith(rows []validation.RawRow, issues []validation.Issue, log []validation.ColumnField, opts Options) (*Result, error) {
	mapper := opts.Mapper
	if mapper == nil {
		mapper = columnmap.Scan(log)
	}
	label := opts.Labeler
	if label == nil {
		label = Identity
	}

	res := &Result{
		Entries: []Entry{},
		Counts:  make(map[string]int),
	}
	byNumber := make(map[int]int)

	for _, issue := range issues {
		if !opts.Filter.Keep(issue.Severity) {
			continue
		}

		idx := validation.RowIndex(issue.LineNumber)
		if idx < 0 || idx >= len(rows) {
			return nil, &RowError{
				EntryNumber: issue.EntryNumber,
				LineNumber:  issue.LineNumber,
				Index:       idx,
				Rows:        len(rows),
			}
		}
		row := rows[idx]

		pos, seen := byNumber[issue.EntryNumber]
		if !seen {
			pos = len(res.Entries)
			byNumber[issue.EntryNumber] = pos
			res.Entries = append(res.Entries, newEntry(issue.EntryNumber, row, mapper))
		}

		errLabel, err := label(issue.IssueType)
		if err != nil {
			return nil, fmt.Errorf("entry %d field %q: %w", issue.EntryNumber, issue.Field, err)
		}
		res.Entries[pos].set(issue.Field, Cell{
			Error: errLabel,
			Value: row.Value(mapper.RawNameOf(issue.Field)),
		})
		res.Counts[issue.Field]++
	}

	return res, nil
}

func newEntry(number int, row validation.RawRow, mapper Mapper) Entry {
	e := Entry{
		EntryNumber: number,
		Cells:       make(map[string]Cell, row.Len()),
	}
	for _, col := range row.Columns() {
		e.set(mapper.MappedNameOf(col), Cell{Value: row.Value(col)})
	}
	return e
}

// IsRowError reports whether err is, or wraps, a *RowError.
func IsRowError(err error) bool {
	var re *RowError
	return errors.As(err, &re)
}
