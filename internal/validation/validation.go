// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package validation defines the core domain types for checkview: the raw
// validation report produced by the upstream validator and its parts.
package validation

import (
	"fmt"
	"strings"
)

// LineOffset converts a 1-based source line number into a 0-based index into
// the converted table. The upstream format numbers lines from 1 and counts
// one header line, so line 2 is the first data row.
const LineOffset = 2

// RowIndex returns the converted-table index for a source line number.
func RowIndex(lineNumber int) int {
	return lineNumber - LineOffset
}

// Severity classifies an issue.
type Severity string

// Known severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity converts s into a Severity. The empty string is accepted and
// returns the zero Severity, which filters nothing.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case "", SeverityError, SeverityWarning, SeverityInfo:
		return sev, nil
	default:
		return "", fmt.Errorf("invalid severity %q (must be error, warning, or info)", s)
	}
}

// Issue is a single field-level validation finding. Field is the mapped
// (human) field name, not the raw column name.
type Issue struct {
	EntryNumber int      `json:"entry-number"`
	LineNumber  int      `json:"line-number"`
	Field       string   `json:"field"`
	IssueType   string   `json:"issue-type"`
	Severity    Severity `json:"severity"`
	Value       string   `json:"value,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// ColumnField records how a raw column was mapped onto a field.
type ColumnField struct {
	Column  string `json:"column"`
	Field   string `json:"field"`
	Missing bool   `json:"missing,omitempty"`
}

// Report is the upstream validation payload.
type Report struct {
	ConvertedCSV   []RawRow      `json:"converted-csv"`
	IssueLog       []Issue       `json:"issue-log"`
	ColumnFieldLog []ColumnField `json:"column-field-log"`
	MissingColumns []string      `json:"missing-columns,omitempty"`
}

// ErrorCount returns the number of error-severity issues plus the number of
// column-field records flagged as missing.
func (r *Report) ErrorCount() int {
	n := 0
	for _, issue := range r.IssueLog {
		if issue.Severity == SeverityError {
			n++
		}
	}
	for _, cf := range r.ColumnFieldLog {
		if cf.Missing {
			n++
		}
	}
	return n
}

// HasErrors reports whether ErrorCount is non-zero.
func (r *Report) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ColumnNames returns the raw column names of the first converted row, in
// source order. It returns nil for an empty table.
func (r *Report) ColumnNames() []string {
	if len(r.ConvertedCSV) == 0 {
		return nil
	}
	return r.ConvertedCSV[0].Columns()
}
