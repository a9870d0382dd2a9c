// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/checkview/internal/aggregate"
	"github.com/davetashner/checkview/internal/errorsview"
	"github.com/davetashner/checkview/internal/gateway"
	"github.com/davetashner/checkview/internal/issuetable"
	"github.com/davetashner/checkview/internal/pagination"
	"github.com/davetashner/checkview/internal/perfdb"
	"github.com/davetashner/checkview/internal/pipeline"
	"github.com/davetashner/checkview/internal/results"
	"github.com/davetashner/checkview/internal/validation"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// Compile-time interface check.
var _ Formatter = (*stubFormatter)(nil)

type stubFormatter struct{}

func (s *stubFormatter) Name() string                      { return "stub" }
func (s *stubFormatter) Format(_ Document, _ io.Writer) error { return nil }

func restoreFormatters() {
	resetFmtForTesting()
	RegisterFormatter(NewJSONFormatter())
	RegisterFormatter(NewTableFormatter())
}

func TestRegistry(t *testing.T) {
	resetFmtForTesting()
	defer restoreFormatters()

	RegisterFormatter(&stubFormatter{})
	f, err := GetFormatter("stub")
	require.NoError(t, err)
	assert.Equal(t, "stub", f.Name())

	_, err = GetFormatter("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format: "yaml" (available: stub)`)
}

func TestRegistry_Defaults(t *testing.T) {
	assert.Equal(t, []string{"json", "table"}, FormatNames())
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func sampleErrorsView(t *testing.T) *errorsview.View {
	t.Helper()
	report := &validation.Report{
		ConvertedCSV: []validation.RawRow{
			validation.NewRawRow("Ref", "CA6", "Start", "40/04/1980"),
			validation.NewRawRow("Ref", "CA7", "Start", "2020-01-01"),
		},
		IssueLog: []validation.Issue{
			{EntryNumber: 1, LineNumber: 2, Field: "start-date", IssueType: "invalid-date", Severity: validation.SeverityError},
		},
		ColumnFieldLog: []validation.ColumnField{{Column: "Ref", Field: "reference"}, {Column: "Start", Field: "start-date"}},
	}
	v, err := errorsview.Build(report, "conservation-area", "conservation-area", errorsview.Options{})
	require.NoError(t, err)
	return v
}

func TestJSONFormatter_Envelope(t *testing.T) {
	f := &JSONFormatter{Compact: true, nowFunc: fixedNow}

	var buf bytes.Buffer
	require.NoError(t, f.Format(Document{Kind: KindErrors, RequestID: "req-1", View: sampleErrorsView(t)}, &buf))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Equal(t, 1, strings.Count(out, "\n"), "compact output is one line")

	var env struct {
		Kind     string          `json:"kind"`
		View     json.RawMessage `json:"view"`
		Metadata JSONMetadata    `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.Equal(t, KindErrors, env.Kind)
	assert.Equal(t, "req-1", env.Metadata.RequestID)
	assert.Equal(t, "2026-03-01T12:00:00Z", env.Metadata.GeneratedAt)
	assert.Contains(t, string(env.View), `"start-date":{"error":"invalid-date","value":"40/04/1980"}`)
	assert.Contains(t, string(env.View), `"issueCounts":{"start-date":1}`)
}

func TestJSONFormatter_PrettyForBuffers(t *testing.T) {
	f := &JSONFormatter{nowFunc: fixedNow}
	var buf bytes.Buffer
	require.NoError(t, f.Format(Document{Kind: KindMessage, View: "hello"}, &buf))
	assert.Contains(t, buf.String(), "\n  \"kind\": \"message\"")
}

func TestJSONFormatter_CompactForFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck // test cleanup

	f := &JSONFormatter{nowFunc: fixedNow}
	assert.True(t, f.shouldCompact(file))
	assert.False(t, f.shouldCompact(&bytes.Buffer{}))
}

func TestTableFormatter_Errors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(Document{Kind: KindErrors, View: sampleErrorsView(t)}, &buf))

	out := buf.String()
	assert.Contains(t, out, "conservation-area: 1 errors")
	assert.Contains(t, out, "Entry")
	assert.Contains(t, out, "reference")
	assert.Contains(t, out, "40/04/1980 [invalid-date]")
	assert.Contains(t, out, "CA6")
	assert.NotContains(t, out, "CA7", "entries without issues are not listed")
	assert.Contains(t, out, "Field")
	assert.Regexp(t, `start-date\s+1`, out)
}

func TestTableFormatter_NoErrors(t *testing.T) {
	v, err := errorsview.Build(&validation.Report{}, "tree", "tree", errorsview.Options{})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(Document{View: v}, &buf))
	assert.Contains(t, buf.String(), "No issues found.")
}

func TestTableFormatter_Issues(t *testing.T) {
	view := &issuetable.TableView{
		Organisation: pipeline.Record{"name": "Camden"},
		Dataset:      pipeline.Record{"dataset": "article-4-direction"},
		ErrorHeading: "2 entries have an invalid date",
		Table: issuetable.Table{
			Columns: []string{"reference", "start-date"},
			Rows: []issuetable.Row{{Columns: map[string]issuetable.Cell{
				"reference":  {HTML: `<a href="/x">A&amp;1</a>`},
				"start-date": {Value: "2020-13-01", Error: &issuetable.CellError{Message: "invalid-date"}},
			}}},
		},
		Pagination: pagination.Compute(3, 2, func(n int) string { return "" }),
	}
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(Document{View: view}, &buf))

	out := buf.String()
	assert.Contains(t, out, "Camden / article-4-direction: 2 entries have an invalid date")
	assert.Contains(t, out, "A&1")
	assert.Contains(t, out, "2020-13-01 [invalid-date]")
	assert.Contains(t, out, "Page 2 of 3")
}

func TestTableFormatter_Results(t *testing.T) {
	pages := pagination.Compute(1, 1, func(int) string { return "" })
	view := &results.View{
		ID:           "abc",
		ErrorSummary: []string{"1 reference is missing"},
		Columns:      []string{"Ref"},
		VerboseRows: []gateway.VerboseRow{{EntryNumber: 3, Columns: map[string]gateway.VerboseCell{
			"Ref": {Value: "", Error: &gateway.CellIssue{Message: "Reference is missing"}},
		}}},
		Pagination: &pages,
	}
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(Document{View: view}, &buf))
	out := buf.String()
	assert.Contains(t, out, "Request abc: 1 error types")
	assert.Contains(t, out, "- 1 reference is missing")
	assert.Contains(t, out, "Reference is missing")
	assert.NotContains(t, out, "Page")

	buf.Reset()
	failed := &results.View{Error: &gateway.ResponseError{Message: "could not read file"}}
	require.NoError(t, NewTableFormatter().Format(Document{View: failed}, &buf))
	assert.Contains(t, buf.String(), "Validation failed")
	assert.Contains(t, buf.String(), "could not read file")
}

func TestTableFormatter_Overview(t *testing.T) {
	ov := perfdb.Overview{Datasets: map[string]perfdb.DatasetStatus{
		"tree":                {Endpoint: "e1"},
		"article-4-direction": {Endpoint: "e2", Error: "endpoint returned with a status of 404"},
	}}
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(Document{View: ov}, &buf))
	out := buf.String()
	assert.Less(t, strings.Index(out, "article-4-direction"), strings.Index(out, "tree"))
	assert.Contains(t, out, "No issues")
	assert.Contains(t, out, "status of 404")
}

func TestTableFormatter_Unsupported(t *testing.T) {
	err := NewTableFormatter().Format(Document{View: 42}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support int")
}

func TestGrid(t *testing.T) {
	g := NewGrid(GridColumn{Header: "Name"}, GridColumn{Header: "N", Align: AlignRight})
	g.AddRow("straße", "10")
	g.AddRow("b", "5", "ignored")
	g.AddRow()

	var buf bytes.Buffer
	require.NoError(t, g.Render(&buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "  Name     N", lines[0])
	assert.Equal(t, "  ------  --", lines[1])
	assert.Equal(t, "  straße  10", lines[2])
	assert.Equal(t, "  b        5", lines[3])
	assert.NotContains(t, buf.String(), "ignored")
}

func TestGrid_Clip(t *testing.T) {
	g := NewGrid(GridColumn{Header: "V"})
	g.MaxWidth = 5
	g.AddRow("abcdefgh")
	var buf bytes.Buffer
	require.NoError(t, g.Render(&buf))
	assert.Contains(t, buf.String(), "abcd…")
}

func TestGrid_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGrid().Render(&buf))
	assert.Empty(t, buf.String())
}

func TestCellText(t *testing.T) {
	assert.Equal(t, GridCell{Text: "x"}, cellText("x", ""))
	c := cellText("", "missing-value")
	assert.Equal(t, "missing-value", c.Text)
	assert.NotNil(t, c.Style)
}

func TestEntryCellsSurviveJSON(t *testing.T) {
	e := aggregate.Entry{EntryNumber: 1, Fields: []string{"a"}, Cells: map[string]aggregate.Cell{"a": {Value: "v"}}}
	data, err := json.Marshal(Document{View: e}.View)
	require.NoError(t, err)
	assert.JSONEq(t, `{"entryNumber":1,"columns":{"a":{"error":false,"value":"v"}}}`, string(data))
}
