// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package validation

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowIndex(t *testing.T) {
	assert.Equal(t, 0, RowIndex(2))
	assert.Equal(t, 5, RowIndex(7))
	assert.Equal(t, -1, RowIndex(1))
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"error", SeverityError, false},
		{" Warning ", SeverityWarning, false},
		{"info", SeverityInfo, false},
		{"", "", false},
		{"fatal", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRawRow_PreservesColumnOrder(t *testing.T) {
	var row RawRow
	err := json.Unmarshal([]byte(`{"Zeta":"z","Alpha":"a","Mid":12,"Empty":null,"Flag":true}`), &row)
	require.NoError(t, err)

	assert.Equal(t, []string{"Zeta", "Alpha", "Mid", "Empty", "Flag"}, row.Columns())
	assert.Equal(t, "12", row.Value("Mid"))
	assert.Equal(t, "", row.Value("Empty"))
	assert.Equal(t, "true", row.Value("Flag"))

	_, ok := row.Get("Missing")
	assert.False(t, ok)
}

func TestRawRow_MarshalRoundTripKeepsOrder(t *testing.T) {
	row := NewRawRow("b", "2", "a", "1")
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"2","a":"1"}`, string(data))
}

func TestRawRow_RejectsNonObject(t *testing.T) {
	var row RawRow
	err := json.Unmarshal([]byte(`["a","b"]`), &row)
	assert.Error(t, err)
}

func TestNewRawRow_OddPairsPanics(t *testing.T) {
	assert.Panics(t, func() { NewRawRow("only") })
}

func TestLoadReport_Fixture(t *testing.T) {
	rep, err := LoadReport(filepath.Join("testdata", "report.json"))
	require.NoError(t, err)

	require.Len(t, rep.ConvertedCSV, 1)
	require.Len(t, rep.IssueLog, 1)
	assert.Equal(t, "Start date", rep.IssueLog[0].Field)
	assert.Equal(t, SeverityError, rep.IssueLog[0].Severity)
	assert.Equal(t, 2, rep.IssueLog[0].LineNumber)

	assert.Equal(t, []string{
		"Reference", "Name", "Geometry", "Start date", "Legislation",
		"Notes", "Point", "End date", "Document URL",
	}, rep.ColumnNames())

	// One error issue plus one missing column.
	assert.Equal(t, 2, rep.ErrorCount())
	assert.True(t, rep.HasErrors())
}

func TestDecodeReport_Malformed(t *testing.T) {
	_, err := DecodeReport(strings.NewReader(`{"issue-log": [`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = DecodeReport(strings.NewReader(`{"issue-log": [{"entry-number": 1, "line-number": 2}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestReport_ErrorCountIgnoresWarnings(t *testing.T) {
	rep := &Report{
		IssueLog: []Issue{
			{Severity: SeverityWarning},
			{Severity: SeverityInfo},
		},
	}
	assert.Equal(t, 0, rep.ErrorCount())
	assert.False(t, rep.HasErrors())
	assert.Nil(t, rep.ColumnNames())
}
