// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package datastore

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/checkview/internal/pipeline"
)

func memoryConfig(t *testing.T) Config {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return Config{Driver: DriverSQLite, DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", name)}
}

func openSeeded(t *testing.T) *Store {
	t.Helper()
	s, err := Open(memoryConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	db, err := s.DB("")
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE organisation (organisation TEXT, name TEXT, entity INTEGER)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO organisation VALUES (?, ?, ?), (?, ?, ?)`,
		"local-authority:CMD", "Camden", 101, "local-authority:BRX", "Brixton", 102).Error)
	return s
}

func TestQuery_OrderedColumns(t *testing.T) {
	s := openSeeded(t)

	rows, err := s.Query(context.Background(), "", `SELECT name, entity, organisation FROM organisation ORDER BY entity`)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "entity", "organisation"}, rows.Columns)
	require.Len(t, rows.Records, 2)
	assert.Equal(t, "Camden", rows.Records[0].String("name"))
	assert.Equal(t, 101, rows.Records[0].Int("entity"))
}

func TestQuery_Parameterised(t *testing.T) {
	s := openSeeded(t)

	rows, err := s.Query(context.Background(), "",
		`SELECT name FROM organisation WHERE organisation = ?`, "local-authority:CMD")
	require.NoError(t, err)
	require.Len(t, rows.Records, 1)
	assert.Equal(t, "Camden", rows.Records[0].String("name"))

	// A value that looks like SQL is only ever a value.
	rows, err = s.Query(context.Background(), "",
		`SELECT name FROM organisation WHERE organisation = ?`, "x' OR '1'='1")
	require.NoError(t, err)
	assert.Empty(t, rows.Records)
}

func TestQuery_ErrorIsUpstream(t *testing.T) {
	s := openSeeded(t)

	_, err := s.Query(context.Background(), "", `SELECT * FROM no_such_table`)
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrUpstream)
	assert.Equal(t, pipeline.FailureUpstream, pipeline.Classify(err))
}

func TestQuery_UnknownDatabase(t *testing.T) {
	s := openSeeded(t)
	_, err := s.Query(context.Background(), "digital-land", `SELECT 1`)
	assert.ErrorIs(t, err, ErrUnknownDatabase)
}

func TestAttach(t *testing.T) {
	s := openSeeded(t)
	cfg := memoryConfig(t)
	cfg.DSN = strings.Replace(cfg.DSN, "file:", "file:attached_", 1)
	require.NoError(t, s.Attach("digital-land", cfg))

	recs, err := s.Fetch(context.Background(), pipeline.Query{SQL: `SELECT 7 AS n`, Database: "digital-land"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 7, recs[0].Int("n"))
}

func TestFetch_InPipeline(t *testing.T) {
	s := openSeeded(t)
	e := pipeline.NewEngine(s, nil)
	pc := pipeline.NewContext(map[string]string{"lpa": "local-authority:BRX"})

	out := e.Run(context.Background(), pc, []pipeline.Step{
		pipeline.FetchOne("org", "org", func(c *pipeline.Context) (pipeline.Query, error) {
			return pipeline.Query{SQL: `SELECT name FROM organisation WHERE organisation = ?`, Args: []any{c.Param("lpa")}}, nil
		}),
	})
	require.Equal(t, pipeline.StateCompleted, out.State)
	org, ok := pipeline.Value[pipeline.Record](pc, "org")
	require.True(t, ok)
	assert.Equal(t, "Brixton", org.String("name"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported driver "oracle"`)
}
