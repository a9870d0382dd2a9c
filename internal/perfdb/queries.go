// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package perfdb builds the parameterised queries the organisation views run
// against the analytical store and decodes their results.
package perfdb

import (
	"fmt"
	"strings"

	"github.com/davetashner/checkview/internal/pipeline"
)

// Database names. The digital-land database is the default connection.
const (
	DigitalLand = ""
	Performance = "performance"
)

// PageSize is the number of entities per issue-table page.
const PageSize = 50

// lpaMatch strips the "-eng" suffix some organisation codes carry.
const lpaMatch = "REPLACE(%s, '-eng', '') = ?"

func lpaWhere(column string) string { return fmt.Sprintf(lpaMatch, column) }

// OrgInfo selects one organisation by code.
func OrgInfo(lpa string) pipeline.Query {
	return pipeline.Query{
		SQL:  `SELECT * FROM organisation WHERE organisation = ?`,
		Args: []any{lpa},
	}
}

// DatasetInfo selects one dataset by name.
func DatasetInfo(dataset string) pipeline.Query {
	return pipeline.Query{
		SQL:  `SELECT * FROM dataset WHERE dataset = ?`,
		Args: []any{dataset},
	}
}

// LatestResource selects the most recent resource an organisation supplied
// for a dataset.
func LatestResource(lpa, dataset string) pipeline.Query {
	return pipeline.Query{
		SQL: `SELECT rle.resource, rle.status, rle.endpoint, rle.endpoint_url, rle.days_since_200, rle.exception
FROM reporting_latest_endpoints rle
LEFT JOIN resource_organisation ro ON rle.resource = ro.resource
WHERE ` + lpaWhere("ro.organisation") + `
AND rle.pipeline = ?`,
		Args:     []any{lpa, dataset},
		Database: Performance,
	}
}

// EntitiesWithIssues selects one page of entities that carry issueType on
// field in a resource. Each row holds the entity's field values plus an
// issues column mapping field to issue type.
func EntitiesWithIssues(dataset, resource, issueType, field string, limit, offset int) pipeline.Query {
	return pipeline.Query{
		SQL: `SELECT e.*, fr.entry_number, i.issues
FROM (
  SELECT entry_number, json_group_object(field, issue_type) AS issues
  FROM issue
  WHERE resource = ? AND entry_number IN (
    SELECT entry_number FROM issue WHERE resource = ? AND issue_type = ? AND field = ?
  )
  GROUP BY entry_number
) i
JOIN fact_resource fr ON fr.resource = ? AND fr.entry_number = i.entry_number
JOIN fact f ON f.fact = fr.fact
JOIN entity e ON e.entity = f.entity
GROUP BY i.entry_number
ORDER BY i.entry_number
LIMIT ? OFFSET ?`,
		Args:     []any{resource, resource, issueType, field, resource, limit, offset},
		Database: dataset,
	}
}

// IssueEntitiesCount counts the entities in a resource carrying issueType on
// field.
func IssueEntitiesCount(dataset, resource, issueType, field string) pipeline.Query {
	return pipeline.Query{
		SQL: `SELECT COUNT(DISTINCT entry_number) AS count
FROM issue
WHERE resource = ? AND issue_type = ? AND field = ?`,
		Args:     []any{resource, issueType, field},
		Database: dataset,
	}
}

// EntityCount counts the entities a resource contributed to.
func EntityCount(dataset, resource string) pipeline.Query {
	return pipeline.Query{
		SQL: `SELECT COUNT(DISTINCT f.entity) AS entity_count
FROM fact_resource fr
JOIN fact f ON f.fact = fr.fact
WHERE fr.resource = ?`,
		Args:     []any{resource},
		Database: dataset,
	}
}

// Specifications selects every specification document.
func Specifications() pipeline.Query {
	return pipeline.Query{SQL: `SELECT * FROM specification ORDER BY specification`}
}

// Issues selects the issues of one type raised against a resource.
func Issues(database, resource, issueType string) pipeline.Query {
	return pipeline.Query{
		SQL: `SELECT i.field, i.line_number, i.entry_number, i.message, i.issue_type, i.value
FROM issue i
WHERE i.resource = ? AND i.issue_type = ?`,
		Args:     []any{resource, issueType},
		Database: database,
	}
}

// Entry selects the facts recorded for one entry of a resource.
func Entry(dataset, resource string, entryNumber int) pipeline.Query {
	return pipeline.Query{
		SQL: `SELECT fr.rowid, fr.end_date, fr.fact, fr.entry_date, fr.entry_number, fr.resource, fr.start_date,
  ft.entity, ft.field, ft.start_date AS fact_start_date, ft.value
FROM fact_resource fr
LEFT JOIN fact ft ON fr.fact = ft.fact
WHERE fr.resource = ? AND fr.entry_number = ?
ORDER BY fr.rowid`,
		Args:     []any{resource, entryNumber},
		Database: dataset,
	}
}

// ResourceStatus selects the endpoint status behind an organisation's
// dataset.
func ResourceStatus(lpa, dataset string) pipeline.Query {
	return pipeline.Query{
		SQL: `SELECT endpoint_url, status, latest_log_entry_date, days_since_200
FROM reporting_latest_endpoints
WHERE ` + lpaWhere("organisation") + ` AND pipeline = ?`,
		Args:     []any{lpa, dataset},
		Database: Performance,
	}
}

// ColumnSummary selects the matching and non-matching field lists for an
// organisation's dataset.
func ColumnSummary(lpa, dataset string) pipeline.Query {
	return pipeline.Query{
		SQL: `SELECT * FROM column_field_summary
WHERE resource != '' AND pipeline = ? AND organisation = ?
LIMIT 1000`,
		Args:     []any{dataset, lpa},
		Database: Performance,
	}
}

// LpaOverview summarises every dataset an organisation provides, optionally
// limited to datasets.
func LpaOverview(lpa string, datasets []string) pipeline.Query {
	args := []any{lpa}
	var clause string
	if len(datasets) > 0 {
		marks := make([]string, len(datasets))
		for i, d := range datasets {
			marks[i] = "?"
			args = append(args, d)
		}
		clause = "AND rle.pipeline IN (" + strings.Join(marks, ",") + ")"
	}

	return pipeline.Query{
		SQL: `SELECT p.organisation, o.name, p.dataset, rle.endpoint, rle.resource, rle.exception,
  rle.status AS http_status,
  COUNT(CASE WHEN it.severity != 'info' THEN 1 ELSE NULL END) AS issue_count
FROM provision p
LEFT JOIN organisation o ON o.organisation = p.organisation
LEFT JOIN reporting_latest_endpoints rle
  ON REPLACE(rle.organisation, '-eng', '') = p.organisation AND rle.pipeline = p.dataset
LEFT JOIN issue i ON rle.resource = i.resource AND rle.pipeline = i.dataset
LEFT JOIN issue_type it ON i.issue_type = it.issue_type AND it.severity != 'info'
WHERE p.organisation = ? ` + clause + `
GROUP BY p.organisation, p.dataset, o.name, rle.pipeline, rle.endpoint
ORDER BY p.organisation, o.name`,
		Args:     args,
		Database: Performance,
	}
}
