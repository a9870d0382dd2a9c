package perfdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davetashner/checkview/internal/pipeline"
	"github.com/davetashner/checkview/internal/validation"
)

// Field is one field of a dataset specification.
type Field struct {
	Field string `yaml:"field" json:"field"`
}

// Specification lists the fields of one dataset in display order.
type Specification struct {
	Dataset string  `yaml:"dataset" json:"dataset"`
	Fields  []Field `yaml:"fields" json:"fields"`
}

// FieldNames returns the field names in order.
func (s Specification) FieldNames() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Field
	}
	return out
}

// ErrNoSpecification is returned when a dataset has no specification.
var ErrNoSpecification = errors.New("no specification for dataset")

// ParseSpecifications decodes specification rows into a dataset keyed map.
// Each row carries a ";"-separated datasets column and a json column holding
// one document per dataset. The documents are written with single quotes,
// which YAML flow syntax accepts and JSON does not.
func ParseSpecifications(records []pipeline.Record) (map[string]Specification, error) {
	out := make(map[string]Specification)
	for _, rec := range records {
		datasets := rec.String("datasets")
		if datasets == "" {
			continue
		}
		var docs []Specification
		if err := yaml.Unmarshal([]byte(rec.String("json")), &docs); err != nil {
			return nil, fmt.Errorf("specification %q: %w: %w", rec.String("specification"), validation.ErrMalformed, err)
		}
		for i, name := range strings.Split(datasets, ";") {
			if i >= len(docs) {
				break
			}
			spec := docs[i]
			if spec.Dataset == "" {
				spec.Dataset = name
			}
			out[name] = spec
		}
	}
	return out, nil
}

// SpecificationFor picks one dataset out of ParseSpecifications output.
func SpecificationFor(specs map[string]Specification, dataset string) (Specification, error) {
	spec, ok := specs[dataset]
	if !ok {
		return Specification{}, fmt.Errorf("%w: %s: %w", ErrNoSpecification, dataset, pipeline.ErrNotFound)
	}
	return spec, nil
}

// ParseIssueMap decodes the per-entity issues column into field → issue type.
// An empty column is an empty map.
func ParseIssueMap(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("issues column: %w: %w", validation.ErrMalformed, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// Resource is a row of LatestResource.
type Resource struct {
	Resource    string
	Status      string
	Endpoint    string
	EndpointURL string
	Exception   string
}

// ResourceFrom converts a LatestResource record. A nil record yields
// pipeline.ErrNotFound.
func ResourceFrom(rec pipeline.Record) (Resource, error) {
	if rec == nil || rec.String("resource") == "" {
		return Resource{}, fmt.Errorf("latest resource: %w", pipeline.ErrNotFound)
	}
	return Resource{
		Resource:    rec.String("resource"),
		Status:      rec.String("status"),
		Endpoint:    rec.String("endpoint"),
		EndpointURL: rec.String("endpoint_url"),
		Exception:   rec.String("exception"),
	}, nil
}

// DatasetStatus summarises one dataset of an LPA overview.
type DatasetStatus struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error,omitempty"`
	Issue    string `json:"issue,omitempty"`
}

// Overview is the decoded LpaOverview result.
type Overview struct {
	Datasets map[string]DatasetStatus `json:"datasets"`
}

// ParseOverview folds LpaOverview rows by dataset.
func ParseOverview(records []pipeline.Record) Overview {
	ov := Overview{Datasets: make(map[string]DatasetStatus, len(records))}
	for _, rec := range records {
		st := DatasetStatus{Endpoint: rec.String("endpoint")}
		status := rec.String("http_status")
		switch {
		case rec.String("exception") != "":
			st.Error = rec.String("exception")
		case status != "200":
			st.Error = "endpoint returned with a status of " + status
		}
		if n := rec.Int("issue_count"); n > 0 {
			st.Issue = fmt.Sprintf("There are %d issues in this dataset", n)
		}
		ov.Datasets[rec.String("dataset")] = st
	}
	return ov
}

// FieldStats compares the fields an organisation supplied against the
// dataset specification.
type FieldStats struct {
	Supplied int `json:"numberOfFieldsSupplied"`
	Matched  int `json:"numberOfFieldsMatched"`
	Expected int `json:"numberOfExpectedFields"`
}

// ComputeFieldStats uses the first ColumnSummary record.
func ComputeFieldStats(summary []pipeline.Record, spec Specification) (FieldStats, error) {
	if len(summary) == 0 {
		return FieldStats{}, fmt.Errorf("column summary: %w", pipeline.ErrNotFound)
	}
	matching := splitList(summary[0].String("matching_field"))
	nonMatching := splitList(summary[0].String("non_matching_field"))

	st := FieldStats{Expected: len(spec.Fields)}
	for _, f := range spec.Fields {
		if matching[f.Field] {
			st.Matched++
			st.Supplied++
		} else if nonMatching[f.Field] {
			st.Supplied++
		}
	}
	return st, nil
}

func splitList(s string) map[string]bool {
	out := make(map[string]bool)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out[p] = true
		}
	}
	return out
}
