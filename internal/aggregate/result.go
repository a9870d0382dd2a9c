package aggregate

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Cell is one field of an aggregated entry. An empty Error means the field
// carried no issue.
type Cell struct {
	Error string
	Value string
}

// HasError reports whether an issue was applied to the cell.
func (c Cell) HasError() bool { return c.Error != "" }

// MarshalJSON renders a clean cell's error as false and a failing cell's
// error as its label.
func (c Cell) MarshalJSON() ([]byte, error) {
	var errVal any = false
	if c.HasError() {
		errVal = c.Error
	}
	return json.Marshal(struct {
		Error any    `json:"error"`
		Value string `json:"value"`
	}{errVal, c.Value})
}

// Entry is one data row keyed by entry number with its fields annotated.
type Entry struct {
	EntryNumber int
	// Fields lists mapped field names in display order: the seed row's
	// columns first, then fields introduced only by issues.
	Fields []string
	Cells  map[string]Cell
}

// Cell returns the cell for field.
func (e Entry) Cell(field string) (Cell, bool) {
	c, ok := e.Cells[field]
	return c, ok
}

func (e *Entry) set(field string, c Cell) {
	if _, ok := e.Cells[field]; !ok {
		e.Fields = append(e.Fields, field)
	}
	e.Cells[field] = c
}

// MarshalJSON writes the entry with its columns in display order.
func (e Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"entryNumber":`)
	n, err := json.Marshal(e.EntryNumber)
	if err != nil {
		return nil, err
	}
	buf.Write(n)
	buf.WriteString(`,"columns":{`)
	for i, f := range e.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Cells[f])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// Result is the output of an aggregation run.
type Result struct {
	Entries []Entry
	// Counts holds the number of applied issues per mapped field.
	Counts map[string]int
}

// CountFields returns the fields with at least one applied issue, sorted.
func (r *Result) CountFields() []string {
	fields := make([]string, 0, len(r.Counts))
	for f := range r.Counts {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Total returns the number of applied issues.
func (r *Result) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}
