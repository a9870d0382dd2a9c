// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// RawRow is one line of the converted dataset: an ordered mapping from raw
// column name to its value. Column order follows the source payload.
type RawRow struct {
	columns []string
	values  map[string]string
}

// NewRawRow builds a row from alternating column/value pairs.
// It panics if pairs has odd length.
func NewRawRow(pairs ...string) RawRow {
	if len(pairs)%2 != 0 {
		panic("validation: NewRawRow needs column/value pairs")
	}
	var r RawRow
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

// Columns returns the raw column names in order.
func (r RawRow) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Get returns the value for column and whether it was present.
func (r RawRow) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Value returns the value for column, or "" when absent.
func (r RawRow) Value(column string) string {
	return r.values[column]
}

// Len returns the number of columns in the row.
func (r RawRow) Len() int {
	return len(r.columns)
}

// Set assigns a value, appending the column if it is new.
func (r *RawRow) Set(column, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// MarshalJSON writes the row as an object preserving column order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping key order. Scalar values are stored
// in their textual form; null becomes "".
func (r *RawRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode row: expected object, got %v", tok)
	}

	*r = RawRow{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode row: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode row: expected key, got %v", keyTok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode row column %q: %w", key, err)
		}
		r.Set(key, scalarString(raw))
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
