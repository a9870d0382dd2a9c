// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package columnmap translates between raw column names and mapped field
// names using a column-field log. Lookups never fail: a name with no record
// maps to itself.
package columnmap

import "github.com/davetashner/checkview/internal/validation"

// MappedNameOf returns the field that raw was mapped to, or raw itself when
// the log has no record for it.
func MappedNameOf(raw string, log []validation.ColumnField) string {
	for _, cf := range log {
		if cf.Column == raw {
			return cf.Field
		}
	}
	return raw
}

// RawNameOf returns the raw column that was mapped onto mapped, or mapped
// itself when the log has no record for it.
func RawNameOf(mapped string, log []validation.ColumnField) string {
	for _, cf := range log {
		if cf.Field == mapped {
			return cf.Column
		}
	}
	return mapped
}

// Missing returns the raw column names whose records are flagged missing.
func Missing(log []validation.ColumnField) []string {
	var out []string
	for _, cf := range log {
		if cf.Missing {
			out = append(out, cf.Column)
		}
	}
	return out
}

// Index is a precomputed two-way lookup over a column-field log. It gives
// the same answers as MappedNameOf and RawNameOf, including first-match
// precedence and identity fallback.
type Index struct {
	forward map[string]string
	reverse map[string]string
}

// NewIndex builds an Index from log.
func NewIndex(log []validation.ColumnField) *Index {
	idx := &Index{
		forward: make(map[string]string, len(log)),
		reverse: make(map[string]string, len(log)),
	}
	for _, cf := range log {
		if _, ok := idx.forward[cf.Column]; !ok {
			idx.forward[cf.Column] = cf.Field
		}
		if _, ok := idx.reverse[cf.Field]; !ok {
			idx.reverse[cf.Field] = cf.Column
		}
	}
	return idx
}

// MappedNameOf is the indexed form of the package-level MappedNameOf.
func (idx *Index) MappedNameOf(raw string) string {
	if f, ok := idx.forward[raw]; ok {
		return f
	}
	return raw
}

// RawNameOf is the indexed form of the package-level RawNameOf.
func (idx *Index) RawNameOf(mapped string) string {
	if c, ok := idx.reverse[mapped]; ok {
		return c
	}
	return mapped
}

// Scan adapts a column-field log to the same method set as Index while
// keeping the linear lookups of MappedNameOf and RawNameOf.
type Scan []validation.ColumnField

// MappedNameOf calls the package-level MappedNameOf.
func (s Scan) MappedNameOf(raw string) string { return MappedNameOf(raw, s) }

// RawNameOf calls the package-level RawNameOf.
func (s Scan) RawNameOf(mapped string) string { return RawNameOf(mapped, s) }
