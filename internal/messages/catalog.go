// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package messages resolves issue types into pluralised, human-readable
// messages using field-level and entity-level catalogs.
package messages

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Placeholder is the count marker inside a template.
const Placeholder = "{}"

// Source placeholders normalised to Placeholder on load.
var sourcePlaceholders = []string{"{num_issues}", "{num_entries}"}

// ErrUnknownIssueType is returned for issue types with no catalog entry.
var ErrUnknownIssueType = errors.New("unknown issue type")

// UnknownIssueTypeError names the issue type that could not be resolved.
type UnknownIssueTypeError struct {
	IssueType   string
	EntityLevel bool
}

func (e *UnknownIssueTypeError) Error() string {
	if e.EntityLevel {
		return fmt.Sprintf("unknown issue type: %s (no entity-level message)", e.IssueType)
	}
	return fmt.Sprintf("unknown issue type: %s", e.IssueType)
}

// Unwrap returns ErrUnknownIssueType.
func (e *UnknownIssueTypeError) Unwrap() error { return ErrUnknownIssueType }

// Templates holds the message templates for one issue type.
type Templates struct {
	Singular         string `json:"singular,omitempty"`
	Plural           string `json:"plural,omitempty"`
	EntitiesSingular string `json:"entities_singular,omitempty"`
	EntitiesPlural   string `json:"entities_plural,omitempty"`
}

func (t Templates) pick(count int, entityLevel bool) string {
	if entityLevel {
		if count == 1 {
			return t.EntitiesSingular
		}
		return t.EntitiesPlural
	}
	if count == 1 {
		return t.Singular
	}
	return t.Plural
}

// Catalog is an immutable issue-type to templates mapping.
type Catalog struct {
	entries map[string]Templates
}

// NewCatalog copies entries into a Catalog.
func NewCatalog(entries map[string]Templates) *Catalog {
	c := &Catalog{entries: make(map[string]Templates, len(entries))}
	for k, v := range entries {
		c.entries[k] = v
	}
	return c
}

// Len returns the number of issue types in the catalog.
func (c *Catalog) Len() int { return len(c.entries) }

// IssueTypes returns the known issue types, sorted.
func (c *Catalog) IssueTypes() []string {
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Templates returns the templates for issueType.
func (c *Catalog) Templates(issueType string) (Templates, bool) {
	t, ok := c.entries[issueType]
	return t, ok
}

// Message renders the message for issueType and count. Singular templates
// are used when count is exactly 1; entityLevel selects the entity pair.
func (c *Catalog) Message(issueType string, count int, entityLevel bool) (string, error) {
	t, ok := c.entries[issueType]
	if !ok {
		return "", &UnknownIssueTypeError{IssueType: issueType}
	}
	tmpl := t.pick(count, entityLevel)
	if tmpl == "" {
		return "", &UnknownIssueTypeError{IssueType: issueType, EntityLevel: entityLevel}
	}
	return strings.Replace(tmpl, Placeholder, strconv.Itoa(count), 1), nil
}

// Label returns the display label for an issue type. Labels are the issue
// type itself; the catalog only checks that the type is known.
func (c *Catalog) Label(issueType string) (string, error) {
	if _, ok := c.entries[issueType]; !ok {
		return "", &UnknownIssueTypeError{IssueType: issueType}
	}
	return issueType, nil
}

func normalizePlaceholder(s string) string {
	for _, p := range sourcePlaceholders {
		s = strings.ReplaceAll(s, p, Placeholder)
	}
	return s
}
