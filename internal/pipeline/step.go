// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"fmt"
	"strconv"
)

// Kind tags the variant of a Step.
type Kind int

// Step kinds.
const (
	KindFetch Kind = iota
	KindFunc
	KindIf
	KindParallel
	KindRender
	KindOnError
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindFunc:
		return "func"
	case KindIf:
		return "if"
	case KindParallel:
		return "parallel"
	case KindRender:
		return "render"
	case KindOnError:
		return "on-error"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// FetchMode controls what a fetch step stores.
type FetchMode int

const (
	// ModeMany stores every returned record as []Record.
	ModeMany FetchMode = iota
	// ModeOne stores the first record, or a nil Record when none came back.
	ModeOne
)

// Query is a parameterised read against a data accessor.
type Query struct {
	SQL      string
	Args     []any
	Database string
}

// Record is one result row keyed by column name.
type Record map[string]any

// String returns the column value as text.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the column value as an int, or 0 when absent or non-numeric.
func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case []byte:
		n, _ := strconv.Atoi(string(v))
		return n
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// Fetcher performs one read for a fetch step.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]Record, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, q Query) ([]Record, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, q Query) ([]Record, error) { return f(ctx, q) }

// Renderer receives the view-model produced by a render step.
type Renderer interface {
	Render(ctx context.Context, template string, view any) error
}

// Step is one unit of a pipeline. Exactly the fields for its Kind are used;
// build steps with Fetch, Func, If, Parallel, Render and OnError.
type Step struct {
	Kind Kind
	Name string

	// KindFetch
	Query  func(*Context) (Query, error)
	Slot   string
	Mode   FetchMode
	Result func([]Record) (any, error) // optional transform before storing

	// KindFunc
	Do func(context.Context, *Context) error

	// KindIf
	Cond func(*Context) bool
	Then *Step
	Else *Step

	// KindParallel
	Steps []Step

	// KindRender
	Template string
	Project  func(*Context) (any, error)

	// KindOnError
	Handle func(*Context, *StepError)
}

// Fetch builds a fetch step storing all records in slot.
func Fetch(name, slot string, query func(*Context) (Query, error)) Step {
	return Step{Kind: KindFetch, Name: name, Slot: slot, Query: query, Mode: ModeMany}
}

// FetchOne builds a fetch step storing the first record in slot.
func FetchOne(name, slot string, query func(*Context) (Query, error)) Step {
	return Step{Kind: KindFetch, Name: name, Slot: slot, Query: query, Mode: ModeOne}
}

// WithResult returns a copy of a fetch step that transforms records before
// storing them.
func (s Step) WithResult(fn func([]Record) (any, error)) Step {
	s.Result = fn
	return s
}

// Func builds a synchronous step.
func Func(name string, do func(context.Context, *Context) error) Step {
	return Step{Kind: KindFunc, Name: name, Do: do}
}

// If builds a conditional step. A nil branch is a no-op.
func If(name string, cond func(*Context) bool, then, els *Step) Step {
	return Step{Kind: KindIf, Name: name, Cond: cond, Then: then, Else: els}
}

// Parallel builds a group of independent steps run concurrently.
func Parallel(name string, steps ...Step) Step {
	return Step{Kind: KindParallel, Name: name, Steps: steps}
}

// Render builds the terminal step.
func Render(name, template string, project func(*Context) (any, error)) Step {
	return Step{Kind: KindRender, Name: name, Template: template, Project: project}
}

// OnError builds a failure observer. It only runs when an earlier step fails.
func OnError(name string, handle func(*Context, *StepError)) Step {
	return Step{Kind: KindOnError, Name: name, Handle: handle}
}

// Ref returns a pointer to s, for use as an If branch.
func Ref(s Step) *Step { return &s }
