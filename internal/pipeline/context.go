// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"log/slog"
	"maps"
	"strconv"

	"github.com/google/uuid"
)

// Context is the request-scoped state shared by the steps of one pipeline
// run. It is owned by the goroutine running the pipeline; members of a
// parallel group work on a staged child whose writes are merged back only
// after every member has succeeded.
type Context struct {
	id     string
	params map[string]string
	slots  map[string]any
	base   map[string]any
	logger *slog.Logger
	halt   *Halt
}

// NewContext creates a root context with a fresh request ID.
func NewContext(params map[string]string) *Context {
	id := uuid.NewString()
	p := make(map[string]string, len(params))
	maps.Copy(p, params)
	return &Context{
		id:     id,
		params: p,
		slots:  make(map[string]any),
		logger: slog.Default().With("request_id", id),
	}
}

// ID returns the request ID.
func (c *Context) ID() string { return c.id }

// Logger returns a logger annotated with the request ID.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Param returns a request parameter, or "" when unset.
func (c *Context) Param(name string) string { return c.params[name] }

// IntParam returns a request parameter parsed as an int, or def when unset
// or invalid.
func (c *Context) IntParam(name string, def int) int {
	n, err := strconv.Atoi(c.params[name])
	if err != nil {
		return def
	}
	return n
}

// SetParam assigns a request parameter.
func (c *Context) SetParam(name, value string) { c.params[name] = value }

// Params returns a copy of the request parameters.
func (c *Context) Params() map[string]string {
	out := make(map[string]string, len(c.params))
	maps.Copy(out, c.params)
	return out
}

// Set stores v in the named slot.
func (c *Context) Set(slot string, v any) { c.slots[slot] = v }

// Get returns the value stored in slot. Staged children also see the
// slots their parent held when the group started.
func (c *Context) Get(slot string) (any, bool) {
	if v, ok := c.slots[slot]; ok {
		return v, true
	}
	v, ok := c.base[slot]
	return v, ok
}

// Has reports whether slot holds a value.
func (c *Context) Has(slot string) bool {
	_, ok := c.Get(slot)
	return ok
}

// Value returns the slot value as T. ok is false when the slot is empty or
// holds a different type.
func Value[T any](c *Context, slot string) (T, bool) {
	var zero T
	v, ok := c.Get(slot)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Halt stops the pipeline without error. The caller decides what the halt
// means; Location carries a redirect target when there is one.
type Halt struct {
	Reason   string
	Location string
}

// Halt requests that the pipeline stop after the current step.
func (c *Context) Halt(h Halt) {
	if c.halt == nil {
		c.halt = &h
	}
}

// halted returns the pending halt, if any.
func (c *Context) halted() *Halt { return c.halt }

// stage returns a child context for one parallel member. The child reads
// a snapshot of c and never touches c's maps, so a member still running
// after its group failed cannot race with the rest of the pipeline.
func (c *Context) stage() *Context {
	p := make(map[string]string, len(c.params))
	maps.Copy(p, c.params)
	base := make(map[string]any, len(c.slots)+len(c.base))
	maps.Copy(base, c.base)
	maps.Copy(base, c.slots)
	return &Context{
		id:     c.id,
		params: p,
		slots:  make(map[string]any),
		base:   base,
		logger: c.logger,
	}
}

// merge publishes a child's slots into c.
func (c *Context) merge(child *Context) {
	maps.Copy(c.slots, child.slots)
	if c.halt == nil && child.halt != nil {
		c.halt = child.halt
	}
}
