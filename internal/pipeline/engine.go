// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package pipeline runs request-scoped workflows declared as lists of steps.
// Steps run in order over a shared Context; parallel groups fan out and join
// before the next step; the first failure stops the run and is handed to
// any OnError steps declared after it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a pipeline run.
type State int

// Run states.
const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateHalted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// Outcome is the result of a run.
type Outcome struct {
	State State
	// StepIndex is the index of the last step that ran: the render step on
	// completion, the failing step on failure, the halting step on halt.
	StepIndex int
	Step      string
	Err       *StepError
	Halt      *Halt
	Rendered  bool
	Template  string
	View      any
	Duration  time.Duration
}

// Engine interprets step lists. An Engine holds no per-request state and
// may run many pipelines concurrently.
type Engine struct {
	Fetcher  Fetcher
	Renderer Renderer // optional; the view is always returned in Outcome
}

// NewEngine returns an Engine reading through f.
func NewEngine(f Fetcher, r Renderer) *Engine {
	return &Engine{Fetcher: f, Renderer: r}
}

// errRenderInGroup is returned when a render step is nested in a group.
var errRenderInGroup = errors.New("render step cannot run inside a parallel group")

// Run executes steps against pc until a render step completes, a step fails,
// or a step halts the run. Steps after a completed render are skipped.
func (e *Engine) Run(ctx context.Context, pc *Context, steps []Step) Outcome {
	start := time.Now()
	log := pc.Logger()
	out := Outcome{State: StateRunning, StepIndex: -1}

	for i, step := range steps {
		if step.Kind == KindOnError {
			continue
		}
		out.StepIndex = i
		out.Step = step.Name

		log.Debug("pipeline step", "index", i, "step", step.Name, "kind", step.Kind)
		if err := e.runStep(ctx, pc, step, &out, false); err != nil {
			out.State = StateFailed
			out.Err = &StepError{Index: i, Step: step.Name, Kind: step.Kind, Err: err}
			out.Duration = time.Since(start)
			log.Warn("pipeline step failed",
				"index", i, "step", step.Name, "kind", step.Kind,
				"failure", Classify(err), "error", err)
			e.notify(pc, steps[i+1:], out.Err)
			return out
		}

		if h := pc.halted(); h != nil {
			out.State = StateHalted
			out.Halt = h
			out.Duration = time.Since(start)
			log.Debug("pipeline halted", "step", step.Name, "reason", h.Reason, "location", h.Location)
			return out
		}
		if out.Rendered {
			out.State = StateCompleted
			out.Duration = time.Since(start)
			return out
		}
	}

	out.State = StateCompleted
	out.Duration = time.Since(start)
	return out
}

// notify runs every OnError step in rest.
func (e *Engine) notify(pc *Context, rest []Step, serr *StepError) {
	for _, s := range rest {
		if s.Kind == KindOnError && s.Handle != nil {
			s.Handle(pc, serr)
		}
	}
}

func (e *Engine) runStep(ctx context.Context, pc *Context, step Step, out *Outcome, inGroup bool) error {
	switch step.Kind {
	case KindFetch:
		return e.runFetch(ctx, pc, step)
	case KindFunc:
		if step.Do == nil {
			return nil
		}
		return step.Do(ctx, pc)
	case KindIf:
		branch := step.Else
		if step.Cond != nil && step.Cond(pc) {
			branch = step.Then
		}
		if branch == nil {
			return nil
		}
		return e.runStep(ctx, pc, *branch, out, inGroup)
	case KindParallel:
		return e.runParallel(ctx, pc, step.Steps, out)
	case KindRender:
		if inGroup {
			return errRenderInGroup
		}
		return e.runRender(ctx, pc, step, out)
	case KindOnError:
		return nil
	default:
		return fmt.Errorf("unknown step kind %v", step.Kind)
	}
}

func (e *Engine) runFetch(ctx context.Context, pc *Context, step Step) error {
	if e.Fetcher == nil {
		return errors.New("no fetcher configured")
	}
	q, err := step.Query(pc)
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	recs, err := e.Fetcher.Fetch(ctx, q)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", step.Slot, err)
	}

	var v any
	switch {
	case step.Result != nil:
		v, err = step.Result(recs)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", step.Slot, err)
		}
	case step.Mode == ModeOne:
		var first Record
		if len(recs) > 0 {
			first = recs[0]
		}
		v = first
	default:
		v = recs
	}
	pc.Set(step.Slot, v)
	return nil
}

// runParallel starts every member on a staged child context and waits for
// all of them. The first failure observed is returned at once; members still
// running are left to finish and their writes are discarded.
func (e *Engine) runParallel(ctx context.Context, pc *Context, members []Step, out *Outcome) error {
	if len(members) == 0 {
		return nil
	}

	children := make([]*Context, len(members))
	failed := make(chan error, len(members))

	var g errgroup.Group
	for i, m := range members {
		child := pc.stage()
		children[i] = child
		g.Go(func() error {
			if err := e.runStep(ctx, child, m, out, true); err != nil {
				err = fmt.Errorf("%s: %w", m.Name, err)
				failed <- err
				return err
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-failed:
		return err
	case err := <-done:
		if err != nil {
			return err
		}
	}

	for _, child := range children {
		pc.merge(child)
	}
	return nil
}

func (e *Engine) runRender(ctx context.Context, pc *Context, step Step, out *Outcome) error {
	var view any
	if step.Project != nil {
		v, err := step.Project(pc)
		if err != nil {
			return fmt.Errorf("project view: %w", err)
		}
		view = v
	}
	if e.Renderer != nil {
		if err := e.Renderer.Render(ctx, step.Template, view); err != nil {
			return fmt.Errorf("render %s: %w", step.Template, err)
		}
	}
	out.Rendered = true
	out.Template = step.Template
	out.View = view
	return nil
}
