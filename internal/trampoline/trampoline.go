// Package trampoline implements the single interpreter loop of spec
// §4.7: it repeatedly calls the top Level's executor and interprets
// the returned Bounce, never recursing on the Go call stack for
// interpreter-level recursion.
package trampoline

import (
	"duskvm/internal/cell"
	"duskvm/internal/datastack"
	"duskvm/internal/level"
	"duskvm/internal/rterr"
	"duskvm/internal/trace"
)

// Trampoline owns the linked stack of Levels and the shared data
// stack every Level's Baseline is measured against.
type Trampoline struct {
	top    *level.Level
	stack  *datastack.Stack
	tracer trace.Tracer
}

func New(stack *datastack.Stack, tracer trace.Tracer) *Trampoline {
	if tracer == nil {
		tracer = trace.NoOp{}
	}
	return &Trampoline{stack: stack, tracer: tracer}
}

// Push makes sub the new top of the scheduling stack, wiring sub.Prior
// to whatever was on top. It implements level.Pusher.
func (t *Trampoline) Push(sub *level.Level) {
	sub.Prior = t.top
	t.top = sub
	t.tracer.OnPush(sub)
}

// Top returns the currently scheduled Level, or nil if the trampoline
// is idle.
func (t *Trampoline) Top() *level.Level { return t.top }

// Run pushes root as the top Level and drives the trampoline until it
// finishes or throws past the root. It returns the value that landed
// in root.Out, or the Signal that escaped unhandled.
func (t *Trampoline) Run(root *level.Level) (cell.Cell, *rterr.Signal) {
	out := cell.Cell{}
	root.Out = &out
	t.Push(root)

	for t.top != nil {
		current := t.top
		bounce := current.Exec(t, current)

		switch bounce.Kind {
		case level.BounceContinue:
			// A sub-level was pushed during Exec; t.top already
			// reflects it. Nothing further to do this iteration.
			continue

		case level.BounceDone:
			// The finished Level's result already landed in
			// current.Out, a cell inside its parent's own workspace
			// by construction (see how callers wire Out when they
			// build a sub-Level). Only the stack-height rollback and
			// popping remain.
			t.tracer.OnPop(current)
			t.top = current.Prior
			t.stack.Truncate(current.Baseline)
			continue

		case level.BounceThrown:
			t.tracer.OnThrow(current, bounce.Signal)
			if t.unwindToCatch(bounce.Signal) {
				continue
			}
			return cell.Cell{}, bounce.Signal
		}
	}

	return out, nil
}

// unwindToCatch pops Levels one at a time, running baseline rollback
// on each, until it finds one whose Label catches sig — in which case
// it re-invokes that Level's Exec with Caught set and returns true —
// or it empties the stack, returning false (caller surfaces the
// Signal to its own caller, e.g. the REPL).
func (t *Trampoline) unwindToCatch(sig *rterr.Signal) bool {
	for t.top != nil {
		lvl := t.top
		if !sig.IsHalt() && lvl.Label != "" && levelCatches(lvl, sig) {
			lvl.Caught = sig
			return true
		}
		t.stack.Truncate(lvl.Baseline)
		t.top = lvl.Prior
	}
	return false
}

// levelCatches reports whether lvl's declared catch boundary accepts
// sig: a plain RESCUE-style boundary (Label set, FlagCatchesPanics
// unset) intercepts throws/escalated errors but not panics; an
// ENRESCUE-style boundary (FlagCatchesPanics set) additionally
// intercepts panics (spec §7.3).
func levelCatches(lvl *level.Level, sig *rterr.Signal) bool {
	switch sig.Kind {
	case rterr.KindThrow:
		return sig.CatchesLabel(lvl.Label)
	case rterr.KindEscalated, rterr.KindVeto:
		return true
	case rterr.KindPanic:
		return lvl.Flags.Has(level.FlagCatchesPanics)
	default:
		return false
	}
}
