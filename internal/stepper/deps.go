// Package stepper implements the main evaluator executor of spec §4.8:
// one expression at a time off a Feed, with enfix lookahead, multi-
// return, quoting/quasi dispatch, and action invocation. It is the one
// package that wires internal/tweak and internal/action together,
// supplying the Hooks each of those leaf packages declared to avoid
// importing the evaluator themselves.
package stepper

import (
	"duskvm/internal/action"
	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/datastack"
	"duskvm/internal/econtext"
	"duskvm/internal/feed"
	"duskvm/internal/level"
	"duskvm/internal/rterr"
	"duskvm/internal/trampoline"
	"duskvm/internal/tweak"
)

// Deps bundles the process-wide symbols and optional typecheck hook the
// stepper's internal machinery needs. One Deps is built per
// internal/engine Session and threaded through every Step/Block call.
type Deps struct {
	NullSym cell.StubRef
	OkaySym cell.StubRef

	// Typecheck validates a fulfilled action argument. nil accepts any
	// value; duskvm does not wire a type-spec constraint system (spec
	// §4.9 step 4 is otherwise a no-op here, see DESIGN.md).
	Typecheck func(action.Param, cell.Cell) *rterr.Signal
}

func errCell() cell.Cell {
	return cell.Init_Error(econtext.NewVarlist(cell.HeartWarning, 0).VarlistStub())
}

// tweakOptions is the default, non-soft, groups-allowed policy the
// stepper uses for ordinary GET/SET of tuples and paths (spec §4.8
// "TUPLE!... invoke the dual protocol").
func (d Deps) tweakOptions() tweak.Options { return tweak.Options{GroupsOK: true} }

func (d Deps) tweakHooks() tweak.Hooks {
	return tweak.Hooks{
		EvalGroup: func(arr *arena.Stub, ctx econtext.Context) (cell.Cell, *rterr.Signal) {
			return RunBlock(arr, ctx, d)
		},
		InvokeAccessor: func(accessor cell.Cell, write *cell.Cell) (cell.Cell, *rterr.Signal) {
			return d.runAccessor(accessor, write)
		},
		ResolveAction: func(w cell.Cell, ctx econtext.Context) (cell.Cell, *rterr.Signal) {
			slot, _, ok := econtext.Resolve(w, ctx)
			if !ok {
				return cell.Cell{}, rterr.NewDefinitional(errCell())
			}
			val := slot.Unlift()
			if !isActionAntiform(val) {
				return cell.Cell{}, rterr.NewDefinitional(errCell())
			}
			return val, nil
		},
		NullSym: d.NullSym,
	}
}

func (d Deps) actionHooks() action.Hooks {
	return action.Hooks{
		StepExpression: func(f *feed.Feed, ctx econtext.Context, dst *cell.Cell) level.Executor {
			return StepExecutor(f, ctx, dst, d)
		},
		EvalBlock: func(arr *arena.Stub, ctx econtext.Context, dst *cell.Cell) level.Executor {
			return BlockExecutor(arr, ctx, dst, d)
		},
		Typecheck: d.Typecheck,
		NullSym:   d.NullSym,
		OkaySym:   d.OkaySym,
	}
}

// RunBlock evaluates arr to completion on a fresh, self-contained
// trampoline and data stack. The stepper's own BlockExecutor/StepExecutor
// are themselves trampoline-driven; RunBlock exists for the handful of
// call sites (tuple-picker GROUP!s, accessor invocation) that spec §4.5
// models as a synchronous helper function rather than a suspension
// point of the caller's own Level. Nesting a second trampoline run here
// reintroduces bounded Go-stack recursion for exactly those two corners;
// see DESIGN.md.
func RunBlock(arr *arena.Stub, ctx econtext.Context, d Deps) (cell.Cell, *rterr.Signal) {
	stack := datastack.New()
	tr := trampoline.New(stack, nil)
	var out cell.Cell
	root := level.New(BlockExecutor(arr, ctx, &out, d), nil, stack.Baseline())
	// tr.Run rewires root.Out to its own return-value cell, distinct
	// from the &out every nested StepExecutor/BlockExecutor closure
	// actually writes through; the real result lives in out, not in
	// Run's return value.
	if _, sig := tr.Run(root); sig != nil {
		return cell.Cell{}, sig
	}
	return out, nil
}

// runAccessor synchronously dispatches an accessor action (spec §4.5
// "invoke an accessor action"): a one-argument SET call or a zero-
// argument GET call, never requiring source-level argument evaluation,
// so a nested trampoline run suffices.
func (d Deps) runAccessor(accessor cell.Cell, write *cell.Cell) (cell.Cell, *rterr.Signal) {
	var elems []cell.Cell
	if write != nil {
		elems = []cell.Cell{write.Lift1()}
	}
	f := feed.New(elems, nil)
	stack := datastack.New()
	tr := trampoline.New(stack, nil)

	lvl, phase := action.NewCallLevel(accessor, f, nil, nil, stack.Baseline(), d.actionHooks())
	if phase == nil {
		return cell.Cell{}, rterr.NewDefinitional(errCell())
	}
	// Run wires lvl.Out to its own return-value cell; the dispatcher
	// writes the result through l.WriteOut, so tr.Run's return value is
	// authoritative here (unlike RunBlock, whose nested step executors
	// write through a separately captured dst).
	result, sig := tr.Run(lvl)
	if sig != nil {
		return cell.Cell{}, sig
	}
	return result, nil
}
