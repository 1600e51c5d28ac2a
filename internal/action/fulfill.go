package action

import (
	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/econtext"
	"duskvm/internal/feed"
	"duskvm/internal/level"
	"duskvm/internal/rterr"
)

// Hooks supplies the evaluator-layer operations argument fulfillment
// needs but cannot perform itself: evaluating one expression off a
// feed, and evaluating a GROUP!'s full contents to one value. Wiring
// these directly would create the action <-> stepper import cycle spec
// §1 calls out; internal/stepper supplies concrete hooks at startup,
// the same dependency-inversion pattern as tweak.Hooks.
type Hooks struct {
	// StepExpression evaluates exactly one expression starting at f's
	// cursor (advancing it), writing the result into dst as is (it is
	// not decayed, so it may be an unstable antiform such as a PACK).
	StepExpression func(f *feed.Feed, ctx econtext.Context, dst *cell.Cell) level.Executor

	// EvalBlock evaluates every expression in arr in sequence, writing
	// the last result into dst as is (not decayed; VOID for an empty
	// block).
	EvalBlock func(arr *arena.Stub, ctx econtext.Context, dst *cell.Cell) level.Executor

	// Typecheck validates a fulfilled argument against its parameter's
	// declared type-spec. duskvm does not wire a type-spec constraint
	// system (see DESIGN.md); nil means "accept anything typed".
	Typecheck func(param Param, value cell.Cell) *rterr.Signal

	NullSym cell.StubRef
	OkaySym cell.StubRef
}

// endOfFeedError builds a minimal ERROR antiform for a parameter that
// ran out of feed before it could be fulfilled; label names the
// offending parameter for a future richer message (see
// tweak.unsetVariableError for the same minimal-payload decision).
func endOfFeedError(_ Hooks, _ string) *rterr.Signal {
	errCtx := econtext.NewVarlist(cell.HeartWarning, 0)
	return rterr.NewDefinitional(cell.Init_Error(errCtx.VarlistStub()))
}

// NewCallLevel resolves actionVal to its Phase and builds the (unpushed)
// fulfillment Level that will run it: a call varlist sharing the
// phase's paramlist keylist, ready to read arguments from callerFeed.
// Returns nil, nil if actionVal does not identify a Phase.
func NewCallLevel(actionVal cell.Cell, callerFeed *feed.Feed, ctx econtext.Context, refinements map[string]bool, baseline int, hooks Hooks) (*level.Level, *Phase) {
	phase := PhaseOf(actionVal)
	if phase == nil {
		return nil, nil
	}
	stub, _ := actionVal.Node1.(*arena.Stub)
	paramVarlist := econtext.WrapVarlist(stub)
	call := NewCallVarlist(paramVarlist, phase)

	lvl := level.New(FulfillExecutor(phase, refinements, hooks), nil, baseline)
	lvl.Varlist = call
	lvl.Feed = callerFeed
	lvl.Binding = ctx
	return lvl, phase
}

// Invoke resolves actionVal to its Phase, allocates a call varlist, and
// pushes the fulfillment Level as a child of parent. The caller (the
// stepper) is expected to return level.Continue() from its own
// executor right after calling this.
func Invoke(p level.Pusher, parent *level.Level, actionVal cell.Cell, callerFeed *feed.Feed, ctx econtext.Context, refinements map[string]bool, out *cell.Cell, hooks Hooks) *rterr.Signal {
	sub, phase := NewCallLevel(actionVal, callerFeed, ctx, refinements, parent.Baseline, hooks)
	if phase == nil {
		return rterr.NewDefinitional(cell.Init_Error(econtext.NewVarlist(cell.HeartWarning, 0).VarlistStub()))
	}
	sub.Prior = parent
	sub.SetOutTo(out)
	p.Push(sub)
	return nil
}

// FulfillExecutor drives argument fulfillment across as many trampoline
// steps as parameters requiring sub-evaluation (spec §4.9 steps 2-5).
// l.State holds the next parameter index to process; l.Flags carries
// FlagFulfillingArg between the step that pushed a sub-evaluation and
// the step that consumes its result, so a single byte of state survives
// suspension at any parameter.
func FulfillExecutor(phase *Phase, refinements map[string]bool, hooks Hooks) level.Executor {
	return func(p level.Pusher, l *level.Level) level.Bounce {
		idx := int(l.State)

		if l.Flags.Has(level.FlagFulfillingArg) {
			l.Flags &^= level.FlagFulfillingArg
			param := phase.Params[idx]
			slot := l.Varlist.SlotAt(idx)
			if param.Class == ClassMeta {
				*slot = slot.Lift1()
			}
			idx++
		}

		for idx < len(phase.Params) {
			param := phase.Params[idx]
			slot := l.Varlist.SlotAt(idx)

			if param.Refinement {
				if refinements[param.Sym.Spelling()] {
					*slot = cell.Init_Okay(hooks.OkaySym)
				} else {
					*slot = cell.Init_Null(hooks.NullSym)
				}
				idx++
				continue
			}

			if _, atEnd := l.Feed.At(); atEnd && param.EndTolerant {
				*slot = cell.Init_Void()
				idx++
				continue
			}

			switch param.Class {
			case ClassQuoted, ClassThe:
				elem, ok := l.Feed.At()
				if !ok {
					return level.Thrown(endOfFeedError(hooks, param.Sym.Spelling()))
				}
				l.Feed.FetchNext()
				*slot = elem
				idx++

			case ClassSoftEscapable:
				elem, ok := l.Feed.At()
				if !ok {
					return level.Thrown(endOfFeedError(hooks, param.Sym.Spelling()))
				}
				if elem.Heart == cell.HeartGroup {
					l.Feed.FetchNext()
					arr, _ := elem.Node1.(*arena.Stub)
					l.State = uint8(idx)
					l.Flags |= level.FlagFulfillingArg
					sub := level.New(hooks.EvalBlock(arr, l.Binding, slot), l, l.Baseline)
					sub.SetOutTo(slot)
					p.Push(sub)
					return level.Continue()
				}
				l.Feed.FetchNext()
				*slot = elem
				idx++

			case ClassVariadic:
				// duskvm collects the remaining feed eagerly into a
				// BLOCK! rather than a true on-demand proxy (see
				// DESIGN.md): the stepper never needs the lazier form
				// for any of the scenarios this evaluator covers.
				remaining := make([]cell.Cell, 0)
				for {
					e, ok := l.Feed.At()
					if !ok {
						break
					}
					remaining = append(remaining, e)
					l.Feed.FetchNext()
				}
				*slot = cell.Init_Block(arena.NewSource(remaining))
				idx++

			default: // ClassNormal, ClassMeta
				l.State = uint8(idx)
				l.Flags |= level.FlagFulfillingArg
				sub := level.New(hooks.StepExpression(l.Feed, l.Binding, slot), l, l.Baseline)
				sub.SetOutTo(slot)
				p.Push(sub)
				return level.Continue()
			}
		}

		if hooks.Typecheck != nil {
			for i, param := range phase.Params {
				if sig := hooks.Typecheck(param, *l.Varlist.SlotAt(i)); sig != nil {
					return level.Thrown(sig)
				}
			}
		}

		return phase.Dispatcher(p, l)
	}
}

