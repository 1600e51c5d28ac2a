// Package action implements frame phases and argument fulfillment
// (spec §4.9): a Phase is a parameter list plus a dispatcher function,
// addressed through the antiform-FRAME cell that an action's rootvar
// identifies. Invocation allocates a call varlist sharing the phase's
// keylist, fulfills each parameter according to its class, then hands
// off to the dispatcher.
package action

import (
	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/econtext"
	"duskvm/internal/level"
	"duskvm/internal/symtab"
)

// Class is a parameter's fulfillment strategy (spec §4.9 step 3).
type Class uint8

const (
	ClassNormal Class = iota
	ClassQuoted
	ClassThe
	ClassSoftEscapable
	ClassMeta
	ClassVariadic
)

// Param describes one formal parameter.
type Param struct {
	Sym         *symtab.Symbol
	Class       Class
	EndTolerant bool
	Refinement  bool // a refinement name, fulfilled only if present on the data stack
}

// Dispatcher runs once every parameter slot has been filled and
// typechecked (spec §4.9 step 5). It receives the already-pushed
// action Level and returns the usual Bounce: a completed value, a
// continuation (the dispatcher pushed its own sub-level, e.g. to run a
// FUNC body), or a throw.
type Dispatcher func(p level.Pusher, l *level.Level) level.Bounce

// Phase is the callable unit a FRAME! rootvar's Node2 slot identifies.
// It satisfies cell.StubRef so it can sit in that slot without cell
// importing this package.
type Phase struct {
	Label      string
	Params     []Param
	Dispatcher Dispatcher

	// Intrinsic marks the fast path of spec §4.9: exactly one normal
	// argument, no varlist allocation, dispatcher called directly with
	// the computed argument. Fulfill still builds a minimal call
	// varlist in duskvm for dispatcher uniformity; see DESIGN.md for why
	// the true zero-allocation path was not pursued.
	Intrinsic bool

	// Enfix marks an action for postfix-left placement (spec §4.8 step
	// 4); the stepper's lookahead dispatches it with the already-
	// computed OUT as its first argument.
	Enfix bool

	// QuotesLeft marks the first parameter as wanting its *left*
	// neighbor literally rather than OUT's evaluated value (spec §4.8
	// step 2's "backward-quote preview"), e.g. `->` / `quote`-style
	// infix operators.
	QuotesLeft bool

	// Deferred marks an enfix action of the THEN/ELSE kind. The flag is
	// only recorded: the stepper's lookahead does not read it and
	// dispatches a deferred enfix action immediately, like any other
	// enfix action, even while fulfilling an outer call's argument.
	Deferred bool
}

func (p *Phase) StubFlavor() string { return "action-phase" }

// NewAction builds a Phase and the paramlist Varlist that serves as its
// identity: GET-ing a word bound to this action yields Init_Action over
// this varlist's stub.
func NewAction(label string, params []Param, dispatcher Dispatcher) *econtext.Varlist {
	phase := &Phase{Label: label, Params: params, Dispatcher: dispatcher}
	v := econtext.NewVarlist(cell.HeartFrame, len(params))
	for _, prm := range params {
		slot := v.Append(prm.Sym)
		*slot = cell.Init_Space() // unconstrained type-spec placeholder
	}
	v.RootVar().Node2 = phase
	return v
}

// NewIntrinsic builds a one-argument fast-path action.
func NewIntrinsic(label string, param Param, dispatcher Dispatcher) *econtext.Varlist {
	v := NewAction(label, []Param{param}, dispatcher)
	v.RootVar().Node2.(*Phase).Intrinsic = true
	return v
}

// ValueOf returns the ACTION antiform naming v.
func ValueOf(v *econtext.Varlist) cell.Cell { return cell.Init_Action(v.VarlistStub()) }

// PhaseOf extracts the Phase an ACTION/FRAME cell's varlist identifies.
func PhaseOf(c cell.Cell) *Phase {
	stub, ok := c.Node1.(*arena.Stub)
	if !ok || stub.Flavor != arena.FlavorVarlist || len(stub.Cells) == 0 {
		return nil
	}
	phase, _ := stub.Cells[0].Node2.(*Phase)
	return phase
}

// NewCallVarlist allocates a fresh call frame sharing paramVarlist's
// keylist (so the same symbol-to-index mapping applies), with every
// argument slot ghost-unset, and stamps the rootvar's Node2 with phase
// so the fulfillment/dispatch executors can find it from the Level's
// Varlist alone (spec §4.9 step 1 "initialized to the archetype cell
// identifying this action").
func NewCallVarlist(paramVarlist *econtext.Varlist, phase *Phase) *econtext.Varlist {
	call := econtext.NewVarlist(cell.HeartFrame, paramVarlist.KeyCount())
	paramVarlist.ShareKeylistWith(call)
	for i := 0; i < paramVarlist.KeyCount(); i++ {
		call.AppendUnsetSlot()
	}
	call.RootVar().Node2 = phase
	return call
}
