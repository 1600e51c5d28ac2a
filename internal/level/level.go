// Package level defines the Level — the per-in-flight-operation record
// that is the unit of trampoline scheduling (spec §3.6/§4.7) — along
// with the Bounce sum type an Executor returns.
package level

import (
	"github.com/google/uuid"

	"duskvm/internal/cell"
	"duskvm/internal/econtext"
	"duskvm/internal/feed"
	"duskvm/internal/rterr"
)

// Flags are the per-Level bits named in spec §3.6.
type Flags uint16

const (
	FlagFulfillingArg Flags = 1 << iota
	FlagMetaResult
	FlagRaisedResultOK
	FlagDeferredEnfixPending
	FlagCatchesPanics // ENRECOVER vs plain RESCUE
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// BounceKind distinguishes what an Executor's return means to the
// trampoline (spec §4.7).
type BounceKind uint8

const (
	BounceDone BounceKind = iota
	BounceContinue
	BounceThrown
)

// Bounce is the value an Executor returns at the end of one
// trampoline step.
type Bounce struct {
	Kind   BounceKind
	Signal *rterr.Signal // set when Kind == BounceThrown
}

func Done() Bounce                   { return Bounce{Kind: BounceDone} }
func Continue() Bounce                { return Bounce{Kind: BounceContinue} }
func Thrown(sig *rterr.Signal) Bounce { return Bounce{Kind: BounceThrown, Signal: sig} }

// Pusher is the one trampoline capability an Executor needs: the
// ability to push a sub-Level and make it the new top of the
// scheduling stack. Declaring it here (rather than Executor taking a
// concrete *trampoline.Trampoline) keeps this leaf package free of a
// level <-> trampoline import cycle; internal/trampoline's Trampoline
// type satisfies it.
type Pusher interface {
	Push(sub *Level)
}

// Executor drives one step of a Level. It reads l.State on entry and
// resumes at whatever label that byte selects (spec §4.7 "each
// executor reads its level's state byte on entry and jumps to the
// right resumption label").
type Executor func(p Pusher, l *Level) Bounce

// Level is the in-flight operation record.
type Level struct {
	ID uuid.UUID

	// Out is where the eventual result lands. It usually points into
	// the Prior level's Spare/Result cell (the "parent-designated
	// output cell" of spec §2); the root Level owns its own storage.
	Out *cell.Cell

	// Spare is scratch workspace that must survive GC while this Level
	// is suspended (spec §3.6), without forcing every Executor to
	// allocate its own. The stepper uses Spare[0] to receive a SET's
	// right-hand side while that sub-evaluation runs.
	Spare [2]cell.Cell

	Exec  Executor
	State uint8
	Flags Flags

	// Varlist is populated when this Level represents an action call.
	Varlist *econtext.Varlist

	Baseline int // data stack height at entry, for rollback on abort
	Prior    *Level

	Feed    *feed.Feed
	Binding econtext.Context

	// Scratch is per-executor suspended state that doesn't fit the two
	// Spare cells — e.g. a stepper's pending set-block target list. Spec
	// §9 "Coroutine-style evaluation" calls this "a tagged union for the
	// Level's per-executor data"; a plain `any` plays that role here,
	// each executor package defining and type-asserting its own shape.
	Scratch any

	// Label is the throw label this Level declares interest in
	// catching (used by RESCUE/ENRESCUE/TRAP boundaries); "" means "no
	// catch interest here, keep unwinding".
	Label string

	// Caught is set by the trampoline immediately before re-invoking
	// Exec on a Level that just intercepted an unwind (spec §4.7
	// "until a level that declares interest in catching the label is
	// found"). An Executor that sets Label non-empty (or wants to
	// catch panics) must check Caught at the top of every call.
	Caught *rterr.Signal
}

// New allocates a Level. Levels are meant to come from an arena-backed
// pool in a tuned implementation; spec §4.2 treats that as an
// allocation-strategy detail orthogonal to correctness, so duskvm uses
// plain heap allocation here and leaves pooling to a future profiling
// pass.
func New(exec Executor, prior *Level, baseline int) *Level {
	return &Level{ID: uuid.New(), Exec: exec, Prior: prior, Baseline: baseline}
}

// SetOutTo points Out at dst, the parent-designated output cell.
func (l *Level) SetOutTo(dst *cell.Cell) { l.Out = dst }

// WriteOut stores v into Out, or panics if no output cell was wired —
// every Level pushed by the trampoline must have one.
func (l *Level) WriteOut(v cell.Cell) {
	if l.Out == nil {
		panic("level: WriteOut with no Out cell wired")
	}
	*l.Out = v
}
