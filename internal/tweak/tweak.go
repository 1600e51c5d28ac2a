// Package tweak implements the dual-protocol variable access pipeline
// of spec §4.5: a single `Tweak` operation that speaks GET/SET/PICK/
// POKE on words, tuples, paths and chains through a "dual cell" that
// is either a read request or a lifted value to write.
//
// Tweak needs to evaluate embedded GROUP!s and invoke accessor actions,
// both of which belong to the evaluator (internal/stepper/internal/
// action) rather than to this package — wiring those in directly would
// create the exact import cycle the mutually-recursive design in
// spec §1 warns about. Instead Tweak takes a Hooks struct of callback
// functions the evaluator layer supplies, the standard Go answer to
// "two packages need each other": dependency inversion through a
// locally-declared interface/callback set.
package tweak

import (
	"fmt"

	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/econtext"
	"duskvm/internal/rterr"
	"duskvm/internal/symtab"
)

// Dual is the two-band protocol cell from spec §4.5: Read requests a
// GET; !Read carries a lifted value to SET. On a successful read,
// Value is filled with the lifted result. On a successful write,
// Value is overwritten with the previous (lifted) contents, so callers
// doing compound assignment can read it back.
type Dual struct {
	Read  bool
	Value cell.Cell
}

// Hooks supplies the evaluator-layer operations Tweak cannot perform
// on its own.
type Hooks struct {
	// EvalGroup runs a GROUP!'s contents as code, returning its last
	// result as is (not decayed). Required only when a picker element is
	// itself a GROUP! and the caller opted into groups-ok.
	EvalGroup func(arr *arena.Stub, ctx econtext.Context) (cell.Cell, *rterr.Signal)

	// InvokeAccessor calls the accessor action found in a slot flagged
	// cell.FlagAccessor. write == nil means a read-call (no
	// arguments); otherwise write is the already-unlifted new value.
	InvokeAccessor func(accessor cell.Cell, write *cell.Cell) (cell.Cell, *rterr.Signal)

	// ResolveAction resolves a CHAIN!/PATH! head word to the ACTION
	// antiform it must name.
	ResolveAction func(word cell.Cell, ctx econtext.Context) (cell.Cell, *rterr.Signal)

	// NullSym is the interned "null" symbol, needed to build NULL
	// antiform cells for TRY-wrapped reads of vacant tuple segments.
	NullSym cell.StubRef
}

// GroupsOK controls whether picker GROUP!s are evaluated (spec §4.5
// "only when the caller opts in").
type Options struct {
	GroupsOK bool
	// Soft reading (as TRY does): a vacant tuple segment or unset
	// variable yields NULL instead of escalating.
	Soft bool
}

func wordSymbol(c cell.Cell) *symtab.Symbol {
	sym, _ := c.Node1.(*symtab.Symbol)
	return sym
}

func isWordFamily(h cell.Heart) bool {
	switch h {
	case cell.HeartWord, cell.HeartSetWord, cell.HeartGetWord, cell.HeartMetaWord, cell.HeartTheWord:
		return true
	default:
		return false
	}
}

// unsetVariableError builds a minimal ERROR antiform naming the
// offending variable. A full implementation would intern "id"/
// "message" fields via a shared symtab.Table threaded through Hooks;
// duskvm keeps the symbol itself as the sole payload (Node2) so callers
// can still report a precise name without that plumbing.
func unsetVariableError(sym *symtab.Symbol, nullSym cell.StubRef) cell.Cell {
	errCtx := econtext.NewVarlist(cell.HeartWarning, 0)
	if sym != nil {
		errCtx.RootVar().Node2 = sym
	}
	return cell.Init_Error(errCtx.VarlistStub())
}

// word performs the WORD! case of Tweak: lookup via the binding chain,
// dispatching through an accessor if the slot is flagged as one.
func word(loc cell.Cell, ctx econtext.Context, dual *Dual, h Hooks, opt Options) *rterr.Signal {
	sym := wordSymbol(loc)
	if sym == nil {
		panic("tweak: word-family cell with no symbol payload")
	}
	slot, _, ok := econtext.Resolve(loc, ctx)
	if !ok {
		if opt.Soft {
			dual.Value = cell.Init_Null(h.NullSym).Lift1()
			return nil
		}
		return rterr.NewDefinitional(unsetVariableError(sym, h.NullSym))
	}
	if dual.Read && econtext.IsUnsetSlot(*slot) {
		if opt.Soft {
			dual.Value = cell.Init_Null(h.NullSym).Lift1()
			return nil
		}
		return rterr.NewDefinitional(unsetVariableError(sym, h.NullSym))
	}

	if slot.Flags.Has(cell.FlagAccessor) {
		if h.InvokeAccessor == nil {
			panic("tweak: accessor slot encountered without InvokeAccessor hook")
		}
		if dual.Read {
			val, sig := h.InvokeAccessor(*slot, nil)
			if sig != nil {
				return sig
			}
			dual.Value = val.Lift1()
			return nil
		}
		write := dual.Value.Unlift()
		prev, sig := h.InvokeAccessor(*slot, &write)
		if sig != nil {
			return sig
		}
		dual.Value = prev.Lift1()
		return nil
	}

	if dual.Read {
		dual.Value = slot.Lift1()
		return nil
	}

	newVal := dual.Value.Unlift()
	if rterr.IsErrorAntiform(newVal) {
		// spec §7: non-meta assignment target passes ERROR through as
		// the expression result but skips the store.
		dual.Value = newVal.Lift1()
		return nil
	}
	if !newVal.IsStable() {
		panic(fmt.Sprintf("tweak: attempted to store unstable value into %q", sym.Spelling()))
	}
	old := *slot
	*slot = newVal
	dual.Value = old.Lift1()
	return nil
}

func sequenceElements(c cell.Cell) []cell.Cell {
	arr, ok := c.Node1.(*arena.Stub)
	if !ok || arr.Flavor != arena.FlavorSource {
		return nil
	}
	return arr.Cells
}

// tuple performs the TUPLE!/META-TUPLE! case: the head segment resolves
// as a word, each subsequent segment is a PICK step into the context
// the previous step produced.
func tuple(loc cell.Cell, ctx econtext.Context, dual *Dual, h Hooks, opt Options) *rterr.Signal {
	elems := sequenceElements(loc)
	if len(elems) < 2 {
		panic("tweak: tuple with fewer than 2 elements")
	}

	head := elems[0]
	var cur econtext.Context
	if head.Flags.Has(cell.FlagLeadingSpace) {
		// Leading-space tuple (`.foo`): look up the first step in the
		// current coupling. Spec §9 Open Questions leaves the
		// no-coupling fallback undecided; DESIGN.md records the
		// decision taken here: fall back to ctx itself.
		cur = ctx
	} else {
		headDual := Dual{Read: true}
		if sig := word(head, ctx, &headDual, h, opt); sig != nil {
			return sig
		}
		resolved := headDual.Value.Unlift()
		sub, ok := resolved.Node1.(econtext.Context)
		if !ok {
			if opt.Soft {
				dual.Value = cell.Init_Null(h.NullSym).Lift1()
				return nil
			}
			return rterr.NewDefinitional(unsetVariableError(wordSymbol(head), h.NullSym))
		}
		cur = sub
	}

	for i := 1; i < len(elems)-1; i++ {
		sig, next := pickStep(elems[i], cur, h, opt)
		if sig != nil {
			return sig
		}
		sub, ok := next.Node1.(econtext.Context)
		if !ok {
			if opt.Soft {
				dual.Value = cell.Init_Null(h.NullSym).Lift1()
				return nil
			}
			return rterr.NewDefinitional(unsetVariableError(nil, h.NullSym))
		}
		cur = sub
	}

	last := elems[len(elems)-1]
	lastSym := resolvePickerSymbol(last, cur, h, opt)
	if lastSym == nil {
		return rterr.NewDefinitional(unsetVariableError(nil, h.NullSym))
	}
	slot, ok := cur.Get(lastSym)
	if !ok || econtext.IsUnsetSlot(*slot) {
		if opt.Soft {
			dual.Value = cell.Init_Null(h.NullSym).Lift1()
			return nil
		}
		return rterr.NewDefinitional(unsetVariableError(lastSym, h.NullSym))
	}
	if dual.Read {
		dual.Value = slot.Lift1()
		return nil
	}
	newVal := dual.Value.Unlift()
	old := *slot
	*slot = newVal
	dual.Value = old.Lift1()
	return nil
}

// resolvePickerSymbol extracts the symbol a picker element names,
// evaluating it first if it is a GROUP! and the caller opted in.
func resolvePickerSymbol(elem cell.Cell, ctx econtext.Context, h Hooks, opt Options) *symtab.Symbol {
	if elem.Heart == cell.HeartGroup && opt.GroupsOK && h.EvalGroup != nil {
		arr, _ := elem.Node1.(*arena.Stub)
		val, sig := h.EvalGroup(arr, ctx)
		if sig != nil {
			return nil
		}
		return wordSymbol(val)
	}
	if isWordFamily(elem.Heart) {
		return wordSymbol(elem)
	}
	return nil
}

// pickStep resolves one intermediate tuple segment to the value it
// names, as a building block for walking multi-segment tuples.
func pickStep(elem cell.Cell, ctx econtext.Context, h Hooks, opt Options) (*rterr.Signal, cell.Cell) {
	sym := resolvePickerSymbol(elem, ctx, h, opt)
	if sym == nil {
		return rterr.NewDefinitional(unsetVariableError(nil, h.NullSym)), cell.Cell{}
	}
	slot, ok := ctx.Get(sym)
	if !ok {
		return rterr.NewDefinitional(unsetVariableError(sym, h.NullSym)), cell.Cell{}
	}
	return nil, slot.Unlift()
}

// Tweak is the single entry point spec §4.5 describes: dispatch on the
// location's Heart to the right GET/SET/PICK/POKE behavior.
func Tweak(loc cell.Cell, ctx econtext.Context, dual *Dual, h Hooks, opt Options) *rterr.Signal {
	switch {
	case isWordFamily(loc.Heart):
		return word(loc, ctx, dual, h, opt)
	case loc.Heart == cell.HeartTuple:
		return tuple(loc, ctx, dual, h, opt)
	case loc.Heart == cell.HeartChain:
		return chainOrPath(loc, ctx, dual, h)
	case loc.Heart == cell.HeartPath:
		return chainOrPath(loc, ctx, dual, h)
	default:
		panic(fmt.Sprintf("tweak: unsupported location heart %s", loc.Heart))
	}
}

// chainOrPath resolves a CHAIN!/PATH! head to an ACTION. Per spec's own
// Open Questions ("whether a GET on a PATH ending in slash should
// return a specialization or an action as-is... varies"), duskvm
// resolves the documented, unambiguous half of the behavior only: GET
// returns the action itself. Refinement/specialization composition is
// the job of internal/action, invoked from the stepper once the action
// cell is in hand; see DESIGN.md.
func chainOrPath(loc cell.Cell, ctx econtext.Context, dual *Dual, h Hooks) *rterr.Signal {
	if !dual.Read {
		panic("tweak: SET through a CHAIN!/PATH! location is not a location-level operation; see internal/action")
	}
	elems := sequenceElements(loc)
	if len(elems) == 0 {
		panic("tweak: empty chain/path")
	}
	action, sig := h.ResolveAction(elems[0], ctx)
	if sig != nil {
		return sig
	}
	dual.Value = action.Lift1()
	return nil
}

// Get is GET: tweak with a null-dual, unlifted (spec §4.5).
func Get(loc cell.Cell, ctx econtext.Context, h Hooks, opt Options) (cell.Cell, *rterr.Signal) {
	d := Dual{Read: true}
	if sig := Tweak(loc, ctx, &d, h, opt); sig != nil {
		return cell.Cell{}, sig
	}
	return d.Value.Unlift(), nil
}

// Set is SET: tweak with the argument lifted, unlifting the echoed
// previous value (spec §4.5).
func Set(loc cell.Cell, ctx econtext.Context, value cell.Cell, h Hooks, opt Options) (previous cell.Cell, sig *rterr.Signal) {
	d := Dual{Read: false, Value: value.Lift1()}
	if s := Tweak(loc, ctx, &d, h, opt); s != nil {
		return cell.Cell{}, s
	}
	return d.Value.Unlift(), nil
}
