package stepper

import (
	"duskvm/internal/action"
	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/econtext"
	"duskvm/internal/feed"
	"duskvm/internal/level"
	"duskvm/internal/rterr"
	"duskvm/internal/symtab"
	"duskvm/internal/tweak"
)

// Resumption labels for StepExecutor's state byte (spec §4.8's
// "pseudo-states"). Each names the point a suspended Level resumes at.
const (
	stInitial uint8 = iota
	stAfterSubPlain       // sub result already final in dst; go to lookahead
	stAfterMetaSigil      // sub result in dst; apply Lift1, then lookahead
	stAfterActionDispatch // dispatch wrote dst directly; go to lookahead
	stLookahead
	stAfterEnfixDispatch // enfix dispatch wrote dst; loop lookahead again
	stAfterSetRHS        // rhs value in l.Spare[0]; l.Scratch holds the *setTarget
	stAfterSetBlockRHS   // rhs value in l.Spare[0]; l.Scratch holds *setBlockTargets
)

type setTarget struct {
	loc cell.Cell
}

type setBlockTargets struct {
	locs    []cell.Cell
	optOK   []bool
	circled int // index of the circled (@) target, or -1
}

func isWordFamily(h cell.Heart) bool {
	switch h {
	case cell.HeartWord, cell.HeartSetWord, cell.HeartGetWord, cell.HeartMetaWord, cell.HeartTheWord:
		return true
	default:
		return false
	}
}

func isActionAntiform(c cell.Cell) bool { return c.Heart == cell.HeartFrame && c.IsAntiform() }

func sequenceElements(c cell.Cell) []cell.Cell {
	arr, ok := c.Node1.(*arena.Stub)
	if !ok || arr.Flavor != arena.FlavorSource {
		return nil
	}
	return arr.Cells
}

// StepExecutor evaluates exactly one expression starting at f's cursor,
// writing the result into dst (which the caller must also have wired
// as the Level's Out). It implements spec §4.8's algorithm as a
// resumable state machine.
func StepExecutor(f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Executor {
	return func(p level.Pusher, l *level.Level) level.Bounce {
		switch l.State {
		case stInitial:
			return stepInitial(p, l, f, ctx, dst, d)
		case stAfterSubPlain:
			l.State = stLookahead
			return handleLookahead(p, l, f, ctx, dst, d)
		case stAfterMetaSigil:
			*dst = dst.Lift1()
			l.State = stLookahead
			return handleLookahead(p, l, f, ctx, dst, d)
		case stAfterActionDispatch:
			l.State = stLookahead
			return handleLookahead(p, l, f, ctx, dst, d)
		case stLookahead:
			return handleLookahead(p, l, f, ctx, dst, d)
		case stAfterEnfixDispatch:
			l.State = stLookahead
			return handleLookahead(p, l, f, ctx, dst, d)
		case stAfterSetRHS:
			return finishSetRHS(p, l, f, ctx, dst, d)
		case stAfterSetBlockRHS:
			return finishSetBlockRHS(p, l, f, ctx, dst, d)
		default:
			panic("stepper: unknown state")
		}
	}
}

// BlockExecutor evaluates every expression in arr in order, keeping
// only the last result as is (not decayed: an empty block yields VOID,
// and a PACK or other unstable antiform passes through), the "reduce a block of code"
// operation GROUP! evaluation and top-level program execution both
// reduce to (spec §4.8 "GROUP! creates a sub-evaluator level").
func BlockExecutor(arr *arena.Stub, ctx econtext.Context, dst *cell.Cell, d Deps) level.Executor {
	inner := feed.New(arr.Cells, ctx)
	return func(p level.Pusher, l *level.Level) level.Bounce {
		if inner.AtEnd() {
			if l.State == stInitial {
				*dst = cell.Init_Void()
			}
			return level.Done()
		}
		sub := level.New(StepExecutor(inner, ctx, dst, d), l, l.Baseline)
		sub.SetOutTo(dst)
		l.State = 1
		p.Push(sub)
		return level.Continue()
	}
}

func stepInitial(p level.Pusher, l *level.Level, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	cur, ok := f.At()
	if !ok {
		*dst = cell.Init_Void()
		return level.Done()
	}
	f.FetchNext()

	if cur.Binding == nil && isWordFamily(cur.Heart) {
		cur.Binding = ctx
	}

	// Step 2: backward-quote preview.
	if next, ok := f.At(); ok && isWordFamily(next.Heart) {
		if slot, _, ok2 := econtext.Resolve(bindFallback(next, ctx), ctx); ok2 && !econtext.IsUnsetSlot(*slot) && isActionAntiform(*slot) {
			if phase := action.PhaseOf(*slot); phase != nil && phase.Enfix && phase.QuotesLeft {
				f.FetchNext()
				return dispatchEnfix(p, l, *slot, cur, f, ctx, dst, d, stAfterEnfixDispatch)
			}
		}
	}

	return dispatchHeart(p, l, cur, f, ctx, dst, d)
}

func bindFallback(c cell.Cell, ctx econtext.Context) cell.Cell {
	if c.Binding == nil {
		c.Binding = ctx
	}
	return c
}

// dispatchHeart implements step 3 of spec §4.8 for an already-fetched
// current element.
func dispatchHeart(p level.Pusher, l *level.Level, cur cell.Cell, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	if cur.Sigil != cell.SigilNone {
		return dispatchSigil(p, l, cur, f, ctx, dst, d)
	}

	switch cur.Lift {
	case cell.LiftQuoted:
		*dst = cur.Unquotify(1)
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)
	case cell.LiftQuasi:
		*dst = cur.Antiformize()
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)
	}

	if isActionAntiform(cur) {
		return dispatchAction(p, l, cur, f, ctx, nil, dst, d)
	}

	switch cur.Heart {
	case cell.HeartComma:
		*dst = cell.Init_Ghost()
		return level.Done() // barrier suppresses lookahead entirely

	case cell.HeartWord:
		slot, _, ok := econtext.Resolve(cur, ctx)
		if !ok {
			return level.Thrown(rterr.NewDefinitional(errCell()))
		}
		if econtext.IsUnsetSlot(*slot) {
			return level.Thrown(rterr.NewDefinitional(errCell()))
		}
		val := slot.Unlift()
		if isActionAntiform(val) {
			return dispatchAction(p, l, val, f, ctx, nil, dst, d)
		}
		*dst = val
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)

	case cell.HeartGetWord:
		val, sig := tweak.Get(cur, ctx, d.tweakHooks(), tweak.Options{})
		if sig != nil {
			return level.Thrown(sig)
		}
		*dst = val
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)

	case cell.HeartMetaWord:
		val, sig := tweak.Get(cur, ctx, d.tweakHooks(), tweak.Options{})
		if sig != nil {
			return level.Thrown(sig)
		}
		*dst = val.Lift1()
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)

	case cell.HeartTheWord:
		*dst = cur
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)

	case cell.HeartSetWord:
		return beginSetRHS(p, l, cur, f, ctx, dst, d)

	case cell.HeartGroup:
		arr, _ := cur.Node1.(*arena.Stub)
		sub := level.New(BlockExecutor(arr, ctx, dst, d), l, l.Baseline)
		sub.SetOutTo(dst)
		l.State = stAfterSubPlain
		p.Push(sub)
		return level.Continue()

	case cell.HeartTuple:
		val, sig := tweak.Get(cur, ctx, d.tweakHooks(), d.tweakOptions())
		if sig != nil {
			return level.Thrown(sig)
		}
		*dst = val
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)

	case cell.HeartChain:
		return dispatchChain(p, l, cur, f, ctx, dst, d)

	case cell.HeartPath:
		return dispatchPathOrChainAction(p, l, cur, f, ctx, dst, d)

	default:
		// Literal/inert hearts (INTEGER, TEXT, BLOCK, FENCE, OBJECT,
		// TAG, FILE, BLOB, WARNING, FRAME non-antiform, SPACE) copy
		// through unchanged (spec §4.8 step 3 first bullet).
		*dst = cur
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)
	}
}

// dispatchSigil implements the four single-arity prefix sigil operators
// (spec §4.8 step 3 "SIGIL alone"). JUST (the plain single-quote) is
// handled earlier via the LiftQuoted unwrap above, not here.
func dispatchSigil(p level.Pusher, l *level.Level, cur cell.Cell, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	stripped := cur
	stripped.Sigil = cell.SigilNone

	switch cur.Sigil {
	case cell.SigilAt: // THE: literal + bound
		if isWordFamily(stripped.Heart) && stripped.Binding == nil {
			stripped.Binding = ctx
		}
		*dst = stripped
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)

	case cell.SigilDollar: // rebind-at-current-context, then evaluate
		stripped.Binding = ctx
		sub := level.New(StepExecutor(feed.New([]cell.Cell{stripped}, ctx), ctx, dst, d), l, l.Baseline)
		sub.SetOutTo(dst)
		l.State = stAfterSubPlain
		p.Push(sub)
		return level.Continue()

	case cell.SigilCaret: // META: evaluate, then lift
		sub := level.New(StepExecutor(feed.New([]cell.Cell{stripped}, ctx), ctx, dst, d), l, l.Baseline)
		sub.SetOutTo(dst)
		l.State = stAfterMetaSigil
		p.Push(sub)
		return level.Continue()

	case cell.SigilAmp: // TYPE OF: the heart name, as a TEXT! value
		*dst = cell.Init_Text(arena.NewStrand(arena.FlavorStrand, stripped.Heart.String()))
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)

	default:
		panic("stepper: dispatchSigil called with SigilNone")
	}
}

func dispatchAction(p level.Pusher, l *level.Level, actionVal cell.Cell, f *feed.Feed, ctx econtext.Context, refinements map[string]bool, dst *cell.Cell, d Deps) level.Bounce {
	sub, phase := action.NewCallLevel(actionVal, f, ctx, refinements, l.Baseline, d.actionHooks())
	if phase == nil {
		return level.Thrown(rterr.NewDefinitional(errCell()))
	}
	sub.Prior = l
	sub.SetOutTo(dst)
	l.State = stAfterActionDispatch
	p.Push(sub)
	return level.Continue()
}

// dispatchChain implements the blank-marker decoding of CHAIN! (spec
// §4.8's GET/SET-decorated forms): a leading HeartSpace element means
// "GET of the rest", a trailing one means "SET of the rest", and
// anything else falls back to ordinary dual-protocol GET (the
// unambiguous half of spec's own Open Question on PATH/CHAIN GET).
func dispatchChain(p level.Pusher, l *level.Level, cur cell.Cell, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	elems := sequenceElements(cur)
	if len(elems) != 2 {
		return plainTupleStyleGet(p, l, cur, f, ctx, dst, d)
	}

	switch {
	case elems[0].Heart == cell.HeartSpace:
		inner := elems[1]
		val, sig := tweak.Get(inner, ctx, d.tweakHooks(), d.tweakOptions())
		if sig != nil {
			return level.Thrown(sig)
		}
		*dst = val
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)

	case elems[1].Heart == cell.HeartSpace:
		if elems[0].Heart == cell.HeartBlock {
			return beginSetBlockRHS(p, l, elems[0], f, ctx, dst, d)
		}
		return beginSetRHS(p, l, elems[0], f, ctx, dst, d)

	default:
		return plainTupleStyleGet(p, l, cur, f, ctx, dst, d)
	}
}

func plainTupleStyleGet(p level.Pusher, l *level.Level, cur cell.Cell, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	val, sig := tweak.Get(cur, ctx, d.tweakHooks(), d.tweakOptions())
	if sig != nil {
		return level.Thrown(sig)
	}
	*dst = val
	l.State = stLookahead
	return handleLookahead(p, l, f, ctx, dst, d)
}

// dispatchPathOrChainAction implements PATH!'s action-with-refinements
// form (spec §4.8): the head word must resolve to an ACTION, and every
// following WORD! segment names a refinement collected for fulfillment.
// A PATH! whose head does not resolve to an action falls back to the
// dual-protocol GET, which raises an error for it, since a PATH!'s head
// must name an action.
func dispatchPathOrChainAction(p level.Pusher, l *level.Level, cur cell.Cell, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	elems := sequenceElements(cur)
	if len(elems) == 0 {
		panic("stepper: empty path")
	}
	head := bindFallback(elems[0], ctx)
	slot, _, ok := econtext.Resolve(head, ctx)
	if !ok || econtext.IsUnsetSlot(*slot) {
		return level.Thrown(rterr.NewDefinitional(errCell()))
	}
	actionVal := slot.Unlift()
	if !isActionAntiform(actionVal) {
		return plainTupleStyleGet(p, l, cur, f, ctx, dst, d)
	}

	refinements := make(map[string]bool, len(elems)-1)
	for _, seg := range elems[1:] {
		if sym, ok := seg.Node1.(*symtab.Symbol); ok {
			refinements[sym.Spelling()] = true
		}
	}
	return dispatchAction(p, l, actionVal, f, ctx, refinements, dst, d)
}

// handleLookahead implements spec §4.8 step 4: peek one element ahead
// and, if it names an enfix action (that does not itself want its left
// operand literally — that case is handled by the backward-quote
// preview in stepInitial), dispatch it with the already-computed dst
// as its first argument.
func handleLookahead(p level.Pusher, l *level.Level, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	next, ok := f.At()
	if !ok || next.Heart != cell.HeartWord {
		return level.Done()
	}
	bound := bindFallback(next, ctx)
	slot, _, ok2 := econtext.Resolve(bound, ctx)
	if !ok2 || econtext.IsUnsetSlot(*slot) {
		return level.Done()
	}
	val := slot.Unlift()
	if !isActionAntiform(val) {
		return level.Done()
	}
	phase := action.PhaseOf(val)
	if phase == nil || !phase.Enfix || phase.QuotesLeft {
		return level.Done()
	}
	// Deferred enfix (THEN/ELSE-style) breaking out of an outer call's
	// argument fulfillment to let the outer call decide is not modeled;
	// duskvm always continues it immediately here. See DESIGN.md.
	f.FetchNext()
	return dispatchEnfix(p, l, val, *dst, f, ctx, dst, d, stAfterEnfixDispatch)
}

// dispatchEnfix builds and pushes a call Level for an enfix action
// whose left operand (left) is already in hand — either literally (the
// backward-quote preview case) or as an already-evaluated value (the
// ordinary lookahead case) — rather than read from the feed the way
// action.NewCallLevel's first parameter normally would be.
func dispatchEnfix(p level.Pusher, l *level.Level, enfixVal cell.Cell, left cell.Cell, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps, resumeState uint8) level.Bounce {
	phase := action.PhaseOf(enfixVal)
	if phase == nil {
		return level.Thrown(rterr.NewDefinitional(errCell()))
	}
	stub, _ := enfixVal.Node1.(*arena.Stub)
	paramVarlist := econtext.WrapVarlist(stub)
	call := action.NewCallVarlist(paramVarlist, phase)

	startIdx := 0
	if len(phase.Params) > 0 && !phase.Params[0].Refinement {
		firstSlot := call.SlotAt(0)
		if phase.Params[0].Class == action.ClassMeta {
			*firstSlot = left.Lift1()
		} else {
			*firstSlot = left
		}
		startIdx = 1
	}

	sub := level.New(action.FulfillExecutor(phase, nil, d.actionHooks()), l, l.Baseline)
	sub.Varlist = call
	sub.Feed = f
	sub.Binding = ctx
	sub.State = uint8(startIdx)
	sub.SetOutTo(dst)

	l.State = resumeState
	p.Push(sub)
	return level.Continue()
}

// beginSetRHS starts evaluating a SET-WORD!/SET-TUPLE!-style location's
// right-hand side, stashing loc in l.Scratch to survive the suspension
// (spec §4.8 "SET-WORD! evaluates the rest of the expression, then
// stores").
func beginSetRHS(p level.Pusher, l *level.Level, loc cell.Cell, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	l.Scratch = &setTarget{loc: loc}
	l.State = stAfterSetRHS
	sub := level.New(StepExecutor(f, ctx, &l.Spare[0], d), l, l.Baseline)
	sub.SetOutTo(&l.Spare[0])
	p.Push(sub)
	return level.Continue()
}

func finishSetRHS(p level.Pusher, l *level.Level, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	t := l.Scratch.(*setTarget)
	l.Scratch = nil
	rhs := l.Spare[0]

	if rterr.IsErrorAntiform(rhs) {
		// spec §7: ERROR passes through as the result, store skipped.
		*dst = rhs
		l.State = stLookahead
		return handleLookahead(p, l, f, ctx, dst, d)
	}

	_, sig := tweak.Set(t.loc, ctx, rhs, d.tweakHooks(), d.tweakOptions())
	if sig != nil {
		return level.Thrown(sig)
	}
	*dst = rhs
	l.State = stLookahead
	return handleLookahead(p, l, f, ctx, dst, d)
}

// optionalTarget recognizes the leading-`:` SET-BLOCK! target form
// (spec §4.8 "optional targets (prefixed with `:`)"), scanned as the
// GET-form CHAIN! blank-marker shape `[space!, word]`. It reports the
// underlying destination and whether t has that shape.
func optionalTarget(t cell.Cell) (cell.Cell, bool) {
	if t.Heart != cell.HeartChain {
		return cell.Cell{}, false
	}
	elems := sequenceElements(t)
	if len(elems) != 2 || elems[0].Heart != cell.HeartSpace {
		return cell.Cell{}, false
	}
	return elems[1], true
}

// beginSetBlockRHS starts evaluating the right-hand side of a
// SET-BLOCK! (multi-return) location (spec §4.8): every element of
// blockCell is a destination; a HeartSpace element is a skip slot, a
// leading-`:` element is an optional target, and a circled (@) element
// names which component becomes the overall expression's result
// instead of the default (the first destination, spec §8.1).
func beginSetBlockRHS(p level.Pusher, l *level.Level, blockCell cell.Cell, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	targets := sequenceElements(blockCell)
	sb := &setBlockTargets{
		locs:    make([]cell.Cell, len(targets)),
		optOK:   make([]bool, len(targets)),
		circled: -1,
	}
	for i, t := range targets {
		if t.Sigil == cell.SigilAt {
			if sb.circled != -1 {
				return level.Thrown(rterr.NewDefinitional(errCell()))
			}
			sb.circled = i
			t.Sigil = cell.SigilNone
		}
		if loc, optional := optionalTarget(t); optional {
			sb.optOK[i] = true
			t = loc
		} else if t.Heart == cell.HeartSpace {
			sb.optOK[i] = true
		}
		sb.locs[i] = t
	}
	l.Scratch = sb
	l.State = stAfterSetBlockRHS
	sub := level.New(StepExecutor(f, ctx, &l.Spare[0], d), l, l.Baseline)
	sub.SetOutTo(&l.Spare[0])
	p.Push(sub)
	return level.Continue()
}

func finishSetBlockRHS(p level.Pusher, l *level.Level, f *feed.Feed, ctx econtext.Context, dst *cell.Cell, d Deps) level.Bounce {
	sb := l.Scratch.(*setBlockTargets)
	l.Scratch = nil
	rhs := l.Spare[0]

	var values []cell.Cell
	if rhs.Heart == cell.HeartBlock && rhs.IsAntiform() { // PACK
		values = sequenceElements(rhs)
	} else {
		values = []cell.Cell{rhs.Lift1()}
	}

	result := rhs
	for i, loc := range sb.locs {
		if loc.Heart == cell.HeartSpace {
			continue // skip slot: never stored, never circled
		}
		var v cell.Cell
		if i < len(values) {
			v = values[i].Unlift()
		} else {
			v = cell.Init_Null(d.NullSym) // beyond RHS range, or an absent optional target
		}
		if _, sig := tweak.Set(loc, ctx, v, d.tweakHooks(), d.tweakOptions()); sig != nil {
			return level.Thrown(sig)
		}
		if i == sb.circled || (sb.circled == -1 && i == 0) {
			result = v
		}
	}

	*dst = result
	l.State = stLookahead
	return handleLookahead(p, l, f, ctx, dst, d)
}
