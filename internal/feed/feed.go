// Package feed implements the lazy restartable cursor over source
// elements described in spec §3.6: current element, one-element
// lookback, a binding context, and a "fetched" cache for the value of
// the current word.
package feed

import (
	"duskvm/internal/cell"
	"duskvm/internal/econtext"
)

// Feed presents a sequence of elements. It is currently backed by a
// plain slice (an array stub's Cells), but the field is unexported so
// a future generator-backed feed can be swapped in without callers
// noticing, per spec §4.6 "the abstraction permits a generator".
type Feed struct {
	elems   []cell.Cell
	pos     int
	binding econtext.Context

	lookback cell.Cell
	hasLookback bool

	gotten    cell.Cell
	gottenSym any // identity of the word the cache was computed for
	hasGotten bool
}

// New builds a feed over elems bound in ctx.
func New(elems []cell.Cell, ctx econtext.Context) *Feed {
	return &Feed{elems: elems, binding: ctx}
}

// AtEnd reports whether the cursor has exhausted the underlying array.
func (f *Feed) AtEnd() bool { return f.pos >= len(f.elems) }

// At returns the current element, or (Cell{}, false) at end of feed.
func (f *Feed) At() (cell.Cell, bool) {
	if f.AtEnd() {
		return cell.Cell{}, false
	}
	return f.elems[f.pos], true
}

// Peek looks n elements ahead of the current position without
// advancing, used by the stepper's enfix lookahead (spec §4.8 step 2
// and step 4).
func (f *Feed) Peek(n int) (cell.Cell, bool) {
	idx := f.pos + n
	if idx < 0 || idx >= len(f.elems) {
		return cell.Cell{}, false
	}
	return f.elems[idx], true
}

// FetchNext advances the cursor by one, saving the just-current element
// as Lookback and invalidating the gotten cache.
func (f *Feed) FetchNext() {
	if !f.AtEnd() {
		f.lookback = f.elems[f.pos]
		f.hasLookback = true
	}
	f.pos++
	f.InvalidateGotten()
}

// Lookback returns the last element yielded by FetchNext, still
// reachable until the next FetchNext call.
func (f *Feed) Lookback() (cell.Cell, bool) { return f.lookback, f.hasLookback }

func (f *Feed) Binding() econtext.Context { return f.binding }

func (f *Feed) SetBinding(ctx econtext.Context) { f.binding = ctx }

// CacheGotten records the resolved slot contents for the word currently
// at the cursor, so a second lookup (e.g. by the action-dispatch layer
// right after the stepper's own lookup) can be skipped.
func (f *Feed) CacheGotten(wordIdentity any, value cell.Cell) {
	f.gottenSym = wordIdentity
	f.gotten = value
	f.hasGotten = true
}

// Gotten returns the cached value if it was computed for wordIdentity.
func (f *Feed) Gotten(wordIdentity any) (cell.Cell, bool) {
	if !f.hasGotten || f.gottenSym != wordIdentity {
		return cell.Cell{}, false
	}
	return f.gotten, true
}

// InvalidateGotten drops the cache; any assignment made through this
// feed must call this so a stale resolved value is never reused.
func (f *Feed) InvalidateGotten() {
	f.hasGotten = false
	f.gottenSym = nil
}

// Index exposes the raw cursor position, used by Level snapshotting.
func (f *Feed) Index() int { return f.pos }
