// Package collector implements the duplicate-aware symbol walk of spec
// §4.11: a Binder stamps a transient index on each symbol stub it
// collects, so testing membership is an O(1) pointer-field read instead
// of a linear scan, and a stump list undoes the stamps in teardown.
package collector

import (
	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/symtab"
)

// DupPolicy controls what try-add does on a repeated symbol (spec §4.11
// step 3: "either skip, error, or silently permit based on flags").
type DupPolicy uint8

const (
	DupSkip DupPolicy = iota
	DupError
	DupPermit
)

// Flags configure one collection walk.
type Flags struct {
	Deep    bool      // recurse into nested BLOCK!/FENCE! elements
	AnyWord bool      // collect every word, not just set-words
	Dup     DupPolicy
}

// Binder owns the stump list for one in-flight collection. Only one
// Binder may be active at a time process-wide, since the binder hooks
// live on the shared symbols. Nothing here checks this: NewBinder does
// not detect a Binder that has not been torn down.
type Binder struct {
	stumps []*symtab.Symbol
	next   int
	syms   []*symtab.Symbol // collected, in index order
}

// NewBinder starts an empty binder at index 0.
func NewBinder() *Binder {
	return &Binder{}
}

// Preload stamps the keys of a parent context's symbols at their
// existing positions, per spec §4.11 step 2, so child collection can't
// redeclare a name the parent already owns (depending on DupPolicy).
func (b *Binder) Preload(parentSyms []*symtab.Symbol) {
	for _, sym := range parentSyms {
		if sym.TryBind(b.next) {
			b.stumps = append(b.stumps, sym)
			b.syms = append(b.syms, sym)
			b.next++
		}
	}
}

// TryAdd attempts to bind sym to the next index. added reports whether the
// symbol was newly bound; dup reports whether it was already present
// (useful to distinguish "newly added" from "duplicate permitted").
func (b *Binder) TryAdd(sym *symtab.Symbol) (index int, added bool, dup bool) {
	if sym.TryBind(b.next) {
		b.stumps = append(b.stumps, sym)
		b.syms = append(b.syms, sym)
		index = b.next
		b.next++
		return index, true, false
	}
	idx, _ := sym.BindIndex()
	return idx, false, true
}

// Symbols returns the collected symbols in assignment order.
func (b *Binder) Symbols() []*symtab.Symbol {
	out := make([]*symtab.Symbol, len(b.syms))
	copy(out, b.syms)
	return out
}

// Teardown walks the stump list and unsets each binder entry, spec
// §4.11 step 4. A Binder must not be reused after Teardown.
func (b *Binder) Teardown() {
	for _, sym := range b.stumps {
		sym.Unbind()
	}
	b.stumps = nil
}

// Collect walks cells per flags, calling TryAdd on every candidate
// symbol, and returns the resulting symbol list. It does not call
// Teardown; the caller decides when the binder hooks are no longer
// needed (typically right after building a keylist from the result).
func Collect(b *Binder, cells []cell.Cell, flags Flags) ([]*symtab.Symbol, error) {
	if err := walk(b, cells, flags); err != nil {
		return nil, err
	}
	return b.Symbols(), nil
}

func walk(b *Binder, cells []cell.Cell, flags Flags) error {
	for i := 0; i < len(cells); i++ {
		c := cells[i]
		switch c.Heart {
		case cell.HeartSetWord:
			if err := addWord(b, c, flags); err != nil {
				return err
			}
		case cell.HeartWord, cell.HeartGetWord, cell.HeartMetaWord, cell.HeartTheWord:
			if flags.AnyWord {
				if err := addWord(b, c, flags); err != nil {
					return err
				}
			}
		case cell.HeartBlock, cell.HeartFence:
			if flags.Deep {
				if arr, ok := c.Node1.(*arena.Stub); ok && arr.Flavor == arena.FlavorSource {
					if err := walk(b, arr.Cells, flags); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// CollectSetBlockTargets forces deep, any-word collection over a
// SET-BLOCK!'s decomposed target list (spec §4.11 step 3, "SET-BLOCK!
// [a b c]: forces a deep collection of its contents"). The caller
// passes the already-decomposed target list; the collector itself has
// no sequence-decomposition logic of its own. The stepper's SET-BLOCK!
// handling does not call it: it reads its targets directly.
func CollectSetBlockTargets(b *Binder, targets []cell.Cell) ([]*symtab.Symbol, error) {
	return Collect(b, targets, Flags{Deep: true, AnyWord: true, Dup: DupPermit})
}

func addWord(b *Binder, c cell.Cell, flags Flags) error {
	sym, _ := c.Node1.(*symtab.Symbol)
	if sym == nil {
		return nil
	}
	_, added, dup := b.TryAdd(sym)
	if dup && !added {
		switch flags.Dup {
		case DupError:
			return &DuplicateError{Symbol: sym}
		case DupPermit, DupSkip:
			return nil
		}
	}
	return nil
}

// DuplicateError reports a repeated symbol under DupError policy.
type DuplicateError struct {
	Symbol *symtab.Symbol
}

func (e *DuplicateError) Error() string {
	return "collector: duplicate symbol " + e.Symbol.Spelling()
}
