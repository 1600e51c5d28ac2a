package econtext

import (
	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/symtab"
)

// BindWord installs ctx as c's binding. Binding is metadata, not
// identity (spec §4.1): this never copies or disturbs the cell's
// payload, so it's safe to call on a word that is itself sitting
// inside a shared source array.
func BindWord(c *cell.Cell, ctx Context) {
	c.Binding = ctx
}

// BindingOf extracts c's binding as a Context, or nil if c is unbound
// or its Binding field holds something else.
func BindingOf(c cell.Cell) Context {
	ctx, _ := c.Binding.(Context)
	return ctx
}

// symbolOf reads the symbol a WORD!-family cell spells.
func symbolOf(c cell.Cell) *symtab.Symbol {
	sym, _ := c.Node1.(*symtab.Symbol)
	return sym
}

// Resolve performs the word lookup described in spec §4.3: starting
// from the binding installed on the word (or the supplied fallback
// context for an as-yet-unbound word encountered during evaluation of
// a bound block), walk outward via InheritFrom on miss.
func Resolve(w cell.Cell, fallback Context) (*cell.Cell, Context, bool) {
	sym := symbolOf(w)
	if sym == nil {
		return nil, nil, false
	}
	ctx := BindingOf(w)
	if ctx == nil {
		ctx = fallback
	}
	if ctx == nil {
		return nil, nil, false
	}
	slot, ok := ctx.Get(sym)
	return slot, ctx, ok
}

// BindDeep installs ctx as the binding of every WORD!-family element at
// the top level of arr's cells whose Binding is currently nil, and
// recurses into nested BLOCK!/GROUP! elements. This is the "lazy
// binding installed when a plain word in source is first encountered"
// mechanism of spec §4.3, applied eagerly here for simplicity: nothing
// in the spec requires installation to be deferred past the moment a
// block is handed to the evaluator bound to a context.
func BindDeep(cells []cell.Cell, ctx Context) {
	for i := range cells {
		c := &cells[i]
		switch c.Heart {
		case cell.HeartWord, cell.HeartSetWord, cell.HeartGetWord, cell.HeartMetaWord, cell.HeartTheWord:
			if c.Binding == nil {
				BindWord(c, ctx)
			}
		case cell.HeartBlock, cell.HeartGroup, cell.HeartFence:
			if arr, ok := c.Node1.(*arena.Stub); ok && arr.Flavor == arena.FlavorSource {
				BindDeep(arr.Cells, ctx)
			}
		}
	}
}
