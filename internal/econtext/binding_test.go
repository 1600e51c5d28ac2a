package econtext

import (
	"testing"

	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/symtab"
)

func TestBindDeepAndResolve(t *testing.T) {
	tbl := symtab.New()
	xSym := tbl.Intern("x")

	inner := arena.NewSource([]cell.Cell{cell.Init_Word(xSym)})
	outer := []cell.Cell{cell.Init_Word(xSym), cell.Init_Block(inner)}

	ctx := NewVarlist(cell.HeartObject, 1)
	slot := ctx.Append(xSym)
	*slot = cell.Init_Integer(5)

	BindDeep(outer, ctx)

	got, _, ok := Resolve(outer[0], nil)
	if !ok || got.I != 5 {
		t.Fatalf("expected resolved 5, got %+v ok=%v", got, ok)
	}

	got2, _, ok2 := Resolve(inner.Cells[0], nil)
	if !ok2 || got2.I != 5 {
		t.Fatalf("expected nested word to resolve via deep bind, got %+v ok=%v", got2, ok2)
	}
}
