package collector

import (
	"testing"

	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/symtab"
)

func setWord(tbl *symtab.Table, name string) cell.Cell {
	return cell.Init_SetWord(tbl.Intern(name))
}

func word(tbl *symtab.Table, name string) cell.Cell {
	return cell.Init_Word(tbl.Intern(name))
}

func TestCollectSetWordsUniquely(t *testing.T) {
	tbl := symtab.New()
	cells := []cell.Cell{
		setWord(tbl, "a"),
		cell.Init_Integer(1),
		setWord(tbl, "b"),
		cell.Init_Integer(2),
	}

	b := NewBinder()
	defer b.Teardown()

	syms, err := Collect(b, cells, Flags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(syms) != 2 || syms[0].Spelling() != "a" || syms[1].Spelling() != "b" {
		t.Fatalf("unexpected symbols: %v", syms)
	}
}

func TestCollectDuplicateSkipped(t *testing.T) {
	tbl := symtab.New()
	aSym := tbl.Intern("a")
	cells := []cell.Cell{
		cell.Init_SetWord(aSym),
		cell.Init_SetWord(aSym),
	}

	b := NewBinder()
	defer b.Teardown()

	syms, err := Collect(b, cells, Flags{Dup: DupSkip})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(syms) != 1 {
		t.Fatalf("expected one collected symbol, got %d", len(syms))
	}
}

func TestCollectDuplicateErrors(t *testing.T) {
	tbl := symtab.New()
	aSym := tbl.Intern("a")
	cells := []cell.Cell{
		cell.Init_SetWord(aSym),
		cell.Init_SetWord(aSym),
	}

	b := NewBinder()
	defer b.Teardown()

	_, err := Collect(b, cells, Flags{Dup: DupError})
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, ok := err.(*DuplicateError); !ok {
		t.Fatalf("expected *DuplicateError, got %T", err)
	}
}

func TestCollectDeepRecursesIntoBlocks(t *testing.T) {
	tbl := symtab.New()
	inner := arena.NewSource([]cell.Cell{setWord(tbl, "inner")})
	cells := []cell.Cell{
		setWord(tbl, "outer"),
		cell.Init_Block(inner),
	}

	b := NewBinder()
	defer b.Teardown()

	syms, err := Collect(b, cells, Flags{Deep: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(syms) != 2 || syms[0].Spelling() != "outer" || syms[1].Spelling() != "inner" {
		t.Fatalf("unexpected symbols: %v", syms)
	}
}

func TestCollectAnyWordFlag(t *testing.T) {
	tbl := symtab.New()
	cells := []cell.Cell{word(tbl, "a"), word(tbl, "b")}

	b := NewBinder()
	defer b.Teardown()

	syms, err := Collect(b, cells, Flags{AnyWord: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(syms) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(syms))
	}
}

func TestTeardownUnbindsSymbols(t *testing.T) {
	tbl := symtab.New()
	sym := tbl.Intern("a")
	cells := []cell.Cell{cell.Init_SetWord(sym)}

	b := NewBinder()
	if _, err := Collect(b, cells, Flags{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, bound := sym.BindIndex(); !bound {
		t.Fatal("expected symbol bound before teardown")
	}
	b.Teardown()
	if _, bound := sym.BindIndex(); bound {
		t.Fatal("expected symbol unbound after teardown")
	}
}

func TestPreloadSeedsParentKeys(t *testing.T) {
	tbl := symtab.New()
	parent := tbl.Intern("self")

	b := NewBinder()
	defer b.Teardown()
	b.Preload([]*symtab.Symbol{parent})

	cells := []cell.Cell{setWord(tbl, "x")}
	syms, err := Collect(b, cells, Flags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(syms) != 2 || syms[0].Spelling() != "self" || syms[1].Spelling() != "x" {
		t.Fatalf("unexpected symbols: %v", syms)
	}
}
