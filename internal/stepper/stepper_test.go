package stepper

import (
	"testing"

	"duskvm/internal/action"
	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/econtext"
	"duskvm/internal/level"
	"duskvm/internal/symtab"
)

func testSymbols() (*symtab.Table, cell.StubRef, cell.StubRef) {
	tbl := symtab.New()
	return tbl, tbl.Intern("null"), tbl.Intern("okay")
}

func TestRunBlockLiteralPassthrough(t *testing.T) {
	tbl, nullSym, okaySym := testSymbols()
	_ = tbl
	ctx := econtext.NewSea()
	d := Deps{NullSym: nullSym, OkaySym: okaySym}

	arr := arena.NewSource([]cell.Cell{cell.Init_Integer(1), cell.Init_Integer(2), cell.Init_Integer(3)})
	out, sig := RunBlock(arr, ctx, d)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 3 {
		t.Fatalf("expected last value 3, got %+v", out)
	}
}

func TestRunBlockEmptyIsVoid(t *testing.T) {
	tbl, nullSym, okaySym := testSymbols()
	_ = tbl
	ctx := econtext.NewSea()
	d := Deps{NullSym: nullSym, OkaySym: okaySym}

	arr := arena.NewSource(nil)
	out, sig := RunBlock(arr, ctx, d)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.Heart != cell.HeartSpace || !out.IsAntiform() {
		t.Fatalf("expected VOID, got %+v", out)
	}
}

func TestSetWordThenGetWord(t *testing.T) {
	tbl, nullSym, okaySym := testSymbols()
	xSym := tbl.Intern("x")
	ctx := econtext.NewSea()
	ctx.Append(xSym)
	d := Deps{NullSym: nullSym, OkaySym: okaySym}

	setX := cell.Init_SetWord(xSym)
	getX := cell.Init_Word(xSym)
	arr := arena.NewSource([]cell.Cell{setX, cell.Init_Integer(99), getX})

	out, sig := RunBlock(arr, ctx, d)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 99 {
		t.Fatalf("expected 99, got %+v", out)
	}

	slot, ok := ctx.Get(xSym)
	if !ok || slot.I != 99 {
		t.Fatalf("expected x bound to 99 in context, got %+v ok=%v", slot, ok)
	}
}

// setBlockChain builds the SET-form CHAIN! `[block, space!]` a scanned
// `[a b]:` reads as.
func setBlockChain(targets ...cell.Cell) cell.Cell {
	block := cell.Init_Block(arena.NewSource(targets))
	return cell.Init_Chain(arena.NewSource([]cell.Cell{block, cell.Init_Space()}))
}

// optionalWordTarget builds the GET-form CHAIN! `[space!, word]` a
// scanned `:b` target reads as (spec §4.8 "optional targets").
func optionalWordTarget(sym cell.StubRef) cell.Cell {
	return cell.Init_Chain(arena.NewSource([]cell.Cell{cell.Init_Space(), cell.Init_Word(sym)}))
}

func packOf(values ...int64) cell.Cell {
	lifted := make([]cell.Cell, len(values))
	for i, v := range values {
		lifted[i] = cell.Init_Integer(v).Lift1()
	}
	return cell.Init_Pack(arena.NewSource(lifted))
}

func TestSetBlockMultiReturnDefaultCircledIsFirst(t *testing.T) {
	tbl, nullSym, okaySym := testSymbols()
	aSym, bSym := tbl.Intern("a"), tbl.Intern("b")
	ctx := econtext.NewSea()
	ctx.Append(aSym)
	ctx.Append(bSym)
	d := Deps{NullSym: nullSym, OkaySym: okaySym}

	target := setBlockChain(cell.Init_Word(aSym), cell.Init_Word(bSym))
	arr := arena.NewSource([]cell.Cell{target, packOf(10, 20)})

	out, sig := RunBlock(arr, ctx, d)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 10 {
		t.Fatalf("expected overall result 10 (first target circled by default), got %+v", out)
	}
	aSlot, _ := ctx.Get(aSym)
	bSlot, _ := ctx.Get(bSym)
	if aSlot.I != 10 || bSlot.I != 20 {
		t.Fatalf("expected a=10 b=20, got a=%+v b=%+v", aSlot, bSlot)
	}
}

func TestSetBlockOptionalTargetAbsentIsNull(t *testing.T) {
	tbl, nullSym, okaySym := testSymbols()
	aSym, bSym := tbl.Intern("a"), tbl.Intern("b")
	ctx := econtext.NewSea()
	ctx.Append(aSym)
	ctx.Append(bSym)
	d := Deps{NullSym: nullSym, OkaySym: okaySym}

	target := setBlockChain(cell.Init_Word(aSym), optionalWordTarget(bSym))
	arr := arena.NewSource([]cell.Cell{target, packOf(10)})

	out, sig := RunBlock(arr, ctx, d)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 10 {
		t.Fatalf("expected overall result 10, got %+v", out)
	}
	aSlot, _ := ctx.Get(aSym)
	if aSlot.I != 10 {
		t.Fatalf("expected a=10, got %+v", aSlot)
	}
	bSlot, ok := ctx.Get(bSym)
	if !ok || bSlot.Heart != cell.HeartWord || !bSlot.IsAntiform() || bSlot.Node1 != nullSym {
		t.Fatalf("expected b=null, got %+v ok=%v", bSlot, ok)
	}
}

func TestSetBlockMultipleCircledErrors(t *testing.T) {
	tbl, nullSym, okaySym := testSymbols()
	aSym, bSym := tbl.Intern("a"), tbl.Intern("b")
	ctx := econtext.NewSea()
	ctx.Append(aSym)
	ctx.Append(bSym)
	d := Deps{NullSym: nullSym, OkaySym: okaySym}

	aTarget, bTarget := cell.Init_Word(aSym), cell.Init_Word(bSym)
	aTarget.Sigil = cell.SigilAt
	bTarget.Sigil = cell.SigilAt
	target := setBlockChain(aTarget, bTarget)
	arr := arena.NewSource([]cell.Cell{target, packOf(10, 20)})

	_, sig := RunBlock(arr, ctx, d)
	if sig == nil {
		t.Fatalf("expected \"can't circle more than one\" error, got none")
	}
}

func TestWordDispatchesNormalAction(t *testing.T) {
	tbl, nullSym, okaySym := testSymbols()
	doubleSym := tbl.Intern("double")
	argSym := tbl.Intern("n")
	ctx := econtext.NewSea()
	d := Deps{NullSym: nullSym, OkaySym: okaySym}

	dispatcher := func(_ level.Pusher, l *level.Level) level.Bounce {
		arg := *l.Varlist.SlotAt(0)
		l.WriteOut(cell.Init_Integer(arg.I * 2))
		return level.Done()
	}
	paramVarlist := action.NewAction("double", []action.Param{{Sym: argSym, Class: action.ClassNormal}}, dispatcher)
	*ctx.Append(doubleSym) = action.ValueOf(paramVarlist)

	arr := arena.NewSource([]cell.Cell{cell.Init_Word(doubleSym), cell.Init_Integer(21)})
	out, sig := RunBlock(arr, ctx, d)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 42 {
		t.Fatalf("expected 42, got %+v", out)
	}
}
