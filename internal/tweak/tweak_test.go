package tweak

import (
	"testing"

	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/econtext"
	"duskvm/internal/symtab"
)

type nullSymStub struct{}

func (nullSymStub) StubFlavor() string { return "symbol" }

func TestGetSetRoundTrip(t *testing.T) {
	tbl := symtab.New()
	xSym := tbl.Intern("x")
	ctx := econtext.NewVarlist(cell.HeartObject, 1)
	ctx.Append(xSym)

	h := Hooks{NullSym: nullSymStub{}}
	opt := Options{}

	prev, sig := Set(cell.Init_SetWord(xSym), ctx, cell.Init_Integer(10), h, opt)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if prev.Heart != cell.HeartComma {
		t.Fatalf("expected previous value to be the ghost-unset placeholder, got %+v", prev)
	}

	got, sig2 := Get(cell.Init_Word(xSym), ctx, h, opt)
	if sig2 != nil {
		t.Fatalf("unexpected signal: %v", sig2)
	}
	if got.I != 10 {
		t.Fatalf("expected 10, got %+v", got)
	}
}

func TestGetUnsetVariableEscalatesByDefault(t *testing.T) {
	tbl := symtab.New()
	ySym := tbl.Intern("y")
	ctx := econtext.NewVarlist(cell.HeartObject, 0)
	h := Hooks{NullSym: nullSymStub{}}

	_, sig := Get(cell.Init_Word(ySym), ctx, h, Options{})
	if sig == nil {
		t.Fatal("expected a definitional error for an unbound word")
	}
}

func TestGetUnsetVariableSoftReturnsNull(t *testing.T) {
	tbl := symtab.New()
	ySym := tbl.Intern("y")
	ctx := econtext.NewVarlist(cell.HeartObject, 0)
	h := Hooks{NullSym: nullSymStub{}}

	got, sig := Get(cell.Init_Word(ySym), ctx, h, Options{Soft: true})
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if !got.IsAntiform() || got.Heart != cell.HeartWord {
		t.Fatalf("expected NULL antiform, got %+v", got)
	}
}

func TestTupleFieldAccess(t *testing.T) {
	tbl := symtab.New()
	objSym := tbl.Intern("obj")
	aSym := tbl.Intern("a")

	inner := econtext.NewVarlist(cell.HeartObject, 1)
	slot := inner.Append(aSym)
	*slot = cell.Init_Integer(1)

	outer := econtext.NewVarlist(cell.HeartObject, 1)
	objSlot := outer.Append(objSym)
	*objSlot = cell.Cell{Heart: cell.HeartObject, Node1: inner}

	tupleArr := []cell.Cell{cell.Init_Word(objSym), cell.Init_Word(aSym)}
	tupleCell := cell.Cell{Heart: cell.HeartTuple, Node1: arena.NewSource(tupleArr)}

	h := Hooks{NullSym: nullSymStub{}}
	got, sig := Get(tupleCell, outer, h, Options{})
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if got.I != 1 {
		t.Fatalf("expected 1, got %+v", got)
	}
}
