package action

import (
	"testing"

	"duskvm/internal/cell"
	"duskvm/internal/econtext"
	"duskvm/internal/symtab"
)

func TestNewActionValueOfRoundTrip(t *testing.T) {
	tbl := symtab.New()
	xSym := tbl.Intern("x")

	v := NewAction("double", []Param{{Sym: xSym, Class: ClassNormal}}, nil)
	val := ValueOf(v)
	if val.Heart != cell.HeartFrame || !val.IsAntiform() {
		t.Fatalf("expected antiform FRAME, got %+v", val)
	}
	phase := PhaseOf(val)
	if phase == nil || phase.Label != "double" {
		t.Fatalf("expected phase round-trip, got %+v", phase)
	}
}

func TestNewCallVarlistSharesKeylist(t *testing.T) {
	tbl := symtab.New()
	xSym := tbl.Intern("x")
	paramVarlist := NewAction("id", []Param{{Sym: xSym, Class: ClassNormal}}, nil)
	phase := paramVarlist.RootVar().Node2.(*Phase)

	call := NewCallVarlist(paramVarlist, phase)
	if call.KeyCount() != 1 {
		t.Fatalf("expected 1 key, got %d", call.KeyCount())
	}
	if call.KeyAt(0) != xSym {
		t.Fatal("expected shared keylist to resolve to the same symbol")
	}
	if !econtext.IsUnsetSlot(*call.SlotAt(0)) {
		t.Fatal("expected fresh call varlist slot to be ghost-unset")
	}
}
