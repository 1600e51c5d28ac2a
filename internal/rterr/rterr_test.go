package rterr

import (
	"errors"
	"testing"

	"duskvm/internal/cell"
)

type fakeSym struct{}

func (fakeSym) StubFlavor() string { return "symbol" }

func errCell() cell.Cell {
	return cell.Init_Warning(fakeSym{}).Antiformize()
}

func TestTryCoercesErrorToNull(t *testing.T) {
	out := Try(errCell(), fakeSym{})
	if out.Heart != cell.HeartWord || !out.IsAntiform() {
		t.Fatalf("expected NULL antiform, got %+v", out)
	}
}

func TestTryPassesNonErrorThrough(t *testing.T) {
	in := cell.Init_Integer(5)
	out := Try(in, fakeSym{})
	if out.I != 5 {
		t.Fatalf("expected passthrough, got %+v", out)
	}
}

func TestRequireEscalates(t *testing.T) {
	_, sig := Require(errCell())
	if sig == nil || sig.Kind != KindEscalated {
		t.Fatalf("expected escalated signal, got %+v", sig)
	}
}

func TestPassThroughAssignSkipsStore(t *testing.T) {
	_, skip := PassThroughAssign(errCell())
	if !skip {
		t.Fatal("expected skipStore=true for error rhs")
	}
	_, skip2 := PassThroughAssign(cell.Init_Integer(1))
	if skip2 {
		t.Fatal("expected skipStore=false for ordinary rhs")
	}
}

func TestVetoAndHalt(t *testing.T) {
	v := NewVeto(errCell())
	if !v.IsVeto() {
		t.Fatal("expected veto")
	}
	h := NewHalt()
	if !h.IsHalt() {
		t.Fatal("expected halt")
	}
	if h.CatchesLabel("") {
		t.Fatal("halt should never be caught by a generic catch boundary")
	}
}

func TestHostFaultCause(t *testing.T) {
	base := errors.New("scanner exploded")
	hf := NewHostFault("scan failed", SourceLocation{File: "a.reb", Line: 3}, base)
	if Cause(hf.Cause).Error() != base.Error() {
		t.Fatalf("expected cause to unwrap to base error, got %v", Cause(hf.Cause))
	}
}
