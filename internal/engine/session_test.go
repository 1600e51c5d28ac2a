package engine

import (
	"strings"
	"testing"
)

func TestEvalSimpleArithmetic(t *testing.T) {
	sess := New()
	out, sig, err := sess.Eval("add 2 3")
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 5 {
		t.Fatalf("expected 5, got %+v", out)
	}
}

func TestEvalEnfixArithmetic(t *testing.T) {
	sess := New()
	out, sig, err := sess.Eval("2 add 3")
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 5 {
		t.Fatalf("expected 5, got %+v", out)
	}
}

func TestEvalSetThenGet(t *testing.T) {
	sess := New()
	out, sig, err := sess.Eval("x: 10\nadd x 5")
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 15 {
		t.Fatalf("expected 15, got %+v", out)
	}
}

func TestEvalDivideByZeroEscalates(t *testing.T) {
	sess := New()
	_, sig, err := sess.Eval("divide 4 0")
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if sig == nil {
		t.Fatalf("expected a definitional error signal")
	}
}

func TestEvalProbeWritesMold(t *testing.T) {
	sess := New()
	out, sig, err := sess.Eval("probe 42")
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 42 {
		t.Fatalf("expected probe to pass its value through, got %+v", out)
	}
}

func TestEvalUnknownWordFails(t *testing.T) {
	sess := New()
	_, sig, err := sess.Eval("totally-unbound-name")
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if sig == nil {
		t.Fatalf("expected an unbound-word error")
	}
}

func TestEvalMultilineProgram(t *testing.T) {
	sess := New()
	src := strings.Join([]string{
		"x: 1",
		"y: 2",
		"add x y",
	}, "\n")
	out, sig, err := sess.Eval(src)
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 3 {
		t.Fatalf("expected 3, got %+v", out)
	}
}
