package cell

import "testing"

type fakeSym struct{ name string }

func (f *fakeSym) StubFlavor() string { return "symbol" }

func TestQuotifyUnquotifyRoundTrip(t *testing.T) {
	c := Init_Integer(42)
	q := c.Quotify(3)
	if q.Lift != LiftQuoted || q.Quotes != 3 {
		t.Fatalf("expected 3 quotes, got lift=%v quotes=%d", q.Lift, q.Quotes)
	}
	back := q.Unquotify(3)
	if back.Lift != LiftNoquote || back.I != 42 {
		t.Fatalf("round-trip failed: %+v", back)
	}
}

func TestQuotifyAntiformUnliftsFirst(t *testing.T) {
	sym := &fakeSym{"null"}
	n := Init_Null(sym)
	if !n.IsAntiform() {
		t.Fatal("expected antiform")
	}
	q := n.Quotify(1)
	if q.Lift != LiftQuoted || q.QuotedBase != LiftQuasi {
		t.Fatalf("expected quoted-over-quasi, got %+v", q)
	}
}

func TestLiftUnliftRoundTrip(t *testing.T) {
	sym := &fakeSym{"okay"}
	okay := Init_Okay(sym)
	lifted := okay.Lift1()
	if lifted.Lift != LiftQuasi {
		t.Fatalf("expected quasi after lifting antiform, got %v", lifted.Lift)
	}
	back := lifted.Unlift()
	if !back.IsAntiform() || back.Heart != HeartWord {
		t.Fatalf("unlift did not restore antiform word: %+v", back)
	}
}

func TestStability(t *testing.T) {
	sym := &fakeSym{"null"}
	if !Init_Null(sym).IsStable() {
		t.Fatal("NULL should be stable")
	}
	if Init_Void().IsStable() {
		t.Fatal("VOID should be unstable")
	}
	if Init_Ghost().IsStable() {
		t.Fatal("GHOST should be unstable")
	}
}

func TestEraseAndMove(t *testing.T) {
	c := Init_Integer(7)
	moved := Move(&c)
	if !c.IsErased() {
		t.Fatal("source should be erased after Move")
	}
	if moved.I != 7 {
		t.Fatalf("moved value wrong: %+v", moved)
	}
}

func TestAntiformizeRequiresEligibleHeart(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-eligible heart")
		}
	}()
	Init_Integer(1).Antiformize()
}
