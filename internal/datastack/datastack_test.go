package datastack

import (
	"testing"

	"duskvm/internal/cell"
)

func TestBaselineTruncate(t *testing.T) {
	s := New()
	base := s.Baseline()
	s.Push(cell.Init_Integer(1))
	s.Push(cell.Init_Integer(2))
	if s.Height() != base+2 {
		t.Fatalf("expected height %d, got %d", base+2, s.Height())
	}
	s.Truncate(base)
	if s.Height() != base {
		t.Fatalf("expected truncated height %d, got %d", base, s.Height())
	}
}

func TestSliceDoesNotPop(t *testing.T) {
	s := New()
	base := s.Baseline()
	s.Push(cell.Init_Integer(10))
	s.Push(cell.Init_Integer(20))
	got := s.Slice(base)
	if len(got) != 2 || got[0].I != 10 || got[1].I != 20 {
		t.Fatalf("unexpected slice: %+v", got)
	}
	if s.Height() != base+2 {
		t.Fatal("slice should not mutate stack")
	}
}
