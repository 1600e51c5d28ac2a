package action

import (
	"testing"

	"duskvm/internal/cell"
	"duskvm/internal/datastack"
	"duskvm/internal/econtext"
	"duskvm/internal/feed"
	"duskvm/internal/level"
	"duskvm/internal/symtab"
	"duskvm/internal/trampoline"
)

// literalStepExpression is a minimal stand-in for the real stepper: it
// just copies the feed's current element into dst and advances, enough
// to exercise FulfillExecutor's suspend/resume plumbing without
// depending on internal/stepper.
func literalStepExpression(f *feed.Feed, _ econtext.Context, dst *cell.Cell) level.Executor {
	return func(_ level.Pusher, l *level.Level) level.Bounce {
		elem, ok := f.At()
		if !ok {
			l.WriteOut(cell.Init_Void())
			return level.Done()
		}
		f.FetchNext()
		*dst = elem
		l.WriteOut(elem)
		return level.Done()
	}
}

func TestFulfillNormalParamThenDispatch(t *testing.T) {
	tbl := symtab.New()
	xSym := tbl.Intern("x")

	dispatcher := func(_ level.Pusher, l *level.Level) level.Bounce {
		arg := *l.Varlist.SlotAt(0)
		l.WriteOut(cell.Init_Integer(arg.I * 2))
		return level.Done()
	}

	paramVarlist := NewAction("double", []Param{{Sym: xSym, Class: ClassNormal}}, dispatcher)
	phase := paramVarlist.RootVar().Node2.(*Phase)
	call := NewCallVarlist(paramVarlist, phase)

	f := feed.New([]cell.Cell{cell.Init_Integer(21)}, nil)
	hooks := Hooks{StepExpression: literalStepExpression}

	stack := datastack.New()
	tr := trampoline.New(stack, nil)

	root := level.New(FulfillExecutor(phase, nil, hooks), nil, stack.Baseline())
	root.Varlist = call
	root.Feed = f

	out, sig := tr.Run(root)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 42 {
		t.Fatalf("expected 42, got %+v", out)
	}
}

func TestFulfillRefinementLogicSlots(t *testing.T) {
	tbl := symtab.New()
	onlySym := tbl.Intern("only")
	nullSym := tbl.Intern("null")
	okaySym := tbl.Intern("okay")

	var sawOnly cell.Cell
	dispatcher := func(_ level.Pusher, l *level.Level) level.Bounce {
		sawOnly = *l.Varlist.SlotAt(0)
		l.WriteOut(cell.Init_Void())
		return level.Done()
	}

	paramVarlist := NewAction("append", []Param{{Sym: onlySym, Refinement: true}}, dispatcher)
	phase := paramVarlist.RootVar().Node2.(*Phase)
	call := NewCallVarlist(paramVarlist, phase)

	f := feed.New(nil, nil)
	hooks := Hooks{NullSym: nullSym, OkaySym: okaySym}

	stack := datastack.New()
	tr := trampoline.New(stack, nil)
	root := level.New(FulfillExecutor(phase, map[string]bool{"only": true}, hooks), nil, stack.Baseline())
	root.Varlist = call
	root.Feed = f

	if _, sig := tr.Run(root); sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if !sawOnly.IsAntiform() || sawOnly.Heart != cell.HeartWord {
		t.Fatalf("expected OKAY antiform for active refinement, got %+v", sawOnly)
	}
}
