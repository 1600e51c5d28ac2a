package trampoline

import (
	"testing"

	"duskvm/internal/cell"
	"duskvm/internal/datastack"
	"duskvm/internal/level"
	"duskvm/internal/rterr"
)

// doneExecutor writes a fixed value and finishes in one step.
func doneExecutor(v cell.Cell) level.Executor {
	return func(p level.Pusher, l *level.Level) level.Bounce {
		l.WriteOut(v)
		return level.Done()
	}
}

func TestRunSingleLevelDone(t *testing.T) {
	stack := datastack.New()
	tr := New(stack, nil)

	root := level.New(doneExecutor(cell.Init_Integer(7)), nil, stack.Baseline())
	out, sig := tr.Run(root)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 7 {
		t.Fatalf("expected 7, got %+v", out)
	}
}

// childThenDoneExecutor pushes one sub-level on its first call, copies
// the sub's result into its own Out on resume, then finishes.
func childThenDoneExecutor() level.Executor {
	return func(p level.Pusher, l *level.Level) level.Bounce {
		switch l.State {
		case 0:
			l.State = 1
			sub := level.New(doneExecutor(cell.Init_Integer(99)), l, l.Baseline)
			sub.SetOutTo(&l.Spare[0])
			p.Push(sub)
			return level.Continue()
		default:
			l.WriteOut(l.Spare[0])
			return level.Done()
		}
	}
}

func TestRunPushesSubLevel(t *testing.T) {
	stack := datastack.New()
	tr := New(stack, nil)

	root := level.New(childThenDoneExecutor(), nil, stack.Baseline())
	out, sig := tr.Run(root)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if out.I != 99 {
		t.Fatalf("expected 99 from sub-level, got %+v", out)
	}
}

func throwingExecutor(label string) level.Executor {
	return func(p level.Pusher, l *level.Level) level.Bounce {
		return level.Thrown(rterr.NewThrow(label, cell.Init_Integer(1)))
	}
}

func TestRunUnhandledThrowEscapes(t *testing.T) {
	stack := datastack.New()
	tr := New(stack, nil)

	root := level.New(throwingExecutor("break"), nil, stack.Baseline())
	_, sig := tr.Run(root)
	if sig == nil {
		t.Fatal("expected throw to escape as a signal")
	}
	if sig.Kind != rterr.KindThrow || sig.Label != "break" {
		t.Fatalf("unexpected signal: %+v", sig)
	}
}

// catchingExecutor declares a catch Label and, when resumed with
// Caught set, treats that as the whole operation's result.
func catchingExecutor(label string) level.Executor {
	return func(p level.Pusher, l *level.Level) level.Bounce {
		switch l.State {
		case 0:
			l.Label = label
			l.State = 1
			sub := level.New(throwingExecutor(label), l, l.Baseline)
			sub.SetOutTo(&l.Spare[0])
			p.Push(sub)
			return level.Continue()
		default:
			if l.Caught != nil {
				l.WriteOut(l.Caught.Value)
				return level.Done()
			}
			l.WriteOut(l.Spare[0])
			return level.Done()
		}
	}
}

func TestRunCatchesMatchingThrow(t *testing.T) {
	stack := datastack.New()
	tr := New(stack, nil)

	root := level.New(catchingExecutor("break"), nil, stack.Baseline())
	out, sig := tr.Run(root)
	if sig != nil {
		t.Fatalf("unexpected signal escaping catch boundary: %v", sig)
	}
	if out.I != 1 {
		t.Fatalf("expected caught throw value 1, got %+v", out)
	}
}

func TestRunTruncatesStackOnThrowUnwind(t *testing.T) {
	stack := datastack.New()
	tr := New(stack, nil)

	pushingThrow := func(p level.Pusher, l *level.Level) level.Bounce {
		stack.Push(cell.Init_Integer(0))
		return level.Thrown(rterr.NewThrow("break", cell.Init_Integer(1)))
	}

	root := level.New(catchingExecutorWith(pushingThrow, "break"), nil, stack.Baseline())
	before := stack.Height()
	_, sig := tr.Run(root)
	if sig != nil {
		t.Fatalf("unexpected signal: %v", sig)
	}
	if stack.Height() != before {
		t.Fatalf("expected data stack rolled back to %d, got %d", before, stack.Height())
	}
}

func catchingExecutorWith(childExec level.Executor, label string) level.Executor {
	return func(p level.Pusher, l *level.Level) level.Bounce {
		switch l.State {
		case 0:
			l.Label = label
			l.State = 1
			sub := level.New(childExec, l, l.Baseline)
			sub.SetOutTo(&l.Spare[0])
			p.Push(sub)
			return level.Continue()
		default:
			if l.Caught != nil {
				l.WriteOut(l.Caught.Value)
				return level.Done()
			}
			l.WriteOut(l.Spare[0])
			return level.Done()
		}
	}
}

func TestRunHaltAlwaysUnwinds(t *testing.T) {
	stack := datastack.New()
	tr := New(stack, nil)

	// A catch boundary for label "break" must NOT intercept HALT.
	root := level.New(catchingExecutor("break"), nil, stack.Baseline())
	root.Exec = func(p level.Pusher, l *level.Level) level.Bounce {
		switch l.State {
		case 0:
			l.Label = "break"
			l.State = 1
			sub := level.New(func(p level.Pusher, l *level.Level) level.Bounce {
				return level.Thrown(rterr.NewHalt())
			}, l, l.Baseline)
			sub.SetOutTo(&l.Spare[0])
			p.Push(sub)
			return level.Continue()
		default:
			t.Fatal("halt must not resume a catch boundary")
			return level.Done()
		}
	}
	_, sig := tr.Run(root)
	if sig == nil || !sig.IsHalt() {
		t.Fatalf("expected halt to escape unhandled, got %v", sig)
	}
}
