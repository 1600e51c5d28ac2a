// Package trace adapts the teacher's DebugHook interface
// (internal/vm/vm.go in the original sentra tree: OnInstruction/OnCall/
// OnReturn/OnError) to the trampoline's bounce-oriented execution
// model: OnPush/OnPop/OnThrow.
package trace

import (
	"fmt"
	"io"

	"duskvm/internal/level"
	"duskvm/internal/rterr"
)

// Tracer receives trampoline scheduling events. A nil Tracer is never
// passed around; callers get NoOp{} instead, mirroring the teacher's
// own debug-disabled default (EnhancedVM.debug == false).
type Tracer interface {
	OnPush(l *level.Level)
	OnPop(l *level.Level)
	OnThrow(l *level.Level, sig *rterr.Signal)
}

// NoOp discards every event.
type NoOp struct{}

func (NoOp) OnPush(*level.Level)                  {}
func (NoOp) OnPop(*level.Level)                   {}
func (NoOp) OnThrow(*level.Level, *rterr.Signal) {}

// TextTracer writes a one-line summary of each event to W.
type TextTracer struct {
	W io.Writer
}

func (t TextTracer) OnPush(l *level.Level) {
	fmt.Fprintf(t.W, "push level %s\n", l.ID)
}

func (t TextTracer) OnPop(l *level.Level) {
	fmt.Fprintf(t.W, "pop level %s\n", l.ID)
}

func (t TextTracer) OnThrow(l *level.Level, sig *rterr.Signal) {
	fmt.Fprintf(t.W, "throw from level %s: %v\n", l.ID, sig)
}
