package rterr

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// SourceLocation pinpoints an error to a position in source text,
// adapted from the teacher's SentraError.Location.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// HostFault represents a failure in a source collaborator named in
// spec §6.1 (the scanner, the embedding API) rather than in evaluated
// user code. It is kept distinct from Signal because it originates in
// Go code calling into the core, not from an ERROR! antiform produced
// during evaluation; NewPanic wraps one as the Cause of a KindPanic
// Signal when such a fault must be surfaced to the evaluator.
type HostFault struct {
	Message  string
	Location SourceLocation
	Cause    error
}

func (e *HostFault) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf(" (at %s:%d:%d)", e.Location.File, e.Location.Line, e.Location.Column))
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *HostFault) Unwrap() error { return e.Cause }

// NewHostFault wraps cause (if any) with pkg/errors so a later
// pkgerrors.Cause() call can recover the innermost Go error beneath a
// chain of HostFault/Signal wrapping, even after the fault has been
// promoted into a KindPanic evaluator Signal.
func NewHostFault(message string, loc SourceLocation, cause error) *HostFault {
	var wrapped error
	if cause != nil {
		wrapped = pkgerrors.Wrap(cause, message)
	}
	return &HostFault{Message: message, Location: loc, Cause: wrapped}
}

// NewPanic promotes a HostFault (or any Go error) into a KindPanic
// Signal, the "invariant violations... implemented as throws with a
// special label" case of spec §7.3.
func NewPanic(cause error) *Signal {
	return &Signal{Kind: KindPanic, Label: "panic", Cause: cause}
}

// Cause unwraps to the innermost error via pkg/errors, matching
// HostFault's wrapping above.
func Cause(err error) error {
	return pkgerrors.Cause(err)
}
