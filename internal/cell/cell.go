package cell

import "fmt"

// LiftByte is the three-state quoting/quasi tag from spec §3.1.
type LiftByte uint8

const (
	LiftNoquote LiftByte = iota
	LiftQuasi
	LiftQuoted
)

func (l LiftByte) String() string {
	switch l {
	case LiftNoquote:
		return "noquote"
	case LiftQuasi:
		return "quasi"
	case LiftQuoted:
		return "quoted"
	default:
		return "?"
	}
}

// StubRef is implemented by arena.Stub so that cell (a leaf package) can
// hold container payloads without importing the arena package. Any stub
// flavor satisfies it; cell never inspects it beyond identity.
type StubRef interface {
	StubFlavor() string
}

// Cell is the uniform tagged value manipulated throughout the evaluator.
// It is a plain Go value type: copying a Cell by assignment is the
// Copy operation of spec §4.1 (binding and payload are metadata, not
// identity, so a shallow struct copy is correct).
type Cell struct {
	Heart Heart

	Lift       LiftByte
	Quotes     uint8    // valid when Lift == LiftQuoted, always >= 1
	QuotedBase LiftByte // LiftNoquote or LiftQuasi: the form under the quotes
	Antiform   bool     // valid when Lift == LiftNoquote

	Sigil Sigil
	Flags Flags

	// Binding is an opaque reference to the context a WORD!/sequence
	// resolves in. nil means unbound. Concrete type is econtext.Context.
	Binding any

	// Payload. Interpretation depends on Heart.
	Node1 StubRef // primary container (array, symbol, keylist, varlist, sea, patch, string, blob)
	Node2 StubRef // secondary container (e.g. a frame's coupling, a path's cached action)
	I     int64   // integer value / cached index / extra word
}

// Erased returns the distinguished "uninitialized" cell. Reading it is a
// programming error that callers are expected to assert against.
func Erased() Cell {
	return Cell{Flags: FlagUnreadable}
}

func (c Cell) IsErased() bool { return c.Flags.Has(FlagUnreadable) }

// Erase resets the receiver in place to the uninitialized state.
func (c *Cell) Erase() { *c = Erased() }

// Move copies src into the returned Cell and erases src, per §4.1.
func Move(src *Cell) Cell {
	out := *src
	src.Erase()
	return out
}

func (c Cell) KindOf() Heart     { return c.Heart }
func (c Cell) LiftByteOf() LiftByte { return c.Lift }
func (c Cell) SigilOf() Sigil    { return c.Sigil }

// IsAntiform reports whether this cell is currently in the antiform
// state: NOQUOTE, antiform-eligible Heart, antiform marker set.
func (c Cell) IsAntiform() bool {
	return c.Lift == LiftNoquote && c.Antiform && c.Heart.AntiformEligible()
}

// IsQuasi reports the quasiform state (`~x~`), which is stable/storable.
func (c Cell) IsQuasi() bool { return c.Lift == LiftQuasi }

// unstableHearts lists the antiform hearts that can never be copied into
// a variable slot, per spec §3.1. NULL, OKAY (both antiform WORD),
// ACTION (antiform FRAME), SPLICE (antiform GROUP) are stable antiforms
// and are not in this set.
var unstableHearts = map[Heart]bool{
	HeartBlock:   true, // PACK
	HeartWarning: true, // ERROR
	HeartComma:   true, // GHOST / anti-comma barrier
}

// IsStable reports whether this cell may be copied into a variable slot.
// Ordinary (non-antiform) cells are always stable. Among antiforms, PACK,
// ERROR and GHOST are unstable; NULL, OKAY, ACTION and SPLICE are stable.
// VOID (antiform SPACE) is treated as unstable: it exists to mark an
// absent result, never to be assigned.
func (c Cell) IsStable() bool {
	if !c.IsAntiform() {
		return true
	}
	if c.Heart == HeartSpace {
		return false // VOID
	}
	return !unstableHearts[c.Heart]
}

// Quotify adds n quote levels. Quotifying an antiform first unlifts it to
// quasi (spec §4.1 contract), then layers quotes on top of that base.
func (c Cell) Quotify(n uint8) Cell {
	if n == 0 {
		return c
	}
	base := c.Lift
	antiform := c.Antiform
	if c.Lift == LiftNoquote && antiform {
		base = LiftQuasi
	}
	switch c.Lift {
	case LiftQuoted:
		c.Quotes += n
	default:
		c.QuotedBase = base
		c.Quotes = n
		c.Lift = LiftQuoted
	}
	c.Antiform = false
	return c
}

// Unquotify removes n quote levels. It panics if the cell does not carry
// at least n quotes, mirroring the evaluator's internal assertion rather
// than returning a recoverable error: callers that accept arbitrary
// quote depth should check Quotes first.
func (c Cell) Unquotify(n uint8) Cell {
	if n == 0 {
		return c
	}
	if c.Lift != LiftQuoted || c.Quotes < n {
		panic(fmt.Sprintf("cell: unquotify(%d) on cell with %d quotes", n, c.Quotes))
	}
	c.Quotes -= n
	if c.Quotes == 0 {
		c.Lift = c.QuotedBase
		c.QuotedBase = 0
	}
	return c
}

// Quasify converts a stable NOQUOTE cell (or unlifts an antiform) into
// its quasiform.
func (c Cell) Quasify() Cell {
	switch c.Lift {
	case LiftNoquote:
		c.Lift = LiftQuasi
		c.Antiform = false
	case LiftQuoted:
		panic("cell: quasify of a quoted cell is undefined")
	}
	return c
}

// Unquasify is the partial inverse of Quasify: a quasiform becomes an
// ordinary NOQUOTE cell (losing any antiform interpretation).
func (c Cell) Unquasify() Cell {
	if c.Lift != LiftQuasi {
		panic("cell: unquasify of a non-quasi cell")
	}
	c.Lift = LiftNoquote
	c.Antiform = false
	return c
}

// Antiformize requires c to be a plain NOQUOTE cell of an antiform-
// eligible Heart, and marks it antiform.
func (c Cell) Antiformize() Cell {
	if c.Lift != LiftNoquote {
		panic("cell: antiformize requires a NOQUOTE cell")
	}
	if !c.Heart.AntiformEligible() {
		panic(fmt.Sprintf("cell: %s is not antiform-eligible", c.Heart))
	}
	c.Antiform = true
	return c
}

// Deantiformize strips the antiform marker, yielding the plain in-band
// value of the same Heart.
func (c Cell) Deantiformize() Cell {
	c.Antiform = false
	return c
}

// Lift1 raises the lift byte per spec §3.1: NOQUOTE -> QUOTED(1),
// antiform -> QUASI, QUOTED(n) -> QUOTED(n+1), QUASI -> QUOTED(1) over
// a quasi base.
func (c Cell) Lift1() Cell {
	if c.Lift == LiftNoquote && c.Antiform {
		return c.Quasify()
	}
	return c.Quotify(1)
}

// Unlift is Lift1's partial inverse.
func (c Cell) Unlift() Cell {
	switch c.Lift {
	case LiftQuasi:
		return c.Unquasify().Antiformize()
	case LiftQuoted:
		return c.Unquotify(1)
	default:
		return c
	}
}

func (c Cell) String() string {
	name := c.Heart.String()
	switch c.Lift {
	case LiftQuasi:
		return "~" + name + "~"
	case LiftQuoted:
		s := name
		for i := uint8(0); i < c.Quotes; i++ {
			s = "'" + s
		}
		return s
	default:
		if c.IsAntiform() {
			return "~" + name + "~ (antiform)"
		}
		return name
	}
}
