// Package arena implements the heap-managed containers ("Stubs") that
// back arrays, strings, symbols, keylists, varlists, sea contexts and
// patches (spec §3.2), plus the guard/freeze discipline the garbage
// collector relies on (spec §4.2).
package arena

import (
	"fmt"

	"github.com/google/uuid"
	"duskvm/internal/cell"
)

// Flavor selects a Stub's dispatch for marking, molding and comparison,
// per spec §9 ("multiple inheritance of behavior"): a tag plus a table
// of behavior, here realized as a Go type switch keyed on this byte
// rather than a literal function-pointer table.
type Flavor uint8

const (
	FlavorSource Flavor = iota // array of cells: BLOCK!, GROUP!, FENCE!
	FlavorSymbol
	FlavorStrand // TEXT!, FILE!, TAG!
	FlavorBinary // BLOB!
	FlavorKeylist
	FlavorVarlist
	FlavorSea
	FlavorPatch
	FlavorPairing
)

func (f Flavor) String() string {
	switch f {
	case FlavorSource:
		return "source"
	case FlavorSymbol:
		return "symbol"
	case FlavorStrand:
		return "strand"
	case FlavorBinary:
		return "binary"
	case FlavorKeylist:
		return "keylist"
	case FlavorVarlist:
		return "varlist"
	case FlavorSea:
		return "sea"
	case FlavorPatch:
		return "patch"
	case FlavorPairing:
		return "pairing"
	default:
		return "unknown"
	}
}

// StubFlags are the per-stub bits from spec §3.2.
type StubFlags uint8

const (
	FlagSharedKeylist StubFlags = 1 << iota
	FlagFixedSize
	FlagFrozen
	FlagNewlineAtTail
	FlagManaged
	FlagGuarded
)

// Stub is a heap-managed container. It satisfies cell.StubRef so that a
// Cell's Node1/Node2 payload slots can reference one without the cell
// package importing arena.
type Stub struct {
	ID     uuid.UUID
	Flavor Flavor
	Flags  StubFlags

	// link/misc/info: generic cross-references, interpretation depends
	// on Flavor (e.g. a keylist stub's Link points at the varlist that
	// currently owns it as non-shared; a patch's Link chains to the
	// next patch off the same symbol).
	Link cell.StubRef
	Misc cell.StubRef
	Info cell.StubRef

	// Dynamic content. Exactly one of these is populated, selected by
	// Flavor.
	Cells []cell.Cell    // SOURCE, VARLIST, PAIRING
	Bytes []byte         // SYMBOL, STRAND, BINARY
	Refs  []cell.StubRef // KEYLIST: ordered symbol references

	// Spelling is a decoded convenience for SYMBOL/STRAND stubs; Bytes
	// remains the canonical UTF-8/binary payload.
	Spelling string
}

func (s *Stub) StubFlavor() string { return s.Flavor.String() }

func (s *Stub) IsManaged() bool { return s.Flags&FlagManaged != 0 }
func (s *Stub) IsGuarded() bool { return s.Flags&FlagGuarded != 0 }
func (s *Stub) IsFrozen() bool  { return s.Flags&FlagFrozen != 0 }

// Freeze marks a stub immutable. Frozen stubs panic on mutation attempts
// (spec §4.2); callers that want to mutate check IsFrozen first or call
// an operation that does so (AssertMutable).
func (s *Stub) Freeze() { s.Flags |= FlagFrozen }

// AssertMutable panics if the stub is frozen, mirroring the
// "mutation attempts on a frozen stub panic" rule.
func (s *Stub) AssertMutable() {
	if s.IsFrozen() {
		panic(fmt.Sprintf("arena: mutation of frozen %s stub %s", s.Flavor, s.ID))
	}
}

// NewSource allocates an array stub (BLOCK!/GROUP!/FENCE! backing
// store) over the given cells, taking ownership of the slice.
func NewSource(cells []cell.Cell) *Stub {
	return &Stub{ID: uuid.New(), Flavor: FlavorSource, Cells: cells}
}

func NewStrand(flavor Flavor, text string) *Stub {
	return &Stub{ID: uuid.New(), Flavor: flavor, Bytes: []byte(text), Spelling: text}
}

func NewSymbol(spelling string) *Stub {
	return &Stub{ID: uuid.New(), Flavor: FlavorSymbol, Bytes: []byte(spelling), Spelling: spelling}
}

func NewBinary(b []byte) *Stub {
	return &Stub{ID: uuid.New(), Flavor: FlavorBinary, Bytes: b}
}

func NewPairing(a, b cell.Cell) *Stub {
	return &Stub{ID: uuid.New(), Flavor: FlavorPairing, Cells: []cell.Cell{a, b}}
}
