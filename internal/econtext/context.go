// Package econtext implements the dual storage shapes a Context can
// take (spec §3.3/§4.4): a Varlist (indexed keylist+varlist) for
// FRAME!/OBJECT!/ERROR!/PORT!, or a Sea (symbol-hung patch chain) for
// MODULE!.
package econtext

import (
	"fmt"

	"github.com/google/uuid"

	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/symtab"
)

// Context is satisfied by both *Varlist and *Sea. Word binding
// (internal/symtab) and variable access (internal/tweak) both work
// purely against this interface.
type Context interface {
	ArchetypeHeart() cell.Heart
	RootVar() *cell.Cell
	Get(sym *symtab.Symbol) (*cell.Cell, bool)
	InheritFrom() Context
	SetInheritFrom(Context)
	StubFlavor() string // participates as a cell.StubRef (the rootvar's Node1)
}

// ghostUnset is the "ghost for unset" placeholder cell spec §4.4 step 2
// calls for: a newly-appended slot reads as the vanishing GHOST
// antiform until explicitly set, so an accidental read is visibly
// distinguishable from a real value rather than silently zero.
func ghostUnset() cell.Cell {
	return cell.Init_Ghost()
}

// IsUnsetSlot reports whether c is still the ghost-unset placeholder.
func IsUnsetSlot(c cell.Cell) bool {
	return c.Heart == cell.HeartComma && c.IsAntiform()
}

// --- Varlist --------------------------------------------------------

// Varlist is the indexed-storage Context: a keylist (ordered symbols)
// paired with a varlist (cells at matching indices, rootvar at index
// 0). Lookup is O(1) by cached index, O(N) by symbol scan.
type Varlist struct {
	keylist   *arena.Stub // FlavorKeylist
	varlist   *arena.Stub // FlavorVarlist
	archetype cell.Heart
	inherit   Context
}

// NewVarlist allocates a context of the given archetype heart with
// keylist/varlist capacity for `capacity` keys (spec §4.4 "Allocate
// varlist").
func NewVarlist(heart cell.Heart, capacity int) *Varlist {
	vl := &arena.Stub{ID: uuid.New(), Flavor: arena.FlavorVarlist, Cells: make([]cell.Cell, 1, capacity+1)}
	kl := &arena.Stub{ID: uuid.New(), Flavor: arena.FlavorKeylist, Refs: make([]cell.StubRef, 0, capacity)}
	v := &Varlist{keylist: kl, varlist: vl, archetype: heart}
	vl.Cells[0] = cell.Cell{Heart: heart, Node1: v}
	vl.Link = kl // varlist stub -> its keylist, so WrapVarlist can recover the pair
	return v
}

// WrapVarlist reconstructs a *Varlist view over a raw varlist stub
// (e.g. one read back out of a FRAME!/ACTION cell's Node1), using the
// keylist linkage NewVarlist stores in the stub's Link field. Callers
// that only have a cell.StubRef from a cell payload, not the original
// Go Varlist value, use this to call back into Varlist's methods;
// internal/action does this when a dispatched ACTION cell is all it
// was handed. The rebuilt Varlist has no InheritFrom chain — that
// bookkeeping lives only in the original Go value, never in the stub
// itself — which is fine for call frames, which never need one.
func WrapVarlist(stub *arena.Stub) *Varlist {
	if stub == nil || stub.Flavor != arena.FlavorVarlist {
		return nil
	}
	kl, _ := stub.Link.(*arena.Stub)
	archetype := cell.HeartObject
	if len(stub.Cells) > 0 {
		archetype = stub.Cells[0].Heart
	}
	return &Varlist{keylist: kl, varlist: stub, archetype: archetype}
}

func (v *Varlist) ArchetypeHeart() cell.Heart    { return v.archetype }
func (v *Varlist) RootVar() *cell.Cell           { return &v.varlist.Cells[0] }
func (v *Varlist) InheritFrom() Context          { return v.inherit }
func (v *Varlist) SetInheritFrom(p Context)      { v.inherit = p }
func (v *Varlist) StubFlavor() string            { return v.varlist.StubFlavor() }
func (v *Varlist) KeyCount() int                 { return len(v.keylist.Refs) }
func (v *Varlist) VarCount() int                 { return len(v.varlist.Cells) }
func (v *Varlist) KeylistStub() *arena.Stub      { return v.keylist }
func (v *Varlist) VarlistStub() *arena.Stub      { return v.varlist }

// KeyAt returns the symbol at the given zero-based key index.
func (v *Varlist) KeyAt(i int) *symtab.Symbol {
	return v.keylist.Refs[i].(*symtab.Symbol)
}

// SlotAt returns the variable slot at the given zero-based key index
// (i.e. varlist index i+1, past the rootvar).
func (v *Varlist) SlotAt(i int) *cell.Cell {
	return &v.varlist.Cells[i+1]
}

func (v *Varlist) indexOf(sym *symtab.Symbol) int {
	for i, r := range v.keylist.Refs {
		if r.(*symtab.Symbol) == sym {
			return i
		}
	}
	return -1
}

// Get implements lookup, falling through the inherit-bind chain on
// miss (spec §4.3).
func (v *Varlist) Get(sym *symtab.Symbol) (*cell.Cell, bool) {
	if idx := v.indexOf(sym); idx >= 0 {
		return v.SlotAt(idx), true
	}
	if v.inherit != nil {
		return v.inherit.Get(sym)
	}
	return nil, false
}

// ShareKeylistWith marks v's keylist as shared with another varlist
// (e.g. an object and a derived object with no new keys yet), per
// spec §3.3 "keylists are immutable and shareable".
func (v *Varlist) ShareKeylistWith(other *Varlist) {
	v.keylist.Flags |= arena.FlagSharedKeylist
	other.keylist = v.keylist
	other.keylist.Flags |= arena.FlagSharedKeylist
	other.varlist.Link = v.keylist
}

// Append adds sym as a new key, extending both keylist and varlist
// (spec §4.4 "Appending a key to a varlist"). If the keylist is
// currently shared, it is cloned first so other varlists referencing
// the pre-clone copy are unaffected (spec §8.3 "shared keylist
// expand").
func (v *Varlist) Append(sym *symtab.Symbol) *cell.Cell {
	if v.keylist.Flags&arena.FlagSharedKeylist != 0 {
		cloned := make([]cell.StubRef, len(v.keylist.Refs))
		copy(cloned, v.keylist.Refs)
		v.keylist = &arena.Stub{ID: uuid.New(), Flavor: arena.FlavorKeylist, Refs: cloned}
		v.varlist.Link = v.keylist
	}
	v.keylist.Refs = append(v.keylist.Refs, sym)
	v.varlist.Cells = append(v.varlist.Cells, ghostUnset())
	return &v.varlist.Cells[len(v.varlist.Cells)-1]
}

// AppendUnsetSlot grows the varlist's own cells by one ghost-unset slot
// without touching the keylist. internal/action uses this to build a
// call frame over a paramlist it has already keylist-shared via
// ShareKeylistWith: the keys are fixed by the shared paramlist, only
// the argument storage is new (spec §4.9 "allocate a new varlist sized
// to the parameter count").
func (v *Varlist) AppendUnsetSlot() *cell.Cell {
	v.varlist.Cells = append(v.varlist.Cells, ghostUnset())
	return &v.varlist.Cells[len(v.varlist.Cells)-1]
}

// CheckInvariant asserts keylist_length+1 == varlist_length (spec §8.1).
func (v *Varlist) CheckInvariant() error {
	if v.KeyCount()+1 != v.VarCount() {
		return fmt.Errorf("econtext: varlist invariant broken: keys=%d vars=%d", v.KeyCount(), v.VarCount())
	}
	return nil
}

// --- Sea -------------------------------------------------------------

// Patch holds one variable of a sea-style context, hung off the
// symbol it names (spec §3.2/§4.4). Patches for the same symbol form a
// circular singly linked list; Next eventually cycles back to the
// first patch inserted for that symbol.
type Patch struct {
	Sym   *symtab.Symbol
	Sea   *Sea
	Value cell.Cell
	Next  *Patch
}

// Sea is the identity-only context used for MODULE!: variables never
// live in the context itself, only on each symbol's patch chain.
type Sea struct {
	id      uuid.UUID
	inherit Context
	rootvar cell.Cell
}

func NewSea() *Sea {
	s := &Sea{id: uuid.New()}
	s.rootvar = cell.Cell{Heart: cell.HeartObject, Node1: s}
	return s
}

func (s *Sea) ArchetypeHeart() cell.Heart { return cell.HeartObject }
func (s *Sea) InheritFrom() Context       { return s.inherit }
func (s *Sea) SetInheritFrom(p Context)   { s.inherit = p }
func (s *Sea) StubFlavor() string         { return "sea" }
func (s *Sea) RootVar() *cell.Cell        { return &s.rootvar }

func (s *Sea) chainHeadOf(sym *symtab.Symbol) *Patch {
	p, _ := sym.ChainHead.(*Patch)
	return p
}

// Get walks the circular patch chain off sym looking for the patch
// tagged with this sea, falling through InheritFrom on miss.
func (s *Sea) Get(sym *symtab.Symbol) (*cell.Cell, bool) {
	head := s.chainHeadOf(sym)
	if head != nil {
		for p := head; ; {
			if p.Sea == s {
				return &p.Value, true
			}
			p = p.Next
			if p == head {
				break
			}
		}
	}
	if s.inherit != nil {
		return s.inherit.Get(sym)
	}
	return nil, false
}

// Append implements spec §4.4 "Appending a key to a sea":
//  1. locate or allocate a patch,
//  2. splice it into the circular chain hung off the symbol,
//  3. tag it with this sea and erase its cell,
//  4. assert (in debug) no other patch in the chain is already tagged
//     with this sea.
func (s *Sea) Append(sym *symtab.Symbol) *cell.Cell {
	head := s.chainHeadOf(sym)
	if head != nil {
		for p := head; ; {
			if p.Sea == s {
				panic(fmt.Sprintf("econtext: duplicate patch for sea %s on symbol %q", s.id, sym.Spelling()))
			}
			p = p.Next
			if p == head {
				break
			}
		}
	}

	patch := &Patch{Sym: sym, Sea: s, Value: cell.Erased()}
	if head == nil {
		patch.Next = patch
		sym.ChainHead = patch
	} else {
		patch.Next = head.Next
		head.Next = patch
	}
	return &patch.Value
}
