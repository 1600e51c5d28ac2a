// Package symtab implements the global symbol table (spec §3.4): a
// UTF-8-spelling -> canonical Symbol stub map, a case-insensitive
// synonym ring, and the chain-head bookkeeping the sea/patch mechanism
// (internal/econtext) hangs variables off of.
package symtab

import (
	"strings"
	"sync"

	"duskvm/internal/arena"
)

// Symbol is one interned spelling. The *econtext.Patch it links to is
// owned by econtext; Symbol.ChainHead is typed as any to avoid a
// symtab -> econtext import cycle (econtext already imports symtab to
// resolve names).
type Symbol struct {
	Stub *arena.Stub

	mu        sync.Mutex
	synonyms  []*Symbol // case-insensitive ring, circularly linked by convention
	ChainHead any       // *econtext.Patch head of the sea/patch circular chain, or nil

	// LowIndex is the index PreloadLow assigned to a "low" symbol; -1
	// means "not a low symbol". Nothing else reads it: a low symbol gets
	// no dedicated library-context patch or fast path, and its sea
	// patches are allocated like any other symbol's.
	LowIndex int

	// bound and bindIndex are the transient binder hook of spec §4.11:
	// a collector stamps an index here for O(1) duplicate detection
	// while walking a source list, then clears it in teardown. Mutation
	// is only ever done by the single active collector (spec §5 forbids
	// overlapping collectors), but the mutex already guarding the
	// synonym ring covers it too.
	bound     bool
	bindIndex int
}

// TryBind stamps index on the symbol's binder hook if it is not
// already bound, reporting success. A false return means this symbol
// is a duplicate within the collector's current walk.
func (s *Symbol) TryBind(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound {
		return false
	}
	s.bound = true
	s.bindIndex = index
	return true
}

// BindIndex returns the index last stamped by TryBind, and whether the
// symbol currently carries a binder hook at all.
func (s *Symbol) BindIndex() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindIndex, s.bound
}

// Unbind clears the binder hook, the stump-teardown operation of spec
// §4.11 step 4.
func (s *Symbol) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = false
	s.bindIndex = 0
}

func (s *Symbol) Spelling() string { return s.Stub.Spelling }

// StubFlavor lets a Symbol itself stand in a cell.StubRef payload slot
// (WORD!-family cells reference the symbol they spell directly).
func (s *Symbol) StubFlavor() string { return "symbol" }

// Table is the process-wide interning table. One Table is created per
// interpreter Session (internal/engine); spec §5 notes the table is
// insert-only during normal operation and therefore safe under the
// single-threaded cooperative scheduling assumption, but a mutex is
// kept for the same "host may inspect from another goroutine" reason
// as internal/arena.
type Table struct {
	mu   sync.Mutex
	byCI map[string]*Symbol // canonicalized (case-insensitive) lookup
}

func New() *Table {
	return &Table{byCI: make(map[string]*Symbol)}
}

func canon(spelling string) string { return strings.ToLower(spelling) }

// Intern returns the canonical Symbol stub for spelling, allocating and
// registering a new one (plus wiring it into the synonym ring of any
// case-variant already known) on first sight.
func (t *Table) Intern(spelling string) *Symbol {
	key := canon(spelling)
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.byCI[key]; ok {
		return existing.findOrAddSynonym(spelling)
	}

	sym := &Symbol{Stub: arena.NewSymbol(spelling), LowIndex: -1}
	sym.synonyms = []*Symbol{sym}
	t.byCI[key] = sym
	return sym
}

// findOrAddSynonym returns the exact-spelling synonym of root, adding a
// new ring member if this exact byte-for-byte spelling has not been
// seen before (distinct casing of the same canonical word).
func (s *Symbol) findOrAddSynonym(spelling string) *Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, syn := range s.synonyms {
		if syn.Stub.Spelling == spelling {
			return syn
		}
	}
	syn := &Symbol{Stub: arena.NewSymbol(spelling), LowIndex: -1}
	s.synonyms = append(s.synonyms, syn)
	for _, m := range s.synonyms {
		if m != s {
			m.mu.Lock()
			m.synonyms = s.synonyms
			m.mu.Unlock()
		}
	}
	return syn
}

// Synonyms returns every exact spelling interned under the same
// case-insensitive canonical form as sym.
func (s *Symbol) Synonyms() []*Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Symbol, len(s.synonyms))
	copy(out, s.synonyms)
	return out
}

// PreloadLow interns the fixed set of "low" symbols used by boot-time
// code (e.g. "null", "okay", "self", "true", "false") and assigns them
// dedicated indices, recorded in LowIndex.
func (t *Table) PreloadLow(names []string) []*Symbol {
	out := make([]*Symbol, len(names))
	for i, n := range names {
		sym := t.Intern(n)
		sym.LowIndex = i
		out[i] = sym
	}
	return out
}
