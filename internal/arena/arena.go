package arena

import "sync"

// Arena is the process-wide pool Stubs are allocated from. It tracks
// manually-allocated stubs until they are promoted to managed, and
// tracks a guard set of stubs temporarily pinned against collection
// during a critical section (spec §4.2 "guarded stubs").
//
// There is exactly one Arena per interpreter instance; the single-
// threaded cooperative scheduling model (spec §5) means its internal
// maps need no locking from the trampoline's own goroutine, but a
// mutex is kept so an embedding host may safely inspect live counts
// from another goroutine (e.g. a metrics poller) without racing.
type Arena struct {
	mu      sync.Mutex
	manual  map[*Stub]struct{}
	guarded map[*Stub]int // refcounted: nested guard/unguard sections
}

func New() *Arena {
	return &Arena{
		manual:  make(map[*Stub]struct{}),
		guarded: make(map[*Stub]int),
	}
}

// Manage registers a manually-allocated stub as manual (un-managed)
// until Promote is called. Fresh stubs are manual by convention: a
// builder may want to mutate before it becomes GC-eligible.
func (a *Arena) Manage(s *Stub) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.manual[s] = struct{}{}
}

// Promote flips a manual stub to managed, handing ownership to the GC.
func (a *Arena) Promote(s *Stub) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.manual, s)
	s.Flags |= FlagManaged
}

// Guard pins a stub against collection for the duration of a critical
// section. Guards nest: the stub stays pinned until Unguard has been
// called once per Guard call.
func (a *Arena) Guard(s *Stub) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.guarded[s]++
	s.Flags |= FlagGuarded
}

func (a *Arena) Unguard(s *Stub) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := a.guarded[s]
	if !ok || n <= 0 {
		panic("arena: unguard without matching guard")
	}
	n--
	if n == 0 {
		delete(a.guarded, s)
		s.Flags &^= FlagGuarded
	} else {
		a.guarded[s] = n
	}
}

// RootProvider is implemented by anything that can enumerate the stubs
// it keeps directly reachable (the data stack, a Level's cells, the
// symbol table). Sweep/Mark themselves are owned by the external
// collector (spec §6.1); Arena only exposes the guard bookkeeping and
// the manual-allocation ledger the collector consults as extra roots.
type RootProvider interface {
	Roots() []*Stub
}

// ManualRoots returns every manually-allocated (not-yet-managed) stub;
// these must always be treated as live by an external collector's mark
// phase, since nothing traces them yet.
func (a *Arena) ManualRoots() []*Stub {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Stub, 0, len(a.manual))
	for s := range a.manual {
		out = append(out, s)
	}
	return out
}

// GuardedRoots returns every currently-guarded stub.
func (a *Arena) GuardedRoots() []*Stub {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Stub, 0, len(a.guarded))
	for s := range a.guarded {
		out = append(out, s)
	}
	return out
}
