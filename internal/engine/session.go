// Package engine bundles the process-wide collaborators a duskvm
// embedding needs into one handle — arena, symbol table, lib context,
// stepper wiring — the way the teacher's vm.NewVM bundles a VM's
// globals table, stack and call-frame array behind one constructor.
// Functional options configure optional pieces (a tracer, a typecheck
// hook) without a combinatorial explosion of constructors, the same
// pattern several pack repos use for their own client/server setup
// (e.g. a `NewX(required..., opts ...Option)` constructor).
package engine

import (
	"duskvm/internal/action"
	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/collector"
	"duskvm/internal/econtext"
	"duskvm/internal/rterr"
	"duskvm/internal/scan"
	"duskvm/internal/stepper"
	"duskvm/internal/symtab"
	"duskvm/internal/trace"
)

// Session is one interpreter instance: its own arena, symbol table,
// lib (top-level MODULE!-shaped) context, and the Deps bundle the
// stepper needs to wire tweak/action hooks.
type Session struct {
	Arena   *arena.Arena
	Symbols *symtab.Table
	Lib     *econtext.Sea
	Tracer  trace.Tracer

	nullSym cell.StubRef
	okaySym cell.StubRef
	deps    stepper.Deps
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithTracer stores t as the Session's Tracer (e.g. a trace.TextTracer).
// The default is trace.NoOp{}. Eval does not hand the Tracer to the
// trampoline it runs, so no events reach it.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.Tracer = t }
}

// WithTypecheck wires a parameter-typecheck hook into every action
// dispatch (spec §4.9 step 4). The default accepts any value.
func WithTypecheck(fn func(action.Param, cell.Cell) *rterr.Signal) Option {
	return func(s *Session) { s.deps.Typecheck = fn }
}

// New builds a Session with a fresh arena, symbol table and lib
// context, applies opts, then registers the native library (spec
// §4.9's "a handful of built-in actions every session starts with").
func New(opts ...Option) *Session {
	syms := symtab.New()
	s := &Session{
		Arena:   arena.New(),
		Symbols: syms,
		Lib:     econtext.NewSea(),
		Tracer:  trace.NoOp{},
		nullSym: syms.Intern("null"),
		okaySym: syms.Intern("okay"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.deps = stepper.Deps{NullSym: s.nullSym, OkaySym: s.okaySym, Typecheck: s.deps.Typecheck}
	registerLib(s)
	return s
}

// NullSym and OkaySym expose the interned symbols backing the NULL/
// OKAY antiforms, for embedders building their own cells.
func (s *Session) NullSym() cell.StubRef { return s.nullSym }
func (s *Session) OkaySym() cell.StubRef { return s.okaySym }

// Bind interns spelling against the session's symbol table.
func (s *Session) Bind(spelling string) *symtab.Symbol { return s.Symbols.Intern(spelling) }

// Eval scans src as a top-level program and runs it to completion
// against the Lib context, the synchronous entry point both the REPL
// and one-shot `duskvm run` use (spec §6.1 "embedding API").
func (s *Session) Eval(src string) (cell.Cell, *rterr.Signal, error) {
	elems, err := scan.New(src, s.Symbols).ScanProgram()
	if err != nil {
		return cell.Cell{}, nil, err
	}
	arr := arena.NewSource(elems)
	// Give every top-level SET-WORD! a slot in Lib before running, so an
	// assignment to a fresh name has a variable to store into.
	b := collector.NewBinder()
	syms, _ := collector.Collect(b, elems, collector.Flags{})
	b.Teardown()
	for _, sym := range syms {
		if _, ok := s.Lib.Get(sym); !ok {
			s.Lib.Append(sym)
		}
	}
	out, sig := stepper.RunBlock(arr, s.Lib, s.deps)
	return out, sig, nil
}
