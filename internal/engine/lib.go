package engine

import (
	"fmt"
	"os"

	"duskvm/internal/action"
	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/econtext"
	"duskvm/internal/level"
	"duskvm/internal/printer"
	"duskvm/internal/rterr"
)

// registerLib installs the small native library every Session starts
// with, mirroring the teacher's registerBuiltins: one map of name to
// native, each wrapping a Go closure as the callable's Dispatcher. A
// from-scratch VM needs arithmetic, comparison and output natives
// before any hand-written program can do anything observable; spec.md
// itself is silent on the library's exact contents, so this set is the
// minimum spec §8.4's scenarios exercise (arithmetic, equality, PRINT/
// PROBE for REPL feedback) rather than a full standard library.
func registerLib(s *Session) {
	two := func(name string, enfix bool, dispatch func(a, b cell.Cell) (cell.Cell, *rterr.Signal)) {
		aSym, bSym := s.Bind("value1"), s.Bind("value2")
		dispatcher := func(_ level.Pusher, l *level.Level) level.Bounce {
			a := *l.Varlist.SlotAt(0)
			b := *l.Varlist.SlotAt(1)
			out, sig := dispatch(a, b)
			if sig != nil {
				return level.Thrown(sig)
			}
			l.WriteOut(out)
			return level.Done()
		}
		v := action.NewAction(name, []action.Param{
			{Sym: aSym, Class: action.ClassNormal},
			{Sym: bSym, Class: action.ClassNormal},
		}, dispatcher)
		v.RootVar().Node2.(*action.Phase).Enfix = enfix
		defineNative(s, name, v)
	}

	one := func(name string, fn func(a cell.Cell) (cell.Cell, *rterr.Signal)) {
		aSym := s.Bind("value")
		dispatcher := func(_ level.Pusher, l *level.Level) level.Bounce {
			a := *l.Varlist.SlotAt(0)
			out, sig := fn(a)
			if sig != nil {
				return level.Thrown(sig)
			}
			l.WriteOut(out)
			return level.Done()
		}
		v := action.NewIntrinsic(name, action.Param{Sym: aSym, Class: action.ClassNormal}, dispatcher)
		defineNative(s, name, v)
	}

	arith := func(op string) func(a, b cell.Cell) (cell.Cell, *rterr.Signal) {
		return func(a, b cell.Cell) (cell.Cell, *rterr.Signal) {
			if a.Heart != cell.HeartInteger || b.Heart != cell.HeartInteger {
				return cell.Cell{}, rterr.NewDefinitional(s.nativeErrCell(op + " expects integers"))
			}
			switch op {
			case "add":
				return cell.Init_Integer(a.I + b.I), nil
			case "subtract":
				return cell.Init_Integer(a.I - b.I), nil
			case "multiply":
				return cell.Init_Integer(a.I * b.I), nil
			case "divide":
				if b.I == 0 {
					return cell.Cell{}, rterr.NewDefinitional(s.nativeErrCell("divide by zero"))
				}
				return cell.Init_Integer(a.I / b.I), nil
			default:
				panic("engine: unreachable arith op " + op)
			}
		}
	}

	two("add", true, arith("add"))
	two("subtract", true, arith("subtract"))
	two("multiply", true, arith("multiply"))
	two("divide", true, arith("divide"))

	two("equal?", true, func(a, b cell.Cell) (cell.Cell, *rterr.Signal) {
		return boolResult(s, cellsEqual(a, b)), nil
	})
	two("greater?", true, func(a, b cell.Cell) (cell.Cell, *rterr.Signal) {
		if a.Heart != cell.HeartInteger || b.Heart != cell.HeartInteger {
			return cell.Cell{}, rterr.NewDefinitional(s.nativeErrCell("greater? expects integers"))
		}
		return boolResult(s, a.I > b.I), nil
	})

	one("negate", func(a cell.Cell) (cell.Cell, *rterr.Signal) {
		if a.Heart != cell.HeartInteger {
			return cell.Cell{}, rterr.NewDefinitional(s.nativeErrCell("negate expects an integer"))
		}
		return cell.Init_Integer(-a.I), nil
	})
	one("not", func(a cell.Cell) (cell.Cell, *rterr.Signal) {
		return boolResult(s, isFalsey(a, s)), nil
	})
	one("try", func(a cell.Cell) (cell.Cell, *rterr.Signal) {
		return rterr.Try(a, s.nullSym), nil
	})
	one("print", func(a cell.Cell) (cell.Cell, *rterr.Signal) {
		fmt.Fprintln(os.Stdout, printer.Form(a))
		return cell.Init_Void(), nil
	})
	one("probe", func(a cell.Cell) (cell.Cell, *rterr.Signal) {
		fmt.Fprintln(os.Stdout, printer.Mold(a))
		return a, nil
	})
}

func defineNative(s *Session, name string, v *econtext.Varlist) {
	*s.Lib.Append(s.Bind(name)) = action.ValueOf(v)
}

func boolResult(s *Session, ok bool) cell.Cell {
	if ok {
		return cell.Init_Okay(s.okaySym)
	}
	return cell.Init_Null(s.nullSym)
}

// isFalsey treats NULL and VOID as the two falsey antiforms (spec
// §4.10's logic model): everything else, including OKAY, is truthy.
func isFalsey(c cell.Cell, s *Session) bool {
	if !c.IsAntiform() {
		return false
	}
	if c.Heart == cell.HeartSpace {
		return true // VOID
	}
	return c.Heart == cell.HeartWord && c.Node1 == s.nullSym
}

func cellsEqual(a, b cell.Cell) bool {
	if a.Heart != b.Heart {
		return false
	}
	switch a.Heart {
	case cell.HeartInteger:
		return a.I == b.I
	case cell.HeartSpace:
		return true
	default:
		return a.Node1 == b.Node1
	}
}

// nativeErrCell builds a minimal ERROR antiform carrying a `message`
// field, the way a Rebol-family ERROR! object carries `id`/`message`
// fields rather than a bare Go error string.
func (s *Session) nativeErrCell(msg string) cell.Cell {
	v := econtext.NewVarlist(cell.HeartWarning, 1)
	*v.Append(s.Bind("message")) = cell.Init_Text(arena.NewStrand(arena.FlavorStrand, msg))
	return cell.Init_Error(v.VarlistStub())
}
