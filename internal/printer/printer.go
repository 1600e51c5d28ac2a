// Package printer renders cells back to readable text (spec §6.1's
// "render a cell for REPL/debug output"), the duskvm counterpart to
// the teacher's vm.PrintValue: a type switch over a value's kind that
// either writes its literal content or falls back to a bracketed
// placeholder for anything with no simple text form.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"duskvm/internal/action"
	"duskvm/internal/arena"
	"duskvm/internal/cell"
	"duskvm/internal/symtab"
)

// Mold renders c the way source would read it back (quotes kept,
// strings re-quoted, blocks bracketed) — the form the REPL echoes a
// result as.
func Mold(c cell.Cell) string {
	var b strings.Builder
	mold(&b, c)
	return b.String()
}

// Form renders c's content only, the way PRINT would: strings
// unquoted, words bare, no lift decoration. Matches the teacher's
// PrintValue stripping its Go-level type wrapper before printing.
func Form(c cell.Cell) string {
	if c.Heart == cell.HeartText {
		if strand, ok := c.Node1.(*arena.Stub); ok {
			return strand.Spelling
		}
		return ""
	}
	return Mold(c)
}

func mold(b *strings.Builder, c cell.Cell) {
	if c.IsQuasi() {
		b.WriteByte('~')
		moldPlain(b, c)
		b.WriteByte('~')
		return
	}
	if c.Lift == cell.LiftQuoted {
		for i := uint8(0); i < c.Quotes; i++ {
			b.WriteByte('\'')
		}
		moldPlain(b, c)
		return
	}
	if c.IsAntiform() {
		b.WriteString(antiformMold(c))
		return
	}
	moldPlain(b, c)
}

// antiformMold covers the small set of antiforms the REPL is likely to
// echo directly: NULL/OKAY read back as their bare word, VOID/GHOST as
// their reserved tokens, everything else falls back to a tilde-wrapped
// heart name (mirroring Cell.String's debug rendering).
func antiformMold(c cell.Cell) string {
	switch c.Heart {
	case cell.HeartSpace:
		return "~void~"
	case cell.HeartComma:
		return "~ghost~"
	case cell.HeartWord:
		if sym, ok := c.Node1.(*symtab.Symbol); ok {
			return sym.Spelling()
		}
	}
	return "~" + c.Heart.String() + "~"
}

func moldPlain(b *strings.Builder, c cell.Cell) {
	switch c.Heart {
	case cell.HeartSpace:
		b.WriteByte('_')
	case cell.HeartInteger:
		b.WriteString(strconv.FormatInt(c.I, 10))
	case cell.HeartWord:
		writeSigil(b, c.Sigil)
		b.WriteString(symSpelling(c))
	case cell.HeartSetWord:
		b.WriteString(symSpelling(c))
		b.WriteByte(':')
	case cell.HeartGetWord:
		b.WriteByte(':')
		b.WriteString(symSpelling(c))
	case cell.HeartMetaWord:
		b.WriteByte('^')
		b.WriteString(symSpelling(c))
	case cell.HeartTheWord:
		b.WriteByte('@')
		b.WriteString(symSpelling(c))
	case cell.HeartText:
		b.WriteByte('"')
		b.WriteString(strandText(c))
		b.WriteByte('"')
	case cell.HeartBlock:
		moldArray(b, c, '[', ']')
	case cell.HeartGroup:
		moldArray(b, c, '(', ')')
	case cell.HeartTuple:
		moldSequence(b, c, '.')
	case cell.HeartPath:
		moldSequence(b, c, '/')
	case cell.HeartChain:
		moldChain(b, c)
	case cell.HeartFrame:
		fmt.Fprintf(b, "make frame! [%s]", phaseLabel(c))
	case cell.HeartWarning:
		b.WriteString("make warning! [...]")
	case cell.HeartComma:
		b.WriteByte(',')
	default:
		b.WriteString(c.Heart.String())
	}
}

func writeSigil(b *strings.Builder, s cell.Sigil) {
	switch s {
	case cell.SigilAt:
		b.WriteByte('@')
	case cell.SigilCaret:
		b.WriteByte('^')
	case cell.SigilDollar:
		b.WriteByte('$')
	case cell.SigilAmp:
		b.WriteByte('&')
	}
}

func symSpelling(c cell.Cell) string {
	sym, ok := c.Node1.(*symtab.Symbol)
	if !ok {
		return "?"
	}
	return sym.Spelling()
}

func strandText(c cell.Cell) string {
	strand, ok := c.Node1.(*arena.Stub)
	if !ok {
		return ""
	}
	return strand.Spelling
}

func phaseLabel(c cell.Cell) string {
	phase := action.PhaseOf(c)
	if phase == nil {
		return ""
	}
	return phase.Label
}

func moldArray(b *strings.Builder, c cell.Cell, open, close byte) {
	stub, ok := c.Node1.(*arena.Stub)
	b.WriteByte(open)
	if ok {
		for i, elem := range stub.Cells {
			if i > 0 {
				b.WriteByte(' ')
			}
			mold(b, elem)
		}
	}
	b.WriteByte(close)
}

func moldSequence(b *strings.Builder, c cell.Cell, sep byte) {
	stub, ok := c.Node1.(*arena.Stub)
	if !ok {
		return
	}
	for i, elem := range stub.Cells {
		if i > 0 {
			b.WriteByte(sep)
		}
		mold(b, elem)
	}
}

// moldChain renders the [space!, X]/[X, space!] two-element convention
// stepper.dispatchChain consumes, as the `:X`/`X:` surface form it was
// scanned from.
func moldChain(b *strings.Builder, c cell.Cell) {
	stub, ok := c.Node1.(*arena.Stub)
	if !ok || len(stub.Cells) != 2 {
		b.WriteString("chain!")
		return
	}
	if stub.Cells[0].Heart == cell.HeartSpace {
		b.WriteByte(':')
		mold(b, stub.Cells[1])
		return
	}
	mold(b, stub.Cells[0])
	b.WriteByte(':')
}
