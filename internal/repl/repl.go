// Package repl implements duskvm's interactive read-eval-print loop,
// adapted from the teacher's own repl.Start: read a line, run it
// through the engine, print the result, repeat. duskvm swaps the
// teacher's lexer/parser/compiler/VM pipeline for one Session.Eval
// call — the interpreter here never builds a separate bytecode chunk,
// so there is no "reset with chunk" step to mirror.
package repl

import (
	"bufio"
	"fmt"
	"io"

	"duskvm/internal/engine"
	"duskvm/internal/printer"
)

// Start runs the loop against in/out until EOF or an "exit" line,
// printing a banner the way the teacher's REPL does on entry.
func Start(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "duskvm REPL | type 'exit' to quit")
	scanner := bufio.NewScanner(in)
	sess := engine.New()

	for {
		fmt.Fprint(out, ">> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}
		if line == "" {
			continue
		}

		result, sig, err := sess.Eval(line)
		switch {
		case err != nil:
			fmt.Fprintf(out, "** scan error: %v\n", err)
		case sig != nil:
			fmt.Fprintf(out, "** %s error: %v\n", sig.Kind, sig)
		default:
			fmt.Fprintln(out, "== "+printer.Mold(result))
		}
	}
}
