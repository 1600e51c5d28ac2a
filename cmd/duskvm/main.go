// Command duskvm is the CLI entry point, adapted from the teacher's
// cmd/sentra/main.go: a `run <file>` subcommand and a `repl` subcommand,
// trimmed to the two operations an evaluation-engine spec actually
// calls for (spec §6.1's embedding API has no build/test/lint/package-
// manager surface — those are sentra-specific tooling this repo has no
// analog for, see DESIGN.md).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"duskvm/internal/engine"
	"duskvm/internal/printer"
	"duskvm/internal/repl"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		if isatty.IsTerminal(os.Stdin.Fd()) {
			repl.Start(os.Stdin, os.Stdout)
			return
		}
		runSource(os.Stdin)
		return
	}

	switch args[0] {
	case "repl":
		repl.Start(os.Stdin, os.Stdout)
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: duskvm run <file>")
			os.Exit(1)
		}
		runFile(args[1])
	case "--version", "-v", "version":
		fmt.Println("duskvm", version)
	default:
		runFile(args[0])
	}
}

func runFile(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "duskvm: could not read %s: %v\n", path, err)
		os.Exit(1)
	}
	evalAndReport(string(source))
}

func runSource(r *os.File) {
	source, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "duskvm: could not read stdin: %v\n", err)
		os.Exit(1)
	}
	evalAndReport(string(source))
}

func evalAndReport(source string) {
	sess := engine.New()
	result, sig, err := sess.Eval(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "duskvm: scan error: %v\n", err)
		os.Exit(1)
	}
	if sig != nil {
		fmt.Fprintf(os.Stderr, "duskvm: %s error: %v\n", sig.Kind, sig)
		os.Exit(1)
	}
	fmt.Println(printer.Mold(result))
}
