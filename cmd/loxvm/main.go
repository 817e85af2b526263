// Command loxvm runs the bytecode Lox pipeline: compile straight from
// source tokens to a Chunk, then execute it on the stack VM. It implements
// the subset of Lox the compiler accepts (no functions, classes, or
// closures; the tree-walk lox command covers the full language).
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/kristofer/lox/pkg/bytecode"
	"github.com/kristofer/lox/pkg/compiler"
	"github.com/kristofer/lox/pkg/vm"
)

const (
	exitOK       = 0
	exitStatic   = 65
	exitRuntime  = 70
	exitUsageErr = 1
)

var trace bool

func main() {
	args := os.Args[1:]
	disassemble := false
	for len(args) > 0 && (args[0] == "-disassemble" || args[0] == "-trace") {
		if args[0] == "-disassemble" {
			disassemble = true
		} else {
			trace = true
		}
		args = args[1:]
	}

	switch len(args) {
	case 0:
		runREPL()
	case 1:
		os.Exit(runFile(args[0], disassemble))
	default:
		fmt.Fprintln(os.Stderr, "Usage: loxvm [-disassemble] [-trace] [script]")
		os.Exit(exitUsageErr)
	}
}

func runFile(path string, disassemble bool) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loxvm: %v\n", err)
		return exitUsageErr
	}
	chunk, errs := compile(string(src))
	if errs != nil {
		reportStatic(errs)
		return exitStatic
	}
	if disassemble {
		fmt.Fprintln(os.Stderr, chunk.Disassemble(path))
	}
	machine := vm.NewStdout()
	if trace {
		machine.EnableTracing(os.Stderr)
	}
	if err := machine.Interpret(chunk); err != nil {
		reportRuntime(err)
		return exitRuntime
	}
	return exitOK
}

func compile(src string) (*bytecode.Chunk, []error) {
	c := compiler.New(src)
	chunk, err := c.Compile()
	if err != nil {
		errs := c.Errors()
		out := make([]error, len(errs))
		for i, e := range errs {
			out[i] = e
		}
		return nil, out
	}
	return chunk, nil
}

func reportStatic(errs []error) {
	red := color.New(color.FgRed)
	for _, e := range errs {
		red.Fprintln(os.Stderr, e)
	}
}

func reportRuntime(err error) {
	color.New(color.FgRed).Fprintln(os.Stderr, err)
}
