// Command lox runs the tree-walk Lox interpreter: lex, parse, resolve,
// execute. Invoked with a single .lox path it runs that script; invoked
// with none it starts an interactive REPL.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/kristofer/lox/pkg/ast"
	"github.com/kristofer/lox/pkg/interpreter"
	"github.com/kristofer/lox/pkg/parser"
	"github.com/kristofer/lox/pkg/resolver"
)

// Exit codes: 0 success, 65 a static (lex/parse/resolve) error, 70 a
// runtime error, 1 a usage error.
const (
	exitOK       = 0
	exitStatic   = 65
	exitRuntime  = 70
	exitUsageErr = 1
)

func main() {
	switch len(os.Args) {
	case 1:
		runREPL()
	case 2:
		os.Exit(runFile(os.Args[1]))
	default:
		fmt.Fprintln(os.Stderr, "Usage: lox [script]")
		os.Exit(exitUsageErr)
	}
}

func runFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lox: %v\n", err)
		return exitUsageErr
	}
	stmts, locals, errs := compile(string(src))
	if errs != nil {
		reportStatic(errs)
		return exitStatic
	}
	in := interpreter.NewStdout()
	if err := in.Interpret(stmts, locals); err != nil {
		reportRuntime(err)
		return exitRuntime
	}
	return exitOK
}

// compile runs the lex→parse→resolve half of the pipeline shared by
// runFile and the REPL, returning either a resolved program or the
// accumulated static errors.
func compile(src string) ([]ast.Stmt, resolver.Locals, []error) {
	p := parser.New(src)
	stmts, err := p.Parse()
	if err != nil {
		return nil, nil, staticErrors(p.Errors())
	}
	locals, errs := resolver.Resolve(stmts)
	if len(errs) > 0 {
		return nil, nil, staticErrors(errs)
	}
	return stmts, locals, nil
}

func staticErrors[T error](errs []T) []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
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
