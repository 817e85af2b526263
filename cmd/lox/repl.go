package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/kristofer/lox/pkg/ast"
	"github.com/kristofer/lox/pkg/interpreter"
)

// runREPL starts an interactive session. Each line is parsed, resolved, and
// interpreted against a single persistent Interpreter so that globals
// (variables, functions, classes) declared in one line survive into the
// next.
//
// A line that doesn't parse as a complete statement on its own (an open
// brace, an unterminated string) is held and the prompt switches to a
// continuation marker until the input balances, rather than reporting a
// spurious syntax error on every partial line.
func runREPL() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "lox: %v\n", err)
		os.Exit(exitUsageErr)
	}
	defer rl.Close()

	in := interpreter.NewStdout()
	var buf strings.Builder

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buf.Reset()
			rl.SetPrompt("> ")
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			return
		}

		buf.WriteString(line)
		buf.WriteString("\n")

		if !balanced(buf.String()) {
			rl.SetPrompt("... ")
			continue
		}
		rl.SetPrompt("> ")

		src := buf.String()
		buf.Reset()
		if strings.TrimSpace(src) == "" {
			continue
		}
		evalLine(in, src)
	}
}

// evalLine runs one REPL input. A bare expression statement (no `print`,
// no declaration) echoes its value in yellow rather than silently
// evaluating and discarding it; any other input runs exactly as a file's
// statements would, so only `print` produces visible output.
func evalLine(in *interpreter.Interpreter, src string) {
	stmts, locals, errs := compile(src)
	if errs != nil {
		reportStatic(errs)
		return
	}
	if len(stmts) == 1 {
		if es, ok := stmts[0].(*ast.Expression); ok {
			v, err := in.EvalBare(es.Expr, locals)
			if err != nil {
				reportRuntime(err)
				return
			}
			color.New(color.FgYellow).Println(interpreter.Stringify(v))
			return
		}
	}
	if err := in.Interpret(stmts, locals); err != nil {
		reportRuntime(err)
	}
}

// balanced is a crude brace/paren/quote counter, good enough to decide
// whether a REPL line needs a continuation: it doesn't need to be a real
// parser since an unbalanced line is always incomplete, not just invalid.
func balanced(src string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(src); i++ {
		switch c := src[i]; {
		case c == '"':
			inString = !inString
		case inString:
			continue
		case c == '{' || c == '(':
			depth++
		case c == '}' || c == ')':
			depth--
		}
	}
	return depth <= 0 && !inString
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.lox_history"
}
