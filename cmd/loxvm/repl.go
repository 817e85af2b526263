package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/kristofer/lox/pkg/vm"
)

// runREPL runs one persistent VM across lines of input. Each line compiles
// to its own Chunk and runs independently; globals defined in one line
// stay visible in the next because the VM's globals map outlives a single
// Interpret call.
func runREPL() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "vm> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "loxvm: %v\n", err)
		os.Exit(exitUsageErr)
	}
	defer rl.Close()

	machine := vm.NewStdout()
	if trace {
		machine.EnableTracing(os.Stderr)
	}
	var buf strings.Builder

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buf.Reset()
			rl.SetPrompt("vm> ")
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
		rl.SetPrompt("vm> ")

		src := buf.String()
		buf.Reset()
		if strings.TrimSpace(src) == "" {
			continue
		}
		evalLine(machine, src)
	}
}

func evalLine(machine *vm.VM, src string) {
	chunk, errs := compile(src)
	if errs != nil {
		reportStatic(errs)
		return
	}
	if err := machine.Interpret(chunk); err != nil {
		reportRuntime(err)
	}
}

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
	return home + "/.loxvm_history"
}
