package vm

import "github.com/kristofer/lox/pkg/report"

// newRuntimeError builds a VM fault in the shared `<message>\n[line N]`
// shape. There is no call-stack trace to attach: the bytecode VM has no
// function calls, so every runtime error fires at the top level.
func newRuntimeError(line int, message string) error {
	return &report.RuntimeError{Message: message, Line: line}
}
