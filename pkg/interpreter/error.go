package interpreter

import "github.com/kristofer/lox/pkg/report"

// runtimeError wraps report.RuntimeError as a Go error, the boundary type
// the interpreter's recursive eval functions return up to Interpret.
type runtimeError struct {
	*report.RuntimeError
}

// newRuntimeError builds a runtime fault tagged with the active call stack,
// so a Verbose() rendering can show which calls were in progress when the
// fault fired. The bare "<message>\n[line N]" form stays the default; the
// stack is additional detail carried alongside it.
func (in *Interpreter) newRuntimeError(line int, message string) error {
	stack := make([]report.StackFrame, len(in.callStack))
	copy(stack, in.callStack)
	return &runtimeError{&report.RuntimeError{Message: message, Line: line, Stack: stack}}
}

// returnSignal is the non-local control-flow value a `return` statement
// raises to unwind exactly to its enclosing function call. It is caught in
// (*Function).Call and must never escape past it; it is deliberately not a
// *report error so ordinary error-handling code paths cannot mistake it
// for a fault.
type returnSignal struct {
	value Value
}

func (returnSignal) Error() string { return "return outside of a function call" }
