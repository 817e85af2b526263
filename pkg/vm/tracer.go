package vm

import (
	"fmt"
	"io"
)

// Tracer prints the stack contents and the disassembled current
// instruction before each step. It is a plain toggle, not an interactive
// debugger: the bytecode VM has no call frames to break on, so
// disassemble-before-each-step is the whole story.
type Tracer struct {
	out io.Writer
}

// NewTracer creates a Tracer writing to out.
func NewTracer(out io.Writer) *Tracer { return &Tracer{out: out} }

func (t *Tracer) trace(vm *VM, offset int) {
	fmt.Fprint(t.out, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(t.out, "[ %s ]", stringify(v))
	}
	fmt.Fprintln(t.out)
	line, _ := vm.chunk.DisassembleInstruction(offset)
	fmt.Fprintln(t.out, line)
}
