// Package vm implements the bytecode stack machine that executes a
// compiled Chunk.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/kristofer/lox/pkg/bytecode"
)

// VM executes one Chunk at a time: an instruction pointer into its code, an
// operand stack, and a globals map shared across every chunk the VM is
// asked to run, so a REPL's definitions survive between lines.
type VM struct {
	chunk   *bytecode.Chunk
	ip      int
	stack   []Value
	globals map[string]Value
	out     io.Writer
	tracer  *Tracer
}

// New creates a VM writing `print` output to out.
func New(out io.Writer) *VM {
	return &VM{globals: make(map[string]Value), out: out}
}

// NewStdout is a convenience constructor writing to os.Stdout.
func NewStdout() *VM { return New(os.Stdout) }

// EnableTracing turns on the optional execution tracer, printing the stack
// and disassembled instruction before each step.
func (vm *VM) EnableTracing(out io.Writer) { vm.tracer = NewTracer(out) }

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) currentLine() int {
	if vm.ip == 0 || vm.ip > len(vm.chunk.Lines) {
		return 0
	}
	return vm.chunk.Lines[vm.ip-1]
}

// Interpret runs chunk to completion. A returned error is always a
// *report.RuntimeError; the operand stack is empty on a successful return.
func (vm *VM) Interpret(chunk *bytecode.Chunk) error {
	vm.chunk = chunk
	vm.ip = 0
	vm.stack = vm.stack[:0]

	for {
		if vm.tracer != nil {
			vm.tracer.trace(vm, vm.ip)
		}
		op := bytecode.Opcode(vm.readByte())
		switch op {
		case bytecode.OpConstant:
			vm.push(vm.chunk.Constants[vm.readByte()])
		case bytecode.OpNil:
			vm.push(nil)
		case bytecode.OpTrue:
			vm.push(true)
		case bytecode.OpFalse:
			vm.push(false)
		case bytecode.OpPop:
			vm.pop()
		case bytecode.OpGetLocal:
			slot := vm.readByte()
			vm.push(vm.stack[slot])
		case bytecode.OpSetLocal:
			slot := vm.readByte()
			vm.stack[slot] = vm.peek(0)
		case bytecode.OpGetGlobal:
			name := vm.chunk.Constants[vm.readByte()].(string)
			v, ok := vm.globals[name]
			if !ok {
				return newRuntimeError(vm.currentLine(), "Undefined variable '"+name+"'.")
			}
			vm.push(v)
		case bytecode.OpSetGlobal:
			name := vm.chunk.Constants[vm.readByte()].(string)
			if _, ok := vm.globals[name]; !ok {
				return newRuntimeError(vm.currentLine(), "Undefined variable '"+name+"'.")
			}
			vm.globals[name] = vm.peek(0)
		case bytecode.OpDefineGlobal:
			name := vm.chunk.Constants[vm.readByte()].(string)
			vm.globals[name] = vm.pop()
		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(valuesEqual(a, b))
		case bytecode.OpGreater:
			if err := vm.numericBinary(func(a, b float64) Value { return a > b }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.numericBinary(func(a, b float64) Value { return a < b }); err != nil {
				return err
			}
		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.numericBinary(func(a, b float64) Value { return a - b }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.numericBinary(func(a, b float64) Value { return a * b }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.numericBinary(func(a, b float64) Value { return a / b }); err != nil {
				return err
			}
		case bytecode.OpNot:
			vm.push(!isTruthy(vm.pop()))
		case bytecode.OpNegate:
			n, ok := vm.peek(0).(float64)
			if !ok {
				return newRuntimeError(vm.currentLine(), "Operand must be a number.")
			}
			vm.pop()
			vm.push(-n)
		case bytecode.OpPrint:
			fmt.Fprintln(vm.out, stringify(vm.pop()))
		case bytecode.OpJump:
			offset := bytecode.ReadUint16(vm.chunk.Code, vm.ip)
			vm.ip += 2 + int(offset)
		case bytecode.OpJumpIfFalse:
			offset := bytecode.ReadUint16(vm.chunk.Code, vm.ip)
			vm.ip += 2
			if !isTruthy(vm.peek(0)) {
				vm.ip += int(offset)
			}
		case bytecode.OpLoop:
			offset := bytecode.ReadUint16(vm.chunk.Code, vm.ip)
			vm.ip += 2 - int(offset)
		case bytecode.OpReturn:
			return nil
		default:
			return newRuntimeError(vm.currentLine(), fmt.Sprintf("Unknown opcode %d.", op))
		}
	}
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) add() error {
	b, a := vm.peek(0), vm.peek(1)
	if an, ok := a.(float64); ok {
		if bn, ok := b.(float64); ok {
			vm.pop()
			vm.pop()
			vm.push(an + bn)
			return nil
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			vm.pop()
			vm.pop()
			vm.push(as + bs)
			return nil
		}
	}
	return newRuntimeError(vm.currentLine(), "Operands must be two numbers or two strings.")
}

func (vm *VM) numericBinary(op func(a, b float64) Value) error {
	b, ok1 := vm.peek(0).(float64)
	a, ok2 := vm.peek(1).(float64)
	if !ok1 || !ok2 {
		return newRuntimeError(vm.currentLine(), "Operands must be numbers.")
	}
	vm.pop()
	vm.pop()
	vm.push(op(a, b))
	return nil
}
