package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders every instruction in the chunk as one
// `offset line opname operands` line, eliding the line number (printing
// "|") when it repeats the previous instruction's line.
func (c *Chunk) Disassemble(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = c.disassembleInstruction(&b, offset)
	}
	return b.String()
}

// DisassembleInstruction renders the single instruction at offset and
// returns the offset of the next instruction, the primitive the VM's
// optional execution tracer calls once per step.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	var b strings.Builder
	next := c.disassembleInstruction(&b, offset)
	return strings.TrimSuffix(b.String(), "\n"), next
}

func (c *Chunk) disassembleInstruction(b *strings.Builder, offset int) int {
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(b, "   | ")
	} else {
		fmt.Fprintf(b, "%4d ", c.Lines[offset])
	}

	op := Opcode(c.Code[offset])
	name := op.String()

	switch InstructionLength(op) {
	case 1:
		fmt.Fprintln(b, name)
		return offset + 1
	case 2:
		idx := c.Code[offset+1]
		switch op {
		case OpGetLocal, OpSetLocal:
			fmt.Fprintf(b, "%-16s %d\n", name, idx)
		default:
			fmt.Fprintf(b, "%-16s %s\n", name, formatConstantOperand(c, idx))
		}
		return offset + 2
	case 3:
		jump := ReadUint16(c.Code, offset+1)
		target := offset + 3
		if op == OpLoop {
			target -= int(jump)
		} else {
			target += int(jump)
		}
		fmt.Fprintf(b, "%-16s %4d -> %d\n", name, offset, target)
		return offset + 3
	default:
		fmt.Fprintf(b, "UNKNOWN_OPCODE %d\n", op)
		return offset + 1
	}
}
