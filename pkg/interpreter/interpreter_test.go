package interpreter_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/lox/pkg/interpreter"
	"github.com/kristofer/lox/pkg/parser"
	"github.com/kristofer/lox/pkg/resolver"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	p := parser.New(src)
	stmts, err := p.Parse()
	require.NoError(t, err, "parse errors: %v", p.Errors())

	locals, errs := resolver.Resolve(stmts)
	require.Empty(t, errs)

	var buf bytes.Buffer
	in := interpreter.New(&buf)
	runErr := in.Interpret(stmts, locals)
	return buf.String(), runErr
}

func TestInterpret_ArithmeticPrecedence(t *testing.T) {
	out, err := run(t, "print 1 + 2 * 3;")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestInterpret_StringConcatenation(t *testing.T) {
	out, err := run(t, `var a = "hi"; var b = " there"; print a + b;`)
	require.NoError(t, err)
	assert.Equal(t, "hi there\n", out)
}

func TestInterpret_BlockShadowing(t *testing.T) {
	out, err := run(t, `var a = 1; { var a = 2; print a; } print a;`)
	require.NoError(t, err)
	assert.Equal(t, "2\n1\n", out)
}

func TestInterpret_RecursiveFibonacci(t *testing.T) {
	out, err := run(t, `fun fib(n) { if (n < 2) return n; return fib(n-1) + fib(n-2); } print fib(10);`)
	require.NoError(t, err)
	assert.Equal(t, "55\n", out)
}

func TestInterpret_ClassFieldsAndMethods(t *testing.T) {
	out, err := run(t, `class A { greet() { print "hi from " + this.name; } } var a = A(); a.name = "x"; a.greet();`)
	require.NoError(t, err)
	assert.Equal(t, "hi from x\n", out)
}

func TestInterpret_SuperclassMethodDispatch(t *testing.T) {
	out, err := run(t, `class A { greet() { print "A"; } } class B < A { greet() { super.greet(); print "and B"; } } var b = B(); b.greet();`)
	require.NoError(t, err)
	assert.Equal(t, "A\nand B\n", out)
}

func TestInterpret_TypeMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `print "a" + 1;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Operands must be")
}

func TestInterpret_EarlyReturnStopsExecution(t *testing.T) {
	out, err := run(t, `fun f() { return 1; return 2; } print f();`)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestInterpret_OrReturnsDecidingOperand(t *testing.T) {
	out, err := run(t, `print nil or "x";`)
	require.NoError(t, err)
	assert.Equal(t, "x\n", out)
}

func TestInterpret_AndShortCircuits(t *testing.T) {
	out, err := run(t, `print false and (1/0);`)
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestInterpret_DivisionByZeroProducesInfNotError(t *testing.T) {
	out, err := run(t, `print 1/0;`)
	require.NoError(t, err)
	assert.Equal(t, "inf\n", out)
}

func TestInterpret_ForLoopWithEmptyClauses(t *testing.T) {
	out, err := run(t, `var i = 0; for (;i < 3;) { print i; i = i + 1; }`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestInterpret_InitializerAlwaysReturnsInstance(t *testing.T) {
	out, err := run(t, `
		class Point {
			init(x) { this.x = x; }
		}
		var p = Point(3);
		print p.x;
	`)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestInterpret_UndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nope;`)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Undefined variable"))
}

func TestInterpret_IntegerPrintsWithoutTrailingZero(t *testing.T) {
	out, err := run(t, `print 10; print 3.5;`)
	require.NoError(t, err)
	assert.Equal(t, "10\n3.5\n", out)
}
