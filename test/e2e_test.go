// Package test holds end-to-end scenarios run against both the tree-walk
// interpreter and the bytecode VM, exercising the full lex/parse(/resolve)
// /execute pipeline the way a user invoking the lox or loxvm binaries would.
package test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kristofer/lox/pkg/compiler"
	"github.com/kristofer/lox/pkg/interpreter"
	"github.com/kristofer/lox/pkg/parser"
	"github.com/kristofer/lox/pkg/resolver"
	"github.com/kristofer/lox/pkg/vm"
)

func runTreeWalk(t *testing.T, src string) (string, error) {
	t.Helper()
	p := parser.New(src)
	stmts, err := p.Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v (%v)", err, p.Errors())
	}
	locals, errs := resolver.Resolve(stmts)
	if len(errs) > 0 {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
	var out bytes.Buffer
	in := interpreter.New(&out)
	err = in.Interpret(stmts, locals)
	return out.String(), err
}

func runBytecode(t *testing.T, src string) (string, error) {
	t.Helper()
	c := compiler.New(src)
	chunk, err := c.Compile()
	if err != nil {
		t.Fatalf("unexpected compile error: %v (%v)", err, c.Errors())
	}
	var out bytes.Buffer
	machine := vm.New(&out)
	err = machine.Interpret(chunk)
	return out.String(), err
}

// runBoth exercises source that both pipelines accept (no functions,
// classes, or closures) against each one, asserting they agree.
func runBoth(t *testing.T, src string) string {
	t.Helper()
	twOut, err := runTreeWalk(t, src)
	if err != nil {
		t.Fatalf("tree-walk: unexpected runtime error: %v", err)
	}
	vmOut, err := runBytecode(t, src)
	if err != nil {
		t.Fatalf("bytecode: unexpected runtime error: %v", err)
	}
	if twOut != vmOut {
		t.Fatalf("pipelines disagree: tree-walk %q, bytecode %q", twOut, vmOut)
	}
	return twOut
}

func TestE2E_ArithmeticPrecedence(t *testing.T) {
	out := runBoth(t, "print 1 + 2 * 3 - 4 / 2;")
	if strings.TrimSpace(out) != "5" {
		t.Fatalf("got %q, want 5", out)
	}
}

func TestE2E_StringConcatenation(t *testing.T) {
	out := runBoth(t, `print "foo" + "bar";`)
	if strings.TrimSpace(out) != "foobar" {
		t.Fatalf("got %q", out)
	}
}

func TestE2E_BlockScopeShadowsGlobal(t *testing.T) {
	out := runBoth(t, `var a = "global"; { var a = "local"; print a; } print a;`)
	want := "local\nglobal"
	if strings.TrimSpace(out) != want {
		t.Fatalf("got %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestE2E_WhileLoopAccumulates(t *testing.T) {
	out := runBoth(t, `var i = 0; var sum = 0; while (i < 5) { sum = sum + i; i = i + 1; } print sum;`)
	if strings.TrimSpace(out) != "10" {
		t.Fatalf("got %q, want 10", out)
	}
}

func TestE2E_ForLoopWithEmptyInitAndIncrement(t *testing.T) {
	out := runBoth(t, `var i = 0; for (; i < 3;) { print i; i = i + 1; }`)
	want := "0\n1\n2"
	if strings.TrimSpace(out) != want {
		t.Fatalf("got %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestE2E_ForLoopCountsToLimit(t *testing.T) {
	out := runBoth(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	want := "0\n1\n2"
	if strings.TrimSpace(out) != want {
		t.Fatalf("got %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestE2E_AndOrShortCircuit(t *testing.T) {
	out := runBoth(t, `print nil or "fallback"; print "x" and "y"; print false and "unreached";`)
	want := "fallback\ny\nfalse"
	if strings.TrimSpace(out) != want {
		t.Fatalf("got %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestE2E_DivisionByZeroProducesInf(t *testing.T) {
	out := runBoth(t, `print 1 / 0; print -1 / 0; print 0 / 0;`)
	want := "inf\n-inf\nnan"
	if strings.TrimSpace(out) != want {
		t.Fatalf("got %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestE2E_IntegerPrintsWithoutTrailingZero(t *testing.T) {
	out := runBoth(t, `print 10; print 10.5;`)
	want := "10\n10.5"
	if strings.TrimSpace(out) != want {
		t.Fatalf("got %q, want %q", strings.TrimSpace(out), want)
	}
}

// Functions, classes, and closures exist only on the tree-walk pipeline;
// these scenarios run there only.

func TestE2E_RecursiveFibonacci(t *testing.T) {
	out, err := runTreeWalk(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "55" {
		t.Fatalf("got %q, want 55", out)
	}
}

func TestE2E_ClassInheritanceAndSuper(t *testing.T) {
	out, err := runTreeWalk(t, `
		class Animal {
			speak() { return "..."; }
			describe() { return "An animal says " + this.speak(); }
		}
		class Dog < Animal {
			speak() { return "Woof"; }
			describe() { return super.describe() + "!"; }
		}
		print Dog().describe();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "An animal says Woof!" {
		t.Fatalf("got %q", out)
	}
}

func TestE2E_ClosureCapturesByReference(t *testing.T) {
	out, err := runTreeWalk(t, `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "1\n2\n3"
	if strings.TrimSpace(out) != want {
		t.Fatalf("got %q, want %q", strings.TrimSpace(out), want)
	}
}

// Boundary / error scenarios.

func TestE2E_UnterminatedStringIsAStaticError(t *testing.T) {
	p := parser.New(`print "unterminated;`)
	_, err := p.Parse()
	if err == nil {
		t.Fatal("expected a parse error for an unterminated string")
	}
}

// A class naming a superclass that is only declared later in the same
// top-level scope fails at runtime, not at resolve time: the resolver
// leaves a top-level name unannotated (global, late-bound) regardless of
// whether it has been declared yet, so the superclass reference only fails
// once the class statement actually evaluates it in source order.
func TestE2E_SuperclassUsedBeforeDeclaredIsRuntimeError(t *testing.T) {
	_, err := runTreeWalk(t, `
		class B < A {
			greet() { print "hi"; }
		}
		class A {
			greet() { print "A"; }
		}
	`)
	if err == nil {
		t.Fatal("expected a runtime error referencing the superclass before it's declared")
	}
}

func TestE2E_UndefinedVariableIsRuntimeErrorOnBothPipelines(t *testing.T) {
	if _, err := runTreeWalk(t, `print undeclared;`); err == nil {
		t.Fatal("expected a tree-walk runtime error for an undefined variable")
	}
	if _, err := runBytecode(t, `print undeclared;`); err == nil {
		t.Fatal("expected a bytecode runtime error for an undefined variable")
	}
}

func TestE2E_FunctionDeclarationRejectedByBytecodeCompiler(t *testing.T) {
	c := compiler.New(`fun f() { print 1; }`)
	if _, err := c.Compile(); err == nil {
		t.Fatal("expected the bytecode compiler to reject a function declaration")
	}
}

func TestE2E_DeeplyNestedBlocksExceedCompilerLocalLimit(t *testing.T) {
	var src strings.Builder
	for i := 0; i < 300; i++ {
		src.WriteString("{ var a = 1;")
	}
	for i := 0; i < 300; i++ {
		src.WriteString("}")
	}
	c := compiler.New(src.String())
	if _, err := c.Compile(); err == nil {
		t.Fatal("expected the 256 local-slot limit to be exceeded")
	}
}
