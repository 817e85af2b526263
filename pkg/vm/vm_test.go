package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kristofer/lox/pkg/compiler"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	c := compiler.New(src)
	chunk, err := c.Compile()
	if err != nil {
		t.Fatalf("unexpected compile error for %q: %v (%v)", src, err, c.Errors())
	}
	var out bytes.Buffer
	machine := New(&out)
	runErr := machine.Interpret(chunk)
	return out.String(), runErr
}

func TestVM_ArithmeticPrecedence(t *testing.T) {
	out, err := run(t, "print 1 + 2 * 3;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Fatalf("got %q, want 7", out)
	}
}

func TestVM_StringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "foobar" {
		t.Fatalf("got %q", out)
	}
}

func TestVM_GlobalVariableRoundTrip(t *testing.T) {
	out, err := run(t, `var a = 1; a = a + 1; print a;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "2" {
		t.Fatalf("got %q", out)
	}
}

func TestVM_BlockScopedLocalShadowsGlobal(t *testing.T) {
	out, err := run(t, `var a = "global"; { var a = "local"; print a; } print a;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "local\nglobal"
	if strings.TrimSpace(out) != want {
		t.Fatalf("got %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestVM_IfElseBranches(t *testing.T) {
	out, err := run(t, `if (1 < 2) print "yes"; else print "no";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "yes" {
		t.Fatalf("got %q", out)
	}
}

func TestVM_WhileLoopAccumulates(t *testing.T) {
	out, err := run(t, `var i = 0; var sum = 0; while (i < 5) { sum = sum + i; i = i + 1; } print sum;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "10" {
		t.Fatalf("got %q", out)
	}
}

func TestVM_ForLoopEmptyClausesCountsToLimit(t *testing.T) {
	out, err := run(t, `var i = 0; for (; i < 3; i = i + 1) print i;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0\n1\n2"
	if strings.TrimSpace(out) != want {
		t.Fatalf("got %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestVM_AndOrShortCircuit(t *testing.T) {
	out, err := run(t, `print nil or "fallback"; print "x" and "y";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "fallback\ny"
	if strings.TrimSpace(out) != want {
		t.Fatalf("got %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestVM_DivisionByZeroProducesInf(t *testing.T) {
	out, err := run(t, `print 1 / 0;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "inf" {
		t.Fatalf("got %q, want inf", out)
	}
}

func TestVM_TypeMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 + "two";`)
	if err == nil {
		t.Fatal("expected a runtime error adding a number and a string")
	}
}

func TestVM_UndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `print undeclared;`)
	if err == nil {
		t.Fatal("expected a runtime error for an undefined global")
	}
}

func TestVM_IntegerPrintsWithoutTrailingZero(t *testing.T) {
	out, err := run(t, `print 10;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "10" {
		t.Fatalf("got %q, want 10", out)
	}
}

func TestVM_Tracer(t *testing.T) {
	c := compiler.New("print 1 + 2;")
	chunk, err := c.Compile()
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	var trace bytes.Buffer
	var stdout bytes.Buffer
	machine := New(&stdout)
	machine.EnableTracing(&trace)
	if err := machine.Interpret(chunk); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if trace.Len() == 0 {
		t.Fatal("expected the tracer to write something")
	}
	if !strings.Contains(trace.String(), "CONSTANT") {
		t.Fatalf("expected trace output to mention CONSTANT, got %q", trace.String())
	}
}
