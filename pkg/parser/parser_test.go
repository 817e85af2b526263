package parser

import (
	"testing"

	"github.com/kristofer/lox/pkg/ast"
)

func parseOK(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	p := New(src)
	stmts, err := p.Parse()
	if err != nil {
		t.Fatalf("unexpected parse error for %q: %v (%v)", src, err, p.Errors())
	}
	return stmts
}

func TestParse_ArithmeticPrecedence(t *testing.T) {
	stmts := parseOK(t, "1 + 2 * 3;")
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	exprStmt, ok := stmts[0].(*ast.Expression)
	if !ok {
		t.Fatalf("expected *ast.Expression, got %T", stmts[0])
	}
	bin, ok := exprStmt.Expr.(*ast.Binary)
	if !ok {
		t.Fatalf("expected *ast.Binary at top, got %T", exprStmt.Expr)
	}
	if bin.Op.Lexeme != "+" {
		t.Fatalf("expected '+' at top (lowest precedence binds loosest), got %q", bin.Op.Lexeme)
	}
	right, ok := bin.Right.(*ast.Binary)
	if !ok || right.Op.Lexeme != "*" {
		t.Fatalf("expected '*' nested on the right, got %#v", bin.Right)
	}
}

func TestParse_VarDeclaration(t *testing.T) {
	stmts := parseOK(t, `var a = "hi";`)
	v, ok := stmts[0].(*ast.Var)
	if !ok {
		t.Fatalf("expected *ast.Var, got %T", stmts[0])
	}
	if v.Name.Lexeme != "a" {
		t.Errorf("expected name 'a', got %q", v.Name.Lexeme)
	}
	lit, ok := v.Initializer.(*ast.Literal)
	if !ok || lit.Str != "hi" {
		t.Fatalf("expected string literal 'hi', got %#v", v.Initializer)
	}
}

func TestParse_AssignmentRequiresValidTarget(t *testing.T) {
	p := New("1 = 2;")
	_, err := p.Parse()
	if err == nil {
		t.Fatal("expected a parse error for an invalid assignment target")
	}
}

func TestParse_ClassWithSuperclassAndMethods(t *testing.T) {
	stmts := parseOK(t, `class B < A { greet() { super.greet(); } }`)
	c, ok := stmts[0].(*ast.Class)
	if !ok {
		t.Fatalf("expected *ast.Class, got %T", stmts[0])
	}
	if c.Name.Lexeme != "B" {
		t.Errorf("expected class name B, got %q", c.Name.Lexeme)
	}
	if c.Superclass == nil || c.Superclass.Name.Lexeme != "A" {
		t.Fatalf("expected superclass A, got %#v", c.Superclass)
	}
	if len(c.Methods) != 1 || c.Methods[0].Name.Lexeme != "greet" {
		t.Fatalf("expected one method 'greet', got %#v", c.Methods)
	}
}

func TestParse_ForLoopDesugarsToWhile(t *testing.T) {
	stmts := parseOK(t, "for (var i = 0; i < 3; i = i + 1) print i;")
	block, ok := stmts[0].(*ast.Block)
	if !ok {
		t.Fatalf("expected desugared for-loop to be a Block, got %T", stmts[0])
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("expected init + while, got %d stmts", len(block.Stmts))
	}
	if _, ok := block.Stmts[0].(*ast.Var); !ok {
		t.Fatalf("expected first stmt to be the initializer Var, got %T", block.Stmts[0])
	}
	whileStmt, ok := block.Stmts[1].(*ast.While)
	if !ok {
		t.Fatalf("expected second stmt to be a While, got %T", block.Stmts[1])
	}
	bodyBlock, ok := whileStmt.Body.(*ast.Block)
	if !ok || len(bodyBlock.Stmts) != 2 {
		t.Fatalf("expected while body to be [print, increment], got %#v", whileStmt.Body)
	}
}

func TestParse_ForLoopWithEmptyClauses(t *testing.T) {
	stmts := parseOK(t, "for (;;) print 1;")
	whileStmt, ok := stmts[0].(*ast.While)
	if !ok {
		t.Fatalf("expected a bare While for empty for-clauses, got %T", stmts[0])
	}
	lit, ok := whileStmt.Cond.(*ast.Literal)
	if !ok || !lit.Bool {
		t.Fatalf("expected implicit 'true' condition, got %#v", whileStmt.Cond)
	}
}

func TestParse_CallChainAndGetSet(t *testing.T) {
	stmts := parseOK(t, "a.b.c(1, 2).d = 3;")
	exprStmt := stmts[0].(*ast.Expression)
	set, ok := exprStmt.Expr.(*ast.Set)
	if !ok {
		t.Fatalf("expected *ast.Set at top, got %T", exprStmt.Expr)
	}
	if set.Name.Lexeme != "d" {
		t.Errorf("expected field 'd', got %q", set.Name.Lexeme)
	}
	if _, ok := set.Object.(*ast.Call); !ok {
		t.Fatalf("expected call expression as object, got %T", set.Object)
	}
}

func TestParse_MultipleErrorsAccumulate(t *testing.T) {
	p := New("var ; var ;")
	_, err := p.Parse()
	if err == nil {
		t.Fatal("expected parse errors")
	}
	if len(p.Errors()) < 2 {
		t.Fatalf("expected at least 2 accumulated errors, got %d: %v", len(p.Errors()), p.Errors())
	}
}

func TestParse_UnterminatedStringIsReportedAsError(t *testing.T) {
	p := New(`print "unterminated;`)
	_, err := p.Parse()
	if err == nil {
		t.Fatal("expected a parse error from the unterminated string")
	}
}
