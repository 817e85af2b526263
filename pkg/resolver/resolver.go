// Package resolver implements the static scope analyzer that runs between
// parsing and tree-walk evaluation.
//
// Resolution is a stack of scopes tracked alongside a tree walk: each scope
// is a name→status map, and the stack grows and shrinks as the walk enters
// and leaves blocks, functions, and methods. The output is a hop *distance*
// per reference: how many enclosing scopes to cross to find the binding,
// keyed by the resolvable expression's *identity* (its *ast.ID) rather
// than its name, so two lexically identical `x` references in different
// positions get independent answers. Diagnostics accumulate into a
// report.Collector, the same accumulate-don't-panic discipline the parser
// uses.
package resolver

import (
	"github.com/kristofer/lox/pkg/ast"
	"github.com/kristofer/lox/pkg/lexer"
	"github.com/kristofer/lox/pkg/report"
)

type bindingStatus int

const (
	declared bindingStatus = iota
	defined
)

type functionType int

const (
	fnNone functionType = iota
	fnFunction
	fnMethod
	fnInitializer
)

type classType int

const (
	classNone classType = iota
	classClass
	classSubclass
)

// Locals maps a resolvable expression's identity to its scope hop distance.
// An expression absent from the map is a global reference.
type Locals map[*ast.ID]int

// Resolver walks a parsed program once, annotating every Variable, Assign,
// This, and Super expression with a scope hop distance (or leaving it
// unannotated, meaning global).
type Resolver struct {
	scopes     []map[string]bindingStatus
	locals     Locals
	errs       report.Collector
	currentFn  functionType
	currentCls classType
}

// New creates a Resolver ready to resolve one program.
func New() *Resolver {
	return &Resolver{locals: make(Locals)}
}

// Resolve walks the given top-level statements and returns the resolved
// locals map together with every static error found (empty if none).
func Resolve(stmts []ast.Stmt) (Locals, []*report.StaticError) {
	r := New()
	r.resolveStmts(stmts)
	return r.locals, r.errs.Errors()
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, map[string]bindingStatus{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) peekScope() map[string]bindingStatus {
	if len(r.scopes) == 0 {
		return nil
	}
	return r.scopes[len(r.scopes)-1]
}

func (r *Resolver) errorAt(line int, lexeme, message string) {
	r.errs.Add(report.NewStaticErrorAt(line, lexeme, message))
}

func (r *Resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.Block:
		r.beginScope()
		r.resolveStmts(st.Stmts)
		r.endScope()
	case *ast.Class:
		r.resolveClass(st)
	case *ast.Expression:
		r.resolveExpr(st.Expr)
	case *ast.Function:
		r.declare(st.Name)
		r.define(st.Name)
		r.resolveFunction(st, fnFunction)
	case *ast.If:
		r.resolveExpr(st.Cond)
		r.resolveStmt(st.Then)
		if st.Else != nil {
			r.resolveStmt(st.Else)
		}
	case *ast.Print:
		r.resolveExpr(st.Expr)
	case *ast.Return:
		if r.currentFn == fnNone {
			r.errorAt(st.Keyword.Line, st.Keyword.Lexeme, "Can't return from top-level code.")
		}
		if st.Value != nil {
			if r.currentFn == fnInitializer {
				r.errorAt(st.Keyword.Line, st.Keyword.Lexeme, "Can't return a value from an initializer.")
			}
			r.resolveExpr(st.Value)
		}
	case *ast.Var:
		r.declare(st.Name)
		if st.Initializer != nil {
			r.resolveExpr(st.Initializer)
		}
		r.define(st.Name)
	case *ast.While:
		r.resolveExpr(st.Cond)
		r.resolveStmt(st.Body)
	}
}

func (r *Resolver) resolveClass(c *ast.Class) {
	enclosingClass := r.currentCls
	r.currentCls = classClass

	r.declare(c.Name)
	r.define(c.Name)

	if c.Superclass != nil {
		if c.Superclass.Name.Lexeme == c.Name.Lexeme {
			r.errorAt(c.Superclass.Name.Line, c.Superclass.Name.Lexeme, "A class can't inherit from itself.")
		}
		r.currentCls = classSubclass
		r.resolveExpr(c.Superclass)

		r.beginScope()
		r.peekScope()["super"] = defined
	}

	r.beginScope()
	r.peekScope()["this"] = defined

	for _, m := range c.Methods {
		fnType := fnMethod
		if m.Name.Lexeme == "init" {
			fnType = fnInitializer
		}
		r.resolveFunction(m, fnType)
	}

	r.endScope()

	if c.Superclass != nil {
		r.endScope()
	}

	r.currentCls = enclosingClass
}

func (r *Resolver) resolveFunction(fn *ast.Function, ft functionType) {
	enclosingFn := r.currentFn
	r.currentFn = ft

	r.beginScope()
	for _, p := range fn.Params {
		r.declare(p)
		r.define(p)
	}
	r.resolveStmts(fn.Body)
	r.endScope()

	r.currentFn = enclosingFn
}

func (r *Resolver) declare(name lexer.Token) {
	scope := r.peekScope()
	if scope == nil {
		return
	}
	if _, ok := scope[name.Lexeme]; ok {
		r.errorAt(name.Line, name.Lexeme, "Already a variable with this name in this scope.")
	}
	scope[name.Lexeme] = declared
}

func (r *Resolver) define(name lexer.Token) {
	scope := r.peekScope()
	if scope == nil {
		return
	}
	scope[name.Lexeme] = defined
}

func (r *Resolver) resolveExpr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.Assign:
		r.resolveExpr(ex.Value)
		r.resolveLocal(ex.ID, ex.Name)
	case *ast.Binary:
		r.resolveExpr(ex.Left)
		r.resolveExpr(ex.Right)
	case *ast.Call:
		r.resolveExpr(ex.Callee)
		for _, a := range ex.Args {
			r.resolveExpr(a)
		}
	case *ast.Get:
		r.resolveExpr(ex.Object)
	case *ast.Grouping:
		r.resolveExpr(ex.Inner)
	case *ast.Literal:
		// no identifiers to resolve
	case *ast.Logical:
		r.resolveExpr(ex.Left)
		r.resolveExpr(ex.Right)
	case *ast.Set:
		r.resolveExpr(ex.Value)
		r.resolveExpr(ex.Object)
	case *ast.Super:
		if r.currentCls == classNone {
			r.errorAt(ex.Keyword.Line, ex.Keyword.Lexeme, "Can't use 'super' outside of a class.")
		} else if r.currentCls != classSubclass {
			r.errorAt(ex.Keyword.Line, ex.Keyword.Lexeme, "Can't use 'super' in a class with no superclass.")
		}
		r.resolveLocal(ex.ID, ex.Keyword)
	case *ast.This:
		if r.currentCls == classNone {
			r.errorAt(ex.Keyword.Line, ex.Keyword.Lexeme, "Can't use 'this' outside of a class.")
		}
		r.resolveLocal(ex.ID, ex.Keyword)
	case *ast.Unary:
		r.resolveExpr(ex.Operand)
	case *ast.Variable:
		if scope := r.peekScope(); scope != nil {
			if status, ok := scope[ex.Name.Lexeme]; ok && status == declared {
				r.errorAt(ex.Name.Line, ex.Name.Lexeme, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(ex.ID, ex.Name)
	}
}

func (r *Resolver) resolveLocal(id *ast.ID, name lexer.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals[id] = len(r.scopes) - 1 - i
			return
		}
	}
	// not found in any scope: treated as global, left unannotated
}
