package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/kristofer/lox/pkg/ast"
	"github.com/kristofer/lox/pkg/lexer"
	"github.com/kristofer/lox/pkg/report"
	"github.com/kristofer/lox/pkg/resolver"
)

// Interpreter walks a resolved AST for effect, evaluating expressions and
// executing statements in source order against a chain of Environments.
type Interpreter struct {
	globals   *Environment
	env       *Environment
	locals    resolver.Locals
	out       io.Writer
	callStack []report.StackFrame
}

// New creates an Interpreter that writes `print` output to out and natives
// are registered into a fresh global environment.
func New(out io.Writer) *Interpreter {
	globals := NewEnvironment(nil)
	defineNatives(globals)
	return &Interpreter{globals: globals, env: globals, out: out}
}

// NewStdout is a convenience constructor writing to os.Stdout.
func NewStdout() *Interpreter { return New(os.Stdout) }

// Interpret runs a resolved program (the locals map from resolver.Resolve)
// to completion, executing each top-level statement in order. It returns the
// first runtime error encountered, if any.
func (in *Interpreter) Interpret(stmts []ast.Stmt, locals resolver.Locals) error {
	in.locals = locals
	for _, s := range stmts {
		if err := in.exec(s); err != nil {
			return err
		}
	}
	return nil
}

// EvalBare evaluates a single expression against locals without executing
// it as a statement (no `print`, no discard). The REPL uses this to echo a
// bare expression's value instead of silently evaluating and dropping it,
// the way a normal `expr;` statement would.
func (in *Interpreter) EvalBare(e ast.Expr, locals resolver.Locals) (Value, error) {
	in.locals = locals
	return in.eval(e)
}

func (in *Interpreter) exec(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.Block:
		return in.executeBlock(st.Stmts, NewEnvironment(in.env))
	case *ast.Class:
		return in.execClass(st)
	case *ast.Expression:
		_, err := in.eval(st.Expr)
		return err
	case *ast.Function:
		fn := NewFunction(st, in.env, false)
		in.env.Define(st.Name.Lexeme, fn)
		return nil
	case *ast.If:
		cond, err := in.eval(st.Cond)
		if err != nil {
			return err
		}
		if IsTruthy(cond) {
			return in.exec(st.Then)
		}
		if st.Else != nil {
			return in.exec(st.Else)
		}
		return nil
	case *ast.Print:
		v, err := in.eval(st.Expr)
		if err != nil {
			return err
		}
		fmt.Fprintln(in.out, Stringify(v))
		return nil
	case *ast.Return:
		var v Value
		if st.Value != nil {
			var err error
			v, err = in.eval(st.Value)
			if err != nil {
				return err
			}
		}
		return returnSignal{value: v}
	case *ast.Var:
		var v Value
		if st.Initializer != nil {
			var err error
			v, err = in.eval(st.Initializer)
			if err != nil {
				return err
			}
		}
		in.env.Define(st.Name.Lexeme, v)
		return nil
	case *ast.While:
		for {
			cond, err := in.eval(st.Cond)
			if err != nil {
				return err
			}
			if !IsTruthy(cond) {
				return nil
			}
			if err := in.exec(st.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

func (in *Interpreter) pushFrame(name string, line int) {
	in.callStack = append(in.callStack, report.StackFrame{Name: name, Line: line})
}

func (in *Interpreter) popFrame() {
	in.callStack = in.callStack[:len(in.callStack)-1]
}

// executeBlock runs stmts in env, restoring the interpreter's previous
// environment before returning (including on error/return unwind).
func (in *Interpreter) executeBlock(stmts []ast.Stmt, env *Environment) error {
	previous := in.env
	in.env = env
	defer func() { in.env = previous }()

	for _, s := range stmts {
		if err := in.exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execClass(c *ast.Class) error {
	var superclass *Class
	if c.Superclass != nil {
		v, err := in.eval(c.Superclass)
		if err != nil {
			return err
		}
		sc, ok := v.(*Class)
		if !ok {
			return in.newRuntimeError(c.Superclass.Name.Line, "Superclass must be a class.")
		}
		superclass = sc
	}

	in.env.Define(c.Name.Lexeme, nil)

	classEnv := in.env
	if c.Superclass != nil {
		classEnv = NewEnvironment(in.env)
		classEnv.Define("super", superclass)
	}

	methods := make(map[string]*Function, len(c.Methods))
	for _, m := range c.Methods {
		methods[m.Name.Lexeme] = NewFunction(m, classEnv, m.Name.Lexeme == "init")
	}

	class := &Class{Name: c.Name.Lexeme, Superclass: superclass, Methods: methods}
	in.env.Assign(c.Name.Lexeme, class)
	return nil
}

func (in *Interpreter) eval(e ast.Expr) (Value, error) {
	switch ex := e.(type) {
	case *ast.Assign:
		v, err := in.eval(ex.Value)
		if err != nil {
			return nil, err
		}
		if err := in.assignVariable(ex.ID, ex.Name, v); err != nil {
			return nil, err
		}
		return v, nil
	case *ast.Binary:
		return in.evalBinary(ex)
	case *ast.Call:
		return in.evalCall(ex)
	case *ast.Get:
		obj, err := in.eval(ex.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, in.newRuntimeError(ex.Name.Line, "Only instances have properties.")
		}
		v, ok := inst.Get(ex.Name.Lexeme)
		if !ok {
			return nil, in.newRuntimeError(ex.Name.Line, "Undefined property '"+ex.Name.Lexeme+"'.")
		}
		return v, nil
	case *ast.Grouping:
		return in.eval(ex.Inner)
	case *ast.Literal:
		return in.evalLiteral(ex), nil
	case *ast.Logical:
		left, err := in.eval(ex.Left)
		if err != nil {
			return nil, err
		}
		if ex.Op.Type == lexer.TokenOr {
			if IsTruthy(left) {
				return left, nil
			}
		} else if !IsTruthy(left) {
			return left, nil
		}
		return in.eval(ex.Right)
	case *ast.Set:
		obj, err := in.eval(ex.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, in.newRuntimeError(ex.Name.Line, "Only instances have fields.")
		}
		v, err := in.eval(ex.Value)
		if err != nil {
			return nil, err
		}
		inst.Set(ex.Name.Lexeme, v)
		return v, nil
	case *ast.Super:
		return in.evalSuper(ex)
	case *ast.This:
		return in.lookupVariable(ex.ID, ex.Keyword), nil
	case *ast.Unary:
		return in.evalUnary(ex)
	case *ast.Variable:
		v := in.lookupVariable(ex.ID, ex.Name)
		if v == undefinedMarker {
			return nil, in.newRuntimeError(ex.Name.Line, "Undefined variable '"+ex.Name.Lexeme+"'.")
		}
		return v, nil
	}
	return nil, nil
}

// undefinedMarker distinguishes "name exists and is bound to nil" from
// "name was never bound" when global lookups miss.
var undefinedMarker = &struct{ _ byte }{}

func (in *Interpreter) lookupVariable(id *ast.ID, name lexer.Token) Value {
	if dist, ok := in.locals[id]; ok {
		return in.env.GetAt(dist, name.Lexeme)
	}
	if v, ok := in.globals.Get(name.Lexeme); ok {
		return v
	}
	return undefinedMarker
}

func (in *Interpreter) assignVariable(id *ast.ID, name lexer.Token, v Value) error {
	if dist, ok := in.locals[id]; ok {
		in.env.AssignAt(dist, name.Lexeme, v)
		return nil
	}
	if in.globals.Assign(name.Lexeme, v) {
		return nil
	}
	return in.newRuntimeError(name.Line, "Undefined variable '"+name.Lexeme+"'.")
}

func (in *Interpreter) evalLiteral(l *ast.Literal) Value {
	switch l.Kind {
	case lexer.LiteralNumber:
		return l.Number
	case lexer.LiteralString:
		return l.Str
	case lexer.LiteralBool:
		return l.Bool
	case lexer.LiteralNil:
		return nil
	default:
		return nil
	}
}

func (in *Interpreter) evalUnary(u *ast.Unary) (Value, error) {
	operand, err := in.eval(u.Operand)
	if err != nil {
		return nil, err
	}
	switch u.Op.Type {
	case lexer.TokenMinus:
		n, ok := operand.(float64)
		if !ok {
			return nil, in.newRuntimeError(u.Op.Line, "Operand must be a number.")
		}
		return -n, nil
	case lexer.TokenBang:
		return !IsTruthy(operand), nil
	}
	return nil, nil
}

func (in *Interpreter) evalBinary(b *ast.Binary) (Value, error) {
	left, err := in.eval(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.eval(b.Right)
	if err != nil {
		return nil, err
	}

	switch b.Op.Type {
	case lexer.TokenPlus:
		if ln, ok := left.(float64); ok {
			if rn, ok := right.(float64); ok {
				return ln + rn, nil
			}
		}
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs, nil
			}
		}
		return nil, in.newRuntimeError(b.Op.Line, "Operands must be two numbers or two strings.")
	case lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash,
		lexer.TokenGreater, lexer.TokenGreaterEqual, lexer.TokenLess, lexer.TokenLessEqual:
		ln, ok1 := left.(float64)
		rn, ok2 := right.(float64)
		if !ok1 || !ok2 {
			return nil, in.newRuntimeError(b.Op.Line, "Operands must be numbers.")
		}
		switch b.Op.Type {
		case lexer.TokenMinus:
			return ln - rn, nil
		case lexer.TokenStar:
			return ln * rn, nil
		case lexer.TokenSlash:
			return ln / rn, nil
		case lexer.TokenGreater:
			return ln > rn, nil
		case lexer.TokenGreaterEqual:
			return ln >= rn, nil
		case lexer.TokenLess:
			return ln < rn, nil
		case lexer.TokenLessEqual:
			return ln <= rn, nil
		}
	case lexer.TokenEqualEqual:
		return Equal(left, right), nil
	case lexer.TokenBangEqual:
		return !Equal(left, right), nil
	}
	return nil, nil
}

func (in *Interpreter) evalCall(c *ast.Call) (Value, error) {
	callee, err := in.eval(c.Callee)
	if err != nil {
		return nil, err
	}
	args := make([]Value, len(c.Args))
	for i, a := range c.Args {
		v, err := in.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, in.newRuntimeError(c.Paren.Line, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, in.newRuntimeError(c.Paren.Line,
			fmt.Sprintf("Expected %d arguments but got %d.", fn.Arity(), len(args)))
	}
	in.pushFrame(fn.String(), c.Paren.Line)
	v, err := fn.Call(in, args)
	in.popFrame()
	return v, err
}

func (in *Interpreter) evalSuper(s *ast.Super) (Value, error) {
	dist := in.locals[s.ID]
	superclass, _ := in.env.GetAt(dist, "super").(*Class)
	instance, _ := in.env.GetAt(dist-1, "this").(*Instance)

	method, ok := superclass.FindMethod(s.Method.Lexeme)
	if !ok {
		return nil, in.newRuntimeError(s.Method.Line, "Undefined property '"+s.Method.Lexeme+"'.")
	}
	return method.Bind(instance), nil
}
