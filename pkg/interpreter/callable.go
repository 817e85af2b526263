package interpreter

import (
	"fmt"

	"github.com/kristofer/lox/pkg/ast"
)

// Function is a user-defined function or method: its declaration plus the
// environment it closed over at definition time.
type Function struct {
	decl          *ast.Function
	closure       *Environment
	isInitializer bool
}

// NewFunction wraps a parsed function declaration as a callable closing over
// env, the environment active where the function was declared.
func NewFunction(decl *ast.Function, env *Environment, isInitializer bool) *Function {
	return &Function{decl: decl, closure: env, isInitializer: isInitializer}
}

func (f *Function) Arity() int { return len(f.decl.Params) }

func (f *Function) String() string { return fmt.Sprintf("<fn %s>", f.decl.Name.Lexeme) }

// Bind returns a copy of f whose closure additionally defines `this` as the
// given instance, the construction a method Get expression produces: a
// function whose environment is a new scope defining `this`.
func (f *Function) Bind(instance *Instance) *Function {
	env := NewEnvironment(f.closure)
	env.Define("this", instance)
	return &Function{decl: f.decl, closure: env, isInitializer: f.isInitializer}
}

// Call executes the function body in a fresh environment parented at the
// closure, catching the returnSignal control-flow value a `return` raises.
func (f *Function) Call(in *Interpreter, args []Value) (v Value, err error) {
	env := NewEnvironment(f.closure)
	for i, p := range f.decl.Params {
		env.Define(p.Lexeme, args[i])
	}

	err = in.executeBlock(f.decl.Body, env)
	if rs, ok := err.(returnSignal); ok {
		if f.isInitializer {
			return f.closure.GetAt(0, "this"), nil
		}
		return rs.value, nil
	}
	if err != nil {
		return nil, err
	}
	if f.isInitializer {
		return f.closure.GetAt(0, "this"), nil
	}
	return nil, nil
}

// NativeFunction wraps a host-provided Go function as a Lox callable, the
// mechanism `clock()` is registered through (natives.go).
type NativeFunction struct {
	name  string
	arity int
	fn    func(args []Value) (Value, error)
}

func (n *NativeFunction) Arity() int { return n.arity }

func (n *NativeFunction) String() string { return "<native fn>" }

func (n *NativeFunction) Call(_ *Interpreter, args []Value) (Value, error) {
	return n.fn(args)
}
