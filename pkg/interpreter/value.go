// Package interpreter implements the tree-walk evaluator: the Environment
// chain, the Lox value union, user/native callables, classes and instances,
// and the Interpreter that walks a resolved AST for effect.
package interpreter

import (
	"fmt"
	"math"
	"strconv"
)

// Value is any Lox runtime value: nil, bool, float64, string, or one of the
// Callable-implementing types below (*Function, *NativeFunction, *Class)
// plus *Instance. A bound method is just a *Function whose closure defines
// `this` (see Function.Bind), not a distinct type. Go's untyped interface{}
// stands in for a tagged union; type switches in interpreter.go do the
// tagging work.
type Value interface{}

// Callable is implemented by every value that can appear as the callee of a
// Call expression.
type Callable interface {
	Arity() int
	Call(in *Interpreter, args []Value) (Value, error)
	String() string
}

// IsTruthy implements Lox truthiness: only nil and false are falsey.
func IsTruthy(v Value) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// Equal implements Lox equality: different dynamic types are always
// unequal; nil equals only nil; numbers and strings and bools compare by
// value. Equality never errors, whatever the operand types.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	default:
		return a == b
	}
}

// Stringify renders a Value in its canonical print form: `nil`,
// `true`/`false`, shortest round-trip decimals, raw string contents,
// `<fn name>`, `<native fn>`, the class name, `<name instance>`.
func Stringify(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(x)
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// formatNumber renders a float64 as the shortest round-trip decimal. 'g'
// formatting already omits a trailing ".0" for integral values, so no extra
// trimming is needed (and trimming zeros by hand would mangle "10" into "1").
// IEEE division-by-zero results are spelled lowercase, matching neither
// Go's "+Inf"/"NaN" nor Java's "Infinity" but kept internally consistent
// between the tree-walk and bytecode pipelines.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
