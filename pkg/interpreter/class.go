package interpreter

import "fmt"

// Class is a runtime class object: its name, its method table, and an
// optional superclass reference used both for `super` method lookup and for
// inherited instance behavior.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

func (c *Class) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

func (c *Class) String() string { return c.Name }

// FindMethod looks up name on c, then walks the superclass chain.
func (c *Class) FindMethod(name string) (*Function, bool) {
	if m, ok := c.Methods[name]; ok {
		return m, true
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil, false
}

// Call constructs a new Instance, invoking `init` (if present) with the call
// arguments; the constructed instance is always the result, even if `init`
// contains an explicit `return`.
func (c *Class) Call(in *Interpreter, args []Value) (Value, error) {
	instance := &Instance{class: c, fields: make(map[string]Value)}
	if init, ok := c.FindMethod("init"); ok {
		if _, err := init.Bind(instance).Call(in, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// Instance is a runtime object: a reference to its class plus its own field
// map. Methods are not stored per-instance; Get resolves them against the
// class's method table and binds `this` lazily.
type Instance struct {
	class  *Class
	fields map[string]Value
}

func (i *Instance) String() string { return fmt.Sprintf("<%s instance>", i.class.Name) }

// Get reads a field, falling back to a bound method if no field of that
// name exists. Fields shadow methods.
func (i *Instance) Get(name string) (Value, bool) {
	if v, ok := i.fields[name]; ok {
		return v, true
	}
	if m, ok := i.class.FindMethod(name); ok {
		return m.Bind(i), true
	}
	return nil, false
}

// Set assigns a field; fields may be created freely (Lox has no field
// declarations), but methods themselves are never settable this way.
func (i *Instance) Set(name string, value Value) {
	i.fields[name] = value
}
