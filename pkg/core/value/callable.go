package value

import "fmt"

// Callable is the invocation contract shared by interpreted functions and
// host functions.
type Callable interface {
	Call(args []Value) (Value, error)
}

// NativeFunc is the Go signature of a host function.
type NativeFunc func(args []Value) (Value, error)

// Native is a host function exposed to scripts. A Static function is a
// module member: calling it through its module does not pass the module
// as the first argument.
type Native struct {
	Name   string
	Fn     NativeFunc
	Static bool
}

// NewNative wraps fn as a callable value.
func NewNative(name string, fn NativeFunc) Value {
	return Func(&Native{Name: name, Fn: fn})
}

// NewStatic wraps fn as a module-level function.
func NewStatic(name string, fn NativeFunc) Value {
	return Func(&Native{Name: name, Fn: fn, Static: true})
}

// IsStatic reports whether v is a module-level host function.
func IsStatic(v Value) bool {
	n, ok := v.Opaque.(*Native)
	return ok && v.Type == TypeFunction && n.Static
}

func (n *Native) Call(args []Value) (Value, error) {
	return n.Fn(args)
}

func (n *Native) FuncName() string { return n.Name }

// Object is a host value with attributes, such as a canvas handle.
// Implementations must be pointer types so identity is stable.
type Object interface {
	TypeName() string
	GetAttr(name string) (Value, error)
	SetAttr(name string, v Value) error
}

// Iterator is a lazy, single-pass sequence.
type Iterator interface {
	Next() (Value, bool, error)
}

// Generator adapts a pull function into an Iterator. Once the function
// reports exhaustion the generator stays exhausted.
type Generator struct {
	next func() (Value, bool, error)
	done bool
}

func NewGenerator(next func() (Value, bool, error)) *Generator {
	return &Generator{next: next}
}

func (g *Generator) Next() (Value, bool, error) {
	if g.done {
		return None, false, nil
	}
	v, ok, err := g.next()
	if err != nil || !ok {
		g.done = true
	}
	return v, ok, err
}

// sliceIter walks a snapshot of items; used for materialized containers.
type sliceIter struct {
	items []Value
	pos   int
	live  *List
}

func (s *sliceIter) Next() (Value, bool, error) {
	items := s.items
	if s.live != nil {
		items = s.live.Items
	}
	if s.pos >= len(items) {
		return None, false, nil
	}
	v := items[s.pos]
	s.pos++
	return v, true, nil
}

// Iterate returns an iterator over v. Materialized containers get a fresh
// iterator on every call; lazy sequences return themselves, so they drain
// exactly once.
func Iterate(v Value) (Iterator, error) {
	switch v.Type {
	case TypeList:
		return &sliceIter{live: v.List()}, nil
	case TypeDict:
		return &sliceIter{items: v.Dict().Keys()}, nil
	case TypeString:
		runes := []rune(v.Str())
		items := make([]Value, len(runes))
		for i, r := range runes {
			items[i] = String(string(r))
		}
		return &sliceIter{items: items}, nil
	case TypeIterator:
		return v.Iterator(), nil
	}
	return nil, fmt.Errorf("%w: '%s'", ErrNotIterable, v.TypeName())
}

// Collect drains v into a slice.
func Collect(v Value) ([]Value, error) {
	if v.Type == TypeList {
		out := make([]Value, len(v.List().Items))
		copy(out, v.List().Items)
		return out, nil
	}
	it, err := Iterate(v)
	if err != nil {
		return nil, err
	}
	var out []Value
	for {
		item, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, item)
	}
}
