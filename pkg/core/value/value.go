package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type represents the tag in the Value tagged union.
type Type uint8

const (
	TypeNone Type = iota
	TypeUndefined
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeList
	TypeDict
	TypeFunction
	TypeIterator
	TypeModule
	TypeObject
)

var typeNames = [...]string{
	TypeNone:      "NoneType",
	TypeUndefined: "undefined",
	TypeBool:      "bool",
	TypeInt:       "int",
	TypeFloat:     "float",
	TypeString:    "str",
	TypeList:      "list",
	TypeDict:      "dict",
	TypeFunction:  "function",
	TypeIterator:  "generator",
	TypeModule:    "module",
	TypeObject:    "object",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

var (
	ErrUnhashable  = errors.New("value: unhashable type")
	ErrIndexRange  = errors.New("value: index out of range")
	ErrKeyNotFound = errors.New("value: key not found")
	ErrUnordered   = errors.New("value: values are not orderable")
	ErrNotIterable = errors.New("value: object is not iterable")
)

// Value is a tagged union. Scalars live in Data (int64 bits, float64 bits
// or 0/1 for bools); strings and reference variants live in Opaque.
type Value struct {
	Type   Type
	Data   uint64
	Opaque any
}

var (
	None      = Value{Type: TypeNone}
	Undefined = Value{Type: TypeUndefined}
	True      = Value{Type: TypeBool, Data: 1}
	False     = Value{Type: TypeBool, Data: 0}
)

func Int(i int64) Value { return Value{Type: TypeInt, Data: uint64(i)} }

func Float(f float64) Value { return Value{Type: TypeFloat, Data: math.Float64bits(f)} }

func String(s string) Value { return Value{Type: TypeString, Opaque: s} }

func FromList(l *List) Value { return Value{Type: TypeList, Opaque: l} }

func FromDict(d *Dict) Value { return Value{Type: TypeDict, Opaque: d} }

func FromModule(m *Module) Value { return Value{Type: TypeModule, Opaque: m} }

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Func wraps a callable.
func Func(c Callable) Value { return Value{Type: TypeFunction, Opaque: c} }

// Iter wraps a lazy sequence.
func Iter(it Iterator) Value { return Value{Type: TypeIterator, Opaque: it} }

// FromObject wraps a host object.
func FromObject(o Object) Value { return Value{Type: TypeObject, Opaque: o} }

// Int returns the value as int64.
func (v Value) Int() int64 {
	switch v.Type {
	case TypeFloat:
		return int64(math.Float64frombits(v.Data))
	case TypeBool, TypeInt:
		return int64(v.Data)
	}
	return 0
}

// Float returns the value as float64.
func (v Value) Float() float64 {
	if v.Type == TypeFloat {
		return math.Float64frombits(v.Data)
	}
	return float64(int64(v.Data))
}

// Bool reports the Data register as a boolean.
func (v Value) Bool() bool { return v.Data != 0 }

// Str returns the string payload, or "" for non-strings.
func (v Value) Str() string {
	s, _ := v.Opaque.(string)
	return s
}

func (v Value) List() *List {
	l, _ := v.Opaque.(*List)
	return l
}

func (v Value) Dict() *Dict {
	d, _ := v.Opaque.(*Dict)
	return d
}

func (v Value) Module() *Module {
	m, _ := v.Opaque.(*Module)
	return m
}

func (v Value) Callable() Callable {
	c, _ := v.Opaque.(Callable)
	return c
}

func (v Value) Iterator() Iterator {
	it, _ := v.Opaque.(Iterator)
	return it
}

func (v Value) Object() Object {
	o, _ := v.Opaque.(Object)
	return o
}

// IsNumber reports whether v is an int, float or bool.
func (v Value) IsNumber() bool {
	return v.Type == TypeInt || v.Type == TypeFloat || v.Type == TypeBool
}

// Truthy applies the language truthiness rules.
func (v Value) Truthy() bool {
	switch v.Type {
	case TypeNone, TypeUndefined:
		return false
	case TypeBool, TypeInt:
		return v.Data != 0
	case TypeFloat:
		return v.Float() != 0
	case TypeString:
		return v.Str() != ""
	case TypeList:
		return v.List().Len() > 0
	case TypeDict:
		return v.Dict().Len() > 0
	}
	return true
}

// Identical reports reference identity for reference variants and value
// equality for scalars.
func Identical(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeNone, TypeUndefined:
		return true
	case TypeBool, TypeInt, TypeFloat:
		return a.Data == b.Data
	case TypeString:
		return a.Str() == b.Str()
	}
	return a.Opaque == b.Opaque
}

// Equal implements == across variants. Numbers compare by value regardless
// of int/float representation; lists and dicts compare element-wise.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.Type == TypeFloat || b.Type == TypeFloat {
			return a.Float() == b.Float()
		}
		return a.Int() == b.Int()
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeList:
		la, lb := a.List(), b.List()
		if la == lb {
			return true
		}
		if la.Len() != lb.Len() {
			return false
		}
		for i := range la.Items {
			if !Equal(la.Items[i], lb.Items[i]) {
				return false
			}
		}
		return true
	case TypeDict:
		da, db := a.Dict(), b.Dict()
		if da == db {
			return true
		}
		if da.Len() != db.Len() {
			return false
		}
		for _, k := range da.Keys() {
			av, _ := da.Get(k)
			bv, ok := db.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return Identical(a, b)
}

// Compare orders numbers numerically, strings lexically and lists
// element-wise. It returns -1, 0 or 1.
func Compare(a, b Value) (int, error) {
	switch {
	case a.IsNumber() && b.IsNumber():
		if a.Type != TypeFloat && b.Type != TypeFloat {
			return cmp3(a.Int() < b.Int(), a.Int() > b.Int()), nil
		}
		return cmp3(a.Float() < b.Float(), a.Float() > b.Float()), nil
	case a.Type == TypeString && b.Type == TypeString:
		return strings.Compare(a.Str(), b.Str()), nil
	case a.Type == TypeList && b.Type == TypeList:
		x, y := a.List().Items, b.List().Items
		for i := 0; i < len(x) && i < len(y); i++ {
			if Equal(x[i], y[i]) {
				continue
			}
			return Compare(x[i], y[i])
		}
		return cmp3(len(x) < len(y), len(x) > len(y)), nil
	}
	return 0, fmt.Errorf("%w: '%s' and '%s'", ErrUnordered, a.TypeName(), b.TypeName())
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

// Format returns the str() form of the value.
func (v Value) Format() string {
	return v.formatRecursive(0, false)
}

// Repr returns the repr() form of the value; strings are quoted.
func (v Value) Repr() string {
	return v.formatRecursive(0, true)
}

func (v Value) formatRecursive(depth int, quote bool) string {
	if depth > 10 {
		return "..."
	}
	switch v.Type {
	case TypeString:
		if quote {
			return strconv.Quote(v.Str())
		}
		return v.Str()
	case TypeInt:
		return strconv.FormatInt(v.Int(), 10)
	case TypeFloat:
		f := v.Float()
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	case TypeBool:
		if v.Data != 0 {
			return "True"
		}
		return "False"
	case TypeList:
		items := v.List().Items
		parts := make([]string, len(items))
		for i, el := range items {
			parts[i] = el.formatRecursive(depth+1, true)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeDict:
		d := v.Dict()
		parts := make([]string, 0, d.Len())
		for _, k := range d.Keys() {
			val, _ := d.Get(k)
			parts = append(parts, k.formatRecursive(depth+1, true)+": "+val.formatRecursive(depth+1, true))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case TypeFunction:
		if n, ok := v.Opaque.(interface{ FuncName() string }); ok {
			return "<function " + n.FuncName() + ">"
		}
		return "<function>"
	case TypeIterator:
		return "<generator>"
	case TypeModule:
		return "<module '" + v.Module().Name + "'>"
	case TypeObject:
		if s, ok := v.Opaque.(fmt.Stringer); ok {
			return s.String()
		}
		return "<" + v.Object().TypeName() + " object>"
	case TypeUndefined:
		return "undefined"
	default:
		return "None"
	}
}

// TypeName returns the user-facing type name of v.
func (v Value) TypeName() string {
	if v.Type == TypeObject {
		return v.Object().TypeName()
	}
	return v.Type.String()
}
