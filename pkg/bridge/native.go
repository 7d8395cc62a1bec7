package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/agenthands/pyworker/pkg/core/value"
)

var (
	ErrArgCount    = errors.New("bridge: wrong number of arguments")
	ErrArgType     = errors.New("bridge: wrong argument type")
	ErrNotPortable = errors.New("bridge: value has no host representation")
)

// Func adapts fn as a module function: m.f(x) calls fn with just x, and a
// module passed explicitly as an argument reaches fn unchanged.
func Func(name string, fn value.NativeFunc) value.Value {
	return value.NewStatic(name, fn)
}

// Method adapts fn as a method whose receiver arrives as the first
// argument.
func Method(name string, fn func(recv value.Value, args []value.Value) (value.Value, error)) value.Value {
	return value.NewNative(name, func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.None, fmt.Errorf("%w: %s() called without a receiver", ErrArgCount, name)
		}
		return fn(args[0], args[1:])
	})
}

// CheckArgs validates the argument count. A negative max means no upper
// bound.
func CheckArgs(name string, args []value.Value, min, max int) error {
	n := len(args)
	switch {
	case n < min:
		return fmt.Errorf("%w: %s() takes at least %d, got %d", ErrArgCount, name, min, n)
	case max >= 0 && n > max:
		return fmt.Errorf("%w: %s() takes at most %d, got %d", ErrArgCount, name, max, n)
	}
	return nil
}

func StringArg(name string, args []value.Value, i int) (string, error) {
	if i >= len(args) || args[i].Type != value.TypeString {
		return "", argTypeError(name, args, i, "str")
	}
	return args[i].Str(), nil
}

func IntArg(name string, args []value.Value, i int) (int64, error) {
	if i >= len(args) || (args[i].Type != value.TypeInt && args[i].Type != value.TypeBool) {
		return 0, argTypeError(name, args, i, "int")
	}
	return args[i].Int(), nil
}

func NumberArg(name string, args []value.Value, i int) (float64, error) {
	if i >= len(args) || !args[i].IsNumber() {
		return 0, argTypeError(name, args, i, "number")
	}
	return args[i].Float(), nil
}

// Arg returns args[i], or def when the argument is absent or undefined.
func Arg(args []value.Value, i int, def value.Value) value.Value {
	if i >= len(args) || args[i].Type == value.TypeUndefined {
		return def
	}
	return args[i]
}

func argTypeError(name string, args []value.Value, i int, want string) error {
	got := "nothing"
	if i < len(args) {
		got = "'" + args[i].TypeName() + "'"
	}
	return fmt.Errorf("%w: %s() argument %d must be %s, not %s", ErrArgType, name, i+1, want, got)
}

// ToGo converts a script value into plain Go data (nil, bool, int64,
// float64, string, []any, map[string]any). Dict keys are stringified.
func ToGo(v value.Value) (any, error) {
	switch v.Type {
	case value.TypeNone, value.TypeUndefined:
		return nil, nil
	case value.TypeBool:
		return v.Bool(), nil
	case value.TypeInt:
		return v.Int(), nil
	case value.TypeFloat:
		return v.Float(), nil
	case value.TypeString:
		return v.Str(), nil
	case value.TypeList:
		items := v.List().Items
		out := make([]any, len(items))
		for i, item := range items {
			x, err := ToGo(item)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case value.TypeDict:
		d := v.Dict()
		out := make(map[string]any, d.Len())
		for _, k := range d.Keys() {
			val, _ := d.Get(k)
			x, err := ToGo(val)
			if err != nil {
				return nil, err
			}
			out[k.Format()] = x
		}
		return out, nil
	case value.TypeObject:
		if p, ok := v.Opaque.(interface{ GoValue() any }); ok {
			return p.GoValue(), nil
		}
	}
	return nil, fmt.Errorf("%w: '%s'", ErrNotPortable, v.TypeName())
}

// FromGo converts decoded host data into a script value. Map keys are
// inserted in sorted order.
func FromGo(x any) (value.Value, error) {
	switch t := x.(type) {
	case nil:
		return value.None, nil
	case value.Value:
		return t, nil
	case bool:
		return value.Bool(t), nil
	case int:
		return value.Int(int64(t)), nil
	case int32:
		return value.Int(int64(t)), nil
	case int64:
		return value.Int(t), nil
	case float32:
		return value.Float(float64(t)), nil
	case float64:
		return value.Float(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return value.Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return value.None, err
		}
		return value.Float(f), nil
	case string:
		return value.String(t), nil
	case []any:
		items := make([]value.Value, len(t))
		for i, el := range t {
			v, err := FromGo(el)
			if err != nil {
				return value.None, err
			}
			items[i] = v
		}
		return value.FromList(value.NewList(items...)), nil
	case []string:
		items := make([]value.Value, len(t))
		for i, s := range t {
			items[i] = value.String(s)
		}
		return value.FromList(value.NewList(items...)), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := value.NewDict()
		for _, k := range keys {
			v, err := FromGo(t[k])
			if err != nil {
				return value.None, err
			}
			if err := d.Set(value.String(k), v); err != nil {
				return value.None, err
			}
		}
		return value.FromDict(d), nil
	}
	return value.None, fmt.Errorf("%w: %T", ErrNotPortable, x)
}
