package stdlib

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
)

var ErrValue = errors.New("stdlib: invalid argument value")

type builtin struct {
	name     string
	min, max int
	fn       value.NativeFunc
}

// Builtins returns the functions visible to every program. print hands
// each formatted line to out.
func Builtins(out func(string)) map[string]value.Value {
	table := []builtin{
		{"print", 0, -1, printFn(out)},
		{"str", 0, 1, Str},
		{"repr", 1, 1, Repr},
		{"len", 1, 1, Len},
		{"range", 1, 3, Range},
		{"map", 2, 2, Map},
		{"filter", 2, 2, Filter},
		{"enumerate", 1, 2, Enumerate},
		{"zip", 0, -1, Zip},
		{"iter", 1, 1, Iter},
		{"next", 1, 2, Next},
		{"list", 0, 1, List},
		{"dict", 0, 1, Dict},
		{"int", 0, 1, Int},
		{"float", 0, 1, Float},
		{"bool", 0, 1, Bool},
		{"abs", 1, 1, Abs},
		{"min", 1, -1, Min},
		{"max", 1, -1, Max},
		{"sum", 1, 2, Sum},
		{"all", 1, 1, All},
		{"any", 1, 1, Any},
		{"sorted", 1, 3, Sorted},
		{"reversed", 1, 1, Reversed},
		{"type", 1, 1, Type},
		{"callable", 1, 1, Callable},
		{"chr", 1, 1, Chr},
		{"ord", 1, 1, Ord},
		{"bin", 1, 1, radix("bin", "0b", 2)},
		{"oct", 1, 1, radix("oct", "0o", 8)},
		{"hex", 1, 1, radix("hex", "0x", 16)},
		{"round", 1, 2, Round},
		{"format", 1, 2, Format},
	}
	ns := make(map[string]value.Value, len(table))
	for _, b := range table {
		ns[b.name] = value.NewNative(b.name, func(args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs(b.name, args, b.min, b.max); err != nil {
				return value.None, err
			}
			return b.fn(args)
		})
	}
	return ns
}

func printFn(out func(string)) value.NativeFunc {
	return func(args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.Format()
		}
		out(strings.Join(parts, " "))
		return value.None, nil
	}
}

func Str(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.String(""), nil
	}
	return value.String(args[0].Format()), nil
}

func Repr(args []value.Value) (value.Value, error) {
	return value.String(args[0].Repr()), nil
}

func Len(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Type {
	case value.TypeString:
		return value.Int(int64(len([]rune(v.Str())))), nil
	case value.TypeList:
		return value.Int(int64(v.List().Len())), nil
	case value.TypeDict:
		return value.Int(int64(v.Dict().Len())), nil
	case value.TypeModule:
		return value.Int(int64(len(v.Module().Names()))), nil
	}
	return value.None, fmt.Errorf("%w: object of type '%s' has no len()", bridge.ErrArgType, v.TypeName())
}

// Range yields integers lazily: range(stop), range(start, stop) or
// range(start, stop, step).
func Range(args []value.Value) (value.Value, error) {
	bounds := make([]int64, len(args))
	for i := range args {
		n, err := bridge.IntArg("range", args, i)
		if err != nil {
			return value.None, err
		}
		bounds[i] = n
	}
	start, stop, step := int64(0), bounds[0], int64(1)
	if len(bounds) > 1 {
		start, stop = bounds[0], bounds[1]
	}
	if len(bounds) > 2 {
		step = bounds[2]
	}
	if step == 0 {
		return value.None, fmt.Errorf("%w: range() step must not be zero", ErrValue)
	}
	i, done := start, false
	return value.Iter(value.NewGenerator(func() (value.Value, bool, error) {
		if done || (step > 0 && i >= stop) || (step < 0 && i <= stop) {
			return value.None, false, nil
		}
		v := i
		next := i + step
		// int64 wraparound means the next value is past stop.
		if (next > i) != (step > 0) {
			done = true
		}
		i = next
		return value.Int(v), true, nil
	})), nil
}

func callableArg(name string, args []value.Value, i int) (value.Callable, error) {
	if args[i].Type != value.TypeFunction {
		return nil, fmt.Errorf("%w: %s() argument %d must be callable, not '%s'", bridge.ErrArgType, name, i+1, args[i].TypeName())
	}
	return args[i].Callable(), nil
}

func iterArg(name string, args []value.Value, i int) (value.Iterator, error) {
	it, err := value.Iterate(args[i])
	if err != nil {
		return nil, fmt.Errorf("%w: %s(): %v", bridge.ErrArgType, name, err)
	}
	return it, nil
}

// Map applies fn lazily to each item of the iterable.
func Map(args []value.Value) (value.Value, error) {
	fn, err := callableArg("map", args, 0)
	if err != nil {
		return value.None, err
	}
	it, err := iterArg("map", args, 1)
	if err != nil {
		return value.None, err
	}
	return value.Iter(value.NewGenerator(func() (value.Value, bool, error) {
		item, ok, err := it.Next()
		if err != nil || !ok {
			return value.None, false, err
		}
		v, err := fn.Call([]value.Value{item})
		if err != nil {
			return value.None, false, err
		}
		return v, true, nil
	})), nil
}

// Filter keeps the items for which fn is truthy. A None predicate tests
// the items themselves.
func Filter(args []value.Value) (value.Value, error) {
	var fn value.Callable
	if args[0].Type != value.TypeNone {
		var err error
		if fn, err = callableArg("filter", args, 0); err != nil {
			return value.None, err
		}
	}
	it, err := iterArg("filter", args, 1)
	if err != nil {
		return value.None, err
	}
	return value.Iter(value.NewGenerator(func() (value.Value, bool, error) {
		for {
			item, ok, err := it.Next()
			if err != nil || !ok {
				return value.None, false, err
			}
			keep := item
			if fn != nil {
				if keep, err = fn.Call([]value.Value{item}); err != nil {
					return value.None, false, err
				}
			}
			if keep.Truthy() {
				return item, true, nil
			}
		}
	})), nil
}

func Enumerate(args []value.Value) (value.Value, error) {
	it, err := iterArg("enumerate", args, 0)
	if err != nil {
		return value.None, err
	}
	i := int64(0)
	if len(args) > 1 {
		if i, err = bridge.IntArg("enumerate", args, 1); err != nil {
			return value.None, err
		}
	}
	return value.Iter(value.NewGenerator(func() (value.Value, bool, error) {
		item, ok, err := it.Next()
		if err != nil || !ok {
			return value.None, false, err
		}
		pair := value.FromList(value.NewList(value.Int(i), item))
		i++
		return pair, true, nil
	})), nil
}

// Zip pairs items until the shortest input is exhausted.
func Zip(args []value.Value) (value.Value, error) {
	its := make([]value.Iterator, len(args))
	for i := range args {
		it, err := iterArg("zip", args, i)
		if err != nil {
			return value.None, err
		}
		its[i] = it
	}
	return value.Iter(value.NewGenerator(func() (value.Value, bool, error) {
		if len(its) == 0 {
			return value.None, false, nil
		}
		row := make([]value.Value, len(its))
		for i, it := range its {
			item, ok, err := it.Next()
			if err != nil || !ok {
				return value.None, false, err
			}
			row[i] = item
		}
		return value.FromList(value.NewList(row...)), true, nil
	})), nil
}

func Iter(args []value.Value) (value.Value, error) {
	if args[0].Type == value.TypeIterator {
		return args[0], nil
	}
	it, err := iterArg("iter", args, 0)
	if err != nil {
		return value.None, err
	}
	return value.Iter(it), nil
}

// Next pulls one item. An exhausted iterator returns the default, or fails
// when none was given.
func Next(args []value.Value) (value.Value, error) {
	if args[0].Type != value.TypeIterator {
		return value.None, fmt.Errorf("%w: '%s' object is not an iterator", bridge.ErrArgType, args[0].TypeName())
	}
	item, ok, err := args[0].Iterator().Next()
	if err != nil {
		return value.None, err
	}
	if !ok {
		if len(args) > 1 {
			return args[1], nil
		}
		return value.None, fmt.Errorf("%w: iterator is exhausted", ErrValue)
	}
	return item, nil
}

func collect(name string, v value.Value) ([]value.Value, error) {
	items, err := value.Collect(v)
	if errors.Is(err, value.ErrNotIterable) {
		return nil, fmt.Errorf("%w: %s(): %v", bridge.ErrArgType, name, err)
	}
	return items, err
}

func List(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.FromList(value.NewList()), nil
	}
	items, err := collect("list", args[0])
	if err != nil {
		return value.None, err
	}
	return value.FromList(value.NewList(items...)), nil
}

// Dict copies a dict or builds one from [key, value] pairs.
func Dict(args []value.Value) (value.Value, error) {
	d := value.NewDict()
	if len(args) == 0 {
		return value.FromDict(d), nil
	}
	if args[0].Type == value.TypeDict {
		src := args[0].Dict()
		for _, k := range src.Keys() {
			v, _ := src.Get(k)
			_ = d.Set(k, v)
		}
		return value.FromDict(d), nil
	}
	pairs, err := collect("dict", args[0])
	if err != nil {
		return value.None, err
	}
	for _, p := range pairs {
		if p.Type != value.TypeList || p.List().Len() != 2 {
			return value.None, fmt.Errorf("%w: dict() items must be [key, value] pairs, got %s", ErrValue, p.Repr())
		}
		if err := d.Set(p.List().Items[0], p.List().Items[1]); err != nil {
			return value.None, err
		}
	}
	return value.FromDict(d), nil
}

func Int(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Int(0), nil
	}
	v := args[0]
	switch v.Type {
	case value.TypeInt, value.TypeBool:
		return value.Int(v.Int()), nil
	case value.TypeFloat:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return value.None, fmt.Errorf("%w: cannot convert %s to int", ErrValue, v.Repr())
		}
		return value.Int(int64(f)), nil
	case value.TypeString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Str()), 10, 64)
		if err != nil {
			return value.None, fmt.Errorf("%w: invalid literal for int(): %s", ErrValue, v.Repr())
		}
		return value.Int(i), nil
	}
	return value.None, fmt.Errorf("%w: int() argument must be a string or a number, not '%s'", bridge.ErrArgType, v.TypeName())
}

func Float(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Float(0), nil
	}
	v := args[0]
	switch {
	case v.IsNumber():
		return value.Float(v.Float()), nil
	case v.Type == value.TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
		if err != nil {
			return value.None, fmt.Errorf("%w: could not convert string to float: %s", ErrValue, v.Repr())
		}
		return value.Float(f), nil
	}
	return value.None, fmt.Errorf("%w: float() argument must be a string or a number, not '%s'", bridge.ErrArgType, v.TypeName())
}

func Bool(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.False, nil
	}
	return value.Bool(args[0].Truthy()), nil
}

func Abs(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Type {
	case value.TypeInt, value.TypeBool:
		if i := v.Int(); i < 0 {
			return value.Int(-i), nil
		}
		return value.Int(v.Int()), nil
	case value.TypeFloat:
		return value.Float(math.Abs(v.Float())), nil
	}
	return value.None, fmt.Errorf("%w: bad operand type for abs(): '%s'", bridge.ErrArgType, v.TypeName())
}

// extremes accepts either one iterable or several values.
func extremes(name string, args []value.Value, better func(c int) bool) (value.Value, error) {
	items := args
	if len(args) == 1 {
		var err error
		if items, err = collect(name, args[0]); err != nil {
			return value.None, err
		}
	}
	if len(items) == 0 {
		return value.None, fmt.Errorf("%w: %s() arg is an empty sequence", ErrValue, name)
	}
	best := items[0]
	for _, v := range items[1:] {
		c, err := value.Compare(v, best)
		if err != nil {
			return value.None, err
		}
		if better(c) {
			best = v
		}
	}
	return best, nil
}

func Min(args []value.Value) (value.Value, error) {
	return extremes("min", args, func(c int) bool { return c < 0 })
}

func Max(args []value.Value) (value.Value, error) {
	return extremes("max", args, func(c int) bool { return c > 0 })
}

// Sum stays integral until a float is seen.
func Sum(args []value.Value) (value.Value, error) {
	items, err := collect("sum", args[0])
	if err != nil {
		return value.None, err
	}
	acc := value.Int(0)
	if len(args) > 1 {
		acc = args[1]
	}
	for _, v := range items {
		if !v.IsNumber() || !acc.IsNumber() {
			return value.None, fmt.Errorf("%w: unsupported operand for sum(): '%s'", bridge.ErrArgType, v.TypeName())
		}
		if acc.Type == value.TypeFloat || v.Type == value.TypeFloat {
			acc = value.Float(acc.Float() + v.Float())
		} else {
			acc = value.Int(acc.Int() + v.Int())
		}
	}
	return acc, nil
}

func All(args []value.Value) (value.Value, error) {
	it, err := iterArg("all", args, 0)
	if err != nil {
		return value.None, err
	}
	for {
		item, ok, err := it.Next()
		if err != nil {
			return value.None, err
		}
		if !ok {
			return value.True, nil
		}
		if !item.Truthy() {
			return value.False, nil
		}
	}
}

func Any(args []value.Value) (value.Value, error) {
	it, err := iterArg("any", args, 0)
	if err != nil {
		return value.None, err
	}
	for {
		item, ok, err := it.Next()
		if err != nil {
			return value.None, err
		}
		if !ok {
			return value.False, nil
		}
		if item.Truthy() {
			return value.True, nil
		}
	}
}

// Sorted returns a new list: sorted(iterable[, key[, reverse]]). The sort
// is stable; key may be None.
func Sorted(args []value.Value) (value.Value, error) {
	items, err := collect("sorted", args[0])
	if err != nil {
		return value.None, err
	}
	keys := items
	if k := bridge.Arg(args, 1, value.None); k.Type != value.TypeNone {
		fn, err := callableArg("sorted", args, 1)
		if err != nil {
			return value.None, err
		}
		keys = make([]value.Value, len(items))
		for i, item := range items {
			if keys[i], err = fn.Call([]value.Value{item}); err != nil {
				return value.None, err
			}
		}
	}
	reverse := bridge.Arg(args, 2, value.False).Truthy()

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	var cmpErr error
	sort.SliceStable(idx, func(a, b int) bool {
		c, err := value.Compare(keys[idx[a]], keys[idx[b]])
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		if reverse {
			return c > 0
		}
		return c < 0
	})
	if cmpErr != nil {
		return value.None, cmpErr
	}
	out := make([]value.Value, len(items))
	for i, j := range idx {
		out[i] = items[j]
	}
	return value.FromList(value.NewList(out...)), nil
}

func Reversed(args []value.Value) (value.Value, error) {
	items, err := collect("reversed", args[0])
	if err != nil {
		return value.None, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return value.FromList(value.NewList(items...)), nil
}

func Type(args []value.Value) (value.Value, error) {
	return value.String(args[0].TypeName()), nil
}

func Callable(args []value.Value) (value.Value, error) {
	return value.Bool(args[0].Type == value.TypeFunction), nil
}

func Chr(args []value.Value) (value.Value, error) {
	i, err := bridge.IntArg("chr", args, 0)
	if err != nil {
		return value.None, err
	}
	if i < 0 || i > 0x10FFFF {
		return value.None, fmt.Errorf("%w: chr() arg not in range(0x110000)", ErrValue)
	}
	return value.String(string(rune(i))), nil
}

func Ord(args []value.Value) (value.Value, error) {
	s, err := bridge.StringArg("ord", args, 0)
	if err != nil {
		return value.None, err
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return value.None, fmt.Errorf("%w: ord() expected a character, but string of length %d found", ErrValue, len(runes))
	}
	return value.Int(int64(runes[0])), nil
}

func radix(name, prefix string, base int) value.NativeFunc {
	return func(args []value.Value) (value.Value, error) {
		i, err := bridge.IntArg(name, args, 0)
		if err != nil {
			return value.None, err
		}
		if i < 0 {
			return value.String("-" + prefix + strconv.FormatInt(-i, base)), nil
		}
		return value.String(prefix + strconv.FormatInt(i, base)), nil
	}
}

// Round rounds half away from zero. Without ndigits the result is an int.
func Round(args []value.Value) (value.Value, error) {
	x, err := bridge.NumberArg("round", args, 0)
	if err != nil {
		return value.None, err
	}
	nd := bridge.Arg(args, 1, value.None)
	if nd.Type == value.TypeNone {
		return value.Int(int64(math.Round(x))), nil
	}
	n, err := bridge.IntArg("round", args, 1)
	if err != nil {
		return value.None, err
	}
	if args[0].Type != value.TypeFloat {
		return args[0], nil
	}
	p := math.Pow(10, float64(n))
	return value.Float(math.Round(x*p) / p), nil
}
