package interp

import (
	"fmt"
	"strings"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
)

// methods holds the attributes of built-in variants. Each entry receives
// its receiver as the first argument, which attribute-call sugar supplies.
var methods = map[value.Type]map[string]value.Value{
	value.TypeList: {
		"append": typed("append", value.TypeList, func(recv value.Value, args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs("append", args, 1, 1); err != nil {
				return value.None, err
			}
			recv.List().Append(args[0])
			return value.None, nil
		}),
		"extend": typed("extend", value.TypeList, func(recv value.Value, args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs("extend", args, 1, 1); err != nil {
				return value.None, err
			}
			items, err := value.Collect(args[0])
			if err != nil {
				return value.None, err
			}
			l := recv.List()
			l.Items = append(l.Items, items...)
			return value.None, nil
		}),
		"insert": typed("insert", value.TypeList, func(recv value.Value, args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs("insert", args, 2, 2); err != nil {
				return value.None, err
			}
			i, err := bridge.IntArg("insert", args, 0)
			if err != nil {
				return value.None, err
			}
			l := recv.List()
			n := int64(len(l.Items))
			if i < 0 {
				i += n
			}
			i = max(0, min(i, n))
			l.Items = append(l.Items, value.None)
			copy(l.Items[i+1:], l.Items[i:])
			l.Items[i] = args[1]
			return value.None, nil
		}),
		"pop": typed("pop", value.TypeList, func(recv value.Value, args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs("pop", args, 0, 1); err != nil {
				return value.None, err
			}
			idx := int64(-1)
			if len(args) == 1 {
				i, err := bridge.IntArg("pop", args, 0)
				if err != nil {
					return value.None, err
				}
				idx = i
			}
			return recv.List().Pop(idx)
		}),
		"index": typed("index", value.TypeList, func(recv value.Value, args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs("index", args, 1, 1); err != nil {
				return value.None, err
			}
			for i, item := range recv.List().Items {
				if value.Equal(item, args[0]) {
					return value.Int(int64(i)), nil
				}
			}
			return value.None, value.ErrKeyNotFound
		}),
	},
	value.TypeDict: {
		"keys": typed("keys", value.TypeDict, func(recv value.Value, args []value.Value) (value.Value, error) {
			return value.FromList(value.NewList(recv.Dict().Keys()...)), nil
		}),
		"values": typed("values", value.TypeDict, func(recv value.Value, args []value.Value) (value.Value, error) {
			return value.FromList(value.NewList(recv.Dict().Values()...)), nil
		}),
		"items": typed("items", value.TypeDict, func(recv value.Value, args []value.Value) (value.Value, error) {
			d := recv.Dict()
			pairs := make([]value.Value, 0, d.Len())
			for _, k := range d.Keys() {
				v, _ := d.Get(k)
				pairs = append(pairs, value.FromList(value.NewList(k, v)))
			}
			return value.FromList(value.NewList(pairs...)), nil
		}),
		"get": typed("get", value.TypeDict, func(recv value.Value, args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs("get", args, 1, 2); err != nil {
				return value.None, err
			}
			if v, ok := recv.Dict().Get(args[0]); ok {
				return v, nil
			}
			return bridge.Arg(args, 1, value.None), nil
		}),
		"update": typed("update", value.TypeDict, func(recv value.Value, args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs("update", args, 1, 1); err != nil {
				return value.None, err
			}
			if args[0].Type != value.TypeDict {
				return value.None, bridge.ErrArgType
			}
			src, dst := args[0].Dict(), recv.Dict()
			for _, k := range src.Keys() {
				v, _ := src.Get(k)
				if err := dst.Set(k, v); err != nil {
					return value.None, err
				}
			}
			return value.None, nil
		}),
	},
	value.TypeString: {
		"upper": stringMethod("upper", 0, 0, func(s string, args []value.Value) (value.Value, error) {
			return value.String(strings.ToUpper(s)), nil
		}),
		"lower": stringMethod("lower", 0, 0, func(s string, args []value.Value) (value.Value, error) {
			return value.String(strings.ToLower(s)), nil
		}),
		"strip": stringMethod("strip", 0, 1, func(s string, args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return value.String(strings.TrimSpace(s)), nil
			}
			cut, err := bridge.StringArg("strip", args, 0)
			if err != nil {
				return value.None, err
			}
			return value.String(strings.Trim(s, cut)), nil
		}),
		"split": stringMethod("split", 0, 1, func(s string, args []value.Value) (value.Value, error) {
			var parts []string
			if len(args) == 0 {
				parts = strings.Fields(s)
			} else {
				sep, err := bridge.StringArg("split", args, 0)
				if err != nil {
					return value.None, err
				}
				parts = strings.Split(s, sep)
			}
			return bridge.FromGo(parts)
		}),
		"join": stringMethod("join", 1, 1, func(s string, args []value.Value) (value.Value, error) {
			items, err := value.Collect(args[0])
			if err != nil {
				return value.None, err
			}
			parts := make([]string, len(items))
			for i, item := range items {
				parts[i] = item.Format()
			}
			return value.String(strings.Join(parts, s)), nil
		}),
		"replace": stringMethod("replace", 2, 2, func(s string, args []value.Value) (value.Value, error) {
			old, err := bridge.StringArg("replace", args, 0)
			if err != nil {
				return value.None, err
			}
			repl, err := bridge.StringArg("replace", args, 1)
			if err != nil {
				return value.None, err
			}
			return value.String(strings.ReplaceAll(s, old, repl)), nil
		}),
		"startswith": stringMethod("startswith", 1, 1, func(s string, args []value.Value) (value.Value, error) {
			prefix, err := bridge.StringArg("startswith", args, 0)
			if err != nil {
				return value.None, err
			}
			return value.Bool(strings.HasPrefix(s, prefix)), nil
		}),
		"endswith": stringMethod("endswith", 1, 1, func(s string, args []value.Value) (value.Value, error) {
			suffix, err := bridge.StringArg("endswith", args, 0)
			if err != nil {
				return value.None, err
			}
			return value.Bool(strings.HasSuffix(s, suffix)), nil
		}),
		"find": stringMethod("find", 1, 1, func(s string, args []value.Value) (value.Value, error) {
			sub, err := bridge.StringArg("find", args, 0)
			if err != nil {
				return value.None, err
			}
			i := strings.Index(s, sub)
			if i < 0 {
				return value.Int(-1), nil
			}
			// rune offset, matching string indexing
			return value.Int(int64(len([]rune(s[:i])))), nil
		}),
	},
}

// typed guards a method against receivers of the wrong variant, which
// happens when a method value is detached and called directly.
func typed(name string, t value.Type, fn func(recv value.Value, args []value.Value) (value.Value, error)) value.Value {
	return bridge.Method(name, func(recv value.Value, args []value.Value) (value.Value, error) {
		if recv.Type != t {
			return value.None, fmt.Errorf("%w: %s() needs a '%s' receiver, not '%s'", bridge.ErrArgType, name, t, recv.TypeName())
		}
		return fn(recv, args)
	})
}

func stringMethod(name string, minArgs, maxArgs int, fn func(s string, args []value.Value) (value.Value, error)) value.Value {
	return typed(name, value.TypeString, func(recv value.Value, args []value.Value) (value.Value, error) {
		if err := bridge.CheckArgs(name, args, minArgs, maxArgs); err != nil {
			return value.None, err
		}
		return fn(recv.Str(), args)
	})
}

// method resolves an attribute of a built-in variant.
func method(recv value.Value, name string) (value.Value, bool) {
	m, ok := methods[recv.Type][name]
	return m, ok
}
