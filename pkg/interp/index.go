package interp

import (
	"fmt"

	"github.com/agenthands/pyworker/pkg/core/value"
)

func intKey(holder, key value.Value) (int64, error) {
	if key.Type != value.TypeInt && key.Type != value.TypeBool {
		return 0, fmt.Errorf("%w: %s indices must be integers, not '%s'", ErrNotIndexable, holder.TypeName(), key.TypeName())
	}
	return key.Int(), nil
}

func noAttribute(holder value.Value, name string) error {
	return fmt.Errorf("%w: '%s' object has no attribute '%s'", ErrNoAttribute, holder.TypeName(), name)
}

// getIndex reads holder[key], or holder.key when attr is set.
func getIndex(holder, key value.Value, attr bool) (value.Value, error) {
	switch holder.Type {
	case value.TypeList:
		if attr {
			if m, ok := method(holder, key.Str()); ok {
				return m, nil
			}
			return value.None, noAttribute(holder, key.Str())
		}
		i, err := intKey(holder, key)
		if err != nil {
			return value.None, err
		}
		return holder.List().Get(i)

	case value.TypeDict:
		if attr {
			if m, ok := method(holder, key.Str()); ok {
				return m, nil
			}
		}
		if v, ok := holder.Dict().Get(key); ok {
			return v, nil
		}
		if attr {
			return value.None, noAttribute(holder, key.Str())
		}
		return value.None, fmt.Errorf("%w: %s", value.ErrKeyNotFound, key.Repr())

	case value.TypeString:
		if attr {
			if m, ok := method(holder, key.Str()); ok {
				return m, nil
			}
			return value.None, noAttribute(holder, key.Str())
		}
		i, err := intKey(holder, key)
		if err != nil {
			return value.None, err
		}
		runes := []rune(holder.Str())
		n := int64(len(runes))
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return value.None, fmt.Errorf("%w: %d (len %d)", value.ErrIndexRange, i, n)
		}
		return value.String(string(runes[i])), nil

	case value.TypeModule:
		if key.Type == value.TypeString {
			if v, ok := holder.Module().Get(key.Str()); ok {
				return v, nil
			}
		}
		return value.None, fmt.Errorf("%w: module '%s' has no attribute %s", ErrNoAttribute, holder.Module().Name, key.Repr())

	case value.TypeObject:
		if key.Type != value.TypeString {
			return value.None, fmt.Errorf("%w: '%s' object", ErrNotIndexable, holder.TypeName())
		}
		return holder.Object().GetAttr(key.Str())
	}
	return value.None, fmt.Errorf("%w: '%s' object", ErrNotIndexable, holder.TypeName())
}

// setIndex writes holder[key] = v. Attribute targets use the same path.
func setIndex(holder, key, v value.Value) error {
	switch holder.Type {
	case value.TypeList:
		i, err := intKey(holder, key)
		if err != nil {
			return err
		}
		return holder.List().Set(i, v)
	case value.TypeDict:
		return holder.Dict().Set(key, v)
	case value.TypeModule:
		if key.Type != value.TypeString {
			return fmt.Errorf("%w: module attribute names must be strings", ErrNotIndexable)
		}
		holder.Module().Set(key.Str(), v)
		return nil
	case value.TypeObject:
		if key.Type != value.TypeString {
			return fmt.Errorf("%w: '%s' object", ErrNotIndexable, holder.TypeName())
		}
		return holder.Object().SetAttr(key.Str(), v)
	}
	return fmt.Errorf("%w: '%s' object does not support item assignment", ErrNotIndexable, holder.TypeName())
}
