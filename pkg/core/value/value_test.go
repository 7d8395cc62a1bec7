package value_test

import (
	"errors"
	"testing"

	"github.com/agenthands/pyworker/pkg/core/value"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want bool
	}{
		{"None", value.None, false},
		{"Undefined", value.Undefined, false},
		{"False", value.False, false},
		{"Zero", value.Int(0), false},
		{"ZeroFloat", value.Float(0), false},
		{"EmptyString", value.String(""), false},
		{"EmptyList", value.FromList(value.NewList()), false},
		{"EmptyDict", value.FromDict(value.NewDict()), false},
		{"One", value.Int(1), true},
		{"Text", value.String("x"), true},
		{"List", value.FromList(value.NewList(value.None)), true},
		{"Function", value.NewNative("f", nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Truthy(); got != tt.want {
				t.Errorf("Truthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	list := value.FromList(value.NewList(value.Int(1), value.String("a")))
	tests := []struct {
		name string
		a, b value.Value
		want bool
	}{
		{"IntFloat", value.Int(2), value.Float(2.0), true},
		{"BoolInt", value.True, value.Int(1), true},
		{"Strings", value.String("a"), value.String("a"), true},
		{"StringInt", value.String("1"), value.Int(1), false},
		{"SameList", list, list, true},
		{"EqualLists", list, value.FromList(value.NewList(value.Int(1), value.String("a"))), true},
		{"ShorterList", list, value.FromList(value.NewList(value.Int(1))), false},
		{"NoneNone", value.None, value.None, true},
		{"NoneUndefined", value.None, value.Undefined, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := value.Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a.Repr(), tt.b.Repr(), got, tt.want)
			}
		})
	}
}

func TestIdenticalReferences(t *testing.T) {
	a := value.FromList(value.NewList(value.Int(1)))
	b := value.FromList(value.NewList(value.Int(1)))
	if !value.Identical(a, a) {
		t.Error("a list must be identical to itself")
	}
	if value.Identical(a, b) {
		t.Error("distinct lists must not be identical")
	}
}

func TestFormat(t *testing.T) {
	d := value.NewDict()
	_ = d.Set(value.String("k"), value.Float(1))
	_ = d.Set(value.Int(2), value.FromList(value.NewList(value.String("s"), value.None)))

	tests := []struct {
		name string
		v    value.Value
		want string
	}{
		{"Int", value.Int(-7), "-7"},
		{"IntegralFloat", value.Float(3), "3.0"},
		{"Float", value.Float(0.25), "0.25"},
		{"Bool", value.True, "True"},
		{"None", value.None, "None"},
		{"String", value.String("hi"), "hi"},
		{"Dict", value.FromDict(d), `{"k": 1.0, 2: ["s", None]}`},
		{"Native", value.NewNative("len", nil), "<function len>"},
		{"Module", value.FromModule(value.NewModule("math", nil)), "<module 'math'>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Format(); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListIndexing(t *testing.T) {
	l := value.NewList(value.Int(1), value.Int(2), value.Int(3))
	v, err := l.Get(-1)
	if err != nil || v.Int() != 3 {
		t.Errorf("Get(-1) = %v, %v", v.Format(), err)
	}
	if err := l.Set(-3, value.Int(9)); err != nil || l.Items[0].Int() != 9 {
		t.Errorf("Set(-3) failed: %v", err)
	}
	if _, err := l.Get(3); !errors.Is(err, value.ErrIndexRange) {
		t.Errorf("expected ErrIndexRange, got %v", err)
	}
	popped, err := l.Pop(0)
	if err != nil || popped.Int() != 9 || l.Len() != 2 {
		t.Errorf("Pop(0) = %v, %v, len %d", popped.Format(), err, l.Len())
	}
}

func TestDictKeys(t *testing.T) {
	d := value.NewDict()
	_ = d.Set(value.String("b"), value.Int(1))
	_ = d.Set(value.Int(1), value.String("int"))
	_ = d.Set(value.String("a"), value.Int(2))

	// 1.0 and True share the key of 1
	_ = d.Set(value.Float(1.0), value.String("float"))
	if v, ok := d.Get(value.True); !ok || v.Str() != "float" {
		t.Errorf("Get(True) = %v, %v", v.Format(), ok)
	}
	if d.Len() != 3 {
		t.Errorf("Len() = %d, want 3", d.Len())
	}

	keys := d.Keys()
	if keys[0].Str() != "b" || keys[1].Int() != 1 || keys[2].Str() != "a" {
		t.Errorf("insertion order lost: %v", value.FromList(value.NewList(keys...)).Repr())
	}

	if !d.Delete(value.String("b")) {
		t.Fatal("Delete(b) = false")
	}
	if v, ok := d.Get(value.String("a")); !ok || v.Int() != 2 {
		t.Errorf("index not rebuilt after delete")
	}

	err := d.Set(value.FromList(value.NewList()), value.None)
	if !errors.Is(err, value.ErrUnhashable) {
		t.Errorf("expected ErrUnhashable, got %v", err)
	}
}

func TestIterateContainersRestart(t *testing.T) {
	list := value.FromList(value.NewList(value.Int(1), value.Int(2)))
	for i := 0; i < 2; i++ {
		items, err := value.Collect(list)
		if err != nil || len(items) != 2 {
			t.Fatalf("pass %d: got %d items, err %v", i, len(items), err)
		}
	}

	chars, err := value.Collect(value.String("héy"))
	if err != nil || len(chars) != 3 || chars[1].Str() != "é" {
		t.Errorf("string iteration = %v, %v", chars, err)
	}

	if _, err := value.Iterate(value.Int(3)); err == nil {
		t.Error("int must not be iterable")
	}
}

func TestGeneratorSingleUse(t *testing.T) {
	n := 0
	gen := value.Iter(value.NewGenerator(func() (value.Value, bool, error) {
		if n >= 3 {
			return value.None, false, nil
		}
		n++
		return value.Int(int64(n)), true, nil
	}))

	first, err := value.Collect(gen)
	if err != nil || len(first) != 3 {
		t.Fatalf("first pass = %d items, err %v", len(first), err)
	}
	second, err := value.Collect(gen)
	if err != nil || len(second) != 0 {
		t.Errorf("second pass must be empty, got %d items", len(second))
	}
}

func TestModuleNames(t *testing.T) {
	m := value.NewModule("m", map[string]value.Value{
		"b": value.Int(1),
		"a": value.Int(2),
	})
	m.Set("c", value.Int(3))
	names := m.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("Names() = %v", names)
	}
	if v, ok := m.Get("c"); !ok || v.Int() != 3 {
		t.Errorf("Get(c) = %v, %v", v.Format(), ok)
	}
}

func TestCompare(t *testing.T) {
	list := func(items ...value.Value) value.Value { return value.FromList(value.NewList(items...)) }
	tests := []struct {
		name string
		a, b value.Value
		want int
	}{
		{"IntFloat", value.Int(1), value.Float(1.5), -1},
		{"BoolInt", value.True, value.Int(1), 0},
		{"Strings", value.String("b"), value.String("a"), 1},
		{"ListPrefix", list(value.Int(1)), list(value.Int(1), value.Int(0)), -1},
		{"ListElement", list(value.Int(2)), list(value.Int(1), value.Int(9)), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := value.Compare(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := value.Compare(value.String("a"), value.Int(1)); !errors.Is(err, value.ErrUnordered) {
		t.Errorf("expected ErrUnordered, got %v", err)
	}
}
