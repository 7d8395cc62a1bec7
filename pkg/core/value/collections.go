package value

import (
	"fmt"
	"math"
	"sort"
)

// List is the ordered mutable sequence. It is shared by reference.
type List struct {
	Items []Value
}

// NewList creates a list holding items (not copied).
func NewList(items ...Value) *List {
	if items == nil {
		items = []Value{}
	}
	return &List{Items: items}
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// index normalizes a possibly negative index.
func (l *List) index(i int64) (int, error) {
	n := int64(len(l.Items))
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrIndexRange, i, n)
	}
	return int(i), nil
}

func (l *List) Get(i int64) (Value, error) {
	idx, err := l.index(i)
	if err != nil {
		return None, err
	}
	return l.Items[idx], nil
}

func (l *List) Set(i int64, v Value) error {
	idx, err := l.index(i)
	if err != nil {
		return err
	}
	l.Items[idx] = v
	return nil
}

func (l *List) Append(v Value) {
	l.Items = append(l.Items, v)
}

// Pop removes and returns the item at i.
func (l *List) Pop(i int64) (Value, error) {
	idx, err := l.index(i)
	if err != nil {
		return None, err
	}
	v := l.Items[idx]
	l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
	return v, nil
}

// hashKey is the normalized form of a hashable value. Numerically equal
// ints, floats and bools share a key.
type hashKey struct {
	kind Type
	data uint64
	str  string
}

// hashOf normalizes v for use as a dict key.
func hashOf(v Value) (hashKey, error) {
	switch v.Type {
	case TypeNone, TypeUndefined:
		return hashKey{kind: v.Type}, nil
	case TypeBool, TypeInt:
		return hashKey{kind: TypeInt, data: v.Data}, nil
	case TypeFloat:
		f := v.Float()
		if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<63 {
			return hashKey{kind: TypeInt, data: uint64(int64(f))}, nil
		}
		return hashKey{kind: TypeFloat, data: v.Data}, nil
	case TypeString:
		return hashKey{kind: TypeString, str: v.Str()}, nil
	}
	return hashKey{}, fmt.Errorf("%w: '%s'", ErrUnhashable, v.TypeName())
}

type dictEntry struct {
	key Value
	val Value
}

// Dict is an insertion-ordered key/value mapping over hashable keys.
type Dict struct {
	entries []dictEntry
	index   map[hashKey]int
}

func NewDict() *Dict {
	return &Dict{index: make(map[hashKey]int)}
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

func (d *Dict) Get(k Value) (Value, bool) {
	hk, err := hashOf(k)
	if err != nil {
		return None, false
	}
	i, ok := d.index[hk]
	if !ok {
		return None, false
	}
	return d.entries[i].val, true
}

// Set inserts or overwrites k. The original insertion position is kept
// on overwrite.
func (d *Dict) Set(k, v Value) error {
	hk, err := hashOf(k)
	if err != nil {
		return err
	}
	if i, ok := d.index[hk]; ok {
		d.entries[i].val = v
		return nil
	}
	d.index[hk] = len(d.entries)
	d.entries = append(d.entries, dictEntry{key: k, val: v})
	return nil
}

func (d *Dict) Delete(k Value) bool {
	hk, err := hashOf(k)
	if err != nil {
		return false
	}
	i, ok := d.index[hk]
	if !ok {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, hk)
	for j := i; j < len(d.entries); j++ {
		nk, _ := hashOf(d.entries[j].key)
		d.index[nk] = j
	}
	return true
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Value {
	keys := make([]Value, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.key
	}
	return keys
}

func (d *Dict) Values() []Value {
	vals := make([]Value, len(d.entries))
	for i, e := range d.entries {
		vals[i] = e.val
	}
	return vals
}

// Module is a flat namespace of exported names.
type Module struct {
	Name    string
	members map[string]Value
	order   []string
}

// NewModule builds a namespace from members. Names are ordered
// alphabetically since Go maps carry no order.
func NewModule(name string, members map[string]Value) *Module {
	m := &Module{Name: name, members: make(map[string]Value, len(members))}
	names := make([]string, 0, len(members))
	for k := range members {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		m.Set(k, members[k])
	}
	return m
}

func (m *Module) Get(name string) (Value, bool) {
	v, ok := m.members[name]
	return v, ok
}

func (m *Module) Set(name string, v Value) {
	if _, ok := m.members[name]; !ok {
		m.order = append(m.order, name)
	}
	m.members[name] = v
}

// Names returns exported names in definition order.
func (m *Module) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}
