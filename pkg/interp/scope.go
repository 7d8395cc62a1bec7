package interp

import (
	"sort"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
)

// Scope is one link of the lexical chain. Closures hold scopes by
// reference, so later assignments in an enclosing scope stay visible.
type Scope struct {
	vars   map[string]value.Value
	parent *Scope
}

func NewScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]value.Value), parent: parent}
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

// Lookup resolves name by walking outward through parent links.
func (s *Scope) Lookup(name string) (value.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	return value.None, false
}

// Local returns a binding of this scope only.
func (s *Scope) Local(name string) (value.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Set binds name in this scope.
func (s *Scope) Set(name string, v value.Value) {
	s.vars[name] = v
}

// Names lists this scope's own bindings, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScopeToModule snapshots the bindings of scope into a module namespace.
// Later changes to the scope are not reflected. Functions are exported the
// way native module functions are: a call through the module does not
// receive the module itself as its first argument.
func ScopeToModule(name string, scope *Scope) *value.Module {
	members := make(map[string]value.Value, len(scope.vars))
	for k, v := range scope.vars {
		if v.Type == value.TypeFunction {
			v = bridge.Func(k, v.Callable().Call)
		}
		members[k] = v
	}
	return value.NewModule(name, members)
}
