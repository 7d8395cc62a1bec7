// Package bridge connects host Go code to the scripting engine: a
// registry of module namespaces consumed by import, and adapters that turn
// plain Go functions into script callables.
package bridge

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/agenthands/pyworker/pkg/core/value"
)

var ErrModuleNotFound = errors.New("bridge: module not found")

// Registry maps module names to namespaces. One registry belongs to one
// engine instance; it also owns the builtins namespace that seeds every
// program scope.
type Registry struct {
	mu       sync.RWMutex
	modules  map[string]*value.Module
	builtins *value.Module
}

func NewRegistry() *Registry {
	return &Registry{
		modules:  make(map[string]*value.Module),
		builtins: value.NewModule("builtins", nil),
	}
}

// Register stores ns under name, replacing any previous entry.
func (r *Registry) Register(name string, ns *value.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = ns
}

// RegisterModule builds a namespace from members and registers it.
func (r *Registry) RegisterModule(name string, members map[string]value.Value) *value.Module {
	ns := value.NewModule(name, members)
	r.Register(name, ns)
	return ns
}

// Lookup returns the namespace registered under name.
func (r *Registry) Lookup(name string) (*value.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns, ok := r.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrModuleNotFound, name)
	}
	return ns, nil
}

func (r *Registry) Builtins() *value.Module {
	return r.builtins
}

// SetBuiltin adds or replaces a name visible to every program.
func (r *Registry) SetBuiltin(name string, v value.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins.Set(name, v)
}

// Names lists registered module names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
