package reactive

import (
	"maps"
	"slices"
	"sync"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

// Properties is the named property set of one instance.
// Properties may be added or removed while the instance is live, e.g. when
// a component is added.
type Properties struct {
	mu    sync.RWMutex
	props map[string]*Property
}

// NewProperties creates a property set holding the given initial values.
func NewProperties(values map[string]ir.Value) *Properties {
	ps := &Properties{props: make(map[string]*Property, len(values))}
	for name, v := range values {
		ps.props[name] = NewProperty(name, v)
	}
	return ps
}

// Property returns the named property.
func (ps *Properties) Property(name string) (*Property, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.props[name]
	return p, ok
}

// Insert adds p unless a property of the same name exists.
// Reports whether p was inserted.
func (ps *Properties) Insert(p *Property) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, exists := ps.props[p.Name()]; exists {
		return false
	}
	ps.props[p.Name()] = p
	return true
}

// Remove deletes the named property and drops its observers.
func (ps *Properties) Remove(name string) bool {
	ps.mu.Lock()
	p, ok := ps.props[name]
	delete(ps.props, name)
	ps.mu.Unlock()

	if ok {
		p.RemoveAllObservers()
	}
	return ok
}

// Names returns the property names in sorted order.
func (ps *Properties) Names() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return slices.Sorted(maps.Keys(ps.props))
}

// Len returns the number of properties.
func (ps *Properties) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.props)
}

// Snapshot returns the current value of every property.
func (ps *Properties) Snapshot() map[string]ir.Value {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make(map[string]ir.Value, len(ps.props))
	for name, p := range ps.props {
		out[name] = p.Get()
	}
	return out
}
