package reactive

import (
	"slices"
	"sync"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

// Observer receives every value sent through a property.
type Observer func(ir.Value)

// Mutability controls whether SetChecked accepts writes.
type Mutability int

const (
	Mutable Mutability = iota
	Immutable
)

func (m Mutability) String() string {
	if m == Immutable {
		return "immutable"
	}
	return "mutable"
}

type subscriber struct {
	handle ObserverHandle
	fn     Observer
}

// Property is a named value with synchronous change notification.
//
// The subscriber slice is copy-on-write: registration and removal replace it,
// so Set can snapshot it under the lock and notify without holding the lock.
type Property struct {
	name       string
	mutability Mutability

	mu          sync.RWMutex
	value       ir.Value
	subscribers []subscriber
}

// NewProperty creates a mutable property holding value.
func NewProperty(name string, value ir.Value) *Property {
	return NewPropertyWithMutability(name, value, Mutable)
}

// NewPropertyWithMutability creates a property with explicit mutability.
func NewPropertyWithMutability(name string, value ir.Value, m Mutability) *Property {
	return &Property{
		name:       name,
		mutability: m,
		value:      ir.Normalize(value),
	}
}

// Name returns the property name.
func (p *Property) Name() string {
	return p.name
}

// Mutability returns whether SetChecked accepts writes.
func (p *Property) Mutability() Mutability {
	return p.mutability
}

// Get returns the last stored value.
func (p *Property) Get() ir.Value {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set stores value and notifies every observer registered at this moment,
// in registration order. Equal values are not deduplicated.
func (p *Property) Set(value ir.Value) {
	value = ir.Normalize(value)

	p.mu.Lock()
	p.value = value
	subs := p.subscribers
	p.mu.Unlock()

	notify(subs, value)
}

// SetChecked is Set for mutable properties and a no-op for immutable ones.
// Reports whether the write happened.
func (p *Property) SetChecked(value ir.Value) bool {
	if p.mutability == Immutable {
		return false
	}
	p.Set(value)
	return true
}

// SetNoPropagate stores value without notifying observers.
func (p *Property) SetNoPropagate(value ir.Value) {
	p.mu.Lock()
	p.value = ir.Normalize(value)
	p.mu.Unlock()
}

// Tick re-sends the current value to every observer.
func (p *Property) Tick() {
	p.mu.RLock()
	value := p.value
	subs := p.subscribers
	p.mu.RUnlock()

	notify(subs, value)
}

// Send notifies observers with value without storing it.
func (p *Property) Send(value ir.Value) {
	p.mu.RLock()
	subs := p.subscribers
	p.mu.RUnlock()

	notify(subs, ir.Normalize(value))
}

// Observe registers fn under handle. Registering an existing handle replaces
// its observer in place, keeping its position in the notification order.
func (p *Property) Observe(handle ObserverHandle, fn Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := slices.Clone(p.subscribers)
	if i := indexOf(next, handle); i >= 0 {
		next[i].fn = fn
	} else {
		next = append(next, subscriber{handle: handle, fn: fn})
	}
	p.subscribers = next
}

// RemoveObserver unregisters handle. Reports whether it was registered.
func (p *Property) RemoveObserver(handle ObserverHandle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := indexOf(p.subscribers, handle)
	if i < 0 {
		return false
	}
	p.subscribers = slices.Delete(slices.Clone(p.subscribers), i, i+1)
	return true
}

// RemoveAllObservers unregisters every observer.
func (p *Property) RemoveAllObservers() {
	p.mu.Lock()
	p.subscribers = nil
	p.mu.Unlock()
}

// ObserverCount returns the number of registered observers.
func (p *Property) ObserverCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}

// HasObserver reports whether handle is registered.
func (p *Property) HasObserver(handle ObserverHandle) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return indexOf(p.subscribers, handle) >= 0
}

func indexOf(subs []subscriber, handle ObserverHandle) int {
	return slices.IndexFunc(subs, func(s subscriber) bool { return s.handle == handle })
}

func notify(subs []subscriber, value ir.Value) {
	for _, s := range subs {
		s.fn(value)
	}
}
