package reactive

import (
	"maps"
	"slices"
	"sync"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

// PropertyContainer is the capability behaviours need from an instance:
// read, write and observe its properties by name.
//
// Set on an unknown property is a no-op, as is observing or removing an
// observer on an unknown property.
type PropertyContainer interface {
	Get(name string) (ir.Value, bool)
	Set(name string, value ir.Value)
	HasProperty(name string) bool
	ObserveWithHandle(name string, fn Observer, handle ObserverHandle)
	RemoveObserver(name string, handle ObserverHandle)
}

// BehaviourTypesContainer tracks which behaviour types are currently applied
// to an instance.
type BehaviourTypesContainer interface {
	BehavesAs(ty ir.BehaviourTypeID) bool
	AddBehaviour(ty ir.BehaviourTypeID)
	RemoveBehaviour(ty ir.BehaviourTypeID)
	Behaviours() []ir.BehaviourTypeID
}

// ComponentContainer exposes the components of an instance.
type ComponentContainer interface {
	Components() []ir.ComponentTypeID
	HasComponent(ty ir.ComponentTypeID) bool
}

// Instance is a reactive graph element identified by ID.
type Instance[ID comparable] interface {
	PropertyContainer
	BehaviourTypesContainer
	ComponentContainer
	ID() ID
}

// element is the state shared by entities and relations.
type element struct {
	properties *Properties

	mu         sync.RWMutex
	components map[ir.ComponentTypeID]struct{}
	behaviours map[ir.BehaviourTypeID]struct{}
}

func (e *element) init(values map[string]ir.Value) {
	e.properties = NewProperties(values)
	e.components = make(map[ir.ComponentTypeID]struct{})
	e.behaviours = make(map[ir.BehaviourTypeID]struct{})
}

// Properties returns the underlying property set.
func (e *element) Properties() *Properties {
	return e.properties
}

// Property returns the named property.
func (e *element) Property(name string) (*Property, bool) {
	return e.properties.Property(name)
}

func (e *element) Get(name string) (ir.Value, bool) {
	p, ok := e.properties.Property(name)
	if !ok {
		return nil, false
	}
	return p.Get(), true
}

func (e *element) Set(name string, value ir.Value) {
	if p, ok := e.properties.Property(name); ok {
		p.Set(value)
	}
}

// SetNoPropagate stores value without notifying observers.
func (e *element) SetNoPropagate(name string, value ir.Value) {
	if p, ok := e.properties.Property(name); ok {
		p.SetNoPropagate(value)
	}
}

// Tick re-sends the current value of every property, in name order.
func (e *element) Tick() {
	for _, name := range e.properties.Names() {
		if p, ok := e.properties.Property(name); ok {
			p.Tick()
		}
	}
}

func (e *element) HasProperty(name string) bool {
	_, ok := e.properties.Property(name)
	return ok
}

// AddProperty adds a mutable property unless one of that name exists.
func (e *element) AddProperty(name string, value ir.Value) bool {
	return e.properties.Insert(NewProperty(name, value))
}

// RemoveProperty deletes the named property.
func (e *element) RemoveProperty(name string) bool {
	return e.properties.Remove(name)
}

func (e *element) ObserveWithHandle(name string, fn Observer, handle ObserverHandle) {
	if p, ok := e.properties.Property(name); ok {
		p.Observe(handle, fn)
	}
}

func (e *element) RemoveObserver(name string, handle ObserverHandle) {
	if p, ok := e.properties.Property(name); ok {
		p.RemoveObserver(handle)
	}
}

// ObserverCount returns the number of observers on the named property.
func (e *element) ObserverCount(name string) int {
	if p, ok := e.properties.Property(name); ok {
		return p.ObserverCount()
	}
	return 0
}

func (e *element) Components() []ir.ComponentTypeID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.SortedFunc(maps.Keys(e.components), ir.CompareComponentTypeIDs)
}

func (e *element) HasComponent(ty ir.ComponentTypeID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.components[ty]
	return ok
}

// AddComponent marks the instance as having component ty.
func (e *element) AddComponent(ty ir.ComponentTypeID) {
	e.mu.Lock()
	e.components[ty] = struct{}{}
	e.mu.Unlock()
}

// RemoveComponent removes component ty. Its properties are kept.
func (e *element) RemoveComponent(ty ir.ComponentTypeID) {
	e.mu.Lock()
	delete(e.components, ty)
	e.mu.Unlock()
}

func (e *element) BehavesAs(ty ir.BehaviourTypeID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.behaviours[ty]
	return ok
}

func (e *element) AddBehaviour(ty ir.BehaviourTypeID) {
	e.mu.Lock()
	e.behaviours[ty] = struct{}{}
	e.mu.Unlock()
}

func (e *element) RemoveBehaviour(ty ir.BehaviourTypeID) {
	e.mu.Lock()
	delete(e.behaviours, ty)
	e.mu.Unlock()
}

func (e *element) Behaviours() []ir.BehaviourTypeID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.SortedFunc(maps.Keys(e.behaviours), ir.CompareBehaviourTypeIDs)
}
