package behaviour

import (
	"slices"
	"sync"

	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// Edge describes one observer registered through a PropertyObserverContainer.
//
// Target is nil for plain observers and set for propagation edges, which
// makes the wiring of a connected behaviour introspectable.
type Edge struct {
	Handle         reactive.ObserverHandle
	Source         reactive.PropertyContainer
	SourceProperty string
	Target         reactive.PropertyContainer
	TargetProperty string
}

// PropertyObserverContainer records every observer a behaviour registers so
// that all of them can be removed again.
//
// Observers are usually registered on the container's own instance; relation
// behaviours also register on the relation's outbound entity via ObserveOn or
// PropagateFrom. Either way the container keeps the handle.
type PropertyObserverContainer struct {
	instance reactive.PropertyContainer
	handles  reactive.HandleGenerator

	mu    sync.Mutex
	edges []Edge
}

// NewPropertyObserverContainer creates an empty container for instance.
// A nil generator defaults to UUIDv7 handles.
func NewPropertyObserverContainer(instance reactive.PropertyContainer, handles reactive.HandleGenerator) *PropertyObserverContainer {
	if handles == nil {
		handles = reactive.UUIDv7Handles{}
	}
	return &PropertyObserverContainer{instance: instance, handles: handles}
}

// ObserveWithHandle registers fn on the instance's property name.
func (c *PropertyObserverContainer) ObserveWithHandle(name string, fn reactive.Observer) reactive.ObserverHandle {
	return c.ObserveOn(c.instance, name, fn)
}

// ObserveOn registers fn on property name of src.
func (c *PropertyObserverContainer) ObserveOn(src reactive.PropertyContainer, name string, fn reactive.Observer) reactive.ObserverHandle {
	h := c.handles.Next()
	src.ObserveWithHandle(name, fn, h)
	c.record(Edge{Handle: h, Source: src, SourceProperty: name})
	return h
}

// Propagate copies every value of the instance's srcName into dst.dstName.
func (c *PropertyObserverContainer) Propagate(srcName string, dst reactive.PropertyContainer, dstName string) reactive.ObserverHandle {
	return c.PropagateFrom(c.instance, srcName, dst, dstName)
}

// PropagateFrom copies every value of src.srcName into dst.dstName.
func (c *PropertyObserverContainer) PropagateFrom(src reactive.PropertyContainer, srcName string, dst reactive.PropertyContainer, dstName string) reactive.ObserverHandle {
	h := c.handles.Next()
	reactive.PropagateWithHandle(src, srcName, dst, dstName, h)
	c.record(Edge{Handle: h, Source: src, SourceProperty: srcName, Target: dst, TargetProperty: dstName})
	return h
}

func (c *PropertyObserverContainer) record(e Edge) {
	c.mu.Lock()
	c.edges = append(c.edges, e)
	c.mu.Unlock()
}

// RemoveObserver removes one observer this container registered on the
// property name. Unknown handles are ignored.
func (c *PropertyObserverContainer) RemoveObserver(name string, handle reactive.ObserverHandle) {
	c.removeWhere(func(e Edge) bool {
		return e.Handle == handle && e.SourceProperty == name
	})
}

// RemoveObservers removes every observer this container registered on a
// property called name, on any source.
func (c *PropertyObserverContainer) RemoveObservers(name string) {
	c.removeWhere(func(e Edge) bool { return e.SourceProperty == name })
}

// RemoveAllObservers removes every observer this container registered.
func (c *PropertyObserverContainer) RemoveAllObservers() {
	c.removeWhere(func(Edge) bool { return true })
}

func (c *PropertyObserverContainer) removeWhere(match func(Edge) bool) {
	c.mu.Lock()
	var removed []Edge
	kept := c.edges[:0:0]
	for _, e := range c.edges {
		if match(e) {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	c.edges = kept
	c.mu.Unlock()

	for _, e := range removed {
		e.Source.RemoveObserver(e.SourceProperty, e.Handle)
	}
}

// Count returns the number of observers currently registered.
func (c *PropertyObserverContainer) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.edges)
}

// Handles returns the handles registered on property name, in registration
// order.
func (c *PropertyObserverContainer) Handles(name string) []reactive.ObserverHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []reactive.ObserverHandle
	for _, e := range c.edges {
		if e.SourceProperty == name {
			out = append(out, e.Handle)
		}
	}
	return out
}

// Edges returns a copy of every registered observer, in registration order.
func (c *PropertyObserverContainer) Edges() []Edge {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.edges)
}
