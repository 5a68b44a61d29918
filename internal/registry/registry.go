package registry

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// ErrInvalidFactory is returned by Register for a nil factory or one whose
// behaviour type does not match the binding key.
var ErrInvalidFactory = errors.New("invalid behaviour factory")

// TypeSystem is the read-only view of the type system the registries use to
// warn about bindings to unknown types.
type TypeSystem interface {
	HasEntityType(ty ir.EntityTypeID) bool
	HasComponent(ty ir.ComponentTypeID) bool
	HasRelationType(ty ir.RelationTypeID) bool
}

// Binding is one registered factory together with its key.
type Binding[O comparable, ID comparable, T reactive.Instance[ID]] struct {
	Key     ir.BindingKey[O]
	Factory behaviour.Factory[ID, T]
}

// Registry holds behaviour factories keyed by (owner type, behaviour type).
type Registry[O comparable, ID comparable, T reactive.Instance[ID]] struct {
	kind  string
	known func(O) bool

	mu        sync.RWMutex
	factories map[ir.BindingKey[O]]behaviour.Factory[ID, T]
	byOwner   map[O][]ir.BehaviourTypeID
}

// New creates a registry for owners of the given kind ("entity",
// "entity component", ...). known reports whether an owner type exists; nil
// accepts every owner.
func New[O comparable, ID comparable, T reactive.Instance[ID]](kind string, known func(O) bool) *Registry[O, ID, T] {
	return &Registry[O, ID, T]{
		kind:      kind,
		known:     known,
		factories: make(map[ir.BindingKey[O]]behaviour.Factory[ID, T]),
		byOwner:   make(map[O][]ir.BehaviourTypeID),
	}
}

// Kind returns the owner kind this registry serves.
func (r *Registry[O, ID, T]) Kind() string {
	return r.kind
}

// Register binds factory to key. An existing binding for key is replaced.
// Binding to an owner type the type system does not know is allowed but
// logged, since types may be registered later.
func (r *Registry[O, ID, T]) Register(key ir.BindingKey[O], factory behaviour.Factory[ID, T]) error {
	if factory == nil {
		return fmt.Errorf("%w: nil factory for %s", ErrInvalidFactory, key)
	}
	if factory.BehaviourType() != key.Behaviour {
		return fmt.Errorf("%w: factory creates %s, key binds %s", ErrInvalidFactory, factory.BehaviourType(), key.Behaviour)
	}
	if r.known != nil && !r.known(key.Owner) {
		slog.Warn("registering behaviour for unknown type",
			"kind", r.kind,
			"owner", fmt.Sprint(key.Owner),
			"behaviour", key.Behaviour.String())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; exists {
		slog.Debug("replacing behaviour factory", "kind", r.kind, "key", key.String())
	} else {
		types := append(r.byOwner[key.Owner], key.Behaviour)
		slices.SortFunc(types, ir.CompareBehaviourTypeIDs)
		r.byOwner[key.Owner] = types
	}
	r.factories[key] = factory
	return nil
}

// Unregister removes the binding for key. Reports whether it existed.
func (r *Registry[O, ID, T]) Unregister(key ir.BindingKey[O]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; !exists {
		return false
	}
	delete(r.factories, key)

	types := slices.DeleteFunc(r.byOwner[key.Owner], func(ty ir.BehaviourTypeID) bool {
		return ty == key.Behaviour
	})
	if len(types) == 0 {
		delete(r.byOwner, key.Owner)
	} else {
		r.byOwner[key.Owner] = types
	}
	return true
}

// Get returns the factories bound to owner, ordered by behaviour type.
func (r *Registry[O, ID, T]) Get(owner O) []behaviour.Factory[ID, T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := r.byOwner[owner]
	out := make([]behaviour.Factory[ID, T], 0, len(types))
	for _, ty := range types {
		out = append(out, r.factories[ir.BindingKey[O]{Owner: owner, Behaviour: ty}])
	}
	return out
}

// GetBehaviourTypes returns the behaviour types bound to owner, sorted.
func (r *Registry[O, ID, T]) GetBehaviourTypes(owner O) []ir.BehaviourTypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.byOwner[owner])
}

// GetByBehaviourType returns a factory for behaviour type ty. When ty is
// bound to several owners, the binding with the smallest key string wins.
func (r *Registry[O, ID, T]) GetByBehaviourType(ty ir.BehaviourTypeID) (behaviour.Factory[ID, T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found behaviour.Factory[ID, T]
		best  string
	)
	for key, f := range r.factories {
		if key.Behaviour != ty {
			continue
		}
		if k := key.String(); found == nil || k < best {
			found, best = f, k
		}
	}
	return found, found != nil
}

// Has reports whether key is bound.
func (r *Registry[O, ID, T]) Has(key ir.BindingKey[O]) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[key]
	return ok
}

// GetAll returns every binding, ordered by key string.
func (r *Registry[O, ID, T]) GetAll() []Binding[O, ID, T] {
	r.mu.RLock()
	out := make([]Binding[O, ID, T], 0, len(r.factories))
	for key, f := range r.factories {
		out = append(out, Binding[O, ID, T]{Key: key, Factory: f})
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Binding[O, ID, T]) int {
		return cmp.Compare(a.Key.String(), b.Key.String())
	})
	return out
}

// Count returns the number of bindings.
func (r *Registry[O, ID, T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// Clear removes every binding.
func (r *Registry[O, ID, T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.factories)
	clear(r.byOwner)
}

// EntityBehaviourRegistry binds behaviours to entity types.
type EntityBehaviourRegistry = Registry[ir.EntityTypeID, uuid.UUID, *reactive.Entity]

// EntityComponentBehaviourRegistry binds behaviours to entity components.
type EntityComponentBehaviourRegistry = Registry[ir.ComponentTypeID, uuid.UUID, *reactive.Entity]

// RelationBehaviourRegistry binds behaviours to relation types.
type RelationBehaviourRegistry = Registry[ir.RelationTypeID, ir.RelationInstanceID, *reactive.Relation]

// RelationComponentBehaviourRegistry binds behaviours to relation components.
type RelationComponentBehaviourRegistry = Registry[ir.ComponentTypeID, ir.RelationInstanceID, *reactive.Relation]

func NewEntityBehaviourRegistry(ts TypeSystem) *EntityBehaviourRegistry {
	return New[ir.EntityTypeID, uuid.UUID, *reactive.Entity]("entity", knownOrAll(ts, TypeSystem.HasEntityType))
}

func NewEntityComponentBehaviourRegistry(ts TypeSystem) *EntityComponentBehaviourRegistry {
	return New[ir.ComponentTypeID, uuid.UUID, *reactive.Entity]("entity component", knownOrAll(ts, TypeSystem.HasComponent))
}

func NewRelationBehaviourRegistry(ts TypeSystem) *RelationBehaviourRegistry {
	return New[ir.RelationTypeID, ir.RelationInstanceID, *reactive.Relation]("relation", knownOrAll(ts, TypeSystem.HasRelationType))
}

func NewRelationComponentBehaviourRegistry(ts TypeSystem) *RelationComponentBehaviourRegistry {
	return New[ir.ComponentTypeID, ir.RelationInstanceID, *reactive.Relation]("relation component", knownOrAll(ts, TypeSystem.HasComponent))
}

func knownOrAll[O comparable](ts TypeSystem, has func(TypeSystem, O) bool) func(O) bool {
	if ts == nil {
		return nil
	}
	return func(o O) bool { return has(ts, o) }
}
