package typesys

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

var (
	// ErrTypeExists is returned when registering a type twice.
	ErrTypeExists = errors.New("type already registered")
	// ErrUnknownType is returned for references to unregistered types.
	ErrUnknownType = errors.New("unknown type")
	// ErrUnknownProperty is returned for a property override the type does
	// not declare.
	ErrUnknownProperty = errors.New("unknown property")
)

// Registry holds component, entity and relation types.
// Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	components map[ir.ComponentTypeID]ComponentType
	entities   map[ir.EntityTypeID]EntityType
	relations  map[ir.RelationTypeID]RelationType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[ir.ComponentTypeID]ComponentType),
		entities:   make(map[ir.EntityTypeID]EntityType),
		relations:  make(map[ir.RelationTypeID]RelationType),
	}
}

// RegisterComponent adds a component type.
func (r *Registry) RegisterComponent(c ComponentType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.components[c.Type]; ok {
		return fmt.Errorf("%w: component %s", ErrTypeExists, c.Type)
	}
	r.components[c.Type] = c
	return nil
}

// RegisterEntityType adds an entity type. Its components must be registered.
func (r *Registry) RegisterEntityType(e EntityType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entities[e.Type]; ok {
		return fmt.Errorf("%w: entity %s", ErrTypeExists, e.Type)
	}
	if err := r.checkComponentsLocked(e.Components); err != nil {
		return fmt.Errorf("entity %s: %w", e.Type, err)
	}
	r.entities[e.Type] = e
	return nil
}

// RegisterRelationType adds a relation type. Its components must be
// registered.
func (r *Registry) RegisterRelationType(rt RelationType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.relations[rt.Type]; ok {
		return fmt.Errorf("%w: relation %s", ErrTypeExists, rt.Type)
	}
	if err := r.checkComponentsLocked(rt.Components); err != nil {
		return fmt.Errorf("relation %s: %w", rt.Type, err)
	}
	r.relations[rt.Type] = rt
	return nil
}

func (r *Registry) checkComponentsLocked(components []ir.ComponentTypeID) error {
	for _, c := range components {
		if _, ok := r.components[c]; !ok {
			return fmt.Errorf("%w: component %s", ErrUnknownType, c)
		}
	}
	return nil
}

// HasComponent reports whether component ty is registered.
func (r *Registry) HasComponent(ty ir.ComponentTypeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.components[ty]
	return ok
}

// HasEntityType reports whether entity type ty is registered.
func (r *Registry) HasEntityType(ty ir.EntityTypeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entities[ty]
	return ok
}

// HasRelationType reports whether relation type ty is registered.
func (r *Registry) HasRelationType(ty ir.RelationTypeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.relations[ty]
	return ok
}

// Component returns component type ty.
func (r *Registry) Component(ty ir.ComponentTypeID) (ComponentType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[ty]
	return c, ok
}

// EntityType returns entity type ty.
func (r *Registry) EntityType(ty ir.EntityTypeID) (EntityType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[ty]
	return e, ok
}

// RelationType returns relation type ty.
func (r *Registry) RelationType(ty ir.RelationTypeID) (RelationType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.relations[ty]
	return rt, ok
}

// EntityComponents returns the components of entity type ty.
func (r *Registry) EntityComponents(ty ir.EntityTypeID) []ir.ComponentTypeID {
	e, _ := r.EntityType(ty)
	return slices.Clone(e.Components)
}

// RelationComponents returns the components of relation type ty.
func (r *Registry) RelationComponents(ty ir.RelationTypeID) []ir.ComponentTypeID {
	rt, _ := r.RelationType(ty)
	return slices.Clone(rt.Components)
}

// Components returns every component type, sorted.
func (r *Registry) Components() []ir.ComponentTypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.SortedFunc(maps.Keys(r.components), ir.CompareComponentTypeIDs)
}

// EntityTypes returns every entity type, sorted.
func (r *Registry) EntityTypes() []ir.EntityTypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.SortedFunc(maps.Keys(r.entities), func(a, b ir.EntityTypeID) int { return a.Compare(b.TypeID) })
}

// RelationTypes returns every relation type, sorted.
func (r *Registry) RelationTypes() []ir.RelationTypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.SortedFunc(maps.Keys(r.relations), func(a, b ir.RelationTypeID) int { return a.Compare(b.TypeID) })
}

// NewEntity builds an entity of type ty. Every property declared by the
// type or its components starts at its data type's default; overrides
// replace defaults and must name declared properties.
func (r *Registry) NewEntity(ty ir.EntityTypeID, id uuid.UUID, overrides map[string]ir.Value) (*reactive.Entity, error) {
	et, ok := r.EntityType(ty)
	if !ok {
		return nil, fmt.Errorf("%w: entity %s", ErrUnknownType, ty)
	}
	values, err := r.initialValues(et.Components, et.Properties, overrides)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", ty, err)
	}
	e := reactive.NewEntity(ty, id, values)
	for _, c := range et.Components {
		e.AddComponent(c)
	}
	return e, nil
}

// NewRelation builds a relation of type ty between outbound and inbound.
func (r *Registry) NewRelation(outbound *reactive.Entity, ty ir.RelationTypeID, instanceID string, inbound *reactive.Entity, overrides map[string]ir.Value) (*reactive.Relation, error) {
	rt, ok := r.RelationType(ty)
	if !ok {
		return nil, fmt.Errorf("%w: relation %s", ErrUnknownType, ty)
	}
	values, err := r.initialValues(rt.Components, rt.Properties, overrides)
	if err != nil {
		return nil, fmt.Errorf("relation %s: %w", ty, err)
	}
	rel := reactive.NewRelationWithInstanceID(outbound, ty, instanceID, inbound, values)
	for _, c := range rt.Components {
		rel.AddComponent(c)
	}
	return rel, nil
}

// ComponentHost is an instance that components can be added to.
type ComponentHost interface {
	AddProperty(name string, value ir.Value) bool
	AddComponent(ty ir.ComponentTypeID)
}

// AddComponent adds component ty to instance, creating any of its
// properties the instance does not have yet.
func (r *Registry) AddComponent(instance ComponentHost, ty ir.ComponentTypeID) error {
	c, ok := r.Component(ty)
	if !ok {
		return fmt.Errorf("%w: component %s", ErrUnknownType, ty)
	}
	for _, p := range c.Properties {
		instance.AddProperty(p.Name, p.DataType.Default())
	}
	instance.AddComponent(ty)
	return nil
}

func (r *Registry) initialValues(components []ir.ComponentTypeID, own []PropertyType, overrides map[string]ir.Value) (map[string]ir.Value, error) {
	values := make(map[string]ir.Value)
	for _, cty := range components {
		c, ok := r.Component(cty)
		if !ok {
			return nil, fmt.Errorf("%w: component %s", ErrUnknownType, cty)
		}
		for _, p := range c.Properties {
			values[p.Name] = p.DataType.Default()
		}
	}
	for _, p := range own {
		values[p.Name] = p.DataType.Default()
	}
	for name, v := range overrides {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
		}
		values[name] = ir.Normalize(v)
	}
	return values, nil
}
