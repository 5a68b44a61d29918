package ir

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// BindingKey binds a behaviour type to the type that owns it.
//
// Binding keys are only used as registry keys: they answer "which behaviours
// does an entity of type X (or with component Y) get". Behaviour storage is
// keyed by instance id and behaviour type instead.
type BindingKey[O comparable] struct {
	Owner     O
	Behaviour BehaviourTypeID
}

// String returns "owner/behaviour".
func (k BindingKey[O]) String() string {
	return fmt.Sprintf("%v/%s", k.Owner, k.Behaviour)
}

// EntityBehaviourTypeID binds a behaviour to an entity type.
type EntityBehaviourTypeID = BindingKey[EntityTypeID]

// ComponentBehaviourTypeID binds a behaviour to a component type.
type ComponentBehaviourTypeID = BindingKey[ComponentTypeID]

// RelationBehaviourTypeID binds a behaviour to a relation type.
type RelationBehaviourTypeID = BindingKey[RelationTypeID]

// NewEntityBehaviourTypeID binds behaviour b to entity type e.
func NewEntityBehaviourTypeID(e EntityTypeID, b BehaviourTypeID) EntityBehaviourTypeID {
	return EntityBehaviourTypeID{Owner: e, Behaviour: b}
}

// NewComponentBehaviourTypeID binds behaviour b to component type c.
func NewComponentBehaviourTypeID(c ComponentTypeID, b BehaviourTypeID) ComponentBehaviourTypeID {
	return ComponentBehaviourTypeID{Owner: c, Behaviour: b}
}

// NewRelationBehaviourTypeID binds behaviour b to relation type r.
func NewRelationBehaviourTypeID(r RelationTypeID, b BehaviourTypeID) RelationBehaviourTypeID {
	return RelationBehaviourTypeID{Owner: r, Behaviour: b}
}

// RelationInstanceID identifies a relation instance by its endpoints and type.
//
// InstanceID distinguishes several relations of the same type between the
// same pair of entities; it is empty for the common single-relation case.
type RelationInstanceID struct {
	Outbound   uuid.UUID
	Type       RelationTypeID
	InstanceID string
	Inbound    uuid.UUID
}

// String returns "outbound--namespace::name--inbound", with "__instance"
// appended to the type when InstanceID is set.
func (id RelationInstanceID) String() string {
	var b strings.Builder
	b.WriteString(id.Outbound.String())
	b.WriteString("--")
	b.WriteString(id.Type.String())
	if id.InstanceID != "" {
		b.WriteString("__")
		b.WriteString(id.InstanceID)
	}
	b.WriteString("--")
	b.WriteString(id.Inbound.String())
	return b.String()
}
