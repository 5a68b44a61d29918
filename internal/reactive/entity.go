package reactive

import (
	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

var _ Instance[uuid.UUID] = (*Entity)(nil)

// Entity is a reactive entity instance.
type Entity struct {
	element
	id uuid.UUID
	ty ir.EntityTypeID
}

// NewEntity creates an entity with the given properties and no components.
func NewEntity(ty ir.EntityTypeID, id uuid.UUID, properties map[string]ir.Value) *Entity {
	e := &Entity{id: id, ty: ty}
	e.init(properties)
	return e
}

// ID returns the entity id.
func (e *Entity) ID() uuid.UUID {
	return e.id
}

// Type returns the entity type.
func (e *Entity) Type() ir.EntityTypeID {
	return e.ty
}

func (e *Entity) String() string {
	return e.ty.String() + "(" + e.id.String() + ")"
}
