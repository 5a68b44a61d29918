package reactive

import (
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

var _ Instance[ir.RelationInstanceID] = (*Relation)(nil)

// Relation is a reactive relation instance between two entities.
// The relation has properties of its own; behaviours on a relation typically
// observe its outbound entity and write to its inbound entity.
type Relation struct {
	element
	outbound   *Entity
	inbound    *Entity
	ty         ir.RelationTypeID
	instanceID string
}

// NewRelation creates a relation outbound -[ty]-> inbound.
func NewRelation(outbound *Entity, ty ir.RelationTypeID, inbound *Entity, properties map[string]ir.Value) *Relation {
	return NewRelationWithInstanceID(outbound, ty, "", inbound, properties)
}

// NewRelationWithInstanceID creates a relation distinguished from others of
// the same type between the same entities by instanceID.
func NewRelationWithInstanceID(outbound *Entity, ty ir.RelationTypeID, instanceID string, inbound *Entity, properties map[string]ir.Value) *Relation {
	r := &Relation{
		outbound:   outbound,
		inbound:    inbound,
		ty:         ty,
		instanceID: instanceID,
	}
	r.init(properties)
	return r
}

// ID returns the relation instance id.
func (r *Relation) ID() ir.RelationInstanceID {
	return ir.RelationInstanceID{
		Outbound:   r.outbound.ID(),
		Type:       r.ty,
		InstanceID: r.instanceID,
		Inbound:    r.inbound.ID(),
	}
}

// Type returns the relation type.
func (r *Relation) Type() ir.RelationTypeID {
	return r.ty
}

// Outbound returns the source entity.
func (r *Relation) Outbound() *Entity {
	return r.outbound
}

// Inbound returns the target entity.
func (r *Relation) Inbound() *Entity {
	return r.inbound
}

func (r *Relation) String() string {
	return r.ID().String()
}
