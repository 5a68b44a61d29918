package typesys

import (
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

// PropertyType declares one property of a component or type.
type PropertyType struct {
	Name     string
	DataType ir.DataType
}

// ComponentType is a reusable set of properties.
type ComponentType struct {
	Type       ir.ComponentTypeID
	Properties []PropertyType
}

// EntityType declares the components and own properties of an entity type.
type EntityType struct {
	Type       ir.EntityTypeID
	Components []ir.ComponentTypeID
	Properties []PropertyType
}

// RelationType declares the components and own properties of a relation type.
type RelationType struct {
	Type       ir.RelationTypeID
	Components []ir.ComponentTypeID
	Properties []PropertyType
}
