package behaviours

import (
	_ "embed"
	"errors"

	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
	"github.com/reactive-graph/reactive-graph-sub007/internal/system"
	"github.com/reactive-graph/reactive-graph-sub007/internal/typesys"
)

//go:embed types.cue
var typesCUE string

// Property names shared by the library's components.
const (
	PropertyLHS                  = "lhs"
	PropertyResult               = "result"
	PropertyTrigger              = "trigger"
	PropertyCount                = "count"
	PropertyOutboundPropertyName = "outbound_property_name"
	PropertyInboundPropertyName  = "inbound_property_name"
	PropertyPropagationCount     = "propagation_count"
)

// Types declared in types.cue and the behaviours bound to them.
var (
	ComponentMathUnary          = ir.NewComponentTypeID("math", "unary")
	ComponentLogicalUnary       = ir.NewComponentTypeID("logical", "unary")
	ComponentCounter            = ir.NewComponentTypeID("core", "counter")
	ComponentConnector          = ir.NewComponentTypeID("connector", "connector")
	ComponentPropagationCounter = ir.NewComponentTypeID("connector", "propagation_counter")

	RelationDefaultConnector  = ir.NewRelationTypeID("connector", "default_connector")
	RelationCountingConnector = ir.NewRelationTypeID("connector", "counting_connector")

	BehaviourDefaultConnector   = ir.NewBehaviourTypeID("connector", "default_connector")
	BehaviourPropagationCounter = ir.NewBehaviourTypeID("connector", "propagation_counter")
	BehaviourCounter            = ir.NewBehaviourTypeID("core", "counter")
	BehaviourNot                = ir.NewBehaviourTypeID("logical", "not")
)

type (
	entityBehaviour   = behaviour.Behaviour[uuid.UUID, *reactive.Entity]
	relationBehaviour = behaviour.Behaviour[ir.RelationInstanceID, *reactive.Relation]
	entityFactory     = behaviour.Factory[uuid.UUID, *reactive.Entity]
	relationFactory   = behaviour.Factory[ir.RelationInstanceID, *reactive.Relation]
)

// Types returns the CUE type definitions the library's behaviours expect.
func Types() string {
	return typesCUE
}

// LoadTypes registers the library's types with r.
func LoadTypes(r *typesys.Registry) error {
	return r.LoadString("behaviours/types.cue", typesCUE)
}

// Library installs the built-in behaviours into a system.
type Library struct{}

// Name implements system.Plugin.
func (Library) Name() string {
	return "core"
}

// Register implements system.Plugin.
func (Library) Register(s *system.System) error {
	var errs []error
	for _, nf := range numericFactories() {
		entity := ir.EntityTypeID{TypeID: nf.BehaviourType().TypeID}
		errs = append(errs, s.EntityBehaviours.Register(ir.NewEntityBehaviourTypeID(entity, nf.BehaviourType()), nf))
	}
	errs = append(errs,
		s.EntityBehaviours.Register(
			ir.NewEntityBehaviourTypeID(ir.NewEntityTypeID("logical", "not"), BehaviourNot),
			NotFactory()),
		s.EntityComponentBehaviours.Register(
			ir.NewComponentBehaviourTypeID(ComponentCounter, BehaviourCounter),
			CounterFactory()),
		s.RelationBehaviours.Register(
			ir.NewRelationBehaviourTypeID(RelationDefaultConnector, BehaviourDefaultConnector),
			ConnectorFactory(BehaviourDefaultConnector)),
		s.RelationBehaviours.Register(
			ir.NewRelationBehaviourTypeID(RelationCountingConnector, BehaviourDefaultConnector),
			ConnectorFactory(BehaviourDefaultConnector)),
		s.RelationComponentBehaviours.Register(
			ir.NewComponentBehaviourTypeID(ComponentPropagationCounter, BehaviourPropagationCounter),
			PropagationCounterFactory()),
	)
	return errors.Join(errs...)
}

var _ system.Plugin = Library{}
