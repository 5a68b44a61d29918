package behaviours

import (
	"sync"

	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// CounterFactory returns the core::counter component behaviour: every value
// written to trigger increments count.
func CounterFactory() *behaviour.FuncFactory[uuid.UUID, *reactive.Entity] {
	return behaviour.NewFactory(BehaviourCounter, behaviour.Funcs[uuid.UUID, *reactive.Entity]{
		Validator: func(e *reactive.Entity) behaviour.Validator {
			return behaviour.PropertyValidator{
				Instance:   e,
				Properties: []string{PropertyTrigger},
				Types:      map[string]ir.DataType{PropertyCount: ir.DataTypeNumber},
			}
		},
		Connect: func(b *entityBehaviour) error {
			e := b.Instance()
			var mu sync.Mutex
			b.Observers().ObserveWithHandle(PropertyTrigger, func(ir.Value) {
				increment(&mu, e, PropertyCount)
			})
			return nil
		},
	})
}

// PropagationCounterFactory returns the connector::propagation_counter
// relation component behaviour: it counts values sent through the outbound
// property named by the relation's outbound_property_name.
func PropagationCounterFactory() *behaviour.FuncFactory[ir.RelationInstanceID, *reactive.Relation] {
	return behaviour.NewFactory(BehaviourPropagationCounter, behaviour.Funcs[ir.RelationInstanceID, *reactive.Relation]{
		Validator: func(r *reactive.Relation) behaviour.Validator {
			return behaviour.ValidatorFunc(func() error {
				if err := behaviour.ValidatePropertyType(r, PropertyPropagationCount, ir.DataTypeNumber); err != nil {
					return err
				}
				name, err := stringProperty(r, PropertyOutboundPropertyName)
				if err != nil {
					return err
				}
				if !r.Outbound().HasProperty(name) {
					return behaviour.OutboundPropertyMissing(name)
				}
				return nil
			})
		},
		Connect: func(b *relationBehaviour) error {
			r := b.Instance()
			name, err := stringProperty(r, PropertyOutboundPropertyName)
			if err != nil {
				return err
			}
			var mu sync.Mutex
			b.Observers().ObserveOn(r.Outbound(), name, func(ir.Value) {
				increment(&mu, r, PropertyPropagationCount)
			})
			return nil
		},
	})
}

// increment adds one to property name. mu serializes concurrent triggers of
// one behaviour.
func increment(mu *sync.Mutex, c reactive.PropertyContainer, name string) {
	mu.Lock()
	defer mu.Unlock()
	v, _ := c.Get(name)
	n, _ := ir.AsFloat64(v)
	c.Set(name, n+1)
}
