package behaviours

import (
	"math"

	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// Numeric unary behaviours. Each is bound to the entity type of the same name.
var (
	BehaviourSin  = ir.NewBehaviourTypeID("math", "sin")
	BehaviourCos  = ir.NewBehaviourTypeID("math", "cos")
	BehaviourAbs  = ir.NewBehaviourTypeID("math", "abs")
	BehaviourSqrt = ir.NewBehaviourTypeID("math", "sqrt")
)

func numericFactories() []entityFactory {
	return []entityFactory{
		NumericUnaryFactory(BehaviourSin, math.Sin),
		NumericUnaryFactory(BehaviourCos, math.Cos),
		NumericUnaryFactory(BehaviourAbs, math.Abs),
		NumericUnaryFactory(BehaviourSqrt, math.Sqrt),
	}
}

// NumericUnaryFactory returns a factory for a behaviour that writes fn(lhs)
// to result whenever lhs receives a number. Non-numeric values are ignored.
func NumericUnaryFactory(ty ir.BehaviourTypeID, fn func(float64) float64) *behaviour.FuncFactory[uuid.UUID, *reactive.Entity] {
	return behaviour.NewFactory(ty, behaviour.Funcs[uuid.UUID, *reactive.Entity]{
		Validator: func(e *reactive.Entity) behaviour.Validator {
			return behaviour.PropertyValidator{
				Instance:   e,
				Properties: []string{PropertyResult},
				Types:      map[string]ir.DataType{PropertyLHS: ir.DataTypeNumber},
			}
		},
		Connect: func(b *entityBehaviour) error {
			e := b.Instance()
			b.Observers().ObserveWithHandle(PropertyLHS, func(v ir.Value) {
				if f, ok := ir.AsFloat64(v); ok {
					e.Set(PropertyResult, fn(f))
				}
			})
			return nil
		},
	})
}
