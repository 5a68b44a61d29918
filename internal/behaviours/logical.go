package behaviours

import (
	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// NotFactory returns the logical::not behaviour: result = !lhs.
func NotFactory() *behaviour.FuncFactory[uuid.UUID, *reactive.Entity] {
	return behaviour.NewFactory(BehaviourNot, behaviour.Funcs[uuid.UUID, *reactive.Entity]{
		Validator: func(e *reactive.Entity) behaviour.Validator {
			return behaviour.PropertyValidator{
				Instance:   e,
				Properties: []string{PropertyResult},
				Types:      map[string]ir.DataType{PropertyLHS: ir.DataTypeBool},
			}
		},
		Connect: func(b *entityBehaviour) error {
			e := b.Instance()
			b.Observers().ObserveWithHandle(PropertyLHS, func(v ir.Value) {
				if lhs, ok := ir.AsBool(v); ok {
					e.Set(PropertyResult, !lhs)
				}
			})
			return nil
		},
	})
}
