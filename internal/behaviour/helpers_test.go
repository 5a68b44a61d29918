package behaviour

import (
	"errors"

	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

type entityBehaviour = Behaviour[uuid.UUID, *reactive.Entity]

var (
	testEntityType = ir.NewEntityTypeID("test", "copy")
	copyBehaviour  = ir.NewBehaviourTypeID("test", "copy")
	errBoom        = errors.New("boom")
)

func newTestEntity(props map[string]ir.Value) *reactive.Entity {
	return reactive.NewEntity(testEntityType, uuid.New(), props)
}

// copyFuncs wires "in" to "out" on the same entity.
func copyFuncs() Funcs[uuid.UUID, *reactive.Entity] {
	return Funcs[uuid.UUID, *reactive.Entity]{
		Validator: func(e *reactive.Entity) Validator {
			return PropertyValidator{Instance: e, Properties: []string{"in", "out"}}
		},
		Connect: func(b *entityBehaviour) error {
			b.Observers().Propagate("in", b.Instance(), "out")
			return nil
		},
	}
}

func observerCount(e *reactive.Entity, name string) int {
	return e.ObserverCount(name)
}

type recordingListener struct {
	events []TransitionEvent
}

func (l *recordingListener) Transitioned(ev TransitionEvent) {
	l.events = append(l.events, ev)
}
