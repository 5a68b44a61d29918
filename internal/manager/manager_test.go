package manager

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
	"github.com/reactive-graph/reactive-graph-sub007/internal/registry"
)

var (
	copyEntity    = ir.NewEntityTypeID("test", "copy")
	plainEntity   = ir.NewEntityTypeID("test", "plain")
	copyType      = ir.NewBehaviourTypeID("test", "copy")
	echoType      = ir.NewBehaviourTypeID("test", "echo")
	flagComponent = ir.NewComponentTypeID("test", "flag")
	flagType      = ir.NewBehaviourTypeID("test", "flag")
)

type entityBehaviour = behaviour.Behaviour[uuid.UUID, *reactive.Entity]

// copyFactory wires "in" to "out" and requires both properties.
func copyFactory(ty ir.BehaviourTypeID) behaviour.Factory[uuid.UUID, *reactive.Entity] {
	return behaviour.NewFactory(ty, behaviour.Funcs[uuid.UUID, *reactive.Entity]{
		Validator: func(e *reactive.Entity) behaviour.Validator {
			return behaviour.PropertyValidator{Instance: e, Properties: []string{"in", "out"}}
		},
		Connect: func(b *entityBehaviour) error {
			b.Observers().Propagate("in", b.Instance(), "out")
			return nil
		},
	})
}

func newEntityManager(t *testing.T, opts ...Option) *EntityBehaviourManager {
	t.Helper()
	reg := registry.NewEntityBehaviourRegistry(nil)
	require.NoError(t, reg.Register(ir.NewEntityBehaviourTypeID(copyEntity, copyType), copyFactory(copyType)))
	require.NoError(t, reg.Register(ir.NewEntityBehaviourTypeID(copyEntity, echoType), copyFactory(echoType)))
	return NewEntityBehaviourManager(reg, opts...)
}

func newCopyEntity() *reactive.Entity {
	return reactive.NewEntity(copyEntity, uuid.New(), map[string]ir.Value{"in": 0, "out": 0})
}

// =============================================================================
// Add
// =============================================================================

func TestManager_AddBehavioursAppliesAllRegistered(t *testing.T) {
	m := newEntityManager(t)
	e := newCopyEntity()

	added := m.AddBehaviours(e)

	assert.Equal(t, []ir.BehaviourTypeID{copyType, echoType}, added)
	assert.True(t, m.Has(e.ID(), copyType))
	assert.True(t, m.Has(e.ID(), echoType))
	assert.Equal(t, []ir.BehaviourTypeID{copyType, echoType}, m.GetAll(e.ID()))
	assert.Equal(t, []ir.BehaviourTypeID{copyType, echoType}, e.Behaviours())
	assert.Equal(t, 2, e.ObserverCount("in"))
	assert.Equal(t, 2, m.Count())
}

func TestManager_AddBehavioursTwiceIsIdempotent(t *testing.T) {
	m := newEntityManager(t)
	e := newCopyEntity()
	m.AddBehaviours(e)

	added := m.AddBehaviours(e)

	assert.Empty(t, added)
	assert.Equal(t, 2, e.ObserverCount("in"))
	assert.Equal(t, 2, m.Count())
}

func TestManager_AddBehavioursUnregisteredType(t *testing.T) {
	m := newEntityManager(t)
	e := reactive.NewEntity(plainEntity, uuid.New(), map[string]ir.Value{"in": 0, "out": 0})

	assert.Empty(t, m.AddBehaviours(e))
	assert.Empty(t, m.GetAll(e.ID()))
}

func TestManager_AddBehavioursSkipsInvalid(t *testing.T) {
	m := newEntityManager(t)
	e := reactive.NewEntity(copyEntity, uuid.New(), map[string]ir.Value{"in": 0})

	added := m.AddBehaviours(e)

	assert.Empty(t, added)
	assert.False(t, m.Has(e.ID(), copyType))
	assert.Equal(t, 0, e.ObserverCount("in"))
	assert.Equal(t, 0, m.Count())
}

func TestManager_AddBehaviourByType(t *testing.T) {
	m := newEntityManager(t)
	e := reactive.NewEntity(plainEntity, uuid.New(), map[string]ir.Value{"in": 0, "out": 0})

	require.NoError(t, m.AddBehaviour(e, copyType))
	assert.True(t, m.Has(e.ID(), copyType))

	err := m.AddBehaviour(e, copyType)
	assert.True(t, behaviour.IsAlreadyApplied(err))
	assert.Equal(t, 1, e.ObserverCount("in"))

	err = m.AddBehaviour(e, ir.NewBehaviourTypeID("test", "missing"))
	assert.ErrorIs(t, err, ErrFactoryNotFound)
}

func TestManager_AddBehaviourAlreadyAppliedWithoutMarker(t *testing.T) {
	m := newEntityManager(t)
	e := newCopyEntity()
	require.NoError(t, m.AddBehaviour(e, copyType))

	// Storage alone decides, even if the instance marker was lost.
	e.RemoveBehaviour(copyType)
	err := m.AddBehaviour(e, copyType)

	assert.True(t, behaviour.IsAlreadyApplied(err))
	assert.Equal(t, 1, e.ObserverCount("in"))
}

func TestManager_ConcurrentAddAttachesOnce(t *testing.T) {
	m := newEntityManager(t)
	e := newCopyEntity()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.AddBehaviours(e)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, m.Count())
	assert.Equal(t, 2, e.ObserverCount("in"))
}

// =============================================================================
// Remove
// =============================================================================

func TestManager_RemoveBehaviourClosesIt(t *testing.T) {
	m := newEntityManager(t)
	e := newCopyEntity()
	m.AddBehaviours(e)
	b, ok := m.Get(e.ID(), copyType)
	require.True(t, ok)

	assert.True(t, m.RemoveBehaviour(e.ID(), copyType))
	assert.False(t, m.RemoveBehaviour(e.ID(), copyType))

	assert.False(t, m.Has(e.ID(), copyType))
	assert.False(t, e.BehavesAs(copyType))
	assert.Equal(t, 0, b.Observers().Count())
	assert.Equal(t, 1, e.ObserverCount("in"), "echo behaviour keeps its observer")
}

func TestManager_RemoveBehavioursByID(t *testing.T) {
	m := newEntityManager(t)
	e := newCopyEntity()
	m.AddBehaviours(e)

	assert.Equal(t, 2, m.RemoveBehaviours(e))
	assert.Equal(t, 0, m.RemoveBehavioursByID(e.ID()))
	assert.Empty(t, m.GetAll(e.ID()))
	assert.Equal(t, 0, e.ObserverCount("in"))
	assert.Empty(t, e.Behaviours())
}

func TestManager_RemoveBehavioursByBehaviour(t *testing.T) {
	m := newEntityManager(t)
	a := newCopyEntity()
	b := newCopyEntity()
	m.AddBehaviours(a)
	m.AddBehaviours(b)

	assert.Equal(t, 2, m.RemoveBehavioursByBehaviour(copyType))

	assert.Empty(t, m.GetInstancesByBehaviour(copyType))
	assert.ElementsMatch(t, []*reactive.Entity{a, b}, m.GetInstancesByBehaviour(echoType))
}

func TestManager_Clear(t *testing.T) {
	m := newEntityManager(t)
	e := newCopyEntity()
	m.AddBehaviours(e)

	assert.Equal(t, 2, m.Clear())
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 0, e.ObserverCount("in"))
}

// =============================================================================
// Connect / Disconnect / Reconnect
// =============================================================================

func TestManager_DisconnectAndConnect(t *testing.T) {
	m := newEntityManager(t)
	e := newCopyEntity()
	m.AddBehaviours(e)

	require.NoError(t, m.Disconnect(e.ID(), copyType))
	assert.True(t, m.Has(e.ID(), copyType), "disconnected behaviour stays attached")
	assert.False(t, e.BehavesAs(copyType))
	assert.Equal(t, 1, e.ObserverCount("in"))

	require.NoError(t, m.Connect(e.ID(), copyType))
	assert.True(t, e.BehavesAs(copyType))
	assert.Equal(t, 2, e.ObserverCount("in"))

	require.NoError(t, m.Reconnect(e.ID(), copyType))
	assert.Equal(t, 2, e.ObserverCount("in"))
}

func TestManager_UnknownBehaviourErrors(t *testing.T) {
	m := newEntityManager(t)
	id := uuid.New()

	err := m.Connect(id, copyType)
	assert.True(t, behaviour.IsConnectFailed(err))
	assert.ErrorIs(t, err, behaviour.ErrBehaviourNotFound)

	err = m.Disconnect(id, copyType)
	assert.True(t, behaviour.IsDisconnectFailed(err))
	assert.ErrorIs(t, err, behaviour.ErrBehaviourNotFound)

	err = m.Reconnect(id, copyType)
	assert.True(t, behaviour.IsInvalidTransition(err))
	assert.ErrorIs(t, err, behaviour.ErrBehaviourNotFound)
}

func TestManager_DisconnectAll(t *testing.T) {
	m := newEntityManager(t)
	e := newCopyEntity()
	m.AddBehaviours(e)
	require.NoError(t, m.Disconnect(e.ID(), echoType))

	assert.Equal(t, 1, m.DisconnectAll())
	assert.Equal(t, 0, e.ObserverCount("in"))
	assert.Equal(t, 2, m.Count())
}

// =============================================================================
// Components, listener, introspection
// =============================================================================

func TestManager_ComponentBehaviours(t *testing.T) {
	reg := registry.NewEntityComponentBehaviourRegistry(nil)
	require.NoError(t, reg.Register(ir.NewComponentBehaviourTypeID(flagComponent, flagType), copyFactory(flagType)))
	m := NewEntityComponentBehaviourManager(reg)
	e := reactive.NewEntity(plainEntity, uuid.New(), map[string]ir.Value{"in": 0, "out": 0})

	assert.Empty(t, m.AddBehaviours(e), "no components yet")

	e.AddComponent(flagComponent)
	assert.Equal(t, []ir.BehaviourTypeID{flagType}, m.AddBehavioursForOwner(e, flagComponent))
	assert.True(t, e.BehavesAs(flagType))

	e.RemoveComponent(flagComponent)
	assert.Equal(t, []ir.BehaviourTypeID{flagType}, m.RemoveBehavioursForOwner(e, flagComponent))
	assert.False(t, e.BehavesAs(flagType))
	assert.Equal(t, 0, e.ObserverCount("in"))
}

func TestManager_ListenerOption(t *testing.T) {
	var events []behaviour.TransitionEvent
	m := newEntityManager(t, WithListener(behaviour.ListenerFunc(func(ev behaviour.TransitionEvent) {
		events = append(events, ev)
	})))
	e := newCopyEntity()

	m.AddBehaviours(e)
	m.RemoveBehaviour(e.ID(), copyType)

	require.Len(t, events, 3)
	assert.Equal(t, behaviour.Connected, events[0].Result)
	assert.Equal(t, behaviour.Connected, events[1].Result)
	assert.Equal(t, copyType, events[2].Behaviour)
	assert.Equal(t, behaviour.Disconnected, events[2].Result)
}

func TestManager_Propagations(t *testing.T) {
	m := newEntityManager(t)
	e := newCopyEntity()
	m.AddBehaviours(e)

	edges := m.Propagations(e.ID())

	require.Len(t, edges, 2)
	for _, edge := range edges {
		assert.Equal(t, "in", edge.SourceProperty)
		assert.Equal(t, "out", edge.TargetProperty)
	}
	assert.Empty(t, m.Propagations(uuid.New()))
}
