package reactive

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

var (
	testEntityType   = ir.NewEntityTypeID("test", "thing")
	testRelationType = ir.NewRelationTypeID("test", "link")
	testComponent    = ir.NewComponentTypeID("test", "flag")
	testBehaviour    = ir.NewBehaviourTypeID("test", "behaviour")
)

func newTestEntity(props map[string]ir.Value) *Entity {
	return NewEntity(testEntityType, uuid.New(), props)
}

// =============================================================================
// Entity Tests
// =============================================================================

func TestEntity_GetSet(t *testing.T) {
	e := newTestEntity(map[string]ir.Value{"a": 1})

	v, ok := e.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	e.Set("a", "two")
	v, _ = e.Get("a")
	assert.Equal(t, "two", v)
}

func TestEntity_SetUnknownPropertyIsNoop(t *testing.T) {
	e := newTestEntity(nil)

	e.Set("missing", 1)

	assert.False(t, e.HasProperty("missing"))
	_, ok := e.Get("missing")
	assert.False(t, ok)
}

func TestEntity_ObserveUnknownPropertyIsNoop(t *testing.T) {
	e := newTestEntity(nil)

	e.ObserveWithHandle("missing", func(ir.Value) {}, NewObserverHandle())
	e.RemoveObserver("missing", NewObserverHandle())

	assert.Equal(t, 0, e.ObserverCount("missing"))
}

func TestEntity_BehaviourTypes(t *testing.T) {
	e := newTestEntity(nil)
	other := ir.NewBehaviourTypeID("a", "first")

	e.AddBehaviour(testBehaviour)
	e.AddBehaviour(other)

	assert.True(t, e.BehavesAs(testBehaviour))
	assert.Equal(t, []ir.BehaviourTypeID{other, testBehaviour}, e.Behaviours())

	e.RemoveBehaviour(testBehaviour)
	assert.False(t, e.BehavesAs(testBehaviour))
}

func TestEntity_Components(t *testing.T) {
	e := newTestEntity(nil)

	e.AddComponent(testComponent)
	assert.True(t, e.HasComponent(testComponent))
	assert.Equal(t, []ir.ComponentTypeID{testComponent}, e.Components())

	e.RemoveComponent(testComponent)
	assert.Empty(t, e.Components())
}

func TestEntity_AddRemoveProperty(t *testing.T) {
	e := newTestEntity(map[string]ir.Value{"a": 1})

	assert.False(t, e.AddProperty("a", 2), "existing property is kept")
	assert.True(t, e.AddProperty("b", 2))
	assert.Equal(t, []string{"a", "b"}, e.Properties().Names())

	assert.True(t, e.RemoveProperty("b"))
	assert.False(t, e.HasProperty("b"))
}

func TestEntity_Snapshot(t *testing.T) {
	e := newTestEntity(map[string]ir.Value{"a": 1, "b": "x"})
	assert.Equal(t, map[string]ir.Value{"a": 1.0, "b": "x"}, e.Properties().Snapshot())
}

// =============================================================================
// Relation Tests
// =============================================================================

func TestRelation_ID(t *testing.T) {
	out := newTestEntity(nil)
	in := newTestEntity(nil)

	r := NewRelation(out, testRelationType, in, map[string]ir.Value{"weight": 1})

	id := r.ID()
	assert.Equal(t, out.ID(), id.Outbound)
	assert.Equal(t, in.ID(), id.Inbound)
	assert.Equal(t, testRelationType, id.Type)
	assert.Empty(t, id.InstanceID)
	assert.Same(t, out, r.Outbound())
	assert.Same(t, in, r.Inbound())
}

func TestRelation_InstanceIDDistinguishes(t *testing.T) {
	out := newTestEntity(nil)
	in := newTestEntity(nil)

	r1 := NewRelationWithInstanceID(out, testRelationType, "1", in, nil)
	r2 := NewRelationWithInstanceID(out, testRelationType, "2", in, nil)

	assert.NotEqual(t, r1.ID(), r2.ID())
}

// =============================================================================
// Propagate Tests
// =============================================================================

func TestPropagate_CopiesValues(t *testing.T) {
	src := newTestEntity(map[string]ir.Value{"out": 0})
	dst := newTestEntity(map[string]ir.Value{"in": 0})

	h := Propagate(src, "out", dst, "in")
	src.Set("out", 7)

	v, _ := dst.Get("in")
	assert.Equal(t, 7.0, v)

	src.RemoveObserver("out", h)
	src.Set("out", 8)
	v, _ = dst.Get("in")
	assert.Equal(t, 7.0, v, "removed propagation must not fire")
}

func TestPropagate_Chain(t *testing.T) {
	a := newTestEntity(map[string]ir.Value{"v": 0})
	b := newTestEntity(map[string]ir.Value{"v": 0})
	c := newTestEntity(map[string]ir.Value{"v": 0})

	Propagate(a, "v", b, "v")
	Propagate(b, "v", c, "v")

	a.Set("v", "through")

	v, _ := c.Get("v")
	assert.Equal(t, "through", v)
}

func TestEntity_Tick(t *testing.T) {
	src := newTestEntity(map[string]ir.Value{"out": 3})
	dst := newTestEntity(map[string]ir.Value{"in": 0})
	Propagate(src, "out", dst, "in")

	src.Tick()

	v, _ := dst.Get("in")
	assert.Equal(t, 3.0, v)
}
