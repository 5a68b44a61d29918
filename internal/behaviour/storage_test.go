package behaviour

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

var otherBehaviour = ir.NewBehaviourTypeID("test", "other")

func newStoredBehaviour(e *reactive.Entity, ty ir.BehaviourTypeID) *entityBehaviour {
	return New(ty, e, Funcs[uuid.UUID, *reactive.Entity]{})
}

func TestStorage_InsertGetHas(t *testing.T) {
	s := NewStorage[uuid.UUID, *reactive.Entity]()
	e := newTestEntity(nil)
	b := newStoredBehaviour(e, copyBehaviour)

	prev, replaced := s.Insert(e.ID(), copyBehaviour, b)

	assert.Nil(t, prev)
	assert.False(t, replaced)
	assert.True(t, s.Has(e.ID(), copyBehaviour))
	assert.False(t, s.Has(e.ID(), otherBehaviour))
	assert.False(t, s.Has(uuid.New(), copyBehaviour))

	got, ok := s.Get(e.ID(), copyBehaviour)
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, 1, s.Len())
}

func TestStorage_InsertReplacesAndReturnsPrevious(t *testing.T) {
	s := NewStorage[uuid.UUID, *reactive.Entity]()
	e := newTestEntity(nil)
	first := newStoredBehaviour(e, copyBehaviour)
	second := newStoredBehaviour(e, copyBehaviour)

	s.Insert(e.ID(), copyBehaviour, first)
	prev, replaced := s.Insert(e.ID(), copyBehaviour, second)

	assert.True(t, replaced)
	assert.Same(t, first, prev)
	assert.Equal(t, 1, s.Len())
}

func TestStorage_InsertWith(t *testing.T) {
	s := NewStorage[uuid.UUID, *reactive.Entity]()
	e := newTestEntity(nil)
	b := newStoredBehaviour(e, copyBehaviour)

	got, err := s.InsertWith(e.ID(), copyBehaviour, func(_ *entityBehaviour, exists bool) (*entityBehaviour, error) {
		assert.False(t, exists)
		return b, nil
	})
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = s.InsertWith(e.ID(), copyBehaviour, func(current *entityBehaviour, exists bool) (*entityBehaviour, error) {
		assert.True(t, exists)
		assert.Same(t, b, current)
		return nil, AlreadyApplied(copyBehaviour)
	})
	assert.True(t, IsAlreadyApplied(err))

	stored, _ := s.Get(e.ID(), copyBehaviour)
	assert.Same(t, b, stored, "failed insert keeps the current behaviour")
}

func TestStorage_InsertWithFailureStoresNothing(t *testing.T) {
	s := NewStorage[uuid.UUID, *reactive.Entity]()
	e := newTestEntity(nil)

	_, err := s.InsertWith(e.ID(), copyBehaviour, func(*entityBehaviour, bool) (*entityBehaviour, error) {
		return nil, errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	assert.False(t, s.Has(e.ID(), copyBehaviour))
	assert.Equal(t, 0, s.Len())
}

func TestStorage_Remove(t *testing.T) {
	s := NewStorage[uuid.UUID, *reactive.Entity]()
	e := newTestEntity(nil)
	b := newStoredBehaviour(e, copyBehaviour)
	s.Insert(e.ID(), copyBehaviour, b)

	entry, ok := s.Remove(e.ID(), copyBehaviour)
	require.True(t, ok)
	assert.Equal(t, e.ID(), entry.Owner)
	assert.Equal(t, copyBehaviour, entry.Type)
	assert.Same(t, b, entry.Behaviour)

	_, ok = s.Remove(e.ID(), copyBehaviour)
	assert.False(t, ok)
	_, ok = s.Remove(uuid.New(), copyBehaviour)
	assert.False(t, ok)
	assert.Empty(t, s.GetBehavioursByInstance(e.ID()))
}

func TestStorage_RemoveAll(t *testing.T) {
	s := NewStorage[uuid.UUID, *reactive.Entity]()
	e := newTestEntity(nil)
	keep := newTestEntity(nil)
	s.Insert(e.ID(), otherBehaviour, newStoredBehaviour(e, otherBehaviour))
	s.Insert(e.ID(), copyBehaviour, newStoredBehaviour(e, copyBehaviour))
	s.Insert(keep.ID(), copyBehaviour, newStoredBehaviour(keep, copyBehaviour))

	removed := s.RemoveAll(e.ID())

	require.Len(t, removed, 2)
	assert.Equal(t, copyBehaviour, removed[0].Type)
	assert.Equal(t, otherBehaviour, removed[1].Type)
	assert.Nil(t, s.GetBehavioursByInstance(e.ID()))
	assert.True(t, s.Has(keep.ID(), copyBehaviour))
	assert.Nil(t, s.RemoveAll(e.ID()))
}

func TestStorage_ByBehaviour(t *testing.T) {
	s := NewStorage[uuid.UUID, *reactive.Entity]()
	a := newTestEntity(nil)
	b := newTestEntity(nil)
	s.Insert(a.ID(), copyBehaviour, newStoredBehaviour(a, copyBehaviour))
	s.Insert(b.ID(), copyBehaviour, newStoredBehaviour(b, copyBehaviour))
	s.Insert(b.ID(), otherBehaviour, newStoredBehaviour(b, otherBehaviour))

	assert.Len(t, s.GetByBehaviour(copyBehaviour), 2)
	assert.ElementsMatch(t, []*reactive.Entity{a, b}, s.GetInstancesByBehaviour(copyBehaviour))
	assert.Equal(t, []ir.BehaviourTypeID{copyBehaviour, otherBehaviour}, s.GetBehavioursByInstance(b.ID()))

	removed := s.RemoveByBehaviour(copyBehaviour)

	assert.Len(t, removed, 2)
	assert.Empty(t, s.GetByBehaviour(copyBehaviour))
	assert.True(t, s.Has(b.ID(), otherBehaviour))
	assert.Equal(t, 1, s.Len())
}

func TestStorage_Clear(t *testing.T) {
	s := NewStorage[uuid.UUID, *reactive.Entity]()
	for i := 0; i < 5; i++ {
		e := newTestEntity(nil)
		s.Insert(e.ID(), copyBehaviour, newStoredBehaviour(e, copyBehaviour))
	}

	assert.Len(t, s.Clear(), 5)
	assert.Equal(t, 0, s.Len())
}

func TestStorage_ConcurrentOwners(t *testing.T) {
	s := NewStorage[uuid.UUID, *reactive.Entity]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := newTestEntity(nil)
			s.Insert(e.ID(), copyBehaviour, newStoredBehaviour(e, copyBehaviour))
			s.Insert(e.ID(), otherBehaviour, newStoredBehaviour(e, otherBehaviour))
			s.Remove(e.ID(), otherBehaviour)
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, s.Len())
	assert.Len(t, s.GetByBehaviour(copyBehaviour), 16)
}

func TestStorage_InsertWithRacesRemoveAll(t *testing.T) {
	const workers, rounds = 8, 2000
	s := NewStorage[uuid.UUID, *reactive.Entity]()

	var (
		wg   sync.WaitGroup
		lost atomic.Int64
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				e := newTestEntity(nil)
				b := newStoredBehaviour(e, copyBehaviour)
				var removed []Entry[uuid.UUID, *reactive.Entity]

				done := make(chan struct{})
				go func() {
					defer close(done)
					removed = s.RemoveAll(e.ID())
				}()
				_, err := s.InsertWith(e.ID(), copyBehaviour, func(_ *entityBehaviour, _ bool) (*entityBehaviour, error) {
					return b, nil
				})
				<-done
				if err != nil {
					t.Errorf("insert: %v", err)
					return
				}

				stored, ok := s.Get(e.ID(), copyBehaviour)
				returned := len(removed) == 1 && removed[0].Behaviour == b
				if ok == returned || (ok && stored != b) {
					lost.Add(1)
				}
				s.RemoveAll(e.ID())
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, lost.Load(), "behaviours neither stored nor returned by RemoveAll exactly once")
	assert.Equal(t, 0, s.Len())
}

func TestStorage_RemoveAllAndRemoveClaimOnce(t *testing.T) {
	s := NewStorage[uuid.UUID, *reactive.Entity]()

	for i := 0; i < 1000; i++ {
		e := newTestEntity(nil)
		s.Insert(e.ID(), copyBehaviour, newStoredBehaviour(e, copyBehaviour))

		var (
			wg     sync.WaitGroup
			all    []Entry[uuid.UUID, *reactive.Entity]
			single bool
		)
		wg.Add(2)
		go func() { defer wg.Done(); all = s.RemoveAll(e.ID()) }()
		go func() { defer wg.Done(); _, single = s.Remove(e.ID(), copyBehaviour) }()
		wg.Wait()

		require.Equal(t, 1, len(all)+boolToInt(single), "entry claimed by exactly one remover")
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestStorage_RelationOwners(t *testing.T) {
	s := NewStorage[ir.RelationInstanceID, *reactive.Relation]()
	r := reactive.NewRelation(newTestEntity(nil), ir.NewRelationTypeID("test", "link"), newTestEntity(nil), nil)
	b := New(copyBehaviour, r, Funcs[ir.RelationInstanceID, *reactive.Relation]{})

	s.Insert(r.ID(), copyBehaviour, b)

	assert.True(t, s.Has(r.ID(), copyBehaviour))
}
