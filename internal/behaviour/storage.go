package behaviour

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// Entry is a stored behaviour together with its keys.
type Entry[ID comparable, T reactive.Instance[ID]] struct {
	Owner     ID
	Type      ir.BehaviourTypeID
	Behaviour *Behaviour[ID, T]
}

// Storage holds live behaviours keyed by owner id, then behaviour type.
//
// Both levels are lock-striped concurrent maps, so operations on different
// owners do not contend. Storage never closes behaviours; callers removing
// entries own the returned behaviours and are expected to Close them.
//
// Inner maps are created on first insert and dropped only by RemoveAll, so
// an owner whose behaviours were removed one by one keeps an empty inner map
// until it is deleted.
type Storage[ID comparable, T reactive.Instance[ID]] struct {
	owners *xsync.MapOf[ID, *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]]]
}

// NewStorage creates an empty storage.
func NewStorage[ID comparable, T reactive.Instance[ID]]() *Storage[ID, T] {
	return &Storage[ID, T]{
		owners: xsync.NewMapOf[ID, *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]]](),
	}
}

// update runs fn on the inner map of owner id while the owner key is
// locked, creating the map if needed. A new inner map that fn leaves empty
// is not kept.
func (s *Storage[ID, T]) update(id ID, fn func(m *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]])) {
	s.owners.Compute(id, func(m *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]], loaded bool) (*xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]], bool) {
		if !loaded {
			m = xsync.NewMapOf[ir.BehaviourTypeID, *Behaviour[ID, T]]()
		}
		fn(m)
		return m, !loaded && m.Size() == 0
	})
}

// Insert stores b for (id, ty), replacing any previous behaviour, which is
// returned.
func (s *Storage[ID, T]) Insert(id ID, ty ir.BehaviourTypeID, b *Behaviour[ID, T]) (prev *Behaviour[ID, T], replaced bool) {
	s.update(id, func(m *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]]) {
		prev, replaced = m.LoadAndStore(ty, b)
	})
	return prev, replaced
}

// InsertWith atomically decides what to store for (id, ty). create is called
// with the current behaviour, if any, while the owner is locked; the
// behaviour it returns is stored. If create fails nothing changes.
//
// create must not access this storage.
func (s *Storage[ID, T]) InsertWith(id ID, ty ir.BehaviourTypeID, create func(current *Behaviour[ID, T], exists bool) (*Behaviour[ID, T], error)) (*Behaviour[ID, T], error) {
	var (
		created *Behaviour[ID, T]
		err     error
	)
	s.update(id, func(m *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]]) {
		m.Compute(ty, func(current *Behaviour[ID, T], loaded bool) (*Behaviour[ID, T], bool) {
			created, err = create(current, loaded)
			if err != nil {
				return current, !loaded
			}
			return created, false
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns the behaviour stored for (id, ty).
func (s *Storage[ID, T]) Get(id ID, ty ir.BehaviourTypeID) (*Behaviour[ID, T], bool) {
	m, ok := s.owners.Load(id)
	if !ok {
		return nil, false
	}
	return m.Load(ty)
}

// Has reports whether a behaviour is stored for (id, ty).
func (s *Storage[ID, T]) Has(id ID, ty ir.BehaviourTypeID) bool {
	_, ok := s.Get(id, ty)
	return ok
}

// Remove deletes and returns the behaviour stored for (id, ty).
func (s *Storage[ID, T]) Remove(id ID, ty ir.BehaviourTypeID) (Entry[ID, T], bool) {
	m, ok := s.owners.Load(id)
	if !ok {
		return Entry[ID, T]{}, false
	}
	b, ok := m.LoadAndDelete(ty)
	if !ok {
		return Entry[ID, T]{}, false
	}
	return Entry[ID, T]{Owner: id, Type: ty, Behaviour: b}, true
}

// RemoveAll deletes every behaviour of owner id, sorted by behaviour type.
// It is serialized with Insert and InsertWith for the same owner.
func (s *Storage[ID, T]) RemoveAll(id ID) []Entry[ID, T] {
	var out []Entry[ID, T]
	s.owners.Compute(id, func(m *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]], loaded bool) (*xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]], bool) {
		if !loaded {
			return m, true
		}
		m.Range(func(ty ir.BehaviourTypeID, _ *Behaviour[ID, T]) bool {
			if b, ok := m.LoadAndDelete(ty); ok {
				out = append(out, Entry[ID, T]{Owner: id, Type: ty, Behaviour: b})
			}
			return true
		})
		return m, true
	})
	sortEntries(out)
	return out
}

// RemoveByBehaviour deletes behaviour type ty from every owner.
func (s *Storage[ID, T]) RemoveByBehaviour(ty ir.BehaviourTypeID) []Entry[ID, T] {
	var out []Entry[ID, T]
	s.owners.Range(func(id ID, m *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]]) bool {
		if b, ok := m.LoadAndDelete(ty); ok {
			out = append(out, Entry[ID, T]{Owner: id, Type: ty, Behaviour: b})
		}
		return true
	})
	return out
}

// Clear deletes every behaviour of every owner.
func (s *Storage[ID, T]) Clear() []Entry[ID, T] {
	var out []Entry[ID, T]
	s.owners.Range(func(id ID, _ *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]]) bool {
		out = append(out, s.RemoveAll(id)...)
		return true
	})
	sortByOwner(out)
	return out
}

// Entries returns every stored behaviour ordered by formatted owner id,
// then behaviour type.
func (s *Storage[ID, T]) Entries() []Entry[ID, T] {
	var out []Entry[ID, T]
	s.owners.Range(func(id ID, m *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]]) bool {
		m.Range(func(ty ir.BehaviourTypeID, b *Behaviour[ID, T]) bool {
			out = append(out, Entry[ID, T]{Owner: id, Type: ty, Behaviour: b})
			return true
		})
		return true
	})
	sortByOwner(out)
	return out
}

// GetByBehaviour returns every stored behaviour of type ty.
func (s *Storage[ID, T]) GetByBehaviour(ty ir.BehaviourTypeID) []*Behaviour[ID, T] {
	var out []*Behaviour[ID, T]
	s.owners.Range(func(_ ID, m *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]]) bool {
		if b, ok := m.Load(ty); ok {
			out = append(out, b)
		}
		return true
	})
	return out
}

// GetBehavioursByInstance returns the behaviour types stored for owner id,
// sorted.
func (s *Storage[ID, T]) GetBehavioursByInstance(id ID) []ir.BehaviourTypeID {
	m, ok := s.owners.Load(id)
	if !ok {
		return nil
	}
	var out []ir.BehaviourTypeID
	m.Range(func(ty ir.BehaviourTypeID, _ *Behaviour[ID, T]) bool {
		out = append(out, ty)
		return true
	})
	slices.SortFunc(out, ir.CompareBehaviourTypeIDs)
	return out
}

// GetAllByInstance returns the behaviours stored for owner id, sorted by type.
func (s *Storage[ID, T]) GetAllByInstance(id ID) []Entry[ID, T] {
	m, ok := s.owners.Load(id)
	if !ok {
		return nil
	}
	var out []Entry[ID, T]
	m.Range(func(ty ir.BehaviourTypeID, b *Behaviour[ID, T]) bool {
		out = append(out, Entry[ID, T]{Owner: id, Type: ty, Behaviour: b})
		return true
	})
	sortEntries(out)
	return out
}

// GetInstancesByBehaviour returns the instances that have behaviour ty.
func (s *Storage[ID, T]) GetInstancesByBehaviour(ty ir.BehaviourTypeID) []T {
	var out []T
	for _, b := range s.GetByBehaviour(ty) {
		out = append(out, b.Instance())
	}
	return out
}

// Len returns the total number of stored behaviours.
func (s *Storage[ID, T]) Len() int {
	n := 0
	s.owners.Range(func(_ ID, m *xsync.MapOf[ir.BehaviourTypeID, *Behaviour[ID, T]]) bool {
		n += m.Size()
		return true
	})
	return n
}

func sortEntries[ID comparable, T reactive.Instance[ID]](entries []Entry[ID, T]) {
	slices.SortFunc(entries, func(a, b Entry[ID, T]) int {
		return ir.CompareBehaviourTypeIDs(a.Type, b.Type)
	})
}

func sortByOwner[ID comparable, T reactive.Instance[ID]](entries []Entry[ID, T]) {
	slices.SortFunc(entries, func(a, b Entry[ID, T]) int {
		if c := cmp.Compare(fmt.Sprint(a.Owner), fmt.Sprint(b.Owner)); c != 0 {
			return c
		}
		return ir.CompareBehaviourTypeIDs(a.Type, b.Type)
	})
}
