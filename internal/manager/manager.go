package manager

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
	"github.com/reactive-graph/reactive-graph-sub007/internal/registry"
)

// ErrFactoryNotFound is returned by AddBehaviour for an unregistered
// behaviour type.
var ErrFactoryNotFound = errors.New("no factory registered for behaviour")

// OwnersFunc returns the owner types of an instance under which behaviours
// are registered: its entity or relation type, or its components.
type OwnersFunc[O comparable, ID comparable, T reactive.Instance[ID]] func(instance T) []O

type options struct {
	listener behaviour.Listener
	handles  reactive.HandleGenerator
}

// Option configures a Manager.
type Option func(*options)

// WithListener reports every transition of every managed behaviour to l.
func WithListener(l behaviour.Listener) Option {
	return func(o *options) {
		o.listener = l
	}
}

// WithHandleGenerator sets the observer handle source for new behaviours.
func WithHandleGenerator(g reactive.HandleGenerator) Option {
	return func(o *options) {
		o.handles = g
	}
}

// Manager attaches, detaches and drives the behaviours of one owner kind.
type Manager[O comparable, ID comparable, T reactive.Instance[ID]] struct {
	registry *registry.Registry[O, ID, T]
	storage  *behaviour.Storage[ID, T]
	owners   OwnersFunc[O, ID, T]
	opts     []behaviour.Option
}

// New creates a manager over reg. owners maps an instance to the owner types
// it is registered under.
func New[O comparable, ID comparable, T reactive.Instance[ID]](reg *registry.Registry[O, ID, T], owners OwnersFunc[O, ID, T], opts ...Option) *Manager[O, ID, T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var bopts []behaviour.Option
	if o.listener != nil {
		bopts = append(bopts, behaviour.WithListener(o.listener))
	}
	if o.handles != nil {
		bopts = append(bopts, behaviour.WithHandleGenerator(o.handles))
	}

	return &Manager[O, ID, T]{
		registry: reg,
		storage:  behaviour.NewStorage[ID, T](),
		owners:   owners,
		opts:     bopts,
	}
}

// Registry returns the registry this manager reads factories from.
func (m *Manager[O, ID, T]) Registry() *registry.Registry[O, ID, T] {
	return m.registry
}

// Kind returns the owner kind, as named by the registry.
func (m *Manager[O, ID, T]) Kind() string {
	return m.registry.Kind()
}

// AddBehaviours attaches every behaviour registered for any owner type of
// instance. Returns the behaviour types that were attached.
func (m *Manager[O, ID, T]) AddBehaviours(instance T) []ir.BehaviourTypeID {
	var added []ir.BehaviourTypeID
	for _, owner := range m.owners(instance) {
		added = append(added, m.AddBehavioursForOwner(instance, owner)...)
	}
	return added
}

// AddBehavioursForOwner attaches the behaviours registered for one owner
// type, e.g. a component that was just added to instance.
func (m *Manager[O, ID, T]) AddBehavioursForOwner(instance T, owner O) []ir.BehaviourTypeID {
	var added []ir.BehaviourTypeID
	for _, f := range m.registry.Get(owner) {
		if err := m.attach(instance, f); err != nil {
			slog.Warn("failed to add behaviour",
				"kind", m.Kind(),
				"owner", fmt.Sprint(instance.ID()),
				"behaviour", f.BehaviourType().String(),
				"error", err)
			continue
		}
		added = append(added, f.BehaviourType())
	}
	return added
}

// AddBehaviour attaches behaviour type ty to instance regardless of the
// instance's owner types.
func (m *Manager[O, ID, T]) AddBehaviour(instance T, ty ir.BehaviourTypeID) error {
	f, ok := m.registry.GetByBehaviourType(ty)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFactoryNotFound, ty)
	}
	return m.attach(instance, f)
}

func (m *Manager[O, ID, T]) attach(instance T, f behaviour.Factory[ID, T]) error {
	ty := f.BehaviourType()
	_, err := m.storage.InsertWith(instance.ID(), ty, func(_ *behaviour.Behaviour[ID, T], exists bool) (*behaviour.Behaviour[ID, T], error) {
		if exists {
			return nil, behaviour.AlreadyApplied(ty)
		}
		return f.Create(instance, m.opts...)
	})
	if err != nil {
		return err
	}
	slog.Debug("behaviour added", "kind", m.Kind(), "owner", fmt.Sprint(instance.ID()), "behaviour", ty.String())
	return nil
}

// RemoveBehaviour detaches and closes behaviour ty of owner id.
// Reports whether it was attached.
func (m *Manager[O, ID, T]) RemoveBehaviour(id ID, ty ir.BehaviourTypeID) bool {
	entry, ok := m.storage.Remove(id, ty)
	if !ok {
		return false
	}
	m.close(entry)
	return true
}

// RemoveBehavioursForOwner detaches the behaviours registered for one owner
// type, e.g. a component that was just removed from instance.
func (m *Manager[O, ID, T]) RemoveBehavioursForOwner(instance T, owner O) []ir.BehaviourTypeID {
	var removed []ir.BehaviourTypeID
	for _, ty := range m.registry.GetBehaviourTypes(owner) {
		if m.RemoveBehaviour(instance.ID(), ty) {
			removed = append(removed, ty)
		}
	}
	return removed
}

// RemoveBehaviours detaches every behaviour of instance.
func (m *Manager[O, ID, T]) RemoveBehaviours(instance T) int {
	return m.RemoveBehavioursByID(instance.ID())
}

// RemoveBehavioursByID detaches every behaviour of owner id, e.g. after the
// instance was deleted. Returns the number removed.
func (m *Manager[O, ID, T]) RemoveBehavioursByID(id ID) int {
	entries := m.storage.RemoveAll(id)
	for _, e := range entries {
		m.close(e)
	}
	return len(entries)
}

// RemoveBehavioursByBehaviour detaches behaviour type ty from every owner.
func (m *Manager[O, ID, T]) RemoveBehavioursByBehaviour(ty ir.BehaviourTypeID) int {
	entries := m.storage.RemoveByBehaviour(ty)
	for _, e := range entries {
		m.close(e)
	}
	return len(entries)
}

// Has reports whether owner id has behaviour ty.
func (m *Manager[O, ID, T]) Has(id ID, ty ir.BehaviourTypeID) bool {
	return m.storage.Has(id, ty)
}

// Get returns behaviour ty of owner id.
func (m *Manager[O, ID, T]) Get(id ID, ty ir.BehaviourTypeID) (*behaviour.Behaviour[ID, T], bool) {
	return m.storage.Get(id, ty)
}

// GetAll returns the behaviour types attached to owner id, sorted.
func (m *Manager[O, ID, T]) GetAll(id ID) []ir.BehaviourTypeID {
	return m.storage.GetBehavioursByInstance(id)
}

// GetInstancesByBehaviour returns every instance with behaviour ty.
func (m *Manager[O, ID, T]) GetInstancesByBehaviour(ty ir.BehaviourTypeID) []T {
	return m.storage.GetInstancesByBehaviour(ty)
}

// Count returns the number of live behaviours.
func (m *Manager[O, ID, T]) Count() int {
	return m.storage.Len()
}

// Connect connects behaviour ty of owner id.
func (m *Manager[O, ID, T]) Connect(id ID, ty ir.BehaviourTypeID) error {
	b, ok := m.storage.Get(id, ty)
	if !ok {
		return notFound(behaviour.ErrCodeConnectFailed, ty, behaviour.Connected)
	}
	return b.Connect()
}

// Disconnect disconnects behaviour ty of owner id. The behaviour stays
// attached and can be connected again.
func (m *Manager[O, ID, T]) Disconnect(id ID, ty ir.BehaviourTypeID) error {
	b, ok := m.storage.Get(id, ty)
	if !ok {
		return notFound(behaviour.ErrCodeDisconnectFailed, ty, behaviour.Disconnected)
	}
	return b.Disconnect()
}

// Reconnect disconnects and reconnects behaviour ty of owner id.
func (m *Manager[O, ID, T]) Reconnect(id ID, ty ir.BehaviourTypeID) error {
	b, ok := m.storage.Get(id, ty)
	if !ok {
		return notFound(behaviour.ErrCodeInvalidTransition, ty, behaviour.Connected)
	}
	return b.Reconnect()
}

// DisconnectAll disconnects every connected behaviour and keeps them
// attached. Returns the number disconnected.
func (m *Manager[O, ID, T]) DisconnectAll() int {
	n := 0
	for _, e := range m.storage.Entries() {
		if !e.Behaviour.IsConnected() {
			continue
		}
		if err := e.Behaviour.Disconnect(); err != nil {
			slog.Warn("disconnect failed",
				"kind", m.Kind(),
				"owner", fmt.Sprint(e.Owner),
				"behaviour", e.Type.String(),
				"error", err)
		}
		n++
	}
	return n
}

// Clear detaches and closes every behaviour.
func (m *Manager[O, ID, T]) Clear() int {
	entries := m.storage.Clear()
	for _, e := range entries {
		m.close(e)
	}
	return len(entries)
}

// Propagations returns the observers registered by every behaviour of owner
// id, ordered by behaviour type.
func (m *Manager[O, ID, T]) Propagations(id ID) []behaviour.Edge {
	var edges []behaviour.Edge
	for _, e := range m.storage.GetAllByInstance(id) {
		edges = append(edges, e.Behaviour.Observers().Edges()...)
	}
	return edges
}

func (m *Manager[O, ID, T]) close(e behaviour.Entry[ID, T]) {
	if err := e.Behaviour.Close(); err != nil {
		slog.Warn("behaviour teardown reported an error",
			"kind", m.Kind(),
			"owner", fmt.Sprint(e.Owner),
			"behaviour", e.Type.String(),
			"error", err)
	}
	slog.Debug("behaviour removed", "kind", m.Kind(), "owner", fmt.Sprint(e.Owner), "behaviour", e.Type.String())
}

func notFound(code behaviour.TransitionErrorCode, ty ir.BehaviourTypeID, target behaviour.State) error {
	return &behaviour.TransitionError{
		Code:      code,
		Behaviour: ty,
		To:        target,
		Err:       behaviour.ErrBehaviourNotFound,
	}
}

// EntityBehaviourManager applies behaviours bound to entity types.
type EntityBehaviourManager = Manager[ir.EntityTypeID, uuid.UUID, *reactive.Entity]

// EntityComponentBehaviourManager applies behaviours bound to entity components.
type EntityComponentBehaviourManager = Manager[ir.ComponentTypeID, uuid.UUID, *reactive.Entity]

// RelationBehaviourManager applies behaviours bound to relation types.
type RelationBehaviourManager = Manager[ir.RelationTypeID, ir.RelationInstanceID, *reactive.Relation]

// RelationComponentBehaviourManager applies behaviours bound to relation components.
type RelationComponentBehaviourManager = Manager[ir.ComponentTypeID, ir.RelationInstanceID, *reactive.Relation]

func NewEntityBehaviourManager(reg *registry.EntityBehaviourRegistry, opts ...Option) *EntityBehaviourManager {
	return New(reg, func(e *reactive.Entity) []ir.EntityTypeID {
		return []ir.EntityTypeID{e.Type()}
	}, opts...)
}

func NewEntityComponentBehaviourManager(reg *registry.EntityComponentBehaviourRegistry, opts ...Option) *EntityComponentBehaviourManager {
	return New(reg, (*reactive.Entity).Components, opts...)
}

func NewRelationBehaviourManager(reg *registry.RelationBehaviourRegistry, opts ...Option) *RelationBehaviourManager {
	return New(reg, func(r *reactive.Relation) []ir.RelationTypeID {
		return []ir.RelationTypeID{r.Type()}
	}, opts...)
}

func NewRelationComponentBehaviourManager(reg *registry.RelationComponentBehaviourRegistry, opts ...Option) *RelationComponentBehaviourManager {
	return New(reg, (*reactive.Relation).Components, opts...)
}
