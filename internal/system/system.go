package system

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/manager"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
	"github.com/reactive-graph/reactive-graph-sub007/internal/registry"
)

var (
	// ErrShutdown is returned for events delivered after Shutdown.
	ErrShutdown = errors.New("behaviour system is shut down")
	// ErrLifecycle is returned when lifecycle steps run out of order.
	ErrLifecycle = errors.New("invalid lifecycle transition")
)

// Phase is a lifecycle phase of the system.
type Phase int

const (
	PhaseNew Phase = iota
	PhaseInitialized
	PhaseRunning
	PhaseStopping
	PhaseShutdown
)

func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhaseInitialized:
		return "initialized"
	case PhaseRunning:
		return "running"
	case PhaseStopping:
		return "stopping"
	case PhaseShutdown:
		return "shutdown"
	}
	return "unknown"
}

// Plugin contributes behaviour factories to a system.
type Plugin interface {
	Name() string
	Register(s *System) error
}

type options struct {
	listeners []behaviour.Listener
	handles   reactive.HandleGenerator
}

// Option configures a System.
type Option func(*options)

// WithListener adds a transition listener shared by every manager.
func WithListener(l behaviour.Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, l)
	}
}

// WithHandleGenerator sets the observer handle source for every behaviour.
func WithHandleGenerator(g reactive.HandleGenerator) Option {
	return func(o *options) {
		o.handles = g
	}
}

// System is the behaviour runtime: four registries, four managers and the
// event routing between them.
type System struct {
	EntityBehaviours            *registry.EntityBehaviourRegistry
	EntityComponentBehaviours   *registry.EntityComponentBehaviourRegistry
	RelationBehaviours          *registry.RelationBehaviourRegistry
	RelationComponentBehaviours *registry.RelationComponentBehaviourRegistry

	EntityBehaviourManager            *manager.EntityBehaviourManager
	EntityComponentBehaviourManager   *manager.EntityComponentBehaviourManager
	RelationBehaviourManager          *manager.RelationBehaviourManager
	RelationComponentBehaviourManager *manager.RelationComponentBehaviourManager

	mu      sync.RWMutex
	phase   Phase
	plugins []string
}

// New builds a system. types may be nil, in which case registrations are
// never checked against a type system.
func New(types registry.TypeSystem, opts ...Option) *System {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var mopts []manager.Option
	if len(o.listeners) > 0 {
		mopts = append(mopts, manager.WithListener(behaviour.Listeners(o.listeners)))
	}
	if o.handles != nil {
		mopts = append(mopts, manager.WithHandleGenerator(o.handles))
	}

	s := &System{
		EntityBehaviours:            registry.NewEntityBehaviourRegistry(types),
		EntityComponentBehaviours:   registry.NewEntityComponentBehaviourRegistry(types),
		RelationBehaviours:          registry.NewRelationBehaviourRegistry(types),
		RelationComponentBehaviours: registry.NewRelationComponentBehaviourRegistry(types),
	}
	s.EntityBehaviourManager = manager.NewEntityBehaviourManager(s.EntityBehaviours, mopts...)
	s.EntityComponentBehaviourManager = manager.NewEntityComponentBehaviourManager(s.EntityComponentBehaviours, mopts...)
	s.RelationBehaviourManager = manager.NewRelationBehaviourManager(s.RelationBehaviours, mopts...)
	s.RelationComponentBehaviourManager = manager.NewRelationComponentBehaviourManager(s.RelationComponentBehaviours, mopts...)
	return s
}

// Phase returns the current lifecycle phase.
func (s *System) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Install registers a plugin's behaviours. Plugins may be installed until
// shutdown starts.
func (s *System) Install(p Plugin) error {
	if s.Phase() >= PhaseStopping {
		return ErrShutdown
	}
	if err := p.Register(s); err != nil {
		return fmt.Errorf("install plugin %s: %w", p.Name(), err)
	}
	s.mu.Lock()
	s.plugins = append(s.plugins, p.Name())
	s.mu.Unlock()
	slog.Info("plugin installed", "plugin", p.Name())
	return nil
}

// Plugins returns the names of installed plugins in install order.
func (s *System) Plugins() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.plugins...)
}

func (s *System) advance(from, to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != from {
		return fmt.Errorf("%w: %s -> %s (current %s)", ErrLifecycle, from, to, s.phase)
	}
	s.phase = to
	return nil
}

// Init prepares registries, then managers.
func (s *System) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.advance(PhaseNew, PhaseInitialized); err != nil {
		return err
	}
	slog.Debug("behaviour system initialized",
		"entity_behaviours", s.EntityBehaviours.Count(),
		"entity_component_behaviours", s.EntityComponentBehaviours.Count(),
		"relation_behaviours", s.RelationBehaviours.Count(),
		"relation_component_behaviours", s.RelationComponentBehaviours.Count())
	return nil
}

// PostInit starts accepting instance events.
func (s *System) PostInit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.advance(PhaseInitialized, PhaseRunning); err != nil {
		return err
	}
	slog.Info("behaviour system running", "plugins", len(s.Plugins()))
	return nil
}

// PreShutdown disconnects every behaviour so no more values flow through
// the graph. Behaviours stay attached until Shutdown.
func (s *System) PreShutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.advance(PhaseRunning, PhaseStopping); err != nil {
		return err
	}
	n := s.RelationComponentBehaviourManager.DisconnectAll() +
		s.RelationBehaviourManager.DisconnectAll() +
		s.EntityComponentBehaviourManager.DisconnectAll() +
		s.EntityBehaviourManager.DisconnectAll()
	slog.Info("behaviour system stopping", "disconnected", n)
	return nil
}

// Shutdown closes every behaviour of every manager and clears the
// registries. It may be called from any phase before shutdown.
func (s *System) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseShutdown {
		s.mu.Unlock()
		return fmt.Errorf("%w: already shut down", ErrLifecycle)
	}
	s.phase = PhaseShutdown
	s.mu.Unlock()

	n := s.RelationComponentBehaviourManager.Clear() +
		s.RelationBehaviourManager.Clear() +
		s.EntityComponentBehaviourManager.Clear() +
		s.EntityBehaviourManager.Clear()

	s.RelationComponentBehaviours.Clear()
	s.RelationBehaviours.Clear()
	s.EntityComponentBehaviours.Clear()
	s.EntityBehaviours.Clear()

	slog.Info("behaviour system shut down", "closed", n)
	return ctx.Err()
}

func (s *System) accepting() error {
	if s.Phase() >= PhaseStopping {
		return ErrShutdown
	}
	return nil
}

// EntityCreated applies the behaviours of the entity's type and components.
func (s *System) EntityCreated(e *reactive.Entity) error {
	if err := s.accepting(); err != nil {
		return err
	}
	s.EntityBehaviourManager.AddBehaviours(e)
	s.EntityComponentBehaviourManager.AddBehaviours(e)
	return nil
}

// EntityDeleted removes every behaviour of the entity.
func (s *System) EntityDeleted(id uuid.UUID) error {
	if err := s.accepting(); err != nil {
		return err
	}
	s.EntityComponentBehaviourManager.RemoveBehavioursByID(id)
	s.EntityBehaviourManager.RemoveBehavioursByID(id)
	return nil
}

// EntityComponentAdded applies the behaviours bound to component c. The
// component must already be on the entity.
func (s *System) EntityComponentAdded(e *reactive.Entity, c ir.ComponentTypeID) error {
	if err := s.accepting(); err != nil {
		return err
	}
	s.EntityComponentBehaviourManager.AddBehavioursForOwner(e, c)
	return nil
}

// EntityComponentRemoved removes the behaviours bound to component c.
func (s *System) EntityComponentRemoved(e *reactive.Entity, c ir.ComponentTypeID) error {
	if err := s.accepting(); err != nil {
		return err
	}
	s.EntityComponentBehaviourManager.RemoveBehavioursForOwner(e, c)
	return nil
}

// RelationCreated applies the behaviours of the relation's type and
// components.
func (s *System) RelationCreated(r *reactive.Relation) error {
	if err := s.accepting(); err != nil {
		return err
	}
	s.RelationBehaviourManager.AddBehaviours(r)
	s.RelationComponentBehaviourManager.AddBehaviours(r)
	return nil
}

// RelationDeleted removes every behaviour of the relation.
func (s *System) RelationDeleted(id ir.RelationInstanceID) error {
	if err := s.accepting(); err != nil {
		return err
	}
	s.RelationComponentBehaviourManager.RemoveBehavioursByID(id)
	s.RelationBehaviourManager.RemoveBehavioursByID(id)
	return nil
}

// RelationComponentAdded applies the behaviours bound to component c.
func (s *System) RelationComponentAdded(r *reactive.Relation, c ir.ComponentTypeID) error {
	if err := s.accepting(); err != nil {
		return err
	}
	s.RelationComponentBehaviourManager.AddBehavioursForOwner(r, c)
	return nil
}

// RelationComponentRemoved removes the behaviours bound to component c.
func (s *System) RelationComponentRemoved(r *reactive.Relation, c ir.ComponentTypeID) error {
	if err := s.accepting(); err != nil {
		return err
	}
	s.RelationComponentBehaviourManager.RemoveBehavioursForOwner(r, c)
	return nil
}

// UnregisterEntityBehaviour removes a binding. If no other entity type is
// bound to the behaviour type, live behaviours of that type are removed too.
func (s *System) UnregisterEntityBehaviour(key ir.EntityBehaviourTypeID) bool {
	return unregister(s.EntityBehaviours, s.EntityBehaviourManager, key)
}

// UnregisterEntityComponentBehaviour is UnregisterEntityBehaviour for
// component bindings.
func (s *System) UnregisterEntityComponentBehaviour(key ir.ComponentBehaviourTypeID) bool {
	return unregister(s.EntityComponentBehaviours, s.EntityComponentBehaviourManager, key)
}

// UnregisterRelationBehaviour is UnregisterEntityBehaviour for relations.
func (s *System) UnregisterRelationBehaviour(key ir.RelationBehaviourTypeID) bool {
	return unregister(s.RelationBehaviours, s.RelationBehaviourManager, key)
}

// UnregisterRelationComponentBehaviour is UnregisterEntityBehaviour for
// relation component bindings.
func (s *System) UnregisterRelationComponentBehaviour(key ir.ComponentBehaviourTypeID) bool {
	return unregister(s.RelationComponentBehaviours, s.RelationComponentBehaviourManager, key)
}

func unregister[O comparable, ID comparable, T reactive.Instance[ID]](reg *registry.Registry[O, ID, T], m *manager.Manager[O, ID, T], key ir.BindingKey[O]) bool {
	if !reg.Unregister(key) {
		return false
	}
	if _, stillBound := reg.GetByBehaviourType(key.Behaviour); !stillBound {
		n := m.RemoveBehavioursByBehaviour(key.Behaviour)
		slog.Debug("behaviour unregistered", "kind", reg.Kind(), "key", key.String(), "removed", n)
	}
	return true
}
