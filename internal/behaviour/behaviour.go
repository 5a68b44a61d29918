package behaviour

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// Funcs supplies the behaviour-specific parts of the lifecycle.
//
// Validator builds the validator for an instance; nil means NoopValidator.
// Connect registers observers, normally through b.Observers(). Disconnect
// runs before the container's observers are removed; nil means nothing
// beyond that removal.
type Funcs[ID comparable, T reactive.Instance[ID]] struct {
	Validator  func(instance T) Validator
	Connect    func(b *Behaviour[ID, T]) error
	Disconnect func(b *Behaviour[ID, T]) error
}

type options struct {
	listener Listener
	handles  reactive.HandleGenerator
}

// Option configures a Behaviour.
type Option func(*options)

// WithListener reports every transition to l.
func WithListener(l Listener) Option {
	return func(o *options) {
		o.listener = l
	}
}

// WithHandleGenerator sets the observer handle source.
func WithHandleGenerator(g reactive.HandleGenerator) Option {
	return func(o *options) {
		o.handles = g
	}
}

// Behaviour is one behaviour type applied to one instance.
//
// Transitions are serialized per behaviour. The connect and disconnect steps
// run while the behaviour's lock is held and must not drive transitions of
// the same behaviour.
type Behaviour[ID comparable, T reactive.Instance[ID]] struct {
	ty        ir.BehaviourTypeID
	instance  T
	funcs     Funcs[ID, T]
	validator Validator
	observers *PropertyObserverContainer
	listener  Listener

	mu     sync.Mutex
	state  State
	closed bool
}

// New creates a behaviour in state Created. No observers are registered
// until it is connected.
func New[ID comparable, T reactive.Instance[ID]](ty ir.BehaviourTypeID, instance T, funcs Funcs[ID, T], opts ...Option) *Behaviour[ID, T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var validator Validator = NoopValidator{}
	if funcs.Validator != nil {
		validator = funcs.Validator(instance)
	}

	return &Behaviour[ID, T]{
		ty:        ty,
		instance:  instance,
		funcs:     funcs,
		validator: validator,
		observers: NewPropertyObserverContainer(instance, o.handles),
		listener:  o.listener,
		state:     Created,
	}
}

// Type returns the behaviour type.
func (b *Behaviour[ID, T]) Type() ir.BehaviourTypeID {
	return b.ty
}

// Instance returns the instance this behaviour is applied to.
func (b *Behaviour[ID, T]) Instance() T {
	return b.instance
}

// Observers returns the container holding this behaviour's observers.
func (b *Behaviour[ID, T]) Observers() *PropertyObserverContainer {
	return b.observers
}

// Validator returns the validator built for the instance.
func (b *Behaviour[ID, T]) Validator() Validator {
	return b.validator
}

// State returns the current state.
func (b *Behaviour[ID, T]) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsConnected reports whether the behaviour is Connected.
func (b *Behaviour[ID, T]) IsConnected() bool {
	return b.State() == Connected
}

// Transition requests a move to target.
//
// Created/Disconnected -> Connected validates, then connects. On failure
// the state is unchanged and no observers remain.
// Connected -> Disconnected always ends Disconnected; a failing disconnect
// step is returned as BEHAVIOUR_DISCONNECT_FAILED.
// Every other request fails with INVALID_TRANSITION.
func (b *Behaviour[ID, T]) Transition(target State) error {
	b.mu.Lock()
	from := b.state
	err := b.transitionLocked(target)
	result := b.state
	b.mu.Unlock()

	b.report(from, target, result, err)
	return err
}

// Connect is Transition(Connected).
func (b *Behaviour[ID, T]) Connect() error {
	return b.Transition(Connected)
}

// Disconnect is Transition(Disconnected).
func (b *Behaviour[ID, T]) Disconnect() error {
	return b.Transition(Disconnected)
}

// Reconnect disconnects and connects again. It stops after a failed
// disconnect; the returned ReconnectError names the failing phase.
func (b *Behaviour[ID, T]) Reconnect() error {
	if err := b.Disconnect(); err != nil {
		return &ReconnectError{Phase: PhaseDisconnect, Err: err}
	}
	if err := b.Connect(); err != nil {
		return &ReconnectError{Phase: PhaseConnect, Err: err}
	}
	return nil
}

// Close tears the behaviour down: disconnects it if connected and removes
// every observer. Further transitions fail. Close is idempotent.
func (b *Behaviour[ID, T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	from := b.state
	var err error
	if from == Connected {
		err = b.disconnectLocked()
	}
	b.observers.RemoveAllObservers()
	b.closed = true
	result := b.state
	b.mu.Unlock()

	if from == Connected {
		b.report(from, Disconnected, result, err)
	}
	return err
}

func (b *Behaviour[ID, T]) transitionLocked(target State) error {
	if b.closed {
		return b.transitionError(ErrCodeInvalidTransition, target, ErrBehaviourClosed)
	}
	switch {
	case target == Connected && (b.state == Created || b.state == Disconnected):
		return b.connectLocked()
	case target == Disconnected && b.state == Connected:
		return b.disconnectLocked()
	}
	return b.transitionError(ErrCodeInvalidTransition, target, nil)
}

func (b *Behaviour[ID, T]) connectLocked() error {
	if err := b.validator.Validate(); err != nil {
		return b.transitionError(ErrCodeBehaviourInvalid, Connected, err)
	}
	if b.funcs.Connect != nil {
		if err := b.funcs.Connect(b); err != nil {
			b.observers.RemoveAllObservers()
			return b.transitionError(ErrCodeConnectFailed, Connected, err)
		}
	}
	b.state = Connected
	b.instance.AddBehaviour(b.ty)
	return nil
}

func (b *Behaviour[ID, T]) disconnectLocked() error {
	var err error
	if b.funcs.Disconnect != nil {
		err = b.funcs.Disconnect(b)
	}
	b.observers.RemoveAllObservers()
	b.state = Disconnected
	b.instance.RemoveBehaviour(b.ty)
	if err != nil {
		return b.transitionError(ErrCodeDisconnectFailed, Disconnected, err)
	}
	return nil
}

func (b *Behaviour[ID, T]) transitionError(code TransitionErrorCode, target State, cause error) *TransitionError {
	return &TransitionError{Code: code, Behaviour: b.ty, From: b.state, To: target, Err: cause}
}

func (b *Behaviour[ID, T]) report(from, target, result State, err error) {
	owner := fmt.Sprint(b.instance.ID())
	if err != nil {
		slog.Debug("behaviour transition failed",
			"behaviour", b.ty.String(),
			"owner", owner,
			"from", from.String(),
			"to", target.String(),
			"error", err)
	}
	if b.listener == nil {
		return
	}
	b.listener.Transitioned(TransitionEvent{
		Owner:     owner,
		Behaviour: b.ty,
		From:      from,
		Target:    target,
		Result:    result,
		Err:       err,
	})
}
