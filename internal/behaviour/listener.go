package behaviour

import (
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

// TransitionEvent describes one attempted state transition.
type TransitionEvent struct {
	// Owner is the formatted id of the instance the behaviour belongs to.
	Owner     string
	Behaviour ir.BehaviourTypeID
	From      State
	// Target is the requested state, Result the state after the attempt.
	Target State
	Result State
	Err    error
}

// Succeeded reports whether the transition reached its target without error.
func (e TransitionEvent) Succeeded() bool {
	return e.Err == nil && e.Result == e.Target
}

// Listener observes behaviour transitions. Implementations must not block;
// they run synchronously on the goroutine driving the transition.
type Listener interface {
	Transitioned(ev TransitionEvent)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev TransitionEvent)

// Transitioned calls f.
func (f ListenerFunc) Transitioned(ev TransitionEvent) {
	f(ev)
}

// Listeners fans an event out to several listeners in order.
type Listeners []Listener

// Transitioned forwards ev to every non-nil listener.
func (ls Listeners) Transitioned(ev TransitionEvent) {
	for _, l := range ls {
		if l != nil {
			l.Transitioned(ev)
		}
	}
}
