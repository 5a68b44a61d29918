// Package reactive implements reactive properties and the reactive entity and
// relation instances that carry them.
//
// A Property holds a value and an ordered list of observers. Set stores the
// value and then synchronously invokes every observer registered at that
// moment, in registration order, on the calling goroutine. Observers run
// outside the property lock, so an observer may write to other properties (or
// the same one) and a wiring cycle recurses on the caller's stack instead of
// deadlocking. Nothing in this package detects such cycles.
//
// Observers are keyed by an ObserverHandle. Registering twice with the same
// handle replaces the earlier observer; removing an unknown handle is a no-op.
package reactive
