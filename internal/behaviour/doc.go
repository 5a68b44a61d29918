// Package behaviour implements the behaviour lifecycle: a small state machine
// that validates an instance, wires observers onto its properties when
// connected, and tears every one of them down when disconnected.
//
// A Behaviour is created by a Factory for exactly one instance and driven to
// Connected immediately. Connect runs the validator strictly before any
// observer is registered; if the connect step fails, observers registered by
// the failed attempt are removed again. Disconnect always leaves the
// behaviour Disconnected with zero observers, even when the disconnect step
// itself reports an error.
//
// Storage holds the live behaviours of one owner kind (entities or relations)
// in a two-level concurrent map: owner id -> behaviour type -> behaviour.
//
// State machine:
//
//	Created ----connect----> Connected
//	Connected --disconnect-> Disconnected
//	Disconnected --connect-> Connected
//
// Every other requested transition fails with INVALID_TRANSITION.
package behaviour
