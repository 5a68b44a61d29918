// Package system assembles the behaviour registries and managers into one
// explicitly constructed context and routes instance lifecycle events to
// them.
//
// Lifecycle:
//
//	New -> Init -> PostInit -> (events) -> PreShutdown -> Shutdown
//
// Init and PostInit visit registries before managers; PreShutdown and
// Shutdown visit managers before registries. Events delivered after
// Shutdown are rejected with ErrShutdown.
package system
