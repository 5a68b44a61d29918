// Package manager applies registered behaviours to reactive instances and
// owns the behaviours it creates.
//
// A Manager combines one registry (owner type -> factories) with one
// behaviour storage (instance -> live behaviours). Bulk operations fan out
// over every owner type of an instance and never fail as a whole: a
// behaviour that cannot be attached is logged and skipped. Single-behaviour
// operations return their errors.
//
// Behaviours removed from a manager are closed, which disconnects them and
// removes all of their observers.
package manager
