// Package ir provides the identifier and value types shared by every layer of
// the behaviour runtime.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Type identifiers are namespaced ("namespace::name") and NFC-normalised
//   - Each identifier kind (entity, component, relation, behaviour) is a
//     distinct Go type so they cannot be mixed up at compile time
//   - Property values are JSON-like; numbers are always float64
package ir
