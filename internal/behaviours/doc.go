// Package behaviours is the built-in behaviour library.
//
// It ships the type definitions it needs (types.cue) and registers:
//
//   - entity behaviours math::sin, math::cos, math::abs, math::sqrt and
//     logical::not, each computing result from lhs
//   - relation behaviour connector::default_connector, which copies the
//     outbound entity's outbound_property_name into the inbound entity's
//     inbound_property_name
//   - entity component behaviour core::counter, counting trigger writes
//   - relation component behaviour connector::propagation_counter, counting
//     values flowing through a connector
package behaviours
