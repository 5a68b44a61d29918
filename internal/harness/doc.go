// Package harness runs behaviour scenarios against a live behaviour system.
//
// A scenario is a YAML file that declares entities and relations by alias,
// then applies a list of steps: property writes, property expectations,
// behaviour operations, component changes and deletions. Every behaviour
// transition is journaled; the journal is read back as the scenario trace.
//
// Each run gets a fresh system, a fresh in-memory journal, a deterministic
// logical clock and sequential observer handles, and entity ids are derived
// from the scenario name and alias. Running the same scenario twice
// therefore yields byte-identical traces, which RunWithGolden compares
// against testdata/golden/<name>.golden.
//
// Scenario format:
//
//	name: sqrt_chain
//	description: value feeds sqrt through a connector
//	entities:
//	  - {alias: input, type: core::value}
//	  - {alias: root, type: math::sqrt}
//	relations:
//	  - alias: wire
//	    outbound: input
//	    type: connector::default_connector
//	    inbound: root
//	    properties: {outbound_property_name: value, inbound_property_name: lhs}
//	steps:
//	  - set: {target: input, property: value, value: 16}
//	  - expect: {target: root, property: result, value: 4}
//	  - behaviour: {target: root, type: math::sqrt, op: disconnect}
//	assertions:
//	  - {type: trace_count, behaviour: math::sqrt, target: connected, count: 1}
package harness
