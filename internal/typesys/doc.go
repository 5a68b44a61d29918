// Package typesys is a small in-memory type system for components, entity
// types and relation types, loadable from CUE.
//
// The behaviour runtime only reads from it: registries ask whether an owner
// type exists, and instance construction asks which properties and
// components a type carries. Definitions look like:
//
//	component: "math::unary": properties: {lhs: "number", result: "number"}
//
//	entity: "math::sin": components: ["math::unary"]
//
//	relation: "connector::default_connector": {
//		components: ["connector::connector"]
//		properties: {weight: "number"}
//	}
//
// Property types are ir data type names: null, bool, number, string, array,
// object or any.
package typesys
