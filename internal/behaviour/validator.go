package behaviour

import (
	"maps"
	"slices"

	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// Validator decides whether an instance is fit for a behaviour.
// It runs before any observer is registered.
type Validator interface {
	Validate() error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func() error

// Validate calls f.
func (f ValidatorFunc) Validate() error {
	return f()
}

// NoopValidator accepts every instance.
type NoopValidator struct{}

// Validate always succeeds.
func (NoopValidator) Validate() error {
	return nil
}

// ValidateProperty returns PropertyMissing if c has no property name.
func ValidateProperty(c reactive.PropertyContainer, name string) error {
	if !c.HasProperty(name) {
		return PropertyMissing(name)
	}
	return nil
}

// ValidatePropertyType checks that c has property name and that its current
// value is of data type expected.
func ValidatePropertyType(c reactive.PropertyContainer, name string, expected ir.DataType) error {
	v, ok := c.Get(name)
	if !ok {
		return PropertyMissing(name)
	}
	if !expected.Accepts(v) {
		return InvalidDataType(name, ir.DataTypeOf(v), expected)
	}
	return nil
}

// PropertyValidator requires a fixed set of properties on one instance.
//
// Properties lists names that must exist. Types additionally constrains the
// data type of the current value; names in Types need not repeat in
// Properties.
type PropertyValidator struct {
	Instance   reactive.PropertyContainer
	Properties []string
	Types      map[string]ir.DataType
}

// Validate checks Properties in order, then Types in name order.
func (v PropertyValidator) Validate() error {
	return validateContainer(v.Instance, v.Properties, v.Types)
}

// RelationValidator checks a relation and both of its endpoints.
type RelationValidator struct {
	Relation           *reactive.Relation
	Properties         []string
	Types              map[string]ir.DataType
	OutboundProperties []string
	InboundProperties  []string
}

// Validate checks the relation's own properties, then the outbound entity's,
// then the inbound entity's.
func (v RelationValidator) Validate() error {
	if err := validateContainer(v.Relation, v.Properties, v.Types); err != nil {
		return err
	}
	for _, name := range v.OutboundProperties {
		if !v.Relation.Outbound().HasProperty(name) {
			return OutboundPropertyMissing(name)
		}
	}
	for _, name := range v.InboundProperties {
		if !v.Relation.Inbound().HasProperty(name) {
			return InboundPropertyMissing(name)
		}
	}
	return nil
}

func validateContainer(c reactive.PropertyContainer, names []string, types map[string]ir.DataType) error {
	for _, name := range names {
		if err := ValidateProperty(c, name); err != nil {
			return err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(types)) {
		if err := ValidatePropertyType(c, name, types[name]); err != nil {
			return err
		}
	}
	return nil
}
