// Package registry maps owning types to behaviour factories.
//
// A registry answers "which behaviours does an instance of type X get" for
// one kind of owner: entity types, entity components, relation types or
// relation components. It holds factories only; live behaviours are kept by
// the managers.
package registry
