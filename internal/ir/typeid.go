package ir

import (
	"cmp"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NamespaceSeparator separates the namespace from the type name.
const NamespaceSeparator = "::"

// ErrInvalidTypeID is returned when a type identifier cannot be built or parsed.
var ErrInvalidTypeID = errors.New("invalid type id")

// TypeID is a namespaced type identifier, written "namespace::name".
//
// Both parts are NFC-normalised so visually identical identifiers compare
// equal regardless of how they were typed.
type TypeID struct {
	Namespace string
	Name      string
}

// NewTypeID builds a TypeID from its parts.
// Returns ErrInvalidTypeID if either part is empty or the name contains the
// namespace separator.
func NewTypeID(namespace, name string) (TypeID, error) {
	ns := norm.NFC.String(strings.TrimSpace(namespace))
	n := norm.NFC.String(strings.TrimSpace(name))
	if ns == "" || n == "" {
		return TypeID{}, fmt.Errorf("%w: namespace and name are required (got %q, %q)", ErrInvalidTypeID, namespace, name)
	}
	if strings.Contains(n, NamespaceSeparator) {
		return TypeID{}, fmt.Errorf("%w: name %q contains %q", ErrInvalidTypeID, name, NamespaceSeparator)
	}
	return TypeID{Namespace: ns, Name: n}, nil
}

// MustTypeID is like NewTypeID but panics on invalid input.
// Intended for package-level declarations of well-known types.
func MustTypeID(namespace, name string) TypeID {
	t, err := NewTypeID(namespace, name)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTypeID parses "namespace::name". The namespace may itself contain
// separators: "a::b::c" has namespace "a::b" and name "c".
func ParseTypeID(s string) (TypeID, error) {
	i := strings.LastIndex(s, NamespaceSeparator)
	if i < 0 {
		return TypeID{}, fmt.Errorf("%w: %q has no namespace", ErrInvalidTypeID, s)
	}
	return NewTypeID(s[:i], s[i+len(NamespaceSeparator):])
}

// String returns the "namespace::name" form.
func (t TypeID) String() string {
	return t.Namespace + NamespaceSeparator + t.Name
}

// IsZero reports whether t is the zero TypeID.
func (t TypeID) IsZero() bool {
	return t.Namespace == "" && t.Name == ""
}

// Compare orders type ids by namespace, then name.
func (t TypeID) Compare(other TypeID) int {
	if c := cmp.Compare(t.Namespace, other.Namespace); c != 0 {
		return c
	}
	return cmp.Compare(t.Name, other.Name)
}

// MarshalText implements encoding.TextMarshaler.
func (t TypeID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TypeID) UnmarshalText(text []byte) error {
	parsed, err := ParseTypeID(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// BehaviourTypeID identifies a behaviour type, e.g. "math::sin".
type BehaviourTypeID struct{ TypeID }

// EntityTypeID identifies an entity type.
type EntityTypeID struct{ TypeID }

// ComponentTypeID identifies a component type.
type ComponentTypeID struct{ TypeID }

// RelationTypeID identifies a relation type.
type RelationTypeID struct{ TypeID }

// NewBehaviourTypeID panics on invalid input; use ParseBehaviourTypeID for
// untrusted strings.
func NewBehaviourTypeID(namespace, name string) BehaviourTypeID {
	return BehaviourTypeID{MustTypeID(namespace, name)}
}

// NewEntityTypeID panics on invalid input.
func NewEntityTypeID(namespace, name string) EntityTypeID {
	return EntityTypeID{MustTypeID(namespace, name)}
}

// NewComponentTypeID panics on invalid input.
func NewComponentTypeID(namespace, name string) ComponentTypeID {
	return ComponentTypeID{MustTypeID(namespace, name)}
}

// NewRelationTypeID panics on invalid input.
func NewRelationTypeID(namespace, name string) RelationTypeID {
	return RelationTypeID{MustTypeID(namespace, name)}
}

func ParseBehaviourTypeID(s string) (BehaviourTypeID, error) {
	t, err := ParseTypeID(s)
	return BehaviourTypeID{t}, err
}

func ParseEntityTypeID(s string) (EntityTypeID, error) {
	t, err := ParseTypeID(s)
	return EntityTypeID{t}, err
}

func ParseComponentTypeID(s string) (ComponentTypeID, error) {
	t, err := ParseTypeID(s)
	return ComponentTypeID{t}, err
}

func ParseRelationTypeID(s string) (RelationTypeID, error) {
	t, err := ParseTypeID(s)
	return RelationTypeID{t}, err
}

// CompareBehaviourTypeIDs orders behaviour types for deterministic listings.
func CompareBehaviourTypeIDs(a, b BehaviourTypeID) int {
	return a.Compare(b.TypeID)
}

// CompareComponentTypeIDs orders component types for deterministic listings.
func CompareComponentTypeIDs(a, b ComponentTypeID) int {
	return a.Compare(b.TypeID)
}
