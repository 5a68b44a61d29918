package ir

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeID(t *testing.T) {
	id, err := ParseTypeID("math::sin")
	require.NoError(t, err)
	assert.Equal(t, TypeID{Namespace: "math", Name: "sin"}, id)
	assert.Equal(t, "math::sin", id.String())
}

func TestParseTypeID_NestedNamespace(t *testing.T) {
	id, err := ParseTypeID("a::b::c")
	require.NoError(t, err)
	assert.Equal(t, "a::b", id.Namespace)
	assert.Equal(t, "c", id.Name)
}

func TestParseTypeID_Invalid(t *testing.T) {
	for _, s := range []string{"", "sin", "::sin", "math::", "  ::  "} {
		_, err := ParseTypeID(s)
		assert.ErrorIs(t, err, ErrInvalidTypeID, "input %q", s)
	}
}

func TestNewTypeID_NFC(t *testing.T) {
	// "é" as e + combining acute vs. the precomposed rune.
	decomposed := MustTypeID("cafe\u0301", "x")
	composed := MustTypeID("caf\u00e9", "x")
	assert.Equal(t, composed, decomposed)
}

func TestTypeIDKinds_Distinct(t *testing.T) {
	b := NewBehaviourTypeID("math", "sin")
	e := NewEntityTypeID("math", "sin")

	// Same parts, different kinds: only the embedded TypeID compares equal.
	assert.Equal(t, b.TypeID, e.TypeID)
	assert.Equal(t, "math::sin", b.String())
}

func TestTypeID_TextRoundTrip(t *testing.T) {
	var id TypeID
	require.NoError(t, id.UnmarshalText([]byte("core::counter")))
	text, err := id.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "core::counter", string(text))
}

func TestCompareBehaviourTypeIDs(t *testing.T) {
	a := NewBehaviourTypeID("a", "z")
	b := NewBehaviourTypeID("b", "a")
	assert.Negative(t, CompareBehaviourTypeIDs(a, b))
	assert.Positive(t, CompareBehaviourTypeIDs(b, a))
	assert.Zero(t, CompareBehaviourTypeIDs(a, a))
}

func TestBindingKey_String(t *testing.T) {
	key := NewEntityBehaviourTypeID(NewEntityTypeID("math", "sin"), NewBehaviourTypeID("math", "sin"))
	assert.Equal(t, "math::sin/math::sin", key.String())
}

func TestRelationInstanceID_String(t *testing.T) {
	out := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	in := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	id := RelationInstanceID{Outbound: out, Type: NewRelationTypeID("connector", "default_connector"), Inbound: in}

	assert.Equal(t, "00000000-0000-0000-0000-000000000001--connector::default_connector--00000000-0000-0000-0000-000000000002", id.String())

	id.InstanceID = "2"
	assert.Contains(t, id.String(), "connector::default_connector__2--")
}
