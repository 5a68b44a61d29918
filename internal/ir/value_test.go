package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Numerics(t *testing.T) {
	assert.Equal(t, 3.0, Normalize(3))
	assert.Equal(t, 3.0, Normalize(int64(3)))
	assert.Equal(t, 3.0, Normalize(uint8(3)))
	assert.Equal(t, float64(float32(1.5)), Normalize(float32(1.5)))
	assert.Equal(t, "x", Normalize("x"))
	assert.Nil(t, Normalize(nil))
}

func TestNormalize_Nested(t *testing.T) {
	in := map[string]any{
		"list": []any{1, "a", true},
		"obj":  map[any]any{"k": 2},
	}

	out := Normalize(in)

	assert.Equal(t, map[string]any{
		"list": []any{1.0, "a", true},
		"obj":  map[string]any{"k": 2.0},
	}, out)
}

func TestDataTypeOf(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want DataType
	}{
		{"null", nil, DataTypeNull},
		{"bool", true, DataTypeBool},
		{"int", 7, DataTypeNumber},
		{"float", 0.5, DataTypeNumber},
		{"string", "s", DataTypeString},
		{"array", []any{1}, DataTypeArray},
		{"object", map[string]any{}, DataTypeObject},
		{"other", struct{}{}, DataTypeAny},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DataTypeOf(tt.v))
		})
	}
}

func TestDataType_Accepts(t *testing.T) {
	assert.True(t, DataTypeNumber.Accepts(1))
	assert.False(t, DataTypeNumber.Accepts("1"))
	assert.True(t, DataTypeAny.Accepts("1"))
	assert.True(t, DataTypeAny.Accepts(nil))
	assert.False(t, DataTypeBool.Accepts(nil))
}

func TestDataType_DefaultIsAccepted(t *testing.T) {
	for _, d := range []DataType{DataTypeNull, DataTypeBool, DataTypeNumber, DataTypeString, DataTypeArray, DataTypeObject} {
		assert.True(t, d.Accepts(d.Default()), "default of %s", d)
	}
}

func TestParseDataType(t *testing.T) {
	d, err := ParseDataType("number")
	require.NoError(t, err)
	assert.Equal(t, DataTypeNumber, d)

	_, err = ParseDataType("float")
	assert.Error(t, err)
}

func TestApproxEqual(t *testing.T) {
	assert.True(t, ApproxEqual(1.0, 1.0000000001, 1e-9))
	assert.False(t, ApproxEqual(1.0, 1.1, 1e-9))
	assert.True(t, ApproxEqual("a", "a", 0))
	assert.True(t, ApproxEqual(2, 2.0, 0))
}
