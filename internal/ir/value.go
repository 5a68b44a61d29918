package ir

import (
	"fmt"
	"math"
	"reflect"
)

// Value is a JSON-like property value: nil, bool, float64, string, []any or
// map[string]any. Use Normalize to coerce values from other sources (YAML,
// Go literals) into this shape.
type Value = any

// DataType classifies property values.
type DataType string

const (
	DataTypeNull   DataType = "null"
	DataTypeBool   DataType = "bool"
	DataTypeNumber DataType = "number"
	DataTypeString DataType = "string"
	DataTypeArray  DataType = "array"
	DataTypeObject DataType = "object"
	// DataTypeAny accepts every value.
	DataTypeAny DataType = "any"
)

// ParseDataType returns the DataType named s.
func ParseDataType(s string) (DataType, error) {
	switch d := DataType(s); d {
	case DataTypeNull, DataTypeBool, DataTypeNumber, DataTypeString,
		DataTypeArray, DataTypeObject, DataTypeAny:
		return d, nil
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

// DataTypeOf returns the data type of a normalised value.
// Values outside the JSON-like set classify as DataTypeAny.
func DataTypeOf(v Value) DataType {
	switch Normalize(v).(type) {
	case nil:
		return DataTypeNull
	case bool:
		return DataTypeBool
	case float64:
		return DataTypeNumber
	case string:
		return DataTypeString
	case []any:
		return DataTypeArray
	case map[string]any:
		return DataTypeObject
	}
	return DataTypeAny
}

// Accepts reports whether v is a valid value for d.
func (d DataType) Accepts(v Value) bool {
	return d == DataTypeAny || DataTypeOf(v) == d
}

// Default returns the initial value for a property of type d.
func (d DataType) Default() Value {
	switch d {
	case DataTypeBool:
		return false
	case DataTypeNumber:
		return 0.0
	case DataTypeString:
		return ""
	case DataTypeArray:
		return []any{}
	case DataTypeObject:
		return map[string]any{}
	}
	return nil
}

// Normalize converts Go numerics to float64 and recursively normalises
// slices and maps. Already-normalised values are returned unchanged.
func Normalize(v Value) Value {
	switch x := v.(type) {
	case nil, bool, float64, string:
		return x
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = Normalize(e)
		}
		return out
	}
	return v
}

// AsFloat64 returns v as a number.
func AsFloat64(v Value) (float64, bool) {
	f, ok := Normalize(v).(float64)
	return f, ok
}

// AsBool returns v as a bool.
func AsBool(v Value) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// AsString returns v as a string.
func AsString(v Value) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Equal reports whether two values are equal after normalisation.
func Equal(a, b Value) bool {
	return reflect.DeepEqual(Normalize(a), Normalize(b))
}

// ApproxEqual compares numbers within tolerance and everything else with Equal.
func ApproxEqual(a, b Value, tolerance float64) bool {
	fa, okA := AsFloat64(a)
	fb, okB := AsFloat64(b)
	if okA && okB {
		return math.Abs(fa-fb) <= tolerance
	}
	return Equal(a, b)
}
