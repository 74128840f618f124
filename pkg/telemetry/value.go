package telemetry

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the scalar kinds a telemetry value can carry.
type ValueKind string

const (
	KindFloat  ValueKind = "float"
	KindString ValueKind = "string"
	KindBool   ValueKind = "bool"
)

// Value is a tagged union of the scalar kinds. The JSON form is the bare
// scalar, so samples on the wire look like {"value": 42.5} rather than a
// nested object.
type Value struct {
	Kind  ValueKind
	Float float64
	Str   string
	Bool  bool
}

// Float64 creates a numeric value.
func Float64(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// String creates a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Boolean creates a boolean value.
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Equal reports structural equality.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindFloat:
		return v.Float == other.Float
	case KindString:
		return v.Str == other.Str
	case KindBool:
		return v.Bool == other.Bool
	}
	return false
}

// MarshalJSON encodes the value as its bare scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindFloat:
		return json.Marshal(v.Float)
	case KindString:
		return json.Marshal(v.Str)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return nil, fmt.Errorf("value has unknown kind %q", v.Kind)
	}
}

// UnmarshalJSON accepts any JSON scalar and tags it with the matching kind.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case float64:
		*v = Float64(val)
	case string:
		*v = String(val)
	case bool:
		*v = Boolean(val)
	default:
		return fmt.Errorf("unsupported value type %T (want number, string or bool)", raw)
	}
	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}
