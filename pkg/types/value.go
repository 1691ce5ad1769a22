// Package types defines the values produced by evaluating a time expression
// and the errors raised along the way.
package types

import (
	"encoding/json"
	"fmt"
	"math"
)

// ValueType represents the type of an evaluated value.
type ValueType int

const (
	TypeTime   ValueType = iota // total minutes
	TypeScalar                  // dimensionless number
	TypeBool                    // equality verdict
)

// String returns the type name used in JSON and error messages.
func (t ValueType) String() string {
	switch t {
	case TypeTime:
		return "time"
	case TypeScalar:
		return "scalar"
	case TypeBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// ParseValueType is the inverse of ValueType.String.
func ParseValueType(s string) (ValueType, error) {
	switch s {
	case "time":
		return TypeTime, nil
	case "scalar":
		return TypeScalar, nil
	case "boolean":
		return TypeBool, nil
	default:
		return 0, fmt.Errorf("unknown value type %q", s)
	}
}

// Value is the tagged result of an evaluation. Times carry their total
// minutes, which may be fractional or negative.
type Value struct {
	typ     ValueType
	num     float64
	boolVal bool
}

// NewTime creates a time value from a number of minutes.
func NewTime(minutes float64) Value {
	return Value{typ: TypeTime, num: minutes}
}

// NewClock creates a time value from hours and minutes.
func NewClock(hours, minutes int) Value {
	return NewTime(float64(hours*60 + minutes))
}

// NewScalar creates a scalar value.
func NewScalar(v float64) Value {
	return Value{typ: TypeScalar, num: v}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Value{typ: TypeBool, boolVal: b}
}

// Type returns the value's type tag.
func (v Value) Type() ValueType { return v.typ }

// Minutes returns the total minutes of a time value.
func (v Value) Minutes() float64 { return v.num }

// Number returns the numeric payload of a time or scalar value.
func (v Value) Number() float64 { return v.num }

// Bool returns the payload of a boolean value.
func (v Value) Bool() bool { return v.boolVal }

// IsNumeric reports whether the value carries a number (time or scalar).
func (v Value) IsNumeric() bool {
	return v.typ == TypeTime || v.typ == TypeScalar
}

// Equal reports whether two values have the same type and payload.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	if v.typ == TypeBool {
		return v.boolVal == other.boolVal
	}
	return v.num == other.num
}

// String returns a debug representation such as time(90) or boolean(true).
func (v Value) String() string {
	if v.typ == TypeBool {
		return fmt.Sprintf("%s(%t)", v.typ, v.boolVal)
	}
	return fmt.Sprintf("%s(%v)", v.typ, v.num)
}

type jsonValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"type": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload []byte
	var err error
	if v.typ == TypeBool {
		payload, err = json.Marshal(v.boolVal)
	} else {
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("cannot encode non-finite %s value", v.typ)
		}
		payload, err = json.Marshal(v.num)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonValue{Type: v.typ.String(), Value: payload})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw jsonValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, err := ParseValueType(raw.Type)
	if err != nil {
		return err
	}
	if typ == TypeBool {
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("boolean value: %w", err)
		}
		*v = NewBool(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw.Value, &n); err != nil {
		return fmt.Errorf("%s value: %w", typ, err)
	}
	*v = Value{typ: typ, num: n}
	return nil
}
