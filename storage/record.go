// Package storage holds vector records and their metadata, and persists
// full registry snapshots to SQLite.
package storage

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the dynamic type of a metadata Value.
type Kind uint8

// Metadata value kinds. KindInvalid is the zero Value's kind; the decoders
// never produce it.
const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "invalid"
	}
}

// Value is a single metadata scalar: string, number, or boolean. Exactly one
// payload field is meaningful, selected by Kind. Build Values with the
// constructors (or JSON decoding) so inactive fields stay zeroed and Values
// compare correctly with ==.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

// StringValue returns a Value holding s.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue returns a Value holding f.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// BoolValue returns a Value holding b.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// MarshalJSON encodes the active variant as its plain JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return nil, fmt.Errorf("storage: cannot marshal invalid metadata value")
	}
}

// UnmarshalJSON decodes a JSON scalar into the matching variant. Nested
// objects, arrays, and null are rejected; metadata values are scalars only.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case string:
		*v = StringValue(x)
	case float64:
		*v = NumberValue(x)
	case bool:
		*v = BoolValue(x)
	default:
		return fmt.Errorf("storage: metadata values must be string, number, or boolean (got %s)", jsonTypeName(raw))
	}
	return nil
}

func jsonTypeName(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", raw)
	}
}

// Metadata maps field names to scalar values. It is replaced wholesale on
// upsert of the same id, never merged.
type Metadata map[string]Value

// Clone returns a copy of m. Returns nil for nil input.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Record is a single stored vector with its id and metadata. IDs are unique
// within a namespace; the same id may exist independently in two namespaces.
type Record struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata Metadata  `json:"metadata,omitempty"`
}
