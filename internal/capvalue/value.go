// Package capvalue models provider capability metadata as a recursive tagged
// value. Capability trees arrive as arbitrary nested YAML/JSON from provider
// configuration; modelling them explicitly keeps traversal logic out of the
// matcher and testable on its own.
package capvalue

import "encoding/json"

// Kind tags the shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
)

// Value is an immutable tagged union over the JSON value shapes. The zero
// value is null.
type Value struct {
	kind Kind
	obj  map[string]Value
	arr  []Value
	str  string
	num  float64
	b    bool
}

// FromAny converts a decoded JSON/YAML value into a Value. Unrecognized Go
// types collapse to null.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, child := range t {
			obj[k] = FromAny(child)
		}
		return Value{kind: KindObject, obj: obj}
	case map[any]any:
		// YAML decoders may produce interface-keyed maps.
		obj := make(map[string]Value, len(t))
		for k, child := range t {
			if ks, ok := k.(string); ok {
				obj[ks] = FromAny(child)
			}
		}
		return Value{kind: KindObject, obj: obj}
	case []any:
		arr := make([]Value, len(t))
		for i, child := range t {
			arr[i] = FromAny(child)
		}
		return Value{kind: KindArray, arr: arr}
	case string:
		return Value{kind: KindString, str: t}
	case bool:
		return Value{kind: KindBool, b: t}
	case float64:
		return Value{kind: KindNumber, num: t}
	case float32:
		return Value{kind: KindNumber, num: float64(t)}
	case int:
		return Value{kind: KindNumber, num: float64(t)}
	case int64:
		return Value{kind: KindNumber, num: float64(t)}
	case json.Number:
		f, _ := t.Float64()
		return Value{kind: KindNumber, num: f}
	default:
		return Value{}
	}
}

// FromJSON parses raw JSON into a Value. Invalid JSON yields null.
func FromJSON(data []byte) Value {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}
	}
	return FromAny(v)
}

// Object builds an object Value from already-converted children.
func Object(fields map[string]Value) Value {
	return Value{kind: KindObject, obj: fields}
}

// Kind returns the shape tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null/absent.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsObject reports whether the value is an object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// Len returns the number of object keys or array elements, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.obj)
	case KindArray:
		return len(v.arr)
	default:
		return 0
	}
}

// Get returns the child value for an object key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	child, ok := v.obj[key]
	return child, ok
}

// HasKey reports whether an object value declares the given key.
func (v Value) HasKey(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// HasPath walks nested object containment segment by segment. Every
// intermediate value must itself be an object declaring the next segment.
func (v Value) HasPath(segments []string) bool {
	cursor := v
	for _, seg := range segments {
		child, ok := cursor.Get(seg)
		if !ok {
			return false
		}
		cursor = child
	}
	return true
}

// Keys returns the object keys in unspecified order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	return keys
}

// ToAny converts back to plain decoded-JSON Go values, mainly for
// serialization in diagnostics and audit records.
func (v Value) ToAny() any {
	switch v.kind {
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, child := range v.obj {
			out[k] = child.ToAny()
		}
		return out
	case KindArray:
		out := make([]any, len(v.arr))
		for i, child := range v.arr {
			out[i] = child.ToAny()
		}
		return out
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}
