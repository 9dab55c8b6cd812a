// Package value provides a tagged dynamic-value variant for traversing
// arbitrary JSON-RPC payloads structurally, without runtime reflection.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind tags the shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tagged variant over the six JSON shapes. Exactly one of the
// typed fields is meaningful for a given Kind.
type Value struct {
	Kind Kind
	Bool bool
	// Num is kept as json.Number so callers that need the literal source
	// representation (integer vs. float) can recover it; callers that just
	// need the numeric value should use Float64().
	Num  json.Number
	Str  string
	Arr  []Value
	// Obj lists its keys in Keys (sorted by FromInterface); Fields gives
	// O(1) lookup.
	Keys   []string
	Fields map[string]Value
}

// Null is the shared null value.
var Null = Value{Kind: KindNull}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// String wraps a string.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number wraps a json.Number.
func Number(n json.Number) Value { return Value{Kind: KindNumber, Num: n} }

// Float64 returns the numeric value, or 0 if Kind != KindNumber or the
// literal doesn't parse.
func (v Value) Float64() float64 {
	if v.Kind != KindNumber {
		return 0
	}
	f, _ := v.Num.Float64()
	return f
}

// Parse decodes raw JSON into a Value tree, preserving number literals via
// json.Number so integer/float distinctions survive round-tripping.
func Parse(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return Value{}, fmt.Errorf("value: parse: %w", err)
	}
	return FromInterface(v), nil
}

// FromInterface converts a decoded interface{} tree (as produced by
// encoding/json with UseNumber) into a Value tree.
func FromInterface(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case bool:
		return Bool(t)
	case json.Number:
		return Number(t)
	case float64:
		return Number(json.Number(fmt.Sprintf("%v", t)))
	case string:
		return String(t)
	case []interface{}:
		arr := make([]Value, 0, len(t))
		for _, item := range t {
			arr = append(arr, FromInterface(item))
		}
		return Value{Kind: KindArray, Arr: arr}
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		fields := make(map[string]Value, len(t))
		for k, fv := range t {
			keys = append(keys, k)
			fields[k] = FromInterface(fv)
		}
		sort.Strings(keys)
		return Value{Kind: KindObject, Keys: keys, Fields: fields}
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// IsEmpty reports whether the value carries no content: null, empty
// string, empty array, or empty object.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == ""
	case KindArray:
		return len(v.Arr) == 0
	case KindObject:
		return len(v.Keys) == 0
	default:
		return false
	}
}

// TextLen returns a rough size measure used for the fingerprint's
// tiny/small/medium/large bucketing: the length of the canonical JSON
// encoding.
func (v Value) TextLen() int {
	data, err := json.Marshal(v.ToInterface())
	if err != nil {
		return 0
	}
	return len(data)
}

// ToInterface converts back to a plain interface{} tree suitable for
// encoding/json marshaling.
func (v Value) ToInterface() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num
	case KindString:
		return v.Str
	case KindArray:
		out := make([]interface{}, len(v.Arr))
		for i, item := range v.Arr {
			out[i] = item.ToInterface()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.Keys))
		for _, k := range v.Keys {
			out[k] = v.Fields[k].ToInterface()
		}
		return out
	default:
		return nil
	}
}

// Get returns the field named key from an object value, and whether it
// was present.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	f, ok := v.Fields[key]
	return f, ok
}
