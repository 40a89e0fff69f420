// Package tree folds nested traversal output into domain.TreeNode values.
// It works on its own Value type and never sees driver records.
package tree

import (
	"fmt"
	"sort"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ScalarValue ValueKind = iota
	ListValue
	MapValue
)

// Value is a scalar, an ordered list, or a string-keyed map.
type Value struct {
	kind   ValueKind
	scalar any
	list   []Value
	fields map[string]Value
}

// Scalar wraps a leaf value.
func Scalar(v any) Value { return Value{kind: ScalarValue, scalar: v} }

// List wraps an ordered sequence.
func List(items ...Value) Value { return Value{kind: ListValue, list: items} }

// Map wraps a keyed record.
func Map(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: MapValue, fields: fields}
}

// FromAny converts decoded traversal output. Slices and maps are walked
// recursively; anything else becomes a scalar.
func FromAny(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return List(items...)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = Scalar(item)
		}
		return List(items...)
	case []map[string]any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return List(items...)
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = FromAny(item)
		}
		return Map(fields)
	default:
		return Scalar(v)
	}
}

// Kind reports the variant.
func (v Value) Kind() ValueKind { return v.kind }

// Items returns the elements of a list, or nil.
func (v Value) Items() []Value { return v.list }

// Field looks up a key of a map.
func (v Value) Field(key string) (Value, bool) {
	f, ok := v.fields[key]
	return f, ok
}

// Keys returns the map keys in sorted order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsNodeList reports whether v is a non-empty list of maps only.
func (v Value) IsNodeList() bool {
	if v.kind != ListValue || len(v.list) == 0 {
		return false
	}
	for _, item := range v.list {
		if item.kind != MapValue {
			return false
		}
	}
	return true
}

// Any converts back to plain Go values.
func (v Value) Any() any {
	switch v.kind {
	case ListValue:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Any()
		}
		return out
	case MapValue:
		out := make(map[string]any, len(v.fields))
		for k, item := range v.fields {
			out[k] = item.Any()
		}
		return out
	default:
		return v.scalar
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%v", v.Any())
}
