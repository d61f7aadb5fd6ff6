// Package optional provides a JSON field type that tells apart a missing key,
// an explicit null and a concrete value. It backs the partial update bodies of
// the API, where those three cases mean "keep", "clear" and "overwrite".
package optional

import (
	"bytes"
	"encoding/json"
)

// Value is a tri-state field. The zero value is an absent field.
type Value[T any] struct {
	set  bool
	null bool
	v    T
}

// Of returns a Value holding v.
func Of[T any](v T) Value[T] {
	return Value[T]{set: true, v: v}
}

// Null returns a Value that was explicitly set to null.
func Null[T any]() Value[T] {
	return Value[T]{set: true, null: true}
}

// FromPtr returns Null for a nil pointer and Of(*p) otherwise.
func FromPtr[T any](p *T) Value[T] {
	if p == nil {
		return Null[T]()
	}
	return Of(*p)
}

// IsSet reports whether the field was present, including as null.
func (o Value[T]) IsSet() bool { return o.set }

// IsNull reports whether the field was present and null.
func (o Value[T]) IsNull() bool { return o.set && o.null }

// Get returns the value and true if the field holds a non-null value.
func (o Value[T]) Get() (T, bool) {
	if !o.set || o.null {
		var zero T
		return zero, false
	}
	return o.v, true
}

// Ptr returns a pointer to the value, or nil when absent or null.
func (o Value[T]) Ptr() *T {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return &v
}

// UnmarshalJSON marks the field as present. encoding/json only calls it
// for keys that exist in the input, null included.
func (o *Value[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.null = true
		var zero T
		o.v = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(data, &o.v)
}

// MarshalJSON encodes absent and null fields as null.
func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.set || o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}
