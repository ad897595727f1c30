// Package patch provides explicit present/absent fields for partial updates.
//
// A Field distinguishes three states that a plain pointer cannot:
//
//	{}                  -> absent   (Set=false)
//	{"notes": null}     -> null     (Set=true, Null=true)
//	{"notes": "text"}   -> value    (Set=true, Value="text")
//
// Update operations touch only fields that are Set.
package patch

import (
	"bytes"
	"encoding/json"
)

// Field is an optional update of a value of type T.
type Field[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Of returns a field set to v.
func Of[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// Null returns a field explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UnmarshalJSON marks the field present. encoding/json only calls it for
// keys that appear in the document, so absent keys stay unset.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.Value = zero
		f.Null = true
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON encodes the value, or null when the field is null or unset.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// HasValue reports whether the field carries a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// Apply copies a present non-null value into dst.
func (f Field[T]) Apply(dst *T) {
	if f.HasValue() {
		*dst = f.Value
	}
}

// ApplyNullable copies a present value into a nullable dst.
// An explicit null clears dst.
func (f Field[T]) ApplyNullable(dst **T) {
	if !f.Set {
		return
	}
	if f.Null {
		*dst = nil
		return
	}
	v := f.Value
	*dst = &v
}
