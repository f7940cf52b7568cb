package api

import (
	"encoding/json"
	"fmt"
)

// TextField holds the value carried in a part's text slot.
//
// When T is string the wire text is the string itself. For every other T the
// wire text is the JSON encoding of the value, which the outer document then
// embeds as a JSON string (the structured value appears double-escaped).
type TextField[T any] struct {
	value T
}

// NewTextField wraps v for use in a text slot.
func NewTextField[T any](v T) TextField[T] {
	return TextField[T]{value: v}
}

// Value returns the carried value.
func (f TextField[T]) Value() T {
	return f.value
}

// Ptr returns a pointer to the carried value for in-place modification.
func (f *TextField[T]) Ptr() *T {
	return &f.value
}

// MarshalJSON implements json.Marshaler.
func (f TextField[T]) MarshalJSON() ([]byte, error) {
	s, err := EncodeText(f.value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *TextField[T]) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewDeserializationError(fmt.Errorf("text slot is not a JSON string: %w", err))
	}
	v, err := DecodeText[T](s)
	if err != nil {
		return err
	}
	f.value = v
	return nil
}

// IsPlainText reports whether values of T travel verbatim in the text slot.
// Only the predeclared string type does; named string types are structured.
//
// The check asserts a typed nil *T against *string. Its result depends only
// on the instantiation, never on a value, so every T has exactly one text
// representation. EncodeText, DecodeText and GenerationConfigBuilder.Build
// dispatch on the same check.
func IsPlainText[T any]() bool {
	_, ok := any((*T)(nil)).(*string)
	return ok
}

// EncodeText returns the wire text for v: v itself when IsPlainText[T],
// otherwise the JSON encoding of v.
func EncodeText[T any](v T) (string, error) {
	if p, ok := any(&v).(*string); ok {
		return *p, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", NewSerializationError(err)
	}
	return string(data), nil
}

// DecodeText parses wire text into a T: s itself when IsPlainText[T],
// otherwise s decoded as JSON. A decode failure is an ErrDeserialization.
func DecodeText[T any](s string) (T, error) {
	var v T
	if p, ok := any(&v).(*string); ok {
		*p = s
		return v, nil
	}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		var zero T
		return zero, NewDeserializationError(err)
	}
	return v, nil
}
