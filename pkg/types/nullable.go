package types

import (
	"bytes"
	"encoding/json"
)

// Nullable tracks whether a field was explicitly present in JSON. Valid with a nil Value
// means the client sent null.
type Nullable[T any] struct {
	Valid bool
	Value *T
}

// Set builds a present, non-null value.
func Set[T any](value T) Nullable[T] {
	return Nullable[T]{Valid: true, Value: &value}
}

// Null builds a present, explicit null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if bytes.Equal(trimmed, []byte("null")) {
		n.Valid = true
		n.Value = nil
		return nil
	}

	var parsed T
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Valid = true
	n.Value = &parsed
	return nil
}

// Clone returns a copy of the Nullable.
func (n Nullable[T]) Clone() Nullable[T] {
	if n.Value == nil {
		return Nullable[T]{Valid: n.Valid}
	}
	copy := *n.Value
	return Nullable[T]{Valid: n.Valid, Value: &copy}
}
