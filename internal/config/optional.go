package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Optional is a configuration value that may be left unset.
// The zero Optional is unset, which is distinct from a set zero value.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an unset Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was provided.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Or returns o when set, otherwise fallback.
// All resource-over-service merging goes through Or.
func (o Optional[T]) Or(fallback Optional[T]) Optional[T] {
	if o.set {
		return o
	}
	return fallback
}

// UnmarshalYAML decodes a present, non-null node into a set Optional.
// Absent keys and explicit nulls leave the Optional unset.
func (o *Optional[T]) UnmarshalYAML(node *yaml.Node) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalYAML encodes unset values as null.
func (o Optional[T]) MarshalYAML() (any, error) {
	if !o.set {
		return nil, nil
	}
	return o.value, nil
}

func (o Optional[T]) String() string {
	if !o.set {
		return "<unset>"
	}
	return fmt.Sprint(o.value)
}
