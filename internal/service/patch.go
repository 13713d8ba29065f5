package service

import "encoding/json"

// Optional distinguishes an absent JSON key from an explicit null in PATCH
// bodies. Set is true whenever the key was present.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a present Optional holding null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// nullable returns the column value for o: nil for null, the value otherwise.
func (o Optional[T]) nullable() any {
	if o.Null {
		return nil
	}
	return o.Value
}
