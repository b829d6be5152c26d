package store

// Optional holds a value that may be absent. The zero value is absent.
// Patch types use it so that "leave unchanged" is explicit rather than
// inferred from a zero value.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value is present
func (o Optional[T]) IsSet() bool {
	return o.set
}

// OrElse returns the value when present, fallback otherwise
func (o Optional[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Ref returns a pointer to v. Handy for building Where filters.
func Ref[T any](v T) *T {
	return &v
}
