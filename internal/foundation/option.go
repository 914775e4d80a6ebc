package foundation

import "fmt"

// Option represents a value that may or may not be present.
type Option[T any] struct {
	value   T
	present bool
}

// Some creates an Option holding value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, present: true}
}

// None creates an empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome reports whether a value is present.
func (o Option[T]) IsSome() bool {
	return o.present
}

// IsNone reports whether the Option is empty.
func (o Option[T]) IsNone() bool {
	return !o.present
}

// Get returns the value and whether it was present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.present
}

// Unwrap returns the value and panics on None.
func (o Option[T]) Unwrap() T {
	if !o.present {
		panic("called Unwrap on None option")
	}
	return o.value
}

// UnwrapOr returns the value if present, otherwise fallback.
func (o Option[T]) UnwrapOr(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

// MapOption transforms the value of a present Option.
func MapOption[T, U any](o Option[T], fn func(T) U) Option[U] {
	if o.present {
		return Some(fn(o.value))
	}
	return None[U]()
}

// String renders the Option for debug output.
func (o Option[T]) String() string {
	if o.present {
		return fmt.Sprintf("Some(%v)", o.value)
	}
	return "None"
}
