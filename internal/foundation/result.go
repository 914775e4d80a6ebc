// Package foundation provides the generic value types the catalog engine threads through its
// pipeline: Result for per-file outcomes, Option for optional fields and Normalizer for strict
// enum parsing.
package foundation

import "fmt"

// Result is either a value of type T or an error of type E.
//
// Every per-file stage of the engine produces a Result. Stages that receive an
// error Result return it unchanged without running their own logic, so a single
// failure travels to the final report without disturbing sibling files.
type Result[T any, E error] struct {
	value T
	err   E
	isOk  bool
}

// Ok creates a successful Result.
func Ok[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, isOk: true}
}

// Err creates a failed Result.
func Err[T any, E error](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

// IsOk reports whether the Result holds a value.
func (r Result[T, E]) IsOk() bool {
	return r.isOk
}

// IsErr reports whether the Result holds an error.
func (r Result[T, E]) IsErr() bool {
	return !r.isOk
}

// Unwrap returns the value and panics on an error Result.
func (r Result[T, E]) Unwrap() T {
	if !r.isOk {
		panic(fmt.Sprintf("called Unwrap on Err result: %v", r.err))
	}
	return r.value
}

// UnwrapOr returns the value, or fallback for an error Result.
func (r Result[T, E]) UnwrapOr(fallback T) T {
	if r.isOk {
		return r.value
	}
	return fallback
}

// UnwrapErr returns the error and panics on a successful Result.
func (r Result[T, E]) UnwrapErr() E {
	if r.isOk {
		panic("called UnwrapErr on Ok result")
	}
	return r.err
}

// ToTuple converts the Result to the usual (value, error) pair.
func (r Result[T, E]) ToTuple() (T, E) {
	if r.isOk {
		var zeroErr E
		return r.value, zeroErr
	}
	var zeroVal T
	return zeroVal, r.err
}

// Map transforms the value of a successful Result. Error Results pass through.
func Map[T, U any, E error](r Result[T, E], fn func(T) U) Result[U, E] {
	if r.isOk {
		return Ok[U, E](fn(r.value))
	}
	return Err[U, E](r.err)
}

// Try runs fn and converts its error, or a panic raised while it runs, into the
// error side of a Result using wrap.
func Try[T any, E error](fn func() (T, error), wrap func(error) E) (res Result[T, E]) {
	defer func() {
		if p := recover(); p != nil {
			var cause error
			if e, ok := p.(error); ok {
				cause = fmt.Errorf("panic: %w", e)
			} else {
				cause = fmt.Errorf("panic: %v", p)
			}
			res = Err[T, E](wrap(cause))
		}
	}()
	value, err := fn()
	if err != nil {
		return Err[T, E](wrap(err))
	}
	return Ok[T, E](value)
}

// AndThen feeds the value of r into fn. An error Result is returned unchanged
// and fn is not called. Failures of fn are captured like Try does.
func AndThen[T, U any, E error](r Result[T, E], fn func(T) (U, error), wrap func(error) E) Result[U, E] {
	if !r.isOk {
		return Err[U, E](r.err)
	}
	return Try(func() (U, error) { return fn(r.value) }, wrap)
}

// Compose chains two fallible steps into one. The composite keeps the
// short-circuit rule: the second step never runs after the first failed.
func Compose[A, B, C any, E error](first func(A) Result[B, E], second func(B) Result[C, E]) func(A) Result[C, E] {
	return func(a A) Result[C, E] {
		rb := first(a)
		if !rb.isOk {
			return Err[C, E](rb.err)
		}
		return second(rb.value)
	}
}

// Partition splits results into values and errors, keeping input order in both.
func Partition[T any, E error](results []Result[T, E]) ([]T, []E) {
	var values []T
	var errs []E
	for _, r := range results {
		if r.isOk {
			values = append(values, r.value)
		} else {
			errs = append(errs, r.err)
		}
	}
	return values, errs
}
