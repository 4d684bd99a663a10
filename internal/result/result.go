// Package result is the uniform outcome type returned by every store and service
// operation instead of a bare error. A Failure carries a kind tag and a transience flag;
// the flag is set by whoever creates the failure and is the only thing batch consumers
// look at when deciding whether to retry.
package result

import (
	"errors"
	"fmt"
)

// FailureKind tags a Failure. Each subsystem declares its own closed set.
type FailureKind string

const (
	InvalidArgumentsError FailureKind = "InvalidArgumentsError"
	UnrecognizedError     FailureKind = "UnrecognizedError"
)

// ErrUnrecognized is used when a failure is created without a usable error value.
var ErrUnrecognized = errors.New("Unrecognized error")

// Failure is the failed variant of a Result.
type Failure struct {
	Kind      FailureKind
	Err       error
	Transient bool
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Err.Error())
}

func (f *Failure) Unwrap() error { return f.Err }

// Result holds either a success value or a *Failure, never both.
type Result[T any] struct {
	value   T
	failure *Failure
}

// Success wraps v as a successful Result.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Ok is a valueless success.
func Ok() Result[struct{}] {
	return Result[struct{}]{}
}

// Fail builds a failed Result. A nil err is replaced by ErrUnrecognized so that every
// Failure has a readable message.
func Fail[T any](kind FailureKind, err error, transient bool) Result[T] {
	if err == nil {
		err = ErrUnrecognized
	}
	return Result[T]{failure: &Failure{Kind: kind, Err: err, Transient: transient}}
}

// Failf is Fail with a formatted message.
func Failf[T any](kind FailureKind, transient bool, format string, args ...any) Result[T] {
	return Fail[T](kind, fmt.Errorf(format, args...), transient)
}

// FailWith rewraps an existing Failure, keeping its kind and transience.
func FailWith[T any](f *Failure) Result[T] {
	if f == nil {
		return Fail[T](UnrecognizedError, nil, true)
	}
	return Result[T]{failure: f}
}

// Propagate converts a failed Result to a Result of another value type.
// It panics when r is a success; callers check IsFailure first.
func Propagate[U, T any](r Result[T]) Result[U] {
	if r.failure == nil {
		panic("result: Propagate called on a success")
	}
	return Result[U]{failure: r.failure}
}

func (r Result[T]) IsSuccess() bool { return r.failure == nil }

func (r Result[T]) IsFailure() bool { return r.failure != nil }

// IsFailureOfKind reports whether r failed with the given kind.
func (r Result[T]) IsFailureOfKind(kind FailureKind) bool {
	return r.failure != nil && r.failure.Kind == kind
}

// IsFailureTransient reports whether r failed and the failure is worth retrying.
func (r Result[T]) IsFailureTransient() bool {
	return r.failure != nil && r.failure.Transient
}

// Failure returns the failure, or nil for a success.
func (r Result[T]) Failure() *Failure { return r.failure }

// Value returns the success value, or the *Failure as an error.
func (r Result[T]) Value() (T, error) {
	if r.failure != nil {
		var zero T
		return zero, r.failure
	}
	return r.value, nil
}

// MustValue returns the success value and panics on a Failure.
func (r Result[T]) MustValue() T {
	if r.failure != nil {
		panic(r.failure)
	}
	return r.value
}
