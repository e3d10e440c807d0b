package lazytask

import (
	"errors"
	"fmt"
)

// ErrPanic tags failures produced by a panicking callback.
var ErrPanic = errors.New("task panicked")

// A Result is the immutable outcome of a computation: a success carrying a
// value or a failure carrying an error. The zero value is a success holding
// T's zero value.
type Result[T any] struct {
	value T
	err   error
}

// Success returns a Result holding the given value.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Failure returns a Result holding the given error. A nil error panics.
func Failure[T any](err error) Result[T] {
	if err == nil {
		panic("error cannot be nil")
	}
	return Result[T]{err: err}
}

// Attempt invokes fn and captures its outcome as a Result. A panic raised by
// fn becomes a failure wrapping ErrPanic; this is the only boundary where
// panics are converted to data.
func Attempt[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Failure[T](fmt.Errorf("%w: %v", ErrPanic, p))
		}
	}()

	value, err := fn()
	if err != nil {
		return Failure[T](err)
	}
	return Success(value)
}

// IsSuccess reports whether the Result holds a value.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

// IsFailure reports whether the Result holds an error.
func (r Result[T]) IsFailure() bool {
	return r.err != nil
}

// Get returns the value and the failure's error, exactly one of which is
// meaningful.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// GetOr returns the value, or def if the Result is a failure.
func (r Result[T]) GetOr(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}

// Err returns the failure's error, or nil for a success.
func (r Result[T]) Err() error {
	return r.err
}

// Recover turns a failure into a success by applying fn to the error.
// fn runs inside the panic-capturing boundary. Successes pass through.
func (r Result[T]) Recover(fn func(error) T) Result[T] {
	if r.err == nil {
		return r
	}
	err := r.err
	return Attempt(func() (T, error) {
		return fn(err), nil
	})
}

// RecoverErr is Recover for functions that can themselves fail.
func (r Result[T]) RecoverErr(fn func(error) (T, error)) Result[T] {
	if r.err == nil {
		return r
	}
	err := r.err
	return Attempt(func() (T, error) {
		return fn(err)
	})
}

func (r Result[T]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Failure(%v)", r.err)
	}
	return fmt.Sprintf("Success(%v)", r.value)
}

// Fold dispatches on the Result's variant without exposing its internals.
func Fold[T, U any](r Result[T], onSuccess func(T) U, onFailure func(error) U) U {
	if r.err != nil {
		return onFailure(r.err)
	}
	return onSuccess(r.value)
}

// MapResult applies fn to a success value inside the panic-capturing
// boundary. Failures pass through untouched.
func MapResult[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Failure[U](r.err)
	}
	value := r.value
	return Attempt(func() (U, error) {
		return fn(value), nil
	})
}

// BindResult chains a Result-producing function. Failures short-circuit.
func BindResult[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Failure[U](r.err)
	}
	value := r.value
	return Flatten(Attempt(func() (Result[U], error) {
		return fn(value), nil
	}))
}

// Flatten collapses one level of Result nesting.
func Flatten[T any](r Result[Result[T]]) Result[T] {
	if r.err != nil {
		return Failure[T](r.err)
	}
	return r.value
}
