// Package outcome provides the tagged success/failure value returned by
// service operations in place of (value, error) pairs.
//
// A Result is either a success carrying a payload or a failure carrying a
// domain error code and a client-facing message. Handlers branch on Success
// and map failures to responses by Code, never by Message.
package outcome

import (
	dErrors "contactmanager/pkg/domain-errors"
)

// Empty is the payload of operations that succeed without data.
type Empty struct{}

// Result is a Success{payload} or a Failure{code, message}.
type Result[T any] struct {
	data    T
	failed  bool
	code    dErrors.Code
	message string
}

// Ok returns a success carrying data.
func Ok[T any](data T) Result[T] {
	return Result[T]{data: data}
}

// Done returns a payload-less success.
func Done() Result[Empty] {
	return Result[Empty]{}
}

// Fail returns a failure with the given category and message.
func Fail[T any](code dErrors.Code, message string) Result[T] {
	return Result[T]{failed: true, code: code, message: message}
}

// FromError converts err into a failure, keeping the code and message of a
// coded domain error. Uncoded errors become internal failures.
func FromError[T any](err error) Result[T] {
	if de, ok := dErrors.As(err); ok {
		return Fail[T](de.Code, de.Message)
	}
	return Fail[T](dErrors.CodeInternal, err.Error())
}

func (r Result[T]) Success() bool { return !r.failed }

// Data returns the payload; the zero value on failure.
func (r Result[T]) Data() T { return r.data }

// Message is empty on success.
func (r Result[T]) Message() string { return r.message }

// Code is empty on success.
func (r Result[T]) Code() dErrors.Code { return r.code }

// Err returns the failure as a coded domain error, or nil on success.
func (r Result[T]) Err() error {
	if !r.failed {
		return nil
	}
	return dErrors.New(r.code, r.message)
}
