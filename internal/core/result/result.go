package result

import (
	"database/sql"
	"errors"
	"strings"
)

// Result carries either a value or an *AppError, mirroring the two-channel
// return spec.md §4.O describes. Zero value is an Ok of the zero T.
type Result[T any] struct {
	value T
	err   *AppError
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

func Err[T any](err *AppError) Result[T] {
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool  { return r.err == nil }
func (r Result[T]) IsErr() bool { return r.err != nil }

// Unwrap returns the value, panicking if the Result is Err. Reserved for
// call sites that have already checked IsOk.
func (r Result[T]) Unwrap() T {
	if r.err != nil {
		panic("result: Unwrap called on Err: " + r.err.Error())
	}
	return r.value
}

// UnwrapOr returns the value, or def if the Result is Err.
func (r Result[T]) UnwrapOr(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}

// UnwrapOrElse returns the value, or f(err) if the Result is Err.
func (r Result[T]) UnwrapOrElse(f func(*AppError) T) T {
	if r.err != nil {
		return f(r.err)
	}
	return r.value
}

// UnwrapOrRaise returns (value, nil) on Ok, or (zero, err) on Err, so callers
// can fold a Result back into Go's native (T, error) idiom at a boundary
// without losing the underlying cause chain.
func (r Result[T]) UnwrapOrRaise() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// Error returns the underlying *AppError, or nil if Ok.
func (r Result[T]) Error() *AppError {
	return r.err
}

// Map transforms the Ok value, passing Err through unchanged.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(f(r.value))
}

// MapErr transforms the Err value, passing Ok through unchanged.
func MapErr[T any](r Result[T], f func(*AppError) *AppError) Result[T] {
	if r.err == nil {
		return r
	}
	return Err[T](f(r.err))
}

// AndThen chains a Result-producing function, short-circuiting on Err.
func AndThen[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return f(r.value)
}

// AsResult normalizes a (T, error) pair into a Result, stripping database
// driver noise down to a short message the way spec.md §4.O requires
// ("database exceptions are stripped to their short message").
func AsResult[T any](value T, err error) Result[T] {
	if err == nil {
		return Ok(value)
	}
	return Err[T](normalize(err))
}

// normalize converts a native error into an AppError carrying a taxonomy
// Kind, without ever re-exposing the raw driver error string to callers
// beyond a short message.
func normalize(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound("not found")
	}
	msg := shortMessage(err)
	return Wrap(KindInternal, msg, err)
}

// shortMessage trims a verbose driver error down to its leaf message.
func shortMessage(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 && idx+2 < len(msg) {
		return msg[idx+2:]
	}
	return msg
}
