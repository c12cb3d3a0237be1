// Package result is a small tagged outcome for lookups that can succeed,
// find nothing, or fail.
package result

import "fmt"

// Kind says which outcome a Result holds.
type Kind int

const (
	KindOk Kind = iota
	KindNotFound
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindOk:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindFailure:
		return "failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result carries a value on Ok, a message on NotFound and an error on Failure.
type Result[T any] struct {
	kind    Kind
	value   T
	message string
	err     error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{kind: KindOk, value: v}
}

func NotFound[T any](message string) Result[T] {
	return Result[T]{kind: KindNotFound, message: message}
}

func Failure[T any](err error) Result[T] {
	return Result[T]{kind: KindFailure, err: err}
}

func (r Result[T]) Kind() Kind      { return r.kind }
func (r Result[T]) IsOk() bool      { return r.kind == KindOk }
func (r Result[T]) Value() T        { return r.value }
func (r Result[T]) Message() string { return r.message }
func (r Result[T]) Err() error      { return r.err }

// Get returns the value and whether the result is Ok.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.kind == KindOk
}
