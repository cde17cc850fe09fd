package action

import "slices"

// Result is the immutable outcome of one action invocation.
//
// Errors is nil on success. A non-nil Errors (possibly empty) means no side
// effect was committed. EnteredValues echoes the rejected input so a form can
// be repopulated; it is only ever set together with Errors.
type Result[T any] struct {
	Errors        []string `json:"errors"`
	EnteredValues *T       `json:"enteredValues,omitempty"`
}

// Success returns the result of a committed action.
func Success[T any]() Result[T] {
	return Result[T]{}
}

// Failure returns a rejected result that echoes entered.
func Failure[T any](entered T, msgs ...string) Result[T] {
	return Result[T]{
		Errors:        errorList(msgs),
		EnteredValues: &entered,
	}
}

// Fail returns a rejected result without an echo.
func Fail[T any](msgs ...string) Result[T] {
	return Result[T]{Errors: errorList(msgs)}
}

// OK reports whether the action committed.
func (r Result[T]) OK() bool {
	return r.Errors == nil
}

// Entered returns the echoed input, if any.
func (r Result[T]) Entered() (T, bool) {
	if r.EnteredValues == nil {
		var zero T
		return zero, false
	}
	return *r.EnteredValues, true
}

func errorList(msgs []string) []string {
	if len(msgs) == 0 {
		return []string{}
	}
	return slices.Clone(msgs)
}
