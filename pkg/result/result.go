// Package result holds the tagged outcome returned by use cases: either a value or an
// ordered list of application errors.
package result

import (
	apperrors "github.com/akeren/form-history-api/pkg/errors"
)

type Result[T any] struct {
	value  T
	errors []*apperrors.AppError
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Fail builds a failed result. Nil errors are skipped; a Fail with no errors left is
// treated as an internal error so a failure never looks like success.
func Fail[T any](errs ...*apperrors.AppError) Result[T] {
	kept := make([]*apperrors.AppError, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, apperrors.NewInternalServerError("empty failure", nil))
	}
	return Result[T]{errors: kept}
}

func (r Result[T]) IsOk() bool {
	return len(r.errors) == 0
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Errors() []*apperrors.AppError {
	return r.errors
}

// Err returns the errors as plain error values, in order.
func (r Result[T]) Err() []error {
	out := make([]error, len(r.errors))
	for i, err := range r.errors {
		out[i] = err
	}
	return out
}
