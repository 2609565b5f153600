package errs

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a usecase is classified by at most one
// of these; use errors.Is to test and KindOf to extract.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrState           = errors.New("invalid state")
	ErrPermission      = errors.New("permission denied")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrPersistence     = errors.New("persistence error")
	ErrNotification    = errors.New("notification error")
)

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrState,
	ErrPermission,
	ErrUnauthenticated,
	ErrPersistence,
	ErrNotification,
}

// kindError attaches a kind to an error without changing its message.
type kindError struct {
	err  error
	kind error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

// Mark classifies err with kind. The message and unwrap chain are preserved.
func Mark(err error, kind error) error {
	if err == nil {
		return nil
	}
	return &kindError{err: err, kind: kind}
}

func Validation(format string, args ...any) error {
	return Mark(fmt.Errorf(format, args...), ErrValidation)
}

func NotFound(format string, args ...any) error {
	return Mark(fmt.Errorf(format, args...), ErrNotFound)
}

func State(format string, args ...any) error {
	return Mark(fmt.Errorf(format, args...), ErrState)
}

func Permission(format string, args ...any) error {
	return Mark(fmt.Errorf(format, args...), ErrPermission)
}

func Unauthenticated(format string, args ...any) error {
	return Mark(fmt.Errorf(format, args...), ErrUnauthenticated)
}

// Persistence wraps err with msg and marks it as a persistence failure unless
// it already carries a kind (a validation error raised inside a transaction
// stays a validation error).
func Persistence(err error, msg string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != nil {
		return Wrap(err, msg)
	}
	return Mark(Wrap(err, msg), ErrPersistence)
}

// KindOf returns the kind sentinel carried by err, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
