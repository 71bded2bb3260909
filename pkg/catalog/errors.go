package catalog

import "errors"

// StoreError is returned by catalog implementations for expected failures.
// Callers branch on Code; unexpected backend failures are wrapped with
// ErrIOError.
type StoreError struct {
	Code ErrorCode

	Message string

	// Entity names the entity the error refers to, if any.
	Entity string

	Err error
}

func (e *StoreError) Error() string {
	msg := e.Message
	if e.Entity != "" {
		msg += ": " + e.Entity
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

type ErrorCode int

const (
	ErrNotFound ErrorCode = iota

	ErrAlreadyExists

	ErrInvalidArgument

	ErrIOError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not found"
	case ErrAlreadyExists:
		return "already exists"
	case ErrInvalidArgument:
		return "invalid argument"
	case ErrIOError:
		return "i/o error"
	default:
		return "unknown"
	}
}

// NotFound builds an ErrNotFound StoreError for entity.
func NotFound(entity string) error {
	return &StoreError{Code: ErrNotFound, Message: "not found", Entity: entity}
}

// IsNotFound reports whether err carries ErrNotFound.
func IsNotFound(err error) bool {
	return HasCode(err, ErrNotFound)
}

// HasCode reports whether err wraps a StoreError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
