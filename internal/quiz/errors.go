package quiz

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Match with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrStateConflict      = errors.New("state conflict")
	ErrNotFound           = errors.New("not found")
)

// Error carries a kind and a caller-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func InvariantViolationf(format string, args ...any) error {
	return &Error{Kind: ErrInvariantViolation, Msg: fmt.Sprintf(format, args...)}
}

func StateConflictf(format string, args ...any) error {
	return &Error{Kind: ErrStateConflict, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}
