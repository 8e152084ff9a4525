package common

import (
	"errors"
	"fmt"
)

var (

	// store specific errors
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrTaskNotFound = fmt.Errorf("task %w", ErrNotFound)

	// auth flow errors
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("rate limited")
	ErrTooLarge     = errors.New("request too large")

	// token errors
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")

	ErrInternal = errors.New("internal error")
)

// ValidationError is returned when client input breaks a rule. Msg is the
// first violated rule and is safe to show to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Message pairs a sentinel with the text shown to the caller, so services
// decide wording while transports decide status codes.
type Message struct {
	Kind error
	Msg  string
}

func (m *Message) Error() string {
	return m.Msg
}

func (m *Message) Unwrap() error {
	return m.Kind
}

// WithMessage wraps kind with a caller-facing message.
func WithMessage(kind error, msg string) error {
	return &Message{Kind: kind, Msg: msg}
}
