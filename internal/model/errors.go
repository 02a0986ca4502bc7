package model

import "errors"

// Error kinds. Every domain error below wraps exactly one of these so the
// transport layer can map it to a status without knowing the domain.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTooLarge        = errors.New("payload too large")
	ErrUnavailable     = errors.New("service unavailable")
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{msg: msg, kind: kind}
}

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError returns a ClientInputError pointing at field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var (
	// ErrAuthRequired is returned when an action needs a signed-in account
	ErrAuthRequired = newKindError(ErrUnauthenticated, "authentication required")

	// ErrPermissionDenied is returned when the account's authority is too low
	ErrPermissionDenied = newKindError(ErrForbidden, "permission denied")
)
