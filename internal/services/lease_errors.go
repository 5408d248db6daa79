package services

import (
	"errors"
	"fmt"

	"github.com/fixzit/lease-engine/internal/data"
)

type ErrorKind string

const (
	ValidationErrorKind             ErrorKind = "VALIDATION_ERROR"
	NotFoundErrorKind               ErrorKind = "NOT_FOUND"
	ConflictErrorKind               ErrorKind = "CONFLICT"
	InvalidStateTransitionErrorKind ErrorKind = "INVALID_STATE_TRANSITION"
	ConcurrentModificationErrorKind ErrorKind = "CONCURRENT_MODIFICATION"
)

// Sentinels matched by errors.Is against a *LeaseError of the same kind.
var (
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConcurrentModification = errors.New("concurrent modification")
)

var kindSentinels = map[ErrorKind]error{
	ValidationErrorKind:             ErrValidation,
	NotFoundErrorKind:               ErrNotFound,
	ConflictErrorKind:               ErrConflict,
	InvalidStateTransitionErrorKind: ErrInvalidStateTransition,
	ConcurrentModificationErrorKind: ErrConcurrentModification,
}

// LeaseError is an expected business-rule failure of a lease operation. Errors of any other type returned by the
// services are internal failures.
type LeaseError struct {
	Kind    ErrorKind
	Message string
	// Extras carries per-field details, e.g. validation failures keyed by field name.
	Extras map[string]interface{}
	Err    error
}

func (e *LeaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *LeaseError) Unwrap() error {
	return e.Err
}

func (e *LeaseError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Retryable reports whether repeating the operation may succeed.
func (e *LeaseError) Retryable() bool {
	return e.Kind == ConcurrentModificationErrorKind
}

func NewValidationError(message string, extras map[string]interface{}) *LeaseError {
	return &LeaseError{Kind: ValidationErrorKind, Message: message, Extras: extras}
}

func NewNotFoundError(message string, err error) *LeaseError {
	return &LeaseError{Kind: NotFoundErrorKind, Message: message, Err: err}
}

func NewConflictError(message string, err error) *LeaseError {
	return &LeaseError{Kind: ConflictErrorKind, Message: message, Err: err}
}

func NewInvalidStateTransitionError(message string, err error) *LeaseError {
	return &LeaseError{Kind: InvalidStateTransitionErrorKind, Message: message, Err: err}
}

func NewConcurrentModificationError(message string, err error) *LeaseError {
	return &LeaseError{Kind: ConcurrentModificationErrorKind, Message: message, Err: err}
}

// AsLeaseError returns the *LeaseError in err's chain, if any.
func AsLeaseError(err error) (*LeaseError, bool) {
	var leaseErr *LeaseError
	if errors.As(err, &leaseErr) {
		return leaseErr, true
	}
	return nil, false
}

// translateDataError maps the data layer sentinels onto lease errors. Unknown errors are returned unchanged.
func translateDataError(err error, message string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, data.ErrRecordNotFound):
		return NewNotFoundError(message, err)
	case errors.Is(err, data.ErrConcurrentModification):
		return NewConcurrentModificationError(message, err)
	case errors.Is(err, data.ErrUnitOccupied):
		return NewConflictError(message, err)
	case errors.Is(err, data.ErrInvalidStateTransition):
		return NewInvalidStateTransitionError(message, err)
	default:
		return fmt.Errorf("%s: %w", message, err)
	}
}

// finalizeError strips transaction wrappers so callers receive the *LeaseError itself. Internal failures are wrapped
// with message.
func finalizeError(err error, message string) error {
	if leaseErr, ok := AsLeaseError(err); ok {
		return leaseErr
	}
	return fmt.Errorf("%s: %w", message, err)
}

// outcome is the metric label for the result of an operation.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if leaseErr, ok := AsLeaseError(err); ok {
		return string(leaseErr.Kind)
	}
	return "internal_error"
}
