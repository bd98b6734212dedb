package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrForbidden indicates the caller is not allowed to perform the action
// (non-admin withdrawal request, voter outside the group).
var ErrForbidden = errors.New("action not permitted")

// ErrConflict indicates the action clashes with existing state. The caller may
// retry the action, never the same duplicate payload.
var ErrConflict = errors.New("conflicting state")

// ErrDuplicate indicates an attempt to create a resource that already exists,
// typically an external payment reference replayed by the gateway.
var ErrDuplicate = errors.New("resource already exists")

// ErrInsufficientFunds indicates a monetary guard rejected the request
// (group overdraft, entitlement ceiling exceeded).
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrExternalGateway indicates the outbound payment call failed before the
// gateway issued a reference. The already-created internal record is left for
// operator reconciliation.
var ErrExternalGateway = errors.New("external payment gateway error")

// ErrInternal indicates an unexpected infrastructure failure.
var ErrInternal = errors.New("internal error")

// AppError wraps a lower-level failure with an HTTP-ish status code and a
// message safe to log. Repositories return these for infrastructure errors.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches ErrNotFound via errors.Is.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
