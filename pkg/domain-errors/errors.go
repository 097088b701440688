// Package domainerrors carries the registration pipeline's error taxonomy.
//
// Services return *Error values (optionally wrapping an infrastructure cause)
// so that callers can branch on Code without string matching:
//
//	if dErrors.HasCode(err, dErrors.CodeThrottled) { ... }
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Code classifies a failure for propagation and transport mapping.
type Code string

const (
	// CodeValidation is a local input failure; it never reaches the network.
	CodeValidation Code = "validation"
	// CodeThrottled means an OTP cooldown is still active.
	CodeThrottled Code = "throttled"
	// CodeInvalidCode is a wrong or expired one-time code. Retryable with a fresh code.
	CodeInvalidCode Code = "invalid_code"
	// CodeDuplicateRegistration is reported by the backend when a create races an
	// existing record. Resolvers fold it into an update.
	CodeDuplicateRegistration Code = "duplicate_registration"
	// CodeNetwork is a transient transport failure.
	CodeNetwork Code = "network"
	// CodePaymentTerminal is a failed or expired payment transaction.
	CodePaymentTerminal Code = "payment_terminal"
	// CodeManualRejected is the backend refusing human-supplied payment proof.
	CodeManualRejected Code = "manual_verification_rejected"

	CodeInvalidState Code = "invalid_state"
	CodeConflict     Code = "conflict"
	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
	// Fields holds per-field validation messages keyed by form field name.
	Fields map[string]string
	// RetryAfter is set on throttled errors.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation builds a validation error carrying field messages.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

// Throttled builds a cooldown error.
func Throttled(remaining time.Duration) *Error {
	return &Error{
		Code:       CodeThrottled,
		Message:    fmt.Sprintf("try again in %d seconds", int(remaining.Round(time.Second)/time.Second)),
		RetryAfter: remaining,
	}
}

// CodeOf returns the code of the outermost *Error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// IsRetryable reports whether the failure is transient.
func IsRetryable(err error) bool {
	return HasCode(err, CodeNetwork) || HasCode(err, CodeThrottled)
}

// FieldsOf returns validation field messages from the chain, if any.
func FieldsOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

// ToHTTPStatus maps a code to the status used by the HTTP surface.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeThrottled:
		return http.StatusTooManyRequests
	case CodeInvalidCode:
		return http.StatusUnprocessableEntity
	case CodeDuplicateRegistration, CodeConflict, CodeInvalidState:
		return http.StatusConflict
	case CodeNetwork:
		return http.StatusBadGateway
	case CodePaymentTerminal:
		return http.StatusPaymentRequired
	case CodeManualRejected:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
