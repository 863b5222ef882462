// Package domainerrors provides coded errors for domain and validation
// failures. Infrastructure facts (not found, conflict) are expressed with
// pkg/platform/sentinel and translated to these codes at the service layer.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure. Codes are stable API: handlers
// map them to HTTP statuses and clients branch on them.
type Code string

const (
	// Generic codes.
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInternal           Code = "internal"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// Lifecycle ledger codes.
	CodeExhaustedSequence   Code = "exhausted_sequence"
	CodeIllegalTransition   Code = "illegal_transition"
	CodeMissingPrecondition Code = "missing_precondition"
	CodeNotEligible         Code = "not_eligible"
	CodeAlreadyIssued       Code = "already_issued"
	CodeBatchPartialFailure Code = "batch_partial_failure"
	CodeRenderFailure       Code = "render_failure"
	CodeStorage             Code = "storage"
)

// Error carries a code plus a human-readable message and optionally wraps a
// cause. Never updated in place; wrap to add context.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with a static message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the code from an error chain. Returns CodeInternal when no
// coded error is present.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode used at handler call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// ToHTTPStatus maps a code to the HTTP status handlers should return.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeMissingPrecondition:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeIllegalTransition, CodeAlreadyIssued, CodeInvariantViolation:
		return http.StatusConflict
	case CodeNotEligible, CodeBatchPartialFailure:
		return http.StatusUnprocessableEntity
	case CodeExhaustedSequence:
		return http.StatusInsufficientStorage
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeRenderFailure, CodeStorage, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
