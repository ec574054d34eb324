package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes for the issue-resolution taxonomy.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeLocationUnresolved   = "LOCATION_UNRESOLVED"
	CodeNoAuthorityAvailable = "NO_AUTHORITY_AVAILABLE"
	CodeCollaboratorTimeout  = "COLLABORATOR_TIMEOUT"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewInvalidTransition signals a state-machine violation. The transition
// aborts with zero mutation.
func NewInvalidTransition(from, to string, details map[string]any) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("transition %s -> %s not allowed", from, to),
		http.StatusConflict, details)
}

// NewUnresolvedLocation signals that coordinates could not be mapped to an
// administrative area. Not fatal for the verify path.
func NewUnresolvedLocation(details map[string]any) error {
	return NewDomainError(CodeLocationUnresolved, "location could not be resolved",
		http.StatusUnprocessableEntity, details)
}

// NewNoAuthorityAvailable signals an empty assignment cascade including
// the global fallback.
func NewNoAuthorityAvailable(department string) error {
	return NewDomainError(CodeNoAuthorityAvailable, "no active authority available",
		http.StatusConflict, map[string]any{"department": department})
}

// NewCollaboratorTimeout wraps a timed-out call to an external collaborator.
func NewCollaboratorTimeout(collaborator string, err error) error {
	return &DomainError{
		Code:       CodeCollaboratorTimeout,
		Message:    fmt.Sprintf("%s did not respond in time", collaborator),
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
