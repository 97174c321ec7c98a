// Package errors provides the error taxonomy surfaced to scouts: auth, permission,
// persistence and validation failures.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Kind groups codes into the categories the client reacts to.
type Kind string

const (
	KindAuth        Kind = "AUTH"
	KindPermission  Kind = "PERMISSION"
	KindPersistence Kind = "PERSISTENCE"
	KindValidation  Kind = "VALIDATION"
	KindInternal    Kind = "INTERNAL"
)

const (
	ErrCodeInvalidCredentials ErrorCode = "AUTH_INVALID_CREDENTIALS"
	ErrCodeSignupConflict     ErrorCode = "AUTH_SIGNUP_CONFLICT"
	ErrCodeNotAuthenticated   ErrorCode = "AUTH_NOT_AUTHENTICATED"
	ErrCodeIdentityUnavail    ErrorCode = "AUTH_PROVIDER_UNAVAILABLE"

	ErrCodeCameraDenied   ErrorCode = "CAMERA_PERMISSION_DENIED"
	ErrCodeLocationDenied ErrorCode = "LOCATION_PERMISSION_DENIED"
	ErrCodeLocationFailed ErrorCode = "LOCATION_UNAVAILABLE"

	ErrCodeUploadFailed    ErrorCode = "UPLOAD_FAILED"
	ErrCodePublicURLFailed ErrorCode = "PUBLIC_URL_FAILED"
	ErrCodeInsertFailed    ErrorCode = "INSERT_FAILED"
	ErrCodeQueryFailed     ErrorCode = "QUERY_FAILED"

	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, kind Kind, message string, retryable bool, cause error) *StandardError {
	se := &StandardError{
		Code:      code,
		Kind:      kind,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		se.Details = cause.Error()
	}
	return se
}

// NewInvalidCredentialsError is returned when sign-in is rejected by the identity provider.
func NewInvalidCredentialsError(cause error) *StandardError {
	return newError(ErrCodeInvalidCredentials, KindAuth, "Invalid email or password", false, cause)
}

// NewSignupConflictError is returned when the email is already registered.
func NewSignupConflictError(email string) *StandardError {
	se := newError(ErrCodeSignupConflict, KindAuth, "An account with this email already exists", false, nil)
	se.Details = fmt.Sprintf("email: %s", email)
	return se
}

func NewNotAuthenticatedError() *StandardError {
	return newError(ErrCodeNotAuthenticated, KindAuth, "Not signed in", false, nil)
}

func NewIdentityUnavailableError(cause error) *StandardError {
	return newError(ErrCodeIdentityUnavail, KindAuth, "Identity provider unavailable", true, cause)
}

func NewCameraDeniedError(cause error) *StandardError {
	return newError(ErrCodeCameraDenied, KindPermission,
		"Unable to access camera. Please allow camera access or upload a photo instead.", true, cause)
}

func NewLocationDeniedError(cause error) *StandardError {
	return newError(ErrCodeLocationDenied, KindPermission,
		"Location access denied. Please enable location services and try again.", true, cause)
}

func NewLocationFailedError(cause error) *StandardError {
	return newError(ErrCodeLocationFailed, KindPermission,
		"Unable to get location. Please enable location services or try again.", true, cause)
}

func NewUploadFailedError(key string, cause error) *StandardError {
	se := newError(ErrCodeUploadFailed, KindPersistence, "Photo upload failed", true, cause)
	se.Details = fmt.Sprintf("key: %s, error: %v", key, cause)
	return se
}

func NewPublicURLFailedError(key string, cause error) *StandardError {
	se := newError(ErrCodePublicURLFailed, KindPersistence, "Could not resolve photo URL", true, cause)
	se.Details = fmt.Sprintf("key: %s, error: %v", key, cause)
	return se
}

func NewInsertFailedError(table string, cause error) *StandardError {
	se := newError(ErrCodeInsertFailed, KindPersistence, "Record insert failed", true, cause)
	se.Details = fmt.Sprintf("table: %s, error: %v", table, cause)
	return se
}

func NewQueryFailedError(table string, cause error) *StandardError {
	se := newError(ErrCodeQueryFailed, KindPersistence, "Query failed", true, cause)
	se.Details = fmt.Sprintf("table: %s, error: %v", table, cause)
	return se
}

// NewValidationError carries the joined field messages in Details.
func NewValidationError(details string) *StandardError {
	se := newError(ErrCodeValidationFailed, KindValidation, "Validation failed", false, nil)
	se.Details = details
	return se
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var se *StandardError
	if stderrors.As(err, &se) {
		return se
	}
	return newError(ErrCodeInternal, KindInternal, "Unexpected error", false, err)
}

func kindOf(err error) Kind {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func IsAuth(err error) bool        { return kindOf(err) == KindAuth }
func IsPermission(err error) bool  { return kindOf(err) == KindPermission }
func IsPersistence(err error) bool { return kindOf(err) == KindPersistence }
func IsValidation(err error) bool  { return kindOf(err) == KindValidation }

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var se *StandardError
	return stderrors.As(err, &se) && se.Code == code
}

// UserMessage is the text shown to the scout. Persistence failures collapse to a
// generic message; auth and permission failures are shown as-is.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	se := Normalize(err)
	switch se.Kind {
	case KindValidation:
		if se.Details != "" {
			return se.Message + ": " + se.Details
		}
		return se.Message
	case KindAuth, KindPermission:
		return se.Message
	case KindPersistence:
		if se.Code == ErrCodeQueryFailed {
			return "Failed to load. Please try again."
		}
		return "Failed to submit. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
