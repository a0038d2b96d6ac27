// File: internal/common/errors.go
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError represents a standard structure for API errors.
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s", e.StatusCode, e.Code, e.Message)
}

func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// WithDetails returns a copy of the error carrying extra details, so the
// shared sentinel values above are never mutated.
func (e *APIError) WithDetails(details interface{}) *APIError {
	clone := *e
	clone.Details = details
	return &clone
}

// Is makes APIError sentinels comparable with errors.Is: two APIErrors
// match when their codes match, regardless of attached details.
func (e *APIError) Is(target error) bool {
	var apiErr *APIError
	if !errors.As(target, &apiErr) {
		return false
	}
	return e.Code == apiErr.Code
}

var (
	ErrBadRequest     = NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "The request is invalid.")
	ErrUnauthorized   = NewAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication is required and has failed or has not yet been provided.")
	ErrNotFound       = NewAPIError(http.StatusNotFound, "NOT_FOUND", "The requested resource could not be found.")
	ErrInternalServer = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred on the server.")

	// Identity and session error taxonomy.
	ErrValidation                = NewAPIError(http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed.")
	ErrDuplicateEmail            = NewAPIError(http.StatusBadRequest, "DUPLICATE_EMAIL", "An account with this email already exists.")
	ErrDuplicateFederatedID      = NewAPIError(http.StatusBadRequest, "DUPLICATE_FEDERATED_IDENTITY", "This federated identity is already linked to an account.")
	ErrInvalidCredentials        = NewAPIError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password.")
	ErrEmailOwnedByLocalAccount  = NewAPIError(http.StatusConflict, "EMAIL_OWNED_BY_LOCAL_ACCOUNT", "This email belongs to a password-based account. Sign in with your password instead.")
	ErrStoreUnavailable          = NewAPIError(http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "The account store is temporarily unavailable.")
	ErrSessionStoreUnavailable   = NewAPIError(http.StatusServiceUnavailable, "SESSION_STORE_UNAVAILABLE", "The session store is temporarily unavailable.")
)

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// FormatValidationErrors converts validator.ValidationErrors into a map.
func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMap := make(map[string]string)
	for _, e := range errs {
		field := strings.ToLower(e.Field())
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("The %s field is required.", field)
		case "email":
			message = fmt.Sprintf("The %s field must be a valid email address.", field)
		case "min":
			message = fmt.Sprintf("The %s field must be at least %s characters long.", field, e.Param())
		case "max":
			message = fmt.Sprintf("The %s field may not be greater than %s characters.", field, e.Param())
		case "url":
			message = fmt.Sprintf("The %s field must be a valid URL.", field)
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", field, e.Tag())
		}
		errorMap[field] = message
	}
	return errorMap
}
