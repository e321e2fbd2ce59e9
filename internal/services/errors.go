package services

import "fmt"

// Error codes exposed in API error bodies
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeMissingField       = "missing_field"
	CodeInvalidField       = "invalid_field"
	CodeDuplicateName      = "duplicate_name"
	CodeDuplicateUsername  = "duplicate_username"
	CodeDuplicateEmail     = "duplicate_email"
	CodeNotFound           = "not_found"
	CodeForbidden          = "forbidden"
)

// AuthError is returned when a caller cannot be authenticated
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	ErrInvalidCredentials = &AuthError{Code: CodeInvalidCredentials, Message: "invalid username or password"}
	ErrInvalidToken       = &AuthError{Code: CodeInvalidToken, Message: "invalid bearer token"}
	ErrTokenExpired       = &AuthError{Code: CodeTokenExpired, Message: "bearer token has expired"}
)

// ValidationError is returned when input is rejected
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches another ValidationError with the same code, and the same field when target names one
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Field == "" || t.Field == e.Field)
}

var (
	ErrMissingField      = &ValidationError{Code: CodeMissingField, Message: "missing required field"}
	ErrInvalidField      = &ValidationError{Code: CodeInvalidField, Message: "invalid field value"}
	ErrDuplicateName     = &ValidationError{Code: CodeDuplicateName, Field: "name", Message: "please use a different name"}
	ErrDuplicateUsername = &ValidationError{Code: CodeDuplicateUsername, Field: "username", Message: "please use a different username"}
	ErrDuplicateEmail    = &ValidationError{Code: CodeDuplicateEmail, Field: "email", Message: "please use a different email address"}
)

func missingField(field string) *ValidationError {
	return &ValidationError{Code: CodeMissingField, Field: field, Message: fmt.Sprintf("missing required field %q", field)}
}

func invalidField(field, reason string) *ValidationError {
	return &ValidationError{Code: CodeInvalidField, Field: field, Message: fmt.Sprintf("%s %s", field, reason)}
}

// NotFoundError is returned when a resource does not exist
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ForbiddenError is returned when an authenticated user acts on another user's data
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}
