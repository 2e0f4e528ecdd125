package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeTokenUndecodable ErrorCode = "SESSION-001"
	ErrCodeTokenStore       ErrorCode = "SESSION-002"

	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthRejected       ErrorCode = "AUTH-001"
	ErrCodeInvalidCredentials ErrorCode = "AUTH-002"
	ErrCodeNotLoggedIn        ErrorCode = "AUTH-003"

	// Validation errors (VALIDATION-001 to VALIDATION-099)
	ErrCodeValidation ErrorCode = "VALIDATION-001"

	// Network errors (NETWORK-001 to NETWORK-099)
	ErrCodeNetwork ErrorCode = "NETWORK-001"

	// API errors (API-001 to API-099)
	ErrCodeAPI         ErrorCode = "API-001"
	ErrCodeAPIDecode   ErrorCode = "API-002"
	ErrCodeAPINotFound ErrorCode = "API-003"
	ErrCodeAPIContract ErrorCode = "API-004"

	// Client-side policy refusals (POLICY-001 to POLICY-099)
	ErrCodePolicyDenied ErrorCode = "POLICY-001"
	ErrCodeSelfApproval ErrorCode = "POLICY-002"

	// Configuration and file errors (IO-001 to IO-099)
	ErrCodeConfigInvalid   ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
)

// FieldError is a single structured validation failure, as returned by the
// backend in a 422 `detail` array.
type FieldError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// Field returns the dotted location of the failing field, skipping the
// leading "body"/"query" segment the backend adds.
func (f FieldError) Field() string {
	loc := f.Loc
	if len(loc) > 1 && (loc[0] == "body" || loc[0] == "query" || loc[0] == "path") {
		loc = loc[1:]
	}
	return strings.Join(loc, ".")
}

// Error is a LegalTime error with code, suggestions and optional field errors
type Error struct {
	Code        ErrorCode
	Message     string
	Status      int
	Fields      []FieldError
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	for _, f := range e.Fields {
		b.WriteString(fmt.Sprintf("\n  %s: %s", f.Field(), f.Msg))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new Error wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithStatus records the HTTP status that produced the error
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithFields attaches structured validation failures
func (e *Error) WithFields(fields []FieldError) *Error {
	e.Fields = append(e.Fields, fields...)
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err's chain contains an *Error with code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	for err != nil {
		if stderrors.As(err, &e) {
			if e.Code == code {
				return true
			}
			err = e.Cause
			continue
		}
		return false
	}
	return false
}

// IsAuthRejected reports whether the backend rejected the session credential.
func IsAuthRejected(err error) bool {
	return HasCode(err, ErrCodeAuthRejected)
}

// IsNetwork reports whether err is a transport failure with no response.
func IsNetwork(err error) bool {
	return HasCode(err, ErrCodeNetwork)
}

// IsValidation reports whether err carries backend validation failures.
func IsValidation(err error) bool {
	return HasCode(err, ErrCodeValidation)
}

// Common error constructors for frequently used errors

// NewAuthRejectedError is returned when a call fails because the session
// credential is missing, expired or invalid.
func NewAuthRejectedError(status int) *Error {
	return New(ErrCodeAuthRejected, "session expired, please log in again").
		WithStatus(status).
		WithSuggestion("Run 'legaltime auth login' to start a new session")
}

// NewInvalidCredentialsError is returned when the login call is refused.
func NewInvalidCredentialsError(detail string) *Error {
	if detail == "" {
		detail = "incorrect email or password"
	}
	return New(ErrCodeInvalidCredentials, detail).
		WithStatus(401).
		WithSuggestion("Check the email and password and try again")
}

// NewNotLoggedInError is returned by commands that need a session.
func NewNotLoggedInError() *Error {
	return New(ErrCodeNotLoggedIn, "not logged in").
		WithSuggestion("Run 'legaltime auth login' to authenticate")
}

// NewValidationError builds a 422 error. When fields is empty the message
// carries the combined text.
func NewValidationError(message string, fields []FieldError) *Error {
	return New(ErrCodeValidation, message).
		WithStatus(422).
		WithFields(fields)
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(cause error) *Error {
	return Wrap(ErrCodeNetwork, "could not reach the LegalTime server", cause).
		WithSuggestion("Check your connection and retry the command").
		WithSuggestion("Verify the server address with 'legaltime config get api.url'")
}

// NewPolicyDeniedError is a client-side capability refusal.
func NewPolicyDeniedError(reason string) *Error {
	return New(ErrCodePolicyDenied, reason).
		WithSuggestion("Ask an administrator if you need this permission")
}

// NewSelfApprovalError blocks a senior lawyer from approving their own entry.
func NewSelfApprovalError(entryID int) *Error {
	return New(ErrCodeSelfApproval, fmt.Sprintf("senior lawyers cannot approve their own time entry %d", entryID)).
		WithSuggestion("Ask another senior lawyer or an administrator to approve it")
}

// NewConfigInvalidError creates a configuration parsing error
func NewConfigInvalidError(path string, cause error) *Error {
	return Wrap(ErrCodeConfigInvalid, fmt.Sprintf("failed to load configuration: %s", path), cause).
		WithSuggestion("Check the file syntax with 'legaltime config view'").
		WithSuggestion("Remove the file to regenerate defaults")
}
