package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// PolicyDenied indicates the current role may not perform the action
	PolicyDenied = 3

	// AuthError indicates an authentication failure or an expired session
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// ValidationError indicates the server refused the submitted fields
	ValidationError = 7

	// Interrupted indicates the user cancelled the command
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code. Coded errors are mapped
// by code; anything else falls back to message inspection.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch {
	case errors.HasCode(err, errors.ErrCodeAuthRejected),
		errors.HasCode(err, errors.ErrCodeInvalidCredentials),
		errors.HasCode(err, errors.ErrCodeNotLoggedIn):
		return AuthError
	case errors.HasCode(err, errors.ErrCodeNetwork):
		return NetworkError
	case errors.HasCode(err, errors.ErrCodeValidation):
		return ValidationError
	case errors.HasCode(err, errors.ErrCodePolicyDenied),
		errors.HasCode(err, errors.ErrCodeSelfApproval):
		return PolicyDenied
	}

	errMsg := strings.ToLower(err.Error())

	// Usage errors as produced by cobra
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts ") {
		return UsageError
	}
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "invalid argument") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case PolicyDenied:
		return "Not permitted for the current role"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case ValidationError:
		return "Validation error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
