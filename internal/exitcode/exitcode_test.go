package exitcode

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"UsageError", UsageError, 2},
		{"PolicyDenied", PolicyDenied, 3},
		{"AuthError", AuthError, 5},
		{"NetworkError", NetworkError, 6},
		{"ValidationError", ValidationError, 7},
		{"Interrupted", Interrupted, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Exit code %s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "auth rejected",
			err:      errors.NewAuthRejectedError(401),
			expected: AuthError,
		},
		{
			name:     "wrapped invalid credentials",
			err:      fmt.Errorf("login failed: %w", errors.NewInvalidCredentialsError("")),
			expected: AuthError,
		},
		{
			name:     "not logged in",
			err:      errors.NewNotLoggedInError(),
			expected: AuthError,
		},
		{
			name:     "network",
			err:      errors.NewNetworkError(stderrors.New("connection refused")),
			expected: NetworkError,
		},
		{
			name:     "validation",
			err:      errors.NewValidationError("bad", nil),
			expected: ValidationError,
		},
		{
			name:     "self approval",
			err:      errors.NewSelfApprovalError(3),
			expected: PolicyDenied,
		},
		{
			name:     "policy denied",
			err:      errors.NewPolicyDeniedError("rates are not available"),
			expected: PolicyDenied,
		},
		{
			name:     "unknown flag",
			err:      stderrors.New("unknown flag: --bogus"),
			expected: UsageError,
		},
		{
			name:     "required flag",
			err:      stderrors.New(`required flag(s) "email" not set`),
			expected: UsageError,
		},
		{
			name:     "plain error",
			err:      stderrors.New("something broke"),
			expected: GeneralError,
		},
		{
			name:     "api error",
			err:      errors.New(errors.ErrCodeAPI, "server exploded"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	codes := []int{Success, GeneralError, UsageError, PolicyDenied, AuthError, NetworkError, ValidationError, Interrupted}
	for _, code := range codes {
		if desc := GetExitCodeDescription(code); desc == "Unknown error" {
			t.Errorf("code %d has no description", code)
		}
	}

	if desc := GetExitCodeDescription(42); desc != "Unknown error" {
		t.Errorf("GetExitCodeDescription(42) = %q, want %q", desc, "Unknown error")
	}
}
