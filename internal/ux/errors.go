package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a suggestion to uncoded errors whose text is
// recognizable. Coded errors already carry their own suggestions.
func EnhanceError(err error) error {
	if err == nil || errors.CodeOf(err) != "" {
		return err
	}

	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "connection refused"),
		strings.Contains(errMsg, "no such host"),
		strings.Contains(errMsg, "no route to host"):
		return NewErrorWithSuggestion(err,
			"Check that the LegalTime server is running and that api.url is correct ('legaltime config get api.url')")
	case strings.Contains(errMsg, "deadline exceeded"), strings.Contains(errMsg, "Client.Timeout"):
		return NewErrorWithSuggestion(err,
			"The server is slow to answer; raise the limit with 'legaltime config set api.timeout 60s'")
	case strings.Contains(errMsg, "permission denied"):
		return NewErrorWithSuggestion(err,
			"Check the permissions of your LegalTime home directory (see 'legaltime config path')")
	case strings.Contains(errMsg, "x509"), strings.Contains(errMsg, "certificate"):
		return NewErrorWithSuggestion(err,
			"The server certificate is not trusted; check api.url uses the right scheme and host")
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}

// RenderError prints err for a terminal.
func RenderError(err error, noColor bool) string {
	if err == nil {
		return ""
	}
	label := "Error:"
	if !noColor {
		label = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Render(label)
	}
	return label + " " + EnhanceError(err).Error()
}
