package cmd

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with actionable recovery suggestions
type ErrorWithSuggestion struct {
	Message     string
	Suggestions []string
	err         error
}

func (e *ErrorWithSuggestion) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • ")
			b.WriteString(s)
		}
	}

	if e.err != nil {
		b.WriteString("\n\nDetails: ")
		b.WriteString(e.err.Error())
	}

	return b.String()
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.err
}

// NewErrorWithSuggestions creates an error with recovery suggestions
func NewErrorWithSuggestions(msg string, err error, suggestions ...string) error {
	return &ErrorWithSuggestion{
		Message:     msg,
		Suggestions: suggestions,
		err:         err,
	}
}

// ValidationError creates a helpful error for an invalid flag or argument
func ValidationError(field string, value interface{}, validValues string) error {
	return NewErrorWithSuggestions(
		fmt.Sprintf("invalid argument for %s: %v", field, value),
		nil,
		fmt.Sprintf("Valid values: %s", validValues),
		"Run with --help to see all available options",
	)
}

// BackendUnreachableError explains a failed connection to the backend
func BackendUnreachableError(url string, err error) error {
	return NewErrorWithSuggestions(
		fmt.Sprintf("Cannot reach the LegalTime backend at %s", url),
		err,
		"Check that the backend is running",
		"Point the client elsewhere: legaltime config set api.url <url>",
		"Override for one command: --api-url <url>",
	)
}

// TerminalRequiredError is returned by interactive commands run without a
// terminal.
func TerminalRequiredError(command string, alternatives ...string) error {
	return NewErrorWithSuggestions(
		fmt.Sprintf("%s needs an interactive terminal", command),
		nil,
		alternatives...,
	)
}
