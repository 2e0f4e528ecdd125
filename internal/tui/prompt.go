package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// Credentials are what the login form collects.
type Credentials struct {
	Email    string
	Password string
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// PromptForCredentials asks for an email and password. The email field is
// prefilled with defaultEmail.
func PromptForCredentials(ctx context.Context, defaultEmail string) (Credentials, error) {
	c := Credentials{Email: defaultEmail}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("you@firm.com").
			Validate(required("email")).
			Value(&c.Email),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(required("password")).
			Value(&c.Password),
	))

	if err := form.RunWithContext(ctx); err != nil {
		return Credentials{}, fmt.Errorf("prompt failed: %w", err)
	}
	c.Email = strings.TrimSpace(c.Email)
	return c, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(confirm))

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}

// Choice is one option of PromptForSelect.
type Choice[T comparable] struct {
	Label string
	Value T
}

// PromptForSelect displays a selection prompt with multiple options
func PromptForSelect[T comparable](message string, choices []Choice[T]) (T, error) {
	var selected T
	if len(choices) == 0 {
		return selected, fmt.Errorf("no options provided")
	}

	options := make([]huh.Option[T], len(choices))
	for i, c := range choices {
		options[i] = huh.NewOption(c.Label, c.Value)
	}

	selectField := huh.NewSelect[T]().
		Title(message).
		Options(options...).
		Value(&selected)

	form := huh.NewForm(huh.NewGroup(selectField))

	if err := form.Run(); err != nil {
		return selected, fmt.Errorf("prompt failed: %w", err)
	}

	return selected, nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
