package tui

import (
	"testing"
)

func TestShouldPrompt_CI(t *testing.T) {
	for _, env := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, "true")
			if ShouldPrompt() {
				t.Errorf("ShouldPrompt() = true with %s set", env)
			}
		})
	}
}

func TestPromptForSelect_NoOptions(t *testing.T) {
	if _, err := PromptForSelect[int]("Choose:", nil); err == nil {
		t.Error("expected error when no options provided, got nil")
	}
}

func TestRequired(t *testing.T) {
	check := required("email")
	if err := check("  "); err == nil || err.Error() != "email is required" {
		t.Errorf("required(blank) = %v", err)
	}
	if err := check("a@x.com"); err != nil {
		t.Errorf("required(value) = %v", err)
	}
}
