package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

func subcommand(parent *cobra.Command, name string) *cobra.Command {
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// TestRootSubcommands tests that every top-level command is registered
func TestRootSubcommands(t *testing.T) {
	for _, name := range []string{
		"auth", "nav", "can", "entries", "clients", "contracts", "matters",
		"employees", "rates", "activity-types", "calendar", "config", "doctor",
		"ui", "version",
	} {
		if subcommand(rootCmd, name) == nil {
			t.Errorf("command '%s' not registered on root", name)
		}
	}
}

// TestAuthSubcommands tests that all auth subcommands are registered
func TestAuthSubcommands(t *testing.T) {
	for _, name := range []string{"login", "logout", "status", "whoami", "token"} {
		if subcommand(authCmd, name) == nil {
			t.Errorf("subcommand '%s' not found in auth command", name)
		}
	}
}

// TestAuthLoginFlags tests that auth login has correct flags
func TestAuthLoginFlags(t *testing.T) {
	for _, flag := range []string{"email", "password", "password-stdin", "token"} {
		if authLoginCmd.Flags().Lookup(flag) == nil {
			t.Errorf("flag '%s' not found on auth login command", flag)
		}
	}
}

func TestEntriesSubcommands(t *testing.T) {
	for _, name := range []string{"list", "pending", "show", "approve", "report", "recalculate"} {
		if subcommand(entriesCmd, name) == nil {
			t.Errorf("subcommand '%s' not found in entries command", name)
		}
	}

	if entriesCmd.Aliases[0] != "time-entries" {
		t.Errorf("entries alias = %v, want time-entries", entriesCmd.Aliases)
	}

	out := entriesReportCmd.Flags().Lookup("output")
	if out == nil {
		t.Fatal("flag 'output' not found on entries report command")
	}
	if out.DefValue != DefaultReportFile {
		t.Errorf("report output default = %s, want %s", out.DefValue, DefaultReportFile)
	}
	if out.Shorthand != "o" {
		t.Errorf("report output shorthand = %s, want o", out.Shorthand)
	}
}

func TestResourceCommands(t *testing.T) {
	for _, name := range []string{"clients", "contracts", "matters", "employees", "rates", "activity-types"} {
		parent := subcommand(rootCmd, name)
		if parent == nil {
			t.Errorf("resource command '%s' not registered", name)
			continue
		}
		list := subcommand(parent, "list")
		if list == nil {
			t.Errorf("%s has no list subcommand", name)
			continue
		}
		if list.Flags().Lookup("skip") == nil || list.Flags().Lookup("limit") == nil {
			t.Errorf("%s list is missing page flags", name)
		}
		if subcommand(parent, "show") == nil {
			t.Errorf("%s has no show subcommand", name)
		}
	}
}

func TestCalendarSubcommands(t *testing.T) {
	for _, name := range []string{"connect", "push", "pull", "events"} {
		if subcommand(calendarCmd, name) == nil {
			t.Errorf("subcommand '%s' not found in calendar command", name)
		}
	}
}

func TestConfigSubcommands(t *testing.T) {
	for _, name := range []string{"view", "get", "set", "path"} {
		if subcommand(configCmd, name) == nil {
			t.Errorf("subcommand '%s' not found in config command", name)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	for _, flag := range []string{"home", "api-url", "log-level", "format", "no-color", "verbose"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag '%s' not found on root command", flag)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "42", want: 42},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCapability(t *testing.T) {
	if _, ok := parseCapability("time_entries:approve"); !ok {
		t.Error("time_entries:approve should be a known capability")
	}
	if _, ok := parseCapability("rockets:launch"); ok {
		t.Error("rockets:launch should not be a known capability")
	}
	if len(capabilityNames()) == 0 {
		t.Error("capability names should not be empty")
	}
}
