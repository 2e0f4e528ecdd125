package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/guard"
	"github.com/felixgeelhaar/legaltime/internal/ux"
)

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "List the views your role can open",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.RequireSession(); err != nil {
			return err
		}
		return cc.Output(ux.Navigation(a.Navigation()))
	},
}

var canCmd = &cobra.Command{
	Use:   "can <capability|view>",
	Short: "Check whether your role has a capability or may open a view",
	Long: `Check whether the current session has a capability (for example
time_entries:approve) or may open a view (for example rates or /rates).

The command exits 0 when allowed and 3 when not, so scripts can test it.
Use --list to print every capability of the current role.

Examples:
  legaltime can time_entries:approve
  legaltime can /employees
  legaltime can --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("list"); list {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runCan,
}

func init() {
	canCmd.Flags().Bool("list", false, "list the capabilities of the current role")

	rootCmd.AddCommand(navCmd)
	rootCmd.AddCommand(canCmd)
}

// CanResult is the answer of the can command.
type CanResult struct {
	Subject  string `json:"subject" yaml:"subject"`
	Role     string `json:"role" yaml:"role"`
	Allowed  bool   `json:"allowed" yaml:"allowed"`
	Decision string `json:"decision,omitempty" yaml:"decision,omitempty"`
}

func (r CanResult) String() string {
	answer := "no"
	if r.Allowed {
		answer = "yes"
	}
	if r.Decision != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Subject, answer, r.Decision)
	}
	return fmt.Sprintf("%s: %s", r.Subject, answer)
}

// capabilityList renders one capability per line.
type capabilityList []authz.Capability

func (l capabilityList) Table() *ux.Table {
	t := ux.NewTable("CAPABILITY")
	for _, c := range l {
		t.Append(string(c))
	}
	return t
}

func runCan(cmd *cobra.Command, args []string) error {
	cc, a, err := open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.RequireSession()
	if err != nil {
		return err
	}
	role := snap.Role()

	if list, _ := cmd.Flags().GetBool("list"); list {
		return cc.Output(capabilityList(authz.Capabilities(role).List()))
	}

	subject := args[0]
	result := CanResult{Subject: subject, Role: string(role)}

	if route, ok := authz.ParseRoute(subject); ok {
		d := a.Guard.Decide(route)
		result.Allowed = d == guard.Render
		result.Decision = d.String()
	} else {
		c, ok := parseCapability(subject)
		if !ok {
			return ValidationError("capability", subject, strings.Join(capabilityNames(), ", "))
		}
		result.Allowed = a.Can(c)
	}

	if err := cc.Output(result); err != nil {
		return err
	}
	if !result.Allowed {
		return errors.NewPolicyDeniedError(fmt.Sprintf("%s accounts may not %s", role.Label(), subject))
	}
	return nil
}

// parseCapability resolves a capability name. Admins hold every
// capability, so their set is the full vocabulary.
func parseCapability(s string) (authz.Capability, bool) {
	c := authz.Capability(strings.TrimSpace(s))
	return c, authz.Can(authz.RoleAdmin, c)
}

func capabilityNames() []string {
	caps := authz.Capabilities(authz.RoleAdmin).List()
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}
