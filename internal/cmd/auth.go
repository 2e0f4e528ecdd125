package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/legaltime/internal/app"
	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/token"
	"github.com/felixgeelhaar/legaltime/internal/tokenstore"
	"github.com/felixgeelhaar/legaltime/internal/tui"
	"github.com/felixgeelhaar/legaltime/internal/ux"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your LegalTime session",
	Long: `Manage your LegalTime session.

Logging in exchanges your email and password for an access token. The
token is kept in the LegalTime home directory so later commands run as you
until you log out or the backend rejects it.

Examples:
  legaltime auth login --email you@firm.com
  echo "$PASSWORD" | legaltime auth login --email you@firm.com --password-stdin
  legaltime auth status
  legaltime auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with your email and password",
	Long: `Log in with your email and password.

Without --password the password is prompted for when a terminal is
attached. A token obtained elsewhere can be adopted with --token.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		wasIn := a.Session.IsAuthenticated()
		if err := a.Logout(); err != nil {
			return err
		}
		if !cc.Text() {
			return cc.Output(map[string]bool{"logged_out": wasIn})
		}
		if !wasIn {
			return cc.Output("Not logged in.")
		}
		return cc.Output("Logged out.")
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the logged in email and role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.RequireSession()
		if err != nil {
			return err
		}
		if !cc.Text() {
			return cc.Output(map[string]string{"email": snap.Email(), "role": string(snap.Role())})
		}
		return cc.Output(fmt.Sprintf("%s (%s)", snap.Email(), snap.Role().Label()))
	},
}

var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the access token for scripting",
	Long: `Print the raw access token, for example to call the backend with curl:

  curl -H "Authorization: Bearer $(legaltime auth token)" http://localhost:8000/clients/

Use --fingerprint to print only a short digest that is safe to share.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, a, err := open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.RequireSession()
		if err != nil {
			return err
		}
		out := snap.RawToken
		if fp, _ := cmd.Flags().GetBool("fingerprint"); fp {
			out = token.Fingerprint(out)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	authLoginCmd.Flags().String("email", "", "account email")
	authLoginCmd.Flags().String("password", "", "account password (prefer --password-stdin)")
	authLoginCmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	authLoginCmd.Flags().String("token", "", "adopt an access token instead of logging in")

	authTokenCmd.Flags().Bool("fingerprint", false, "print a digest of the token instead")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authWhoamiCmd)
	authCmd.AddCommand(authTokenCmd)

	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	cc, a, err := open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if raw, _ := cmd.Flags().GetString("token"); raw != "" {
		_, err := a.Adopt(strings.TrimSpace(raw))
		if err != nil && !errors.HasCode(err, errors.ErrCodeTokenStore) {
			return err
		}
		return reportLogin(cc, a, err)
	}

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	if stdin, _ := cmd.Flags().GetBool("password-stdin"); stdin {
		password, err = readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	if email == "" || password == "" {
		if !tui.ShouldPrompt() {
			return errors.NewValidationError("email and password are required", nil).
				WithSuggestion("Pass --email and --password-stdin, or run in a terminal to be prompted")
		}
		creds, err := tui.PromptForCredentials(ctx, email)
		if err != nil {
			return err
		}
		email, password = creds.Email, creds.Password
	}

	_, err = a.Login(ctx, email, password)
	if errors.IsNetwork(err) {
		return BackendUnreachableError(a.Gateway.BaseURL(), err)
	}
	if err != nil && !errors.HasCode(err, errors.ErrCodeTokenStore) {
		return err
	}
	return reportLogin(cc, a, err)
}

// reportLogin prints the new session. storeErr is a persistence failure
// that did not prevent the login.
func reportLogin(cc *CommandContext, a *app.App, storeErr error) error {
	if storeErr != nil {
		a.Logger.WithError(storeErr).Warn("token could not be stored; the session ends with this command")
	}
	if !cc.Text() {
		return cc.Output(statusOf(a))
	}
	snap := a.Session.Snapshot()
	return cc.Output(fmt.Sprintf("Logged in as %s (%s).", snap.Email(), snap.Role().Label()))
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read password from stdin", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AuthStatus is the machine-readable session summary.
type AuthStatus struct {
	LoggedIn    bool     `json:"logged_in" yaml:"logged_in"`
	Email       string   `json:"email,omitempty" yaml:"email,omitempty"`
	Role        string   `json:"role,omitempty" yaml:"role,omitempty"`
	EmployeeID  *int     `json:"employee_id,omitempty" yaml:"employee_id,omitempty"`
	Expires     string   `json:"expires,omitempty" yaml:"expires,omitempty"`
	Expired     bool     `json:"expired,omitempty" yaml:"expired,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Server      string   `json:"server" yaml:"server"`
	Store       string   `json:"store" yaml:"store"`
	Views       []string `json:"views,omitempty" yaml:"views,omitempty"`
}

func statusOf(a *app.App) AuthStatus {
	snap := a.Session.Snapshot()
	st := AuthStatus{
		LoggedIn: snap.Authenticated(),
		Server:   a.Gateway.BaseURL(),
		Store:    "memory",
	}
	if fs, ok := a.Store.(*tokenstore.FileStore); ok {
		st.Store = fs.Path()
		if fs.Encrypted() {
			st.Store += " (encrypted)"
		}
	}
	if !st.LoggedIn {
		return st
	}

	st.Email = snap.Email()
	st.Role = string(snap.Role())
	st.EmployeeID = snap.Claims.EmployeeID
	st.Fingerprint = token.Fingerprint(snap.RawToken)
	if exp, ok := snap.Claims.Expiry(); ok {
		st.Expires = exp.Format(time.RFC3339)
		st.Expired = snap.Claims.Expired(time.Now())
	}
	for _, e := range a.Navigation() {
		st.Views = append(st.Views, e.Title)
	}
	return st
}

// String renders the status for a terminal.
func (s AuthStatus) String() string {
	if !s.LoggedIn {
		return ux.Fields{
			{Key: "Status", Value: "Logged out"},
			{Key: "Server", Value: s.Server},
		}.String()
	}

	employee := "unknown"
	if s.EmployeeID != nil {
		employee = fmt.Sprint(*s.EmployeeID)
	}
	expires := "never"
	if s.Expires != "" {
		expires = s.Expires
		if s.Expired {
			// The backend decides; an expired token is kept until rejected.
			expires += " (expired)"
		}
	}
	return ux.Fields{
		{Key: "Status", Value: "Logged in"},
		{Key: "Email", Value: s.Email},
		{Key: "Role", Value: s.Role},
		{Key: "Employee", Value: employee},
		{Key: "Expires", Value: expires},
		{Key: "Token", Value: s.Fingerprint},
		{Key: "Server", Value: s.Server},
		{Key: "Store", Value: s.Store},
		{Key: "Views", Value: strings.Join(s.Views, ", ")},
	}.String()
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cc, a, err := open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return cc.Output(statusOf(a))
}
