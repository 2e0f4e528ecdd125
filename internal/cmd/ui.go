package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/legaltime/internal/app"
	"github.com/felixgeelhaar/legaltime/internal/config"
	"github.com/felixgeelhaar/legaltime/internal/log"
	"github.com/felixgeelhaar/legaltime/internal/tui"
)

// ShellLogFile receives the shell's log output under the home directory.
const ShellLogFile = "ui.log"

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive shell",
	Long: `Open the interactive shell. It shows the login form until you sign in,
then the views your role may open. If the backend rejects your session
the shell returns to the login form with a notice.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tui.IsInteractive() {
			return TerminalRequiredError("legaltime ui",
				"Run it from a terminal",
				"Use the batch commands instead, for example: legaltime entries list")
		}

		cc, err := NewCommandContext(cmd)
		if err != nil {
			return err
		}
		cfg, err := cc.Config()
		if err != nil {
			return err
		}
		logger, closeLog := shellLogger(cc.Home, cfg)
		defer closeLog()

		a, err := app.New(cfg, cc.Home, app.WithLogger(logger))
		if err != nil {
			return err
		}
		defer a.Close()

		// The shell hydrates the session itself so the loading view shows.
		return tui.Run(cmd.Context(), a)
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

// shellLogger writes to a file because stderr belongs to the shell's screen.
func shellLogger(home string, cfg *config.Config) (*log.Logger, func()) {
	if err := os.MkdirAll(home, 0o700); err != nil {
		return log.Discard(), func() {}
	}
	f, err := os.OpenFile(filepath.Join(home, ShellLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return log.Discard(), func() {}
	}
	return log.New(log.FromSettings(cfg.Logging.Level, cfg.Logging.Format, f)), func() { _ = f.Close() }
}
