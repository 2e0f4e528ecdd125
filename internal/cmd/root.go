package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/legaltime/internal/ux"
)

var rootCmd = &cobra.Command{
	Use:   "legaltime",
	Short: "LegalTime time tracking client",
	Long: `legaltime is the command-line client for the LegalTime time tracking
backend. It signs you in, keeps your session, and shows only the views and
actions your role allows: lawyers log time, senior lawyers approve it and
run reports, administrators manage employees and rates.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if !ux.ValidFormat(format) {
			return ValidationError("--format", format, "text, json, yaml")
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands use for
// cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("home", "", "LegalTime home directory (default $LEGALTIME_HOME or ~/.legaltime)")
	flags.String("api-url", "", "backend base URL (overrides api.url)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.StringP("format", "f", "", "output format: text, json, yaml (default from output.format)")
	flags.Bool("no-color", false, "disable colored output")
	flags.BoolP("verbose", "v", false, "log debug output to stderr")
}
