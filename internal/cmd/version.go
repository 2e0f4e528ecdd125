package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/legaltime/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version number")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.GetInfo()

	format, _ := cmd.Flags().GetString("format")
	if format != "" && format != "text" {
		cc, err := NewCommandContext(cmd)
		if err != nil {
			return fmt.Errorf("failed to create command context: %w", err)
		}
		return cc.Output(info)
	}

	if short, _ := cmd.Flags().GetBool("short"); short {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Short())
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
		return err
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "legaltime %s\n", info.Short())
	return err
}
