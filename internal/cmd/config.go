package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/legaltime/internal/config"
	"github.com/felixgeelhaar/legaltime/internal/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit LegalTime configuration",
	Long: `Manage the client configuration stored at ~/.legaltime/config.yaml
(or $LEGALTIME_HOME/config.yaml).

Environment variables (LEGALTIME_API_URL, LEGALTIME_TIMEOUT,
LEGALTIME_LOG_LEVEL, LEGALTIME_TOKEN_PASSPHRASE, ...) override the file,
and flags such as --api-url override both.

Examples:
  # View the effective configuration
  legaltime config view

  # Get a specific value
  legaltime config get api.url

  # Set a specific value
  legaltime config set api.url https://legaltime.example.com

  # Show configuration file path
  legaltime config path
`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display current configuration",
	Long:  `Display the effective configuration: file, environment and flags combined.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Get a specific configuration value",
	Long:      `Retrieve the value of a configuration key using dot notation (e.g., api.url).`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys(),
	RunE:      runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific configuration value",
	Long: `Set the value of a configuration key using dot notation and save it to
the configuration file. Environment overrides are not written.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

// configView is the text rendering of a configuration.
type configView struct {
	*config.Config
}

func (v configView) String() string {
	data, err := yaml.Marshal(v.Config)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	cfg, err := cc.Config()
	if err != nil {
		return err
	}
	if cc.Text() {
		return cc.Output(configView{cfg})
	}
	return cc.Output(cfg)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	cfg, err := cc.Config()
	if err != nil {
		return err
	}

	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	// Only the file is edited so environment overrides are never persisted.
	cfg, err := config.LoadFile(cc.Home)
	if err != nil {
		return err
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := config.Save(cc.Home, cfg); err != nil {
		return err
	}

	if cc.Format == "" || cc.Format == "text" {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
		return err
	}
	value, _ := cfg.Get(args[0])
	return cc.Output(map[string]string{"key": args[0], "value": value})
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	path := config.Path(cc.Home)
	exists := "missing, defaults in use"
	if _, err := os.Stat(path); err == nil {
		exists = "exists"
	}

	if !cc.Text() {
		return cc.Output(map[string]string{"path": path, "home": cc.Home, "status": exists})
	}
	return cc.Output(ux.Fields{
		{Key: "Path", Value: path},
		{Key: "Home", Value: cc.Home},
		{Key: "Status", Value: exists},
	})
}
