package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/legaltime/internal/app"
	"github.com/felixgeelhaar/legaltime/internal/config"
	"github.com/felixgeelhaar/legaltime/internal/ux"
)

// CommandContext holds the global flags of one invocation. Commands build
// it in RunE instead of reading package state, so tests can run commands
// back to back.
type CommandContext struct {
	// Output control
	Format  string
	NoColor bool
	Verbose bool

	// Configuration
	Home     string
	APIURL   string
	LogLevel string

	cmd *cobra.Command
	cfg *config.Config
}

// NewCommandContext extracts command context from cobra.Command flags.
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		cc, err := NewCommandContext(cmd)
//		if err != nil {
//			return err
//		}
//		a, err := cc.App(cmd.Context())
//		...
//	}
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	home, err := cmd.Flags().GetString("home")
	if err != nil {
		return nil, err
	}

	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return nil, err
	}

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	home, err = config.ResolveHome(home)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Format:   format,
		NoColor:  noColor,
		Verbose:  verbose,
		Home:     home,
		APIURL:   apiURL,
		LogLevel: logLevel,
		cmd:      cmd,
	}, nil
}

// Config loads the configuration once and applies flag overrides.
func (c *CommandContext) Config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	cfg, err := config.Load(c.Home)
	if err != nil {
		return nil, err
	}
	if c.APIURL != "" {
		if err := cfg.Set("api.url", c.APIURL); err != nil {
			return nil, err
		}
	}
	switch {
	case c.LogLevel != "":
		if err := cfg.Set("logging.level", c.LogLevel); err != nil {
			return nil, err
		}
	case c.Verbose:
		cfg.Logging.Level = "debug"
	}
	if c.Format == "" {
		c.Format = cfg.Output.Format
	}
	c.NoColor = c.NoColor || cfg.Output.NoColor

	c.cfg = cfg
	return cfg, nil
}

// App builds the application and hydrates the session from the token
// store. The caller closes it.
func (c *CommandContext) App(ctx context.Context) (*app.App, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, c.Home)
	if err != nil {
		return nil, err
	}
	a.Boot(ctx)
	return a, nil
}

// Output writes v to the command's output in the selected format.
func (c *CommandContext) Output(v interface{}) error {
	f, err := ux.NewFormatter(c.Format, &ux.FormatterOptions{
		Writer:  c.cmd.OutOrStdout(),
		NoColor: c.NoColor,
	})
	if err != nil {
		return err
	}
	return f.Format(v)
}

// Text reports whether the output is meant for a person.
func (c *CommandContext) Text() bool {
	return c.Format == "" || c.Format == "text"
}

// open builds the command context and the booted app in one step.
func open(cmd *cobra.Command) (*CommandContext, *app.App, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, err
	}
	a, err := cc.App(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return cc, a, nil
}
