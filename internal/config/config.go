// Package config loads LegalTime client settings from <home>/config.yaml
// and LEGALTIME_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

const (
	// EnvPrefix is prepended to every environment variable name.
	EnvPrefix = "LEGALTIME_"
	// HomeEnv overrides the home directory.
	HomeEnv = EnvPrefix + "HOME"
	// FileName is the config file inside the home directory.
	FileName = "config.yaml"
	// DefaultHomeDir is created under the user's home directory.
	DefaultHomeDir = ".legaltime"
)

// Config is the full client configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging"`
	Session SessionConfig `yaml:"session"`
	Output  OutputConfig  `yaml:"output"`
}

// APIConfig points the client at a backend.
type APIConfig struct {
	URL     string        `yaml:"url" env:"API_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// ForceLogoutStatuses are the statuses treated as a rejected session.
	ForceLogoutStatuses []int `yaml:"force_logout_statuses,flow" env:"FORCE_LOGOUT_STATUSES" envSeparator:","`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// SessionConfig controls token persistence.
type SessionConfig struct {
	// Persist keeps the token between runs. Disabled means every command
	// starts logged out unless a token is supplied.
	Persist bool `yaml:"persist" env:"PERSIST_TOKEN"`
	// Passphrase encrypts the stored token. Never written to the file.
	Passphrase string `yaml:"-" env:"TOKEN_PASSPHRASE"`
}

type OutputConfig struct {
	Format  string `yaml:"format" env:"FORMAT"`
	NoColor bool   `yaml:"no_color" env:"NO_COLOR"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:                 "http://localhost:8000",
			Timeout:             30 * time.Second,
			ForceLogoutStatuses: []int{401, 403},
		},
		Logging: LoggingConfig{Level: "warn", Format: "text"},
		Session: SessionConfig{Persist: true},
		Output:  OutputConfig{Format: "text"},
	}
}

// ResolveHome picks the home directory: the flag value, then
// LEGALTIME_HOME, then ~/.legaltime.
func ResolveHome(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(HomeEnv); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultHomeDir), nil
}

// Path returns the config file path under home.
func Path(home string) string {
	return filepath.Join(home, FileName)
}

// LoadFile reads the config file under home on top of the defaults. A
// missing file yields the defaults.
func LoadFile(home string) (*Config, error) {
	cfg := Default()
	path := Path(home)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read configuration", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigInvalidError(path, err)
	}
	return cfg, nil
}

// Load reads the config file and applies environment overrides.
func Load(home string) (*Config, error) {
	cfg, err := LoadFile(home)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any LEGALTIME_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "invalid environment configuration", err).
			WithSuggestion("Check the LEGALTIME_* environment variables")
	}
	return nil
}

// Save writes cfg to the config file under home.
func Save(home string, cfg *Config) error {
	if err := os.MkdirAll(home, 0700); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to create configuration directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to encode configuration", err)
	}

	if err := os.WriteFile(Path(home), data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write configuration", err)
	}
	return nil
}

// Validate checks values that would otherwise fail later and obscurely.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("api.url %q is not an absolute URL", c.API.URL)).
			WithSuggestion("Run 'legaltime config set api.url http://host:port'")
	}
	if c.API.Timeout <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "api.timeout must be positive")
	}
	for _, s := range c.API.ForceLogoutStatuses {
		if s < 400 || s > 499 {
			return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("api.force_logout_statuses: %d is not a 4xx status", s))
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("output.format %q is not one of text, json, yaml", c.Output.Format))
	}
	return nil
}

// Keys lists the settable keys in dot notation.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type accessor struct {
	get func(*Config) string
	set func(*Config, string) error
}

var accessors = map[string]accessor{
	"api.url": {
		get: func(c *Config) string { return c.API.URL },
		set: func(c *Config, v string) error { c.API.URL = strings.TrimRight(v, "/"); return nil },
	},
	"api.timeout": {
		get: func(c *Config) string { return c.API.Timeout.String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			c.API.Timeout = d
			return nil
		},
	},
	"api.force_logout_statuses": {
		get: func(c *Config) string {
			parts := make([]string, len(c.API.ForceLogoutStatuses))
			for i, s := range c.API.ForceLogoutStatuses {
				parts[i] = strconv.Itoa(s)
			}
			return strings.Join(parts, ",")
		},
		set: func(c *Config, v string) error {
			var statuses []int
			for _, part := range strings.Split(v, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				s, err := strconv.Atoi(part)
				if err != nil {
					return err
				}
				statuses = append(statuses, s)
			}
			c.API.ForceLogoutStatuses = statuses
			return nil
		},
	},
	"logging.level": {
		get: func(c *Config) string { return c.Logging.Level },
		set: func(c *Config, v string) error { c.Logging.Level = v; return nil },
	},
	"logging.format": {
		get: func(c *Config) string { return c.Logging.Format },
		set: func(c *Config, v string) error { c.Logging.Format = v; return nil },
	},
	"session.persist": {
		get: func(c *Config) string { return strconv.FormatBool(c.Session.Persist) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			c.Session.Persist = b
			return nil
		},
	},
	"output.format": {
		get: func(c *Config) string { return c.Output.Format },
		set: func(c *Config, v string) error { c.Output.Format = v; return nil },
	},
	"output.no_color": {
		get: func(c *Config) string { return strconv.FormatBool(c.Output.NoColor) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			c.Output.NoColor = b
			return nil
		},
	},
}

// Get returns the value at a dot-notation key.
func (c *Config) Get(key string) (string, error) {
	a, ok := accessors[key]
	if !ok {
		return "", unknownKey(key)
	}
	return a.get(c), nil
}

// Set parses value into the setting at key and revalidates.
func (c *Config) Set(key, value string) error {
	a, ok := accessors[key]
	if !ok {
		return unknownKey(key)
	}
	if err := a.set(c, value); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid value for %s", key), err)
	}
	return c.Validate()
}

func unknownKey(key string) error {
	return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion("Valid keys: " + strings.Join(Keys(), ", "))
}
