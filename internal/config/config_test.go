package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8000", cfg.API.URL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, []int{401, 403}, cfg.API.ForceLogoutStatuses)
	assert.True(t, cfg.Session.Persist)
}

func TestResolveHome(t *testing.T) {
	got, err := ResolveHome("/explicit")
	require.NoError(t, err)
	assert.Equal(t, "/explicit", got)

	t.Setenv(HomeEnv, "/from-env")
	got, err = ResolveHome("")
	require.NoError(t, err)
	assert.Equal(t, "/from-env", got)

	t.Setenv(HomeEnv, "")
	got, err = ResolveHome("")
	require.NoError(t, err)
	assert.Equal(t, DefaultHomeDir, filepath.Base(got))
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	home := filepath.Join(t.TempDir(), "lt")
	cfg := Default()
	cfg.API.URL = "https://legaltime.example.com"
	cfg.API.Timeout = 5 * time.Second
	cfg.Session.Passphrase = "must-not-be-written"
	require.NoError(t, Save(home, cfg))

	data, err := os.ReadFile(Path(home))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "must-not-be-written")
	assert.Contains(t, string(data), "timeout: 5s")

	loaded, err := LoadFile(home)
	require.NoError(t, err)
	assert.Equal(t, "https://legaltime.example.com", loaded.API.URL)
	assert.Equal(t, 5*time.Second, loaded.API.Timeout)
	assert.Empty(t, loaded.Session.Passphrase)
}

func TestLoadFile_Invalid(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(Path(home), []byte("api: [unclosed"), 0600))

	_, err := LoadFile(home)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeConfigInvalid))
}

func TestLoad_EnvOverrides(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, Save(home, Default()))

	t.Setenv("LEGALTIME_API_URL", "http://api.internal:9000")
	t.Setenv("LEGALTIME_TIMEOUT", "2m")
	t.Setenv("LEGALTIME_LOG_LEVEL", "debug")
	t.Setenv("LEGALTIME_TOKEN_PASSPHRASE", "pw")
	t.Setenv("LEGALTIME_FORCE_LOGOUT_STATUSES", "401")

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal:9000", cfg.API.URL)
	assert.Equal(t, 2*time.Minute, cfg.API.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "pw", cfg.Session.Passphrase)
	assert.Equal(t, []int{401}, cfg.API.ForceLogoutStatuses)
	assert.Equal(t, "text", cfg.Output.Format, "unset variables keep file values")
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("LEGALTIME_TIMEOUT", "soon")
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeConfigInvalid))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.API.URL = "localhost" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"non 4xx status", func(c *Config) { c.API.ForceLogoutStatuses = []int{500} }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("api.url", "https://lt.example.com/"))
	v, err := cfg.Get("api.url")
	require.NoError(t, err)
	assert.Equal(t, "https://lt.example.com", v)

	require.NoError(t, cfg.Set("api.force_logout_statuses", "401, 419"))
	v, _ = cfg.Get("api.force_logout_statuses")
	assert.Equal(t, "401,419", v)

	require.NoError(t, cfg.Set("session.persist", "false"))
	assert.False(t, cfg.Session.Persist)

	require.NoError(t, cfg.Set("api.timeout", "10s"))
	v, _ = cfg.Get("api.timeout")
	assert.Equal(t, "10s", v)

	assert.Error(t, cfg.Set("api.timeout", "ten"))
	assert.Error(t, cfg.Set("output.format", "xml"))

	_, err = cfg.Get("providers.default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.url")

	assert.Contains(t, Keys(), "logging.level")
}
