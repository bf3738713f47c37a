package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Challenge.MaxAttempts)
	assert.Equal(t, Range{Min: 15 * time.Second, Max: 20 * time.Second}, cfg.Pacing.Challenge)
	assert.Equal(t, Range{Min: 2 * time.Second, Max: 6 * time.Second}, cfg.Pacing.Ordinary)
	assert.Equal(t, "var/malt", cfg.Workspace.Root)
	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, "fr-FR,fr;q=0.9,en;q=0.8", cfg.Browser.AcceptLanguage)
}

func TestLoadConfig_YAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_MALT_DB", "postgres://malt@localhost/malt")

	path := writeConfig(t, `
database:
  url: ${TEST_MALT_DB}
redis:
  url: ${TEST_MALT_UNSET_REDIS}
pacing:
  challenge: {min: 1s, max: 2s}
challenge:
  max_attempts: 5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://malt@localhost/malt", cfg.Database.URL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, Range{Min: time.Second, Max: 2 * time.Second}, cfg.Pacing.Challenge)
	assert.Equal(t, 5, cfg.Challenge.MaxAttempts)
	// untouched sections keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Consent.SelectorTimeout)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MALT_HEADLESS", "false")
	t.Setenv("MALT_WORKSPACE", "/tmp/malt-ws")

	path := writeConfig(t, "server:\n  port: 8081\nbrowser:\n  headless: true\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "/tmp/malt-ws", cfg.Workspace.Root)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{
			name:    "inverted jitter",
			mutate:  func(c *Config) { c.Pacing.Ordinary = Range{Min: 6 * time.Second, Max: 2 * time.Second} },
			wantErr: true,
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Challenge.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "blank workspace",
			mutate:  func(c *Config) { c.Workspace.Root = "  " },
			wantErr: true,
		},
		{
			name:    "no sessions",
			mutate:  func(c *Config) { c.Browser.MaxSessions = 0 },
			wantErr: true,
		},
		{
			name:    "no workers",
			mutate:  func(c *Config) { c.Workers.Count = 0 },
			wantErr: true,
		},
		{
			name:    "no request timeout",
			mutate:  func(c *Config) { c.Server.RequestTimeout = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_MALT_HOST", "example.org")

	assert.Equal(t, "https://example.org/x", expandEnvVars("https://${TEST_MALT_HOST}/x"))
	assert.Equal(t, "example.org", expandEnvVars("$TEST_MALT_HOST"))
	assert.Equal(t, "$TEST_MALT_NOPE", expandEnvVars("$TEST_MALT_NOPE"))
	assert.Equal(t, "", expandEnvVars("${TEST_MALT_NOPE}"))
}
