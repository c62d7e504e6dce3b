package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
http:
  address: ":8080"
  allowed_origins: ["http://localhost:3000"]
identity:
  url: "https://id.example.com"
backend:
  base_url: "https://api.example.com"
redis:
  addr: "localhost:6379"
booking:
  poll_interval_seconds: 3
  poll_timeout_seconds: 600
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 600, cfg.Booking.PollTimeoutSeconds)
}

func TestLoadConfig_defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "http:\n  address: \":8080\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Booking.PollIntervalSeconds)
	assert.Equal(t, 900, cfg.Booking.PollTimeoutSeconds)
	assert.Equal(t, 30, cfg.Booking.SubmitLockSeconds)
}

func TestLoadConfig_envOverridesSecrets(t *testing.T) {
	t.Setenv("IDENTITY_API_KEY", "env-key")
	t.Setenv("PAYMENTS_SECRET_KEY", "sk-env")
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Identity.APIKey)
	assert.Equal(t, "sk-env", cfg.Payments.SecretKey)
	// Non-secret values from yaml stay put.
	assert.Equal(t, "https://id.example.com", cfg.Identity.URL)
}

func TestLoadConfig_missingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
