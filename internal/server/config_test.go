package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigTOML = `
[server]
host = "127.0.0.1"
port = "9000"

[server.production]
host = "0.0.0.0"

[database]
host = "localhost"
user = "gym"
password = "secret"
name = "gym"

[auth]
access_token_secret = "test-access-secret"
refresh_token_secret = "test-refresh-secret"

[rate_limit]
auth_requests_per_minute = 5
`

func writeTestConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(testConfigTOML), 0o600))
	t.Setenv("CONFIG_PATH", dir)
}

func TestLoadConfig(t *testing.T) {
	writeTestConfig(t)
	t.Setenv("APP_ENV", EnvTesting)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "test-access-secret", cfg.Auth.AccessTokenSecret)
	assert.Equal(t, "test-refresh-secret", cfg.Auth.RefreshTokenSecret)

	// Defaults fill in everything the file leaves out.
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 6, cfg.OTP.CodeLength)
	assert.Equal(t, 10, cfg.AccessCode.DefaultBatchSize)
	assert.Equal(t, 3, cfg.AccessCode.AttemptMultiplier)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)

	// The file overrides a default.
	assert.Equal(t, 5, cfg.RateLimit.AuthRequestsPerMinute)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	writeTestConfig(t)
	t.Setenv("APP_ENV", EnvProduction)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir())
	t.Setenv("APP_ENV", EnvTesting)

	_, err := LoadConfig()
	assert.Error(t, err)
}
