package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"API_BASE_URL", "API_TIMEOUT", "TRACKER_QUEUE_SIZE", "TRACKER_RATE", "BUFFER_ENABLED",
	"SYNC_INTERVAL_SECONDS", "ANALYTICS_REFRESH_INTERVAL", "TASKPULSE_TOKEN", "SESSION_ID",
	"REDIS_URL", "LOG_LEVEL", "DEVSERVER_PORT",
}

// clearEnv unsets the keys for the test and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 256, cfg.Tracker.QueueSize)
	assert.InDelta(t, 20.0, cfg.Tracker.Rate, 0.0001)
	assert.False(t, cfg.Buffer.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Buffer.SyncInterval)
	assert.Equal(t, 5*time.Minute, cfg.Analytics.RefreshInterval)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Empty(t, cfg.Session.Token)
	assert.Equal(t, "127.0.0.1:5000", cfg.DevServerAddress())
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "https://tasks.example.com/api/")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("SYNC_INTERVAL_SECONDS", "45")
	t.Setenv("BUFFER_ENABLED", "true")
	t.Setenv("TRACKER_RATE", "not-a-number")
	t.Setenv("TASKPULSE_TOKEN", "static-token")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://tasks.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 45*time.Second, cfg.Buffer.SyncInterval)
	assert.True(t, cfg.Buffer.Enabled)
	assert.InDelta(t, 20.0, cfg.Tracker.Rate, 0.0001)
	assert.Equal(t, "static-token", cfg.Session.Token)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "client.env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nDEVSERVER_PORT=6000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "127.0.0.1:6000", cfg.DevServerAddress())
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "localhost/api")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("API_BASE_URL", "http://localhost:5000/api")
	t.Setenv("TRACKER_QUEUE_SIZE", "0")
	_, err = Load()
	assert.Error(t, err)
}
