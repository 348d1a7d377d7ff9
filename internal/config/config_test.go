package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SENSORWATCH_CONFIG", "")
	t.Setenv("STORAGE_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.URL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.Guard.Enforce)
	assert.Equal(t, "cached", cfg.Guard.RoleSource)
	assert.Equal(t, "file", cfg.Storage.CredentialsBackend)
	assert.Equal(t, "@every 1m", cfg.Watch.Schedule)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Web.CORSOrigins)
	assert.Equal(t, 1000, cfg.Web.MaxIdleClients)
	assert.Equal(t, 30*time.Minute, cfg.Web.ClientIdleTTL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sensorwatch.yaml")
	content := "API_URL: \"http://file.example:9000/\"\nGUARD_ENFORCE: \"false\"\nLOG_LEVEL: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("SENSORWATCH_CONFIG", path)
	t.Setenv("STORAGE_DIR", dir)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://file.example:9000", cfg.API.URL)
	assert.False(t, cfg.Guard.Enforce)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_InvalidRoleSource(t *testing.T) {
	t.Setenv("SENSORWATCH_CONFIG", "")
	t.Setenv("STORAGE_DIR", t.TempDir())
	t.Setenv("ROLE_SOURCE", "jwt")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ROLE_SOURCE")
}

func TestLoad_InvalidMaxIdleClients(t *testing.T) {
	t.Setenv("SENSORWATCH_CONFIG", "")
	t.Setenv("STORAGE_DIR", t.TempDir())
	t.Setenv("WEB_MAX_IDLE_CLIENTS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid WEB_MAX_IDLE_CLIENTS")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("SENSORWATCH_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
