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
	chdir(t, t.TempDir())

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", c.App.Port)
	assert.Equal(t, "桃園市", c.Address.CityPrefix)
	assert.Equal(t, 20*time.Second, c.Oracle.Timeout)
	assert.Equal(t, 1, c.Oracle.PoolSize)
	assert.Equal(t, "#FreeText_ADDR", c.Oracle.InputSelector)
	assert.True(t, c.Cache.Enabled)
	assert.False(t, c.IsProduction())

	chrome := c.Chrome()
	assert.Equal(t, c.Oracle.URL, chrome.URL)
	assert.Equal(t, "x-panel-bwrap", chrome.PanelIdleClass)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	yaml := "app:\n  env: production\noracle:\n  timeout: 5s\n  pool_size: 2\ncache:\n  redis_url: redis://localhost:6379/0\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("ORACLE_POOL_SIZE", "4")

	c, err := Load(path)
	require.NoError(t, err)

	assert.True(t, c.IsProduction())
	assert.Equal(t, 5*time.Second, c.Oracle.Timeout)
	assert.Equal(t, 4, c.Oracle.PoolSize)
	assert.Equal(t, "redis://localhost:6379/0", c.Cache.RedisURL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	bad := *c
	bad.Oracle.PoolSize = 0
	assert.Error(t, bad.Validate())

	bad = *c
	bad.Oracle.Timeout = 0
	assert.Error(t, bad.Validate())

	bad = *c
	bad.Oracle.PollInterval = 0
	assert.Error(t, bad.Validate())

	bad = *c
	bad.Oracle.PollInterval = -time.Second
	assert.Error(t, bad.Validate())

	bad = *c
	bad.Jobs.MaxAddresses = 0
	assert.Error(t, bad.Validate())
}

func TestLoad_RejectsZeroPollInterval(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ORACLE_POLL_INTERVAL", "0s")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}
