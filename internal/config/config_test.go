package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOOM_PATH", dir)

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, c.LoomPath())
	assert.Equal(t, filepath.Join(dir, "plugins"), c.PluginDir())
	level, err := c.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)
	assert.False(t, c.LogPretty())
	assert.Empty(t, c.ConfigFile())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOOM_PATH", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loom.yml"), []byte(
		"plugin_dir: /etc/loom/plugins\nlog_level: debug\nlog_pretty: true\n",
	), 0644))

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/etc/loom/plugins", c.PluginDir())
	level, err := c.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)
	assert.True(t, c.LogPretty())
	assert.Equal(t, filepath.Join(dir, "loom.yml"), c.ConfigFile())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOOM_PATH", dir)
	t.Setenv("LOOM_LOG_LEVEL", "warn")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loom.yml"), []byte("log_level: debug\n"), 0644))

	c, err := Load()
	require.NoError(t, err)
	level, err := c.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)
}

func TestLoadInvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOOM_PATH", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loom.yml"), []byte("log_level: [\n"), 0644))

	_, err := Load()
	assert.NotNil(t, err)
}
