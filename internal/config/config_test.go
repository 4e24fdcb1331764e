package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	if _, statErr := os.Stat(filepath.Join(mustConfigDir(t), "config.yaml")); statErr == nil {
		t.Skip("user config present; defaults not observable")
	}

	assert.Equal(t, "dprun.exe", cfg.DPRun.Executable)
	assert.Equal(t, "wine", cfg.DPRun.Shim)
	assert.Nil(t, cfg.DPRun.UseShim)
	assert.Empty(t, cfg.DPRun.Dir)
	assert.Equal(t, "127.0.0.1", cfg.Callback.Host)
	assert.Equal(t, 2197, cfg.Callback.Port)
	assert.Equal(t, "TCPIP", cfg.Defaults.Provider)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Encoding)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dplaunch.yaml")
	content := `
dprun:
  executable: /opt/dprun/dprun.exe
  use_shim: false
  dir: ~/games/dprun
callback:
  port: 47624
defaults:
  player_name: Alice
logging:
  level: debug
  development: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	home, err := homedir.Dir()
	require.NoError(t, err)

	assert.Equal(t, "/opt/dprun/dprun.exe", cfg.DPRun.Executable)
	assert.Equal(t, "wine", cfg.DPRun.Shim)
	require.NotNil(t, cfg.DPRun.UseShim)
	assert.False(t, cfg.DPRun.ShouldUseShim())
	assert.Equal(t, filepath.Join(home, "games/dprun"), cfg.DPRun.Dir)
	assert.Equal(t, "127.0.0.1", cfg.Callback.Host)
	assert.Equal(t, 47624, cfg.Callback.Port)
	assert.Equal(t, "Alice", cfg.Defaults.PlayerName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadFileMissing(t *testing.T) {
	// An explicit --config file must exist
	_, err := LoadFile(filepath.Join(t.TempDir(), "config.yaml"))
	assert.Error(t, err)
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dprun: [unclosed"), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestShouldUseShim(t *testing.T) {
	// Default (nil) depends on the platform
	d := &DPRun{}
	assert.Equal(t, runtime.GOOS != "windows", d.ShouldUseShim())

	// Explicitly true
	trueVal := true
	d = &DPRun{UseShim: &trueVal}
	assert.True(t, d.ShouldUseShim())

	// Explicitly false
	falseVal := false
	d = &DPRun{UseShim: &falseVal}
	assert.False(t, d.ShouldUseShim())
}

func TestConfigDir(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)

	configDir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".dplaunch"), configDir)
}

func mustConfigDir(t *testing.T) string {
	t.Helper()
	dir, err := ConfigDir()
	require.NoError(t, err)
	return dir
}
