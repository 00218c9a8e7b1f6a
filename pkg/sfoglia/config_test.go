package sfoglia

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sfoglia.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
initial_route = "/home/settings"

[transition]
duration_ms = 120

[log]
path = "/tmp/sfoglia.log"
level = "debug"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/home/settings", cfg.InitialRoute)
	assert.Equal(t, 120*time.Millisecond, cfg.TransitionDuration())
	assert.Equal(t, "/tmp/sfoglia.log", cfg.Log.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sfoglia.toml")
	require.NoError(t, os.WriteFile(path, []byte(`initial_route = "/a"`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/a", cfg.InitialRoute)
	assert.Equal(t, DefaultConfig().TransitionDuration(), cfg.TransitionDuration())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestConfigApplyTo(t *testing.T) {
	cfg := Config{
		InitialRoute: "/x",
		Log:          LogConfig{Path: "/tmp/x.log", Level: "warn"},
	}

	opts := Options{OnGenerateRoute: func(settings RouteSettings) Route { return nil }}
	cfg.ApplyTo(&opts)

	assert.Equal(t, "/x", opts.InitialRoute)
	assert.Equal(t, "/tmp/x.log", opts.LogPath)
	assert.Equal(t, "warn", opts.LogLevel)
	assert.NotNil(t, opts.OnGenerateRoute, "factories must be untouched")
}
