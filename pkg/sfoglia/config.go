package sfoglia

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the TOML-backed navigator configuration. Hosts that keep
// navigation settings in a file load one of these and apply it to their
// Options.
type Config struct {
	InitialRoute string           `toml:"initial_route"`
	Transition   TransitionConfig `toml:"transition"`
	Log          LogConfig        `toml:"log"`
}

// TransitionConfig configures the default route transition timing.
type TransitionConfig struct {
	DurationMS int `toml:"duration_ms"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		InitialRoute: DefaultRouteName,
		Transition:   TransitionConfig{DurationMS: 250},
		Log:          LogConfig{Level: "info"},
	}
}

// LoadConfig reads a TOML configuration file. Fields not present keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, &ConfigError{Op: "loadConfig", Err: err}
	}
	return cfg, nil
}

// TransitionDuration returns the configured default transition duration.
func (c Config) TransitionDuration() time.Duration {
	return time.Duration(c.Transition.DurationMS) * time.Millisecond
}

// ApplyTo copies the configuration onto opts, leaving factory and
// observer fields untouched.
func (c Config) ApplyTo(opts *Options) {
	opts.InitialRoute = c.InitialRoute
	opts.LogPath = c.Log.Path
	opts.LogLevel = c.Log.Level
}
