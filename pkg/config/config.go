// Package config loads runtime configuration for the synthmob server.
//
// Configuration is resolved in three layers, each overriding the previous:
//
//  1. Built-in defaults (Default)
//  2. Optional YAML file named by CONFIG_FILE (merged with mergo)
//  3. Environment variables (PORT, RESET_ADMIN_KEY, *_MS duration knobs)
//
// The *_MS knobs exist so tests and staging can accelerate the ritual and
// wayfinding clocks without a config file.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Config is the complete runtime configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Ritual     RitualConfig     `yaml:"ritual"`
	Wayfinding WayfindingConfig `yaml:"wayfinding"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig contains HTTP transport settings.
type ServerConfig struct {
	// Port is the TCP port the HTTP server listens on.
	Port int `yaml:"port"`

	// ResetAdminKey authorizes POST /admin/reset. Empty disables the endpoint.
	ResetAdminKey string `yaml:"reset_admin_key"`

	// HeartbeatInterval is the SSE comment-heartbeat period.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RitualConfig contains the world-parameter voting cycle timings.
type RitualConfig struct {
	// Interval is the time between ritual starts, measured from the
	// moment the previous cycle returns to idle.
	Interval time.Duration `yaml:"interval"`

	// NominateDuration is how long the nominate phase accepts submissions.
	NominateDuration time.Duration `yaml:"nominate_duration"`

	// VoteDuration is how long the vote phase accepts votes.
	VoteDuration time.Duration `yaml:"vote_duration"`

	// ResultDisplay is how long the result phase lingers before idle.
	ResultDisplay time.Duration `yaml:"result_display"`
}

// WayfindingConfig contains movement engine settings.
type WayfindingConfig struct {
	// TickInterval is the movement finalization tick period.
	TickInterval time.Duration `yaml:"tick_interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              3001,
			HeartbeatInterval: 30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Ritual: RitualConfig{
			Interval:         10 * time.Minute,
			NominateDuration: 90 * time.Second,
			VoteDuration:     60 * time.Second,
			ResultDisplay:    30 * time.Second,
		},
		Wayfinding: WayfindingConfig{
			TickInterval: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LogLevel maps the configured level string to a slog.Level.
// Unknown values fall back to Info.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// validate rejects configurations the server cannot run with.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidValue, c.Server.Port)
	}
	for _, d := range []struct {
		name string
		val  time.Duration
	}{
		{"ritual interval", c.Ritual.Interval},
		{"nominate duration", c.Ritual.NominateDuration},
		{"vote duration", c.Ritual.VoteDuration},
		{"result display", c.Ritual.ResultDisplay},
		{"wayfinding tick interval", c.Wayfinding.TickInterval},
	} {
		if d.val <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidValue, d.name, d.val)
		}
	}
	return nil
}

// envMillis reads an integer-milliseconds environment variable. Invalid
// values are logged and the fallback is kept so a typo cannot stall the
// ritual or movement clocks.
func envMillis(env envFunc, key string, fallback time.Duration) time.Duration {
	raw := env(key)
	if raw == "" {
		return fallback
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		slog.Warn("Invalid duration knob, using default",
			"key", key,
			"value", raw,
			"default", fallback)
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// envInt reads an integer environment variable with the same fallback policy.
func envInt(env envFunc, key string, fallback int) int {
	raw := env(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer knob, using default",
			"key", key,
			"value", raw,
			"default", fallback)
		return fallback
	}
	return n
}
