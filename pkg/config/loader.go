package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// envFunc abstracts os.Getenv so tests can inject environments without
// mutating the process.
type envFunc func(string) string

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Start from built-in defaults
//  2. Merge the optional YAML file named by CONFIG_FILE
//  3. Apply environment variable overrides
//  4. Validate the result
func Initialize() (*Config, error) {
	return initialize(os.Getenv)
}

func initialize(env envFunc) (*Config, error) {
	cfg := Default()

	if path := env("CONFIG_FILE"); path != "" {
		fileCfg, err := loadYAML(path)
		if err != nil {
			return nil, NewLoadError(path, err)
		}
		// Non-zero file values override defaults; unset fields keep them.
		if err := mergo.Merge(cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config file: %w", err)
		}
	}

	applyEnv(cfg, env)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	slog.Info("Configuration initialized",
		"port", cfg.Server.Port,
		"ritual_interval", cfg.Ritual.Interval,
		"wayfinding_tick", cfg.Wayfinding.TickInterval,
		"admin_reset_enabled", cfg.Server.ResetAdminKey != "")

	return cfg, nil
}

// applyEnv overlays environment variable knobs onto cfg.
func applyEnv(cfg *Config, env envFunc) {
	cfg.Server.Port = envInt(env, "PORT", cfg.Server.Port)
	if key := env("RESET_ADMIN_KEY"); key != "" {
		cfg.Server.ResetAdminKey = key
	}
	cfg.Ritual.Interval = envMillis(env, "RITUAL_INTERVAL_MS", cfg.Ritual.Interval)
	cfg.Ritual.NominateDuration = envMillis(env, "NOMINATE_DURATION_MS", cfg.Ritual.NominateDuration)
	cfg.Ritual.VoteDuration = envMillis(env, "VOTE_DURATION_MS", cfg.Ritual.VoteDuration)
	cfg.Ritual.ResultDisplay = envMillis(env, "RESULT_DISPLAY_MS", cfg.Ritual.ResultDisplay)
	cfg.Wayfinding.TickInterval = envMillis(env, "WAYFINDING_TICK_MS", cfg.Wayfinding.TickInterval)
	if lvl := env("LOG_LEVEL"); lvl != "" {
		cfg.Log.Level = lvl
	}
}

// loadYAML reads and parses a YAML config file, expanding {{.VAR}} template
// references against the environment first.
func loadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	data = expandEnv(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &cfg, nil
}

// expandEnv expands environment variables in YAML content using Go templates.
// Uses {{.VAR_NAME}} syntax to avoid collision with $ in literal values such
// as admin keys or color strings.
//
// Examples:
//   - {{.RESET_ADMIN_KEY}} → value of RESET_ADMIN_KEY
//   - reset_admin_key: "k$3y" → preserved literally ($ not touched)
//
// Missing variables expand to empty string; validation catches required
// fields left empty. Malformed templates pass the original bytes through so
// the YAML parser reports the clearer error.
func expandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	envMap := make(map[string]string)
	for _, env := range os.Environ() {
		// Split only on first = to handle values with = in them
		if idx := bytes.IndexByte([]byte(env), '='); idx > 0 {
			envMap[env[:idx]] = env[idx+1:]
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envMap); err != nil {
		return data
	}
	return buf.Bytes()
}
