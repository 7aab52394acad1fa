// Package config loads the application settings file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	appName          = "gym_timer"
	settingsFileName = "config.yaml"
)

// Config contains every runtime setting.
type Config struct {
	Database string  `yaml:"database"`
	LogLevel string  `yaml:"log_level"`
	LogFile  string  `yaml:"log_file"`
	Timer    Timer   `yaml:"timer"`
	Circuit  Circuit `yaml:"circuit"`
	Alert    Alert   `yaml:"alert"`
	Auth     Auth    `yaml:"auth"`
}

// Timer controls the engine. Disabling it simulates an environment where
// no engine is reachable.
type Timer struct {
	Enabled      bool          `yaml:"enabled"`
	TickInterval time.Duration `yaml:"tick_interval"`
}

// Circuit holds fallback phase lengths.
type Circuit struct {
	WorkSeconds int `yaml:"work_seconds"`
	RestSeconds int `yaml:"rest_seconds"`
}

type Alert struct {
	Bell bool `yaml:"bell"`
}

type Auth struct {
	SignedIn bool `yaml:"signed_in"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		Database: "gym_timer.db",
		LogLevel: "info",
		Timer:    Timer{Enabled: true, TickInterval: time.Second},
		Circuit:  Circuit{WorkSeconds: 30, RestSeconds: 20},
		Alert:    Alert{Bell: true},
		Auth:     Auth{SignedIn: true},
	}
}

// DefaultPath resolves the settings file under the user config dir.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// Load reads settings from path on fs. A missing file yields defaults.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()

	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read settings file: %w", err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Default(), fmt.Errorf("parse settings yaml: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes settings to path on fs.
func Save(fs afero.Fs, path string, cfg Config) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	serialized, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}
	if err := afero.WriteFile(fs, path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	defaults := Default()
	if cfg.Database == "" {
		cfg.Database = defaults.Database
	}
	if cfg.Timer.TickInterval <= 0 {
		cfg.Timer.TickInterval = defaults.Timer.TickInterval
	}
	if cfg.Circuit.WorkSeconds <= 0 {
		cfg.Circuit.WorkSeconds = defaults.Circuit.WorkSeconds
	}
	if cfg.Circuit.RestSeconds <= 0 {
		cfg.Circuit.RestSeconds = defaults.Circuit.RestSeconds
	}
}

// Level parses LogLevel, defaulting to info.
func (cfg Config) Level() slog.Level {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
