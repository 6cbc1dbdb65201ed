// Package config provides configuration loading for crate-digest.
//
// Configuration lives in a single TOML file, by default
// ~/.config/crate-digest/config.toml, and can be pointed elsewhere with
// --config.
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Environment variables (CRATE_DIGEST_*)
//  2. Config file
//  3. Built-in defaults
//
// The top-level keys readme and toml are accepted for compatibility with
// older config files. They are OR-ed with include.readme and include.manifest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName names the config directory under ~/.config.
const AppName = "crate-digest"

// Config represents the complete crate-digest configuration.
type Config struct {
	Readme    bool            `toml:"readme" mapstructure:"readme"` // legacy alias of include.readme
	Toml      bool            `toml:"toml" mapstructure:"toml"`     // legacy alias of include.manifest
	Include   IncludeConfig   `toml:"include" mapstructure:"include"`
	Paths     PathsConfig     `toml:"paths" mapstructure:"paths"`
	Selection SelectionConfig `toml:"selection" mapstructure:"selection"`
	Log       LogConfig       `toml:"log" mapstructure:"log"`
}

// IncludeConfig toggles the non-Rust files added to a digest.
type IncludeConfig struct {
	Readme   bool `toml:"readme" mapstructure:"readme"`     // README.md
	Manifest bool `toml:"manifest" mapstructure:"manifest"` // Cargo.toml
}

// PathsConfig defines which files discovery skips.
type PathsConfig struct {
	Ignore []string `toml:"ignore" mapstructure:"ignore"` // glob patterns relative to the crate root
}

// SelectionConfig controls how picked callables are remembered and matched.
type SelectionConfig struct {
	Match       string `toml:"match" mapstructure:"match"`               // "qualified" or "bare"
	HistoryFile string `toml:"history_file" mapstructure:"history_file"` // empty means ~/.config/crate-digest/history.json
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`             // debug, info, warn, error
	Filename   string `toml:"filename" mapstructure:"filename"`       // empty means ~/.config/crate-digest/crate-digest.log
	MaxSize    int    `toml:"max_size" mapstructure:"max_size"`       // megabytes
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `toml:"max_age" mapstructure:"max_age"`         // days
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Include: IncludeConfig{
			Readme:   false,
			Manifest: false,
		},
		Paths: PathsConfig{
			Ignore: []string{},
		},
		Selection: SelectionConfig{
			Match:       "qualified",
			HistoryFile: "", // Empty means use default ~/.config/crate-digest/history.json
		},
		Log: LogConfig{
			Level:      "info",
			Filename:   "", // Empty means use default ~/.config/crate-digest/crate-digest.log
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   false,
		},
	}
}

// IncludeReadme reports whether README.md belongs in the digest.
func (c *Config) IncludeReadme() bool {
	return c.Readme || c.Include.Readme
}

// IncludeManifest reports whether Cargo.toml belongs in the digest.
func (c *Config) IncludeManifest() bool {
	return c.Toml || c.Include.Manifest
}

// Dir returns ~/.config/crate-digest.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns ~/.config/crate-digest/config.toml.
func DefaultConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryPath resolves the selection history file, falling back to the
// default location when none is configured.
func (c *Config) HistoryPath() (string, error) {
	if c.Selection.HistoryFile != "" {
		return c.Selection.HistoryFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.json"), nil
}

// LogPath resolves the log file, falling back to the default location.
func (c *Config) LogPath() (string, error) {
	if c.Log.Filename != "" {
		return c.Log.Filename, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+".log"), nil
}
