package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	path string
}

// NewLoader creates a loader for the config file at path. An empty path
// means DefaultConfigPath.
func NewLoader(path string) Loader {
	return &loader{
		path: path,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CRATE_DIGEST_*)
// 2. Config file (TOML)
// 3. Default values
//
// A missing config file is not an error.
func (l *loader) Load() (*Config, error) {
	path := l.path
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	// Configure viper
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	// Enable environment variable overrides
	v.SetEnvPrefix("CRATE_DIGEST")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., CRATE_DIGEST_SELECTION_MATCH)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys
	v.BindEnv("readme")
	v.BindEnv("toml")
	v.BindEnv("include.readme")
	v.BindEnv("include.manifest")
	v.BindEnv("selection.match")
	v.BindEnv("selection.history_file")
	v.BindEnv("log.level")
	v.BindEnv("log.filename")

	// Set defaults in viper
	setDefaults(v)

	// SetConfigFile bypasses viper's search, so a missing file surfaces as
	// a plain stat error rather than ConfigFileNotFoundError.
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	// Unmarshal into config struct
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate the configuration
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	// Legacy top-level switches
	v.SetDefault("readme", defaults.Readme)
	v.SetDefault("toml", defaults.Toml)

	// Include defaults
	v.SetDefault("include.readme", defaults.Include.Readme)
	v.SetDefault("include.manifest", defaults.Include.Manifest)

	// Paths defaults
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	// Selection defaults
	v.SetDefault("selection.match", defaults.Selection.Match)
	v.SetDefault("selection.history_file", defaults.Selection.HistoryFile)

	// Log defaults
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.filename", defaults.Log.Filename)
	v.SetDefault("log.max_size", defaults.Log.MaxSize)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age", defaults.Log.MaxAge)
	v.SetDefault("log.compress", defaults.Log.Compress)
}

// LoadConfig is a convenience function that creates a loader and loads config.
func LoadConfig(path string) (*Config, error) {
	return NewLoader(path).Load()
}
