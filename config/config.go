// Package config provides configuration loading and management for the
// imasmap tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete imasmap configuration
type Config struct {
	DataDictionary DataDictionaryConfig `yaml:"data_dictionary"`
	Log            LogConfig            `yaml:"log"`
	Watch          WatchConfig          `yaml:"watch"`
}

// DataDictionaryConfig configures the Data Dictionary catalog
type DataDictionaryConfig struct {
	// Path is the directory holding per-version dictionary metadata
	// files ("<version>.yaml")
	Path string `yaml:"path"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `yaml:"level"`
}

// WatchConfig configures the watch command
type WatchConfig struct {
	// Debounce is how long to wait for more file changes before
	// revalidating
	Debounce time.Duration `yaml:"debounce"`
	// MetricsAddr is the listen address for the Prometheus endpoint
	// (empty = disabled)
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DataDictionary: DataDictionaryConfig{
			Path: os.Getenv("IMASMAP_DD_PATH"),
		},
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce:    200 * time.Millisecond,
			MetricsAddr: "",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.DataDictionary.Path != "" {
		c.DataDictionary.Path = other.DataDictionary.Path
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.MetricsAddr != "" {
		c.Watch.MetricsAddr = other.Watch.MetricsAddr
	}
}
