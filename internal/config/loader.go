package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".pkgstats"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .pkgstats configuration file.
// Every field is optional; unset fields keep their built-in defaults, and
// CLI flags given explicitly always win over file values.
type File struct {
	// Mirror overrides the default package mirror base URL.
	Mirror string `yaml:"mirror,omitempty"`

	// Suite overrides the default distribution suite.
	Suite string `yaml:"suite,omitempty"`

	// Component overrides the default archive component.
	Component string `yaml:"component,omitempty"`

	// Top overrides the default result size.
	Top int `yaml:"top,omitempty"`

	// Timeout overrides the default download timeout, in Go duration
	// syntax (e.g. "2m", "90s"). Invalid values are reported at load time.
	Timeout string `yaml:"timeout,omitempty"`

	// Workers overrides the default counting worker count.
	Workers int `yaml:"workers,omitempty"`

	// Keep retains downloaded Contents files after the run.
	Keep bool `yaml:"keep,omitempty"`
}

// LoadConfigFile loads run defaults from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers decide
// how to treat that based on whether the path was explicitly specified.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	// Fail at load time, not mid-run, when the duration cannot be parsed.
	if cf.Timeout != "" {
		if _, err := time.ParseDuration(cf.Timeout); err != nil {
			return nil, fmt.Errorf("invalid timeout in %s: %w", path, err)
		}
	}

	return &cf, nil
}

// Apply copies the file's non-zero values onto cfg.
// It is called before flag values are applied, so explicit flags override
// the file and the file overrides built-in defaults.
func (cf *File) Apply(cfg *Config) {
	if cf.Mirror != "" {
		cfg.Mirror = cf.Mirror
	}
	if cf.Suite != "" {
		cfg.Suite = cf.Suite
	}
	if cf.Component != "" {
		cfg.Component = cf.Component
	}
	if cf.Top > 0 {
		cfg.TopN = cf.Top
	}
	if cf.Timeout != "" {
		// Validated by LoadConfigFile; a parse failure here means Apply was
		// called with a hand-built File, in which case the zero value stands.
		if d, err := time.ParseDuration(cf.Timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if cf.Workers > 0 {
		cfg.Workers = cf.Workers
	}
	if cf.Keep {
		cfg.Keep = true
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .pkgstats in the current directory
// 3. Look for .pkgstats in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
