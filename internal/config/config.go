// Package config provides the YAML settings file for qtmeta: mirror
// selection, HTTP timeouts, tool blacklists, and bulk-enumeration limits.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for settings validation. An empty base URL is not an
// error; the fetch layer fills in the default mirror.
var (
	ErrBadConcurrency = errors.New("concurrency must be at least 1")
	ErrBadTimeout     = errors.New("timeout must be a positive duration")
)

// Defaults applied when the settings file omits a field.
const (
	DefaultTimeout     = "30s"
	DefaultConcurrency = 4
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// Blacklist holds the tool-name patterns excluded from listings.
type Blacklist struct {
	Prefixes []string `yaml:"prefixes"`
	Suffixes []string `yaml:"suffixes"`
}

// Settings is the top-level configuration structure.
type Settings struct {
	BaseURL     string    `yaml:"base_url"`
	FallbackURL string    `yaml:"fallback_url"`
	Timeout     string    `yaml:"timeout"`
	Concurrency int       `yaml:"concurrency"`
	Blacklist   Blacklist `yaml:"blacklist"`
	LogLevel    string    `yaml:"log_level"`
	LogFormat   string    `yaml:"log_format"`
}

// Default returns the stock settings.
func Default() *Settings {
	return &Settings{
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		Blacklist: Blacklist{
			Prefixes: []string{"tools_qt3dstudio_"},
			Suffixes: []string{"_preview", "_early_access"},
		},
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Load reads a settings file, filling omitted fields with defaults. A
// missing file yields the defaults without error.
func Load(path string) (*Settings, error) {
	settings := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks the loaded settings.
func (s *Settings) Validate() error {
	if s.Concurrency < 1 {
		return ErrBadConcurrency
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil || d <= 0 {
			return ErrBadTimeout
		}
	}
	return nil
}

// GetTimeout parses the configured timeout, falling back to the default on
// absent or unparsable values.
func (s *Settings) GetTimeout() time.Duration {
	if s.Timeout == "" {
		return mustDuration(DefaultTimeout)
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return mustDuration(DefaultTimeout)
	}
	return d
}

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
