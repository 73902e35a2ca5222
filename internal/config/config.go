// Package config loads the optional checksec configuration file.
//
// The file is TOML. Unknown keys are rejected. Keys absent from the file keep
// their defaults, and command-line flags override both.
//
//	format    = "text"   # text, json, yaml or table
//	color     = "auto"   # auto, always or never
//	workers   = 8
//	log_level = "warn"   # debug, info, warn or error
//	log_file  = "/var/log/checksec.json"
//	strict    = false
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/3akur6/checksec/internal/logging"
	"github.com/3akur6/checksec/internal/report"
	"github.com/3akur6/checksec/internal/terminal"
)

// Error definitions for the config package
var (
	// ErrInvalidConfig is returned when the file cannot be parsed or fails validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidWorkers is returned for a worker count below one.
	ErrInvalidWorkers = errors.New("workers must be at least 1")
)

// Config is the effective configuration.
type Config struct {
	Format   string `toml:"format"`
	Color    string `toml:"color"`
	Workers  int    `toml:"workers"`
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
	Strict   bool   `toml:"strict"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Format:   report.FormatText.String(),
		Color:    terminal.ColorAuto.String(),
		Workers:  runtime.NumCPU(),
		LogLevel: "warn",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/checksec/config.toml, falling back to
// ~/.config/checksec/config.toml. It returns "" when neither can be determined.
func DefaultPath(lookupEnv func(string) (string, bool)) string {
	if dir, ok := lookupEnv("XDG_CONFIG_HOME"); ok && filepath.IsAbs(dir) {
		return filepath.Join(dir, "checksec", "config.toml")
	}
	if home, ok := lookupEnv("HOME"); ok && home != "" {
		return filepath.Join(home, ".config", "checksec", "config.toml")
	}
	return ""
}

// Load reads the configuration at path. An empty path means DefaultPath, and
// a missing file at the default path yields Default(). A missing file at an
// explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath(os.LookupEnv)
		if path == "" {
			return Default(), nil
		}
	}

	// #nosec G304 - the config path comes from the user or their XDG directory
	content, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes content over Default() and validates the result.
func Parse(content []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return nil, fmt.Errorf("%w: unknown keys:\n%s", ErrInvalidConfig, strictErr.String())
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := terminal.ParseColorMode(c.Color); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidConfig, ErrInvalidWorkers, c.Workers)
	}
	return nil
}
