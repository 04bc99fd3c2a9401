// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvConfig is the environment variable naming the config file.
const EnvConfig = "FIXWRIGHT_CONFIG"

// ColorMode controls when diagnostic output is styled.
type ColorMode string

const (
	// ColorAuto styles output only when it goes to a terminal.
	ColorAuto ColorMode = "auto"
	// ColorAlways styles output unconditionally.
	ColorAlways ColorMode = "always"
	// ColorNever emits plain text.
	ColorNever ColorMode = "never"
)

// Config is the fixwright configuration.
type Config struct {
	// RunDir is the base directory under which each session creates
	// its private runtime directory holding the coordination sockets.
	// Empty means the system temp directory.
	RunDir string `yaml:"run_dir"`

	// LogLevel is the slog level for the supervisor: "debug", "info",
	// "warn", or "error".
	LogLevel string `yaml:"log_level"`

	// Color controls diagnostic output styling.
	Color ColorMode `yaml:"color"`
}

// Default returns the configuration used when no file is specified.
func Default() Config {
	return Config{
		LogLevel: "info",
		Color:    ColorAuto,
	}
}

// Load reads the config file named by FIXWRIGHT_CONFIG, or returns
// Default when the variable is unset.
func Load() (Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates the config file at path. Fields left
// unset in the file keep their defaults. Unknown fields are errors:
// a typoed key silently reverting to a default is worse than a load
// failure.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	configuration := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&configuration); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := configuration.validate(); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return configuration, nil
}

func (c Config) validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q (want auto, always, or never)", c.Color)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (want debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}
