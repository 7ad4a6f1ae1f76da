// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads docgraph service configuration from YAML with
// embedded defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigYAML []byte

// Config is the full service configuration.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server" validate:"required"`

	// Converter configures graph conversion.
	Converter ConverterConfig `yaml:"converter"`

	// Storage configures snapshot persistence.
	Storage StorageConfig `yaml:"storage"`

	// Watch configures filesystem watching for rebuilds.
	Watch WatchConfig `yaml:"watch"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host" validate:"required"`

	// Port is the listen port.
	Port int `yaml:"port" validate:"required,gt=0,lte=65535"`

	// ReadTimeoutSeconds bounds request reads.
	ReadTimeoutSeconds int `yaml:"read_timeout_seconds" validate:"gte=0"`

	// WriteTimeoutSeconds bounds response writes.
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds" validate:"gte=0"`
}

// ConverterConfig configures conversion behavior.
type ConverterConfig struct {
	// MaxFileSizeBytes caps individual source file size.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes" validate:"gt=0"`

	// ParseWorkers is the parallelism of the parse phase. Conversion
	// itself is always single-threaded.
	ParseWorkers int `yaml:"parse_workers" validate:"gte=1,lte=64"`

	// ExcludeNotExported drops unexported top-level declarations.
	ExcludeNotExported bool `yaml:"exclude_not_exported"`

	// ExcludePrivate drops private class members.
	ExcludePrivate bool `yaml:"exclude_private"`

	// IncludeGlobs select the files to document.
	IncludeGlobs []string `yaml:"include_globs" validate:"min=1"`

	// ExcludeDirs are directory names skipped during the walk.
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// StorageConfig configures the snapshot store.
type StorageConfig struct {
	// Enabled controls whether snapshots are persisted.
	Enabled bool `yaml:"enabled"`

	// Path is the BadgerDB directory. Required when enabled.
	Path string `yaml:"path" validate:"required_if=Enabled true"`
}

// WatchConfig configures filesystem watching.
type WatchConfig struct {
	// Enabled controls whether the service rebuilds on file changes.
	Enabled bool `yaml:"enabled"`

	// DebounceMillis coalesces change bursts into one rebuild.
	DebounceMillis int `yaml:"debounce_millis" validate:"gte=0"`
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	return parse(defaultConfigYAML)
}

// Load reads configuration from a YAML file, falling back to the
// embedded defaults when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// Addr returns the server's listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
