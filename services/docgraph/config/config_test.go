// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 8095, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8095", cfg.Addr())
	assert.Greater(t, cfg.Converter.MaxFileSizeBytes, int64(0))
	assert.NotEmpty(t, cfg.Converter.IncludeGlobs)
	assert.Contains(t, cfg.Converter.ExcludeDirs, "node_modules")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9100
converter:
  max_file_size_bytes: 1024
  parse_workers: 2
  include_globs:
    - "**/*.ts"
storage:
  enabled: false
watch:
  enabled: true
  debounce_millis: 250
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Addr())
	assert.Equal(t, 2, cfg.Converter.ParseWorkers)
	assert.True(t, cfg.Watch.Enabled)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8095, cfg.Server.Port)
}

func TestInvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	content := `
server:
  host: "127.0.0.1"
  port: 99999
converter:
  max_file_size_bytes: 1024
  parse_workers: 1
  include_globs:
    - "**/*.ts"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMissingFileRejected(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	assert.Error(t, err)
}
