// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
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

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, []float32{0.3, 0.45, 0.6}, cfg.Pipeline.TemperatureSchedule)
	assert.True(t, cfg.Pipeline.EnableConstraintDetection)
	assert.Equal(t, 1, cfg.Sandbox.PerTestTimeoutSeconds)
	assert.Equal(t, "ollama", cfg.Model.Provider)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", configFileName)
	require.NoError(t, WriteDefault(path))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg, "written defaults round-trip")

	assert.Error(t, WriteDefault(path), "refuses to overwrite")
}

func TestLoadFrom_OverridesLayerOverDefaults(t *testing.T) {
	path := writeConfig(t, `
model:
  provider: openai
  name: gpt-4o
pipeline:
  max_attempts: 5
  enable_execution: false
sandbox:
  per_test_timeout_seconds: 2
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, 5, cfg.Pipeline.MaxAttempts)
	assert.False(t, cfg.Pipeline.EnableExecution)
	assert.True(t, cfg.Pipeline.EnableASTRepair, "untouched toggles keep defaults")
	assert.Equal(t, 2, cfg.Sandbox.PerTestTimeoutSeconds)
}

func TestLoadFrom_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad provider", "model:\n  provider: bedrock\n"},
		{"zero attempts", "pipeline:\n  max_attempts: 0\n"},
		{"runaway temperature", "pipeline:\n  temperature_schedule: [9.5]\n"},
		{"unparseable yaml", "pipeline: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
