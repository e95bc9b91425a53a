// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads pipeline configuration from
// ~/.codesmith/codesmith.yaml, falling back to defaults when the file is
// absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".codesmith"
	configFileName = "codesmith.yaml"
)

// Config is the full pipeline configuration.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Sandbox  SandboxConfig  `yaml:"sandbox"`
	History  HistoryConfig  `yaml:"history"`
	LogLevel string         `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// ModelConfig selects and tunes the generation model.
type ModelConfig struct {
	Provider          string  `yaml:"provider" validate:"oneof=openai ollama"`
	Name              string  `yaml:"name"`
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
}

// PipelineConfig tunes the validation and retry loop.
type PipelineConfig struct {
	MaxAttempts int `yaml:"max_attempts" validate:"gte=1,lte=10"`
	// TemperatureSchedule gives the sampling temperature per attempt; the
	// last entry carries for attempts beyond its length.
	TemperatureSchedule       []float32 `yaml:"temperature_schedule" validate:"min=1,dive,gte=0,lte=2"`
	EnableConstraintDetection bool      `yaml:"enable_constraint_detection"`
	EnableInterpreter         bool      `yaml:"enable_interpreter"`
	EnableASTRepair           bool      `yaml:"enable_ast_repair"`
	EnableExecution           bool      `yaml:"enable_execution"`
}

// SandboxConfig tunes candidate execution.
type SandboxConfig struct {
	Python                string `yaml:"python"`
	PerTestTimeoutSeconds int    `yaml:"per_test_timeout_seconds" validate:"gte=1,lte=60"`
	Parallelism           int    `yaml:"parallelism" validate:"gte=1,lte=64"`
	MaxCases              int    `yaml:"max_cases" validate:"gte=1,lte=100"`
}

// HistoryConfig controls the local run record store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:          "ollama",
			APIKeyEnv:         "OPENAI_API_KEY",
			RequestsPerSecond: 2,
		},
		Pipeline: PipelineConfig{
			MaxAttempts:               3,
			TemperatureSchedule:       []float32{0.3, 0.45, 0.6},
			EnableConstraintDetection: true,
			EnableInterpreter:         true,
			EnableASTRepair:           true,
			EnableExecution:           true,
		},
		Sandbox: SandboxConfig{
			Python:                "python3",
			PerTestTimeoutSeconds: 1,
			Parallelism:           4,
			MaxCases:              12,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(homeDir(), configDirName, "history"),
		},
		LogLevel: "info",
	}
}

var (
	loadOnce sync.Once
	loaded   *Config
	loadErr  error
)

// Load reads the user's config file once per process. On first run the
// defaults are written to ~/.codesmith/codesmith.yaml so users have a
// file to edit; a missing file is never an error.
func Load() (*Config, error) {
	loadOnce.Do(func() {
		path := filepath.Join(homeDir(), configDirName, configFileName)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			// Best effort; loading falls back to defaults either way.
			_ = WriteDefault(path)
		}
		loaded, loadErr = LoadFrom(path)
	})
	return loaded, loadErr
}

// WriteDefault writes the default configuration to path, creating the
// parent directory. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// LoadFrom reads and validates the config at path, layered over defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
