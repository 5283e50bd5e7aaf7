// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvPort         = "PULSE_PORT"
	EnvDBPath       = "PULSE_DB_PATH"
	EnvLLMModel     = "PULSE_LLM_MODEL"
	EnvLLMBaseURL   = "PULSE_LLM_BASE_URL"
	EnvLogLevel     = "PULSE_LOG_LEVEL"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Load reads the config at path (optional) and applies process env overrides.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment.
//
// An empty path skips the file. A path that does not exist is an error:
// silently running on defaults after a typo hides misconfiguration.
func LoadWithEnv(path string, env LookupEnv) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(expandHome(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read the config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, env); err != nil {
		return nil, err
	}
	cfg.Database.Path = expandHome(cfg.Database.Path)
	cfg.Logging.Dir = expandHome(cfg.Logging.Dir)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, env LookupEnv) error {
	if v, ok := env(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a port number", EnvPort, v)
		}
		cfg.Server.Port = port
	}
	if v, ok := env(EnvDBPath); ok && v != "" {
		cfg.Database.Path = v
	}
	if v, ok := env(EnvLLMModel); ok && v != "" {
		cfg.Summarizer.Model = v
	}
	if v, ok := env(EnvLLMBaseURL); ok && v != "" {
		cfg.LLM.BaseURL = v
	}
	if v, ok := env(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := env(EnvOpenAIKey); ok && v != "" {
		cfg.LLM.APIKey = v
	}
	if v, ok := env(EnvOTLPEndpoint); ok && v != "" {
		cfg.Tracing.Endpoint = v
		if cfg.Tracing.Exporter == "none" {
			cfg.Tracing.Exporter = "otlp"
		}
	}
	return nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Summarizer.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid config: rate_limit.requests_per_second must be > 0 when enabled")
	}
	return nil
}

// WriteDefault writes DefaultConfig to path, creating parent directories.
// API keys are never written; they belong in the environment.
func WriteDefault(path string) error {
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
