// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config defines the pulse configuration file and its loader.
//
// Values are layered: DefaultConfig, then the YAML file, then environment
// variables. The result is validated before use. There is no package-level
// singleton; callers pass *Config explicitly.
package config

import (
	"time"

	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

// CurrentConfigVersion is written into new config files.
const CurrentConfigVersion = "1"

type Config struct {
	Meta       MetaConfig           `yaml:"meta"`
	Server     ServerConfig         `yaml:"server"`
	Database   DatabaseConfig       `yaml:"database"`
	Logging    LoggingConfig        `yaml:"logging"`
	Auth       AuthConfig           `yaml:"auth"`
	LLM        LLMConfig            `yaml:"llm"`
	Risk       RiskConfig           `yaml:"risk"`
	Summarizer summarizer.Config    `yaml:"summarizer"`
	Retry      analysis.RetryPolicy `yaml:"retry"`
	Digest     DigestConfig         `yaml:"digest"`
	Tracing    TracingConfig        `yaml:"tracing"`
	RateLimit  RateLimitConfig      `yaml:"rate_limit"`
}

type MetaConfig struct {
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"gte=1,lte=65535"`
	Mode            string        `yaml:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"`
}

type AuthConfig struct {
	TokenTTL   time.Duration `yaml:"token_ttl" validate:"gt=0"`
	BcryptCost int           `yaml:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// LLMConfig selects the text-generation backend. Provider "none" disables
// summarization; analyses then return findings and health only.
type LLMConfig struct {
	Provider string `yaml:"provider" validate:"oneof=openai none"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
}

// SummariesEnabled reports whether a usable backend is configured.
func (l LLMConfig) SummariesEnabled() bool {
	return l.Provider == "openai" && l.APIKey != ""
}

type RiskConfig struct {
	StaleAfterDays      int      `yaml:"stale_after_days" validate:"gte=0"`
	FlagOverdue         bool     `yaml:"flag_overdue"`
	DependencyKeywords  []string `yaml:"dependency_keywords"`
	ExtraTaskSources    []string `yaml:"extra_task_sources"`
	ExtraMessageSources []string `yaml:"extra_message_sources"`
}

// EvaluatorConfig converts the risk section into an evaluator config.
func (r RiskConfig) EvaluatorConfig() risk.Config {
	return risk.Config{
		StaleAfterDays:      r.StaleAfterDays,
		FlagOverdue:         r.FlagOverdue,
		Classifier:          risk.NewKeywordClassifier(r.DependencyKeywords...),
		ExtraTaskSources:    r.ExtraTaskSources,
		ExtraMessageSources: r.ExtraMessageSources,
	}
}

// DigestConfig schedules background jobs. Schedules are six-field cron
// expressions with a leading seconds field.
type DigestConfig struct {
	Enabled              bool   `yaml:"enabled"`
	Schedule             string `yaml:"schedule" validate:"required_if=Enabled true"`
	Summarize            bool   `yaml:"summarize"`
	SessionSweepSchedule string `yaml:"session_sweep_schedule"`
}

// TracingConfig selects the OpenTelemetry exporters. MetricExporter
// "prometheus" publishes OTel instruments on the service's /metrics.
type TracingConfig struct {
	Exporter       string  `yaml:"exporter" validate:"oneof=none stdout otlp"`
	Endpoint       string  `yaml:"endpoint" validate:"required_if=Exporter otlp"`
	ServiceName    string  `yaml:"service_name" validate:"required"`
	SampleRatio    float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`
	MetricExporter string  `yaml:"metric_exporter" validate:"oneof=none prometheus stdout"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

// DefaultConfig returns a configuration that runs locally without any
// external services except the LLM provider.
func DefaultConfig() Config {
	return Config{
		Meta: MetaConfig{Version: CurrentConfigVersion},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            12230,
			Mode:            "release",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "~/.aleutian/pulse/pulse.db"},
		Logging:  LoggingConfig{Level: "info"},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 12,
		},
		LLM: LLMConfig{Provider: "openai"},
		Risk: RiskConfig{
			StaleAfterDays:     risk.DefaultStaleAfterDays,
			DependencyKeywords: []string{risk.DefaultDependencyKeyword},
		},
		Summarizer: summarizer.DefaultConfig(),
		Retry:      analysis.DefaultRetryPolicy(),
		Digest: DigestConfig{
			Enabled:              false,
			Schedule:             "0 0 8 * * *",
			Summarize:            true,
			SessionSweepSchedule: "0 0 * * * *",
		},
		Tracing: TracingConfig{
			Exporter:       "none",
			ServiceName:    "pulse-service",
			SampleRatio:    1,
			MetricExporter: "prometheus",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}

// Redacted returns a copy safe for display.
func (c Config) Redacted() Config {
	if c.LLM.APIKey != "" {
		c.LLM.APIKey = "********"
	}
	return c
}
