// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package summarizer

import (
	"fmt"
	"time"
)

// PromptStyle selects how findings are listed in the prompt.
type PromptStyle string

const (
	// StyleDescriptions lists one line per finding using its description.
	StyleDescriptions PromptStyle = "descriptions"

	// StyleByTask lists one line per task with its reasons, followed by
	// findings that are not tied to a task.
	StyleByTask PromptStyle = "by_task"
)

// Defaults for Config.
const (
	DefaultModel            = "gpt-4o-mini"
	DefaultMaxInputFindings = 50
	DefaultMaxLineBytes     = 512
	DefaultTimeout          = 30 * time.Second
	DefaultStyle            = StyleDescriptions
)

// Config configures a Summarizer.
//
// # Fields
//
//   - Model: Model identifier passed to the LLM backend.
//   - Temperature: Sampling temperature. Zero means deterministic sampling.
//   - MaxInputFindings: Findings beyond this count are dropped from the prompt.
//   - MaxLineBytes: Upper bound on one rendered prompt line.
//   - MaxTokens: Optional completion token cap; zero leaves it to the backend.
//   - Timeout: Upper bound on the LLM call, applied on top of the caller's context.
//   - Style: Prompt listing style.
type Config struct {
	Model            string        `yaml:"model" json:"model"`
	Temperature      float32       `yaml:"temperature" json:"temperature"`
	MaxInputFindings int           `yaml:"max_input_findings" json:"max_input_findings"`
	MaxLineBytes     int           `yaml:"max_line_bytes" json:"max_line_bytes"`
	MaxTokens        int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	Style            PromptStyle   `yaml:"style" json:"style"`
}

// DefaultConfig returns the default summarizer configuration.
func DefaultConfig() Config {
	return Config{
		Model:            DefaultModel,
		Temperature:      0,
		MaxInputFindings: DefaultMaxInputFindings,
		MaxLineBytes:     DefaultMaxLineBytes,
		Timeout:          DefaultTimeout,
		Style:            DefaultStyle,
	}
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxInputFindings <= 0 {
		c.MaxInputFindings = DefaultMaxInputFindings
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Style == "" {
		c.Style = DefaultStyle
	}
	return c
}

// Validate reports configuration values no default can repair.
func (c Config) Validate() error {
	switch c.Style {
	case "", StyleDescriptions, StyleByTask:
	default:
		return fmt.Errorf("summarizer: unknown prompt style %q", c.Style)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("summarizer: temperature %.2f out of range [0, 2]", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("summarizer: max_tokens must be >= 0")
	}
	return nil
}
