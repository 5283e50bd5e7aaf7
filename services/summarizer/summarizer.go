// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package summarizer turns risk findings into a natural-language summary
// through a single chat-completion call.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianPulse/services/llm"
	"github.com/AleutianAI/AleutianPulse/services/risk"
)

// NoRisksText is returned without any LLM call when there are no findings.
const NoRisksText = "No major project risks detected."

var tracer = otel.Tracer("aleutian.pulse.summarizer")

// RiskSummary is the result of a summarization.
type RiskSummary struct {
	Text               string `json:"text"`
	SourceFindingCount int    `json:"source_finding_count"`
	Truncated          bool   `json:"truncated"`
	Model              string `json:"model,omitempty"`
}

// Summarizer produces RiskSummary values from findings.
//
// # Thread Safety
//
// Safe for concurrent use if the LLM client is. The summarizer holds no
// mutable state and never retries.
type Summarizer struct {
	client llm.LLMClient
	cfg    Config
}

// New creates a Summarizer. Zero config fields take their defaults.
func New(client llm.LLMClient, cfg Config) (*Summarizer, error) {
	if client == nil {
		return nil, errors.New("summarizer: llm client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Summarizer{client: client, cfg: cfg.withDefaults()}, nil
}

// Config returns the effective configuration.
func (s *Summarizer) Config() Config { return s.cfg }

// Summarize summarizes findings.
//
// # Description
//
// Empty findings return NoRisksText with SourceFindingCount 0 and make no
// LLM call. Otherwise the prompt from BuildPrompt is sent as one user
// message with the configured model and temperature, bounded by both ctx
// and Config.Timeout.
//
// # Outputs
//
//   - *RiskSummary: The reply text and how many findings fed it.
//   - error: *SummarizationError on any LLM failure, including a blank reply.
func (s *Summarizer) Summarize(ctx context.Context, findings []risk.Finding) (*RiskSummary, error) {
	if len(findings) == 0 {
		return &RiskSummary{Text: NoRisksText, SourceFindingCount: 0}, nil
	}

	prompt := BuildPrompt(findings, s.cfg)

	ctx, span := tracer.Start(ctx, "summarizer.Summarize")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", s.cfg.Model),
		attribute.Int("risk.findings.total", prompt.Total),
		attribute.Int("risk.findings.included", prompt.Included),
		attribute.Bool("risk.findings.truncated", prompt.Truncated),
	)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	temp := s.cfg.Temperature
	params := llm.GenerationParams{Model: s.cfg.Model, Temperature: &temp}
	if s.cfg.MaxTokens > 0 {
		maxTokens := s.cfg.MaxTokens
		params.MaxTokens = &maxTokens
	}

	slog.Debug("Requesting risk summary",
		"model", s.cfg.Model, "findings", prompt.Included, "truncated", prompt.Truncated)

	text, err := s.client.Chat(callCtx, []llm.Message{{Role: llm.RoleUser, Content: prompt.Text}}, params)
	if err == nil && strings.TrimSpace(text) == "" {
		err = &llm.Error{Kind: llm.KindMalformedResponse, Err: fmt.Errorf("blank completion: %w", llm.ErrEmptyResponse)}
	}
	if err != nil {
		serr := s.wrapError(callCtx, err, prompt)
		span.RecordError(serr)
		span.SetStatus(codes.Error, string(serr.Kind))
		slog.Warn("Risk summarization failed",
			"kind", serr.Kind, "canceled", serr.Canceled(),
			"findings", prompt.Included, "truncated", prompt.Truncated, "error", serr.Err)
		return nil, serr
	}

	return &RiskSummary{
		Text:               strings.TrimSpace(text),
		SourceFindingCount: prompt.Included,
		Truncated:          prompt.Truncated,
		Model:              s.cfg.Model,
	}, nil
}

func (s *Summarizer) wrapError(callCtx context.Context, err error, p Prompt) *SummarizationError {
	kind := kindFromLLM(llm.KindOf(err))
	// Caller cancellation and the deadline both end up as KindTimeout. The
	// context error is kept in the chain so Canceled can tell them apart,
	// even when the client ignored ctx and returned an unrelated error.
	if ctxErr := callCtx.Err(); ctxErr != nil {
		kind = KindTimeout
		if !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
	}
	return &SummarizationError{
		Kind:         kind,
		FindingCount: p.Included,
		Truncated:    p.Truncated,
		Err:          err,
	}
}
