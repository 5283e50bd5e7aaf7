// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analysis composes risk evaluation, health assessment and
// summarization into one caller-facing pipeline.
//
// The pipeline owns the retry policy. The summarizer itself never
// retries; Pipeline.Run retries only the failure kinds that report
// Retryable, with exponential backoff, reusing the same finding sequence.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

var tracer = otel.Tracer("aleutian.pulse.analysis")

// Summarizer is the summarization capability the pipeline needs.
type Summarizer interface {
	Summarize(ctx context.Context, findings []risk.Finding) (*summarizer.RiskSummary, error)
}

// RetryPolicy controls retries of retryable summarization failures.
// MaxAttempts counts the first try; 1 disables retrying.
type RetryPolicy struct {
	MaxAttempts     int           `yaml:"max_attempts" json:"max_attempts" validate:"gte=1,lte=10"`
	InitialInterval time.Duration `yaml:"initial_interval" json:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval" json:"max_interval"`
}

// DefaultRetryPolicy returns three attempts starting at 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

// Report is the pipeline result.
//
// Summary is nil when summarization was skipped or failed; Findings and
// Health are always populated once evaluation succeeds.
type Report struct {
	Findings       []risk.Finding          `json:"findings"`
	Summary        *summarizer.RiskSummary `json:"summary,omitempty"`
	Health         risk.Health             `json:"health"`
	Attempts       int                     `json:"attempts"`
	RuleSetVersion string                  `json:"rule_set_version"`
	GeneratedAt    time.Time               `json:"generated_at"`
}

// Pipeline runs evaluate, assess and summarize in order.
//
// # Thread Safety
//
// Safe for concurrent use when its evaluator and summarizer are.
type Pipeline struct {
	evaluator  *risk.Evaluator
	summarizer Summarizer
	retry      RetryPolicy
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(pl *Pipeline) { pl.retry = p }
}

// WithClock sets the clock used for Report.GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) { pl.now = now }
}

// NewPipeline creates a Pipeline. A nil summarizer yields reports
// without summaries.
func NewPipeline(evaluator *risk.Evaluator, s Summarizer, opts ...Option) *Pipeline {
	if evaluator == nil {
		evaluator = risk.NewEvaluator(risk.DefaultConfig())
	}
	p := &Pipeline{
		evaluator:  evaluator,
		summarizer: s,
		retry:      DefaultRetryPolicy(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.retry.MaxAttempts < 1 {
		p.retry.MaxAttempts = 1
	}
	return p
}

// Evaluator exposes the pipeline's evaluator for ingestion-time validation.
func (p *Pipeline) Evaluator() *risk.Evaluator { return p.evaluator }

// CanSummarize reports whether a summarizer is configured.
func (p *Pipeline) CanSummarize() bool { return p.summarizer != nil }

// Run evaluates the signals and, when summarize is true, summarizes them.
//
// # Outputs
//
//   - *Report: Always non-nil unless validation failed. On a summarization
//     failure it still carries Findings, Health and Attempts.
//   - error: *risk.ValidationError for bad input (report is nil), or the
//     last *summarizer.SummarizationError once retries are exhausted.
func (p *Pipeline) Run(ctx context.Context, tasks []risk.TaskSignal, messages []risk.MessageSignal, summarize bool) (*Report, error) {
	ctx, span := tracer.Start(ctx, "analysis.Run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("signals.tasks", len(tasks)),
		attribute.Int("signals.messages", len(messages)),
	)

	findings, err := p.evaluator.Evaluate(tasks, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("risk.findings", len(findings)))

	report := &Report{
		Findings:       findings,
		Health:         risk.AssessHealth(tasks, findings),
		RuleSetVersion: risk.RuleSetVersion,
		GeneratedAt:    p.now().UTC(),
	}
	if !summarize || p.summarizer == nil {
		return report, nil
	}

	summary, attempts, err := p.summarizeWithRetry(ctx, findings)
	report.Attempts = attempts
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summarization failed")
		return report, err
	}
	report.Summary = summary
	return report, nil
}

func (p *Pipeline) summarizeWithRetry(ctx context.Context, findings []risk.Finding) (*summarizer.RiskSummary, int, error) {
	attempts := 0
	op := func() (*summarizer.RiskSummary, error) {
		attempts++
		s, err := p.summarizer.Summarize(ctx, findings)
		if err == nil {
			return s, nil
		}
		var se *summarizer.SummarizationError
		if errors.As(err, &se) && se.Retryable() && ctx.Err() == nil {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	summary, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(p.retry.backOff()),
		backoff.WithMaxTries(uint(p.retry.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Retrying risk summarization", "attempt", attempts, "next_in", next, "error", err)
		}),
	)
	return summary, attempts, err
}
