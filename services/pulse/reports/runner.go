// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package reports runs the analysis pipeline for callers that persist
// results: the HTTP API, the digest scheduler, the MCP server and the CLI.
package reports

import (
	"context"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/pulse/observability"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

// Store is the persistence the runner needs.
type Store interface {
	ListTasks(ctx context.Context, projectID string) ([]risk.TaskSignal, error)
	ListMessages(ctx context.Context, projectID string, since time.Time) ([]risk.MessageSignal, error)
	SaveSummary(ctx context.Context, sum *store.Summary) error
}

// Result is a pipeline report plus the summary record it was saved as.
// Saved is nil when nothing was persisted.
type Result struct {
	Report *analysis.Report
	Saved  *store.Summary
}

// Runner ties the pipeline to storage and metrics.
type Runner struct {
	store    Store
	pipeline *analysis.Pipeline
	metrics  *observability.Metrics
}

// NewRunner creates a Runner. metrics may be nil.
func NewRunner(st Store, p *analysis.Pipeline, m *observability.Metrics) *Runner {
	return &Runner{store: st, pipeline: p, metrics: m}
}

// Pipeline returns the underlying pipeline.
func (r *Runner) Pipeline() *analysis.Pipeline { return r.pipeline }

// Analyze runs the pipeline on inline signals without persisting.
// Errors are those of analysis.Pipeline.Run.
func (r *Runner) Analyze(ctx context.Context, origin store.Origin, tasks []risk.TaskSignal, messages []risk.MessageSignal, summarize bool) (*analysis.Report, error) {
	start := time.Now()
	report, err := r.pipeline.Run(ctx, tasks, messages, summarize)
	r.record(origin, report, err, time.Since(start))
	return report, err
}

// AnalyzeProject runs the pipeline on a project's stored signals. When a
// summary is produced it is saved with the findings and health score.
//
// On a summarization failure the result still carries the report, and
// the error is the pipeline's *summarizer.SummarizationError.
func (r *Runner) AnalyzeProject(ctx context.Context, projectID string, origin store.Origin, summarize bool) (*Result, error) {
	tasks, err := r.store.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	messages, err := r.store.ListMessages(ctx, projectID, time.Time{})
	if err != nil {
		return nil, err
	}

	report, err := r.Analyze(ctx, origin, tasks, messages, summarize)
	if err != nil {
		if report == nil {
			return nil, err
		}
		return &Result{Report: report}, err
	}
	if report.Summary == nil {
		return &Result{Report: report}, nil
	}

	saved := &store.Summary{
		ProjectID:          projectID,
		Origin:             origin,
		Text:               report.Summary.Text,
		SourceFindingCount: report.Summary.SourceFindingCount,
		Truncated:          report.Summary.Truncated,
		Model:              report.Summary.Model,
		HealthScore:        report.Health.Score,
		HealthStatus:       report.Health.Status,
		Findings:           report.Findings,
	}
	if err := r.store.SaveSummary(ctx, saved); err != nil {
		return &Result{Report: report}, err
	}
	slog.Info("Risk summary saved",
		"project_id", projectID,
		"origin", origin,
		"findings", len(report.Findings),
		"health", report.Health.Status)
	return &Result{Report: report, Saved: saved}, nil
}

func (r *Runner) record(origin store.Origin, report *analysis.Report, err error, d time.Duration) {
	if r.metrics == nil {
		return
	}
	var findings []risk.Finding
	if report != nil {
		findings = report.Findings
		r.metrics.RecordSummaryAttempts(report.Attempts)
	}

	outcome := observability.OutcomeSuccess
	switch {
	case err == nil:
	case risk.IsValidationError(err):
		outcome = observability.OutcomeInvalid
	default:
		if se, ok := summarizer.AsSummarizationError(err); ok {
			outcome = observability.OutcomePartial
			r.metrics.RecordSummarizationError(string(se.Kind))
		} else {
			outcome = observability.OutcomeError
		}
	}
	r.metrics.RecordAnalysis(string(origin), outcome, findings, d)
}
