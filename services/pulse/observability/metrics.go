// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and tracing for the pulse service.
//
// # Description
//
// Prometheus metrics cover risk analyses:
//   - Analysis counters (by origin and outcome)
//   - Findings by kind
//   - Summarization failures by error kind
//   - Analysis latency and summarization attempts
//
// OpenTelemetry tracing and meter providers are configured by Init.
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianPulse/services/risk"
)

// Namespace for all metrics
const metricsNamespace = "pulse"

// Subsystem for analysis metrics
const analysisSubsystem = "analysis"

// Outcome labels for AnalysesTotal.
const (
	OutcomeSuccess = "success"
	// OutcomePartial means findings were produced but summarization failed.
	OutcomePartial = "partial"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors for risk analyses.
//
// # Fields
//
//   - AnalysesTotal: analyses by origin (api, digest, mcp, cli) and outcome
//   - FindingsTotal: findings produced, by kind
//   - SummarizationErrorsTotal: failed summarizations, by error kind
//   - AnalysisDurationSeconds: end-to-end analysis latency by origin
//   - SummaryAttempts: LLM attempts per summarized analysis
type Metrics struct {
	AnalysesTotal            *prometheus.CounterVec
	FindingsTotal            *prometheus.CounterVec
	SummarizationErrorsTotal *prometheus.CounterVec
	AnalysisDurationSeconds  *prometheus.HistogramVec
	SummaryAttempts          prometheus.Histogram
}

// NewMetrics creates and registers all collectors on reg.
//
// # Examples
//
//	reg := prometheus.NewRegistry()
//	m := observability.NewMetrics(reg)
//
// # Limitations
//
//   - Panics if called twice with the same registry (duplicate registration).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AnalysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: analysisSubsystem,
				Name:      "runs_total",
				Help:      "Total number of risk analyses by origin and outcome",
			},
			[]string{"origin", "outcome"},
		),

		FindingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: analysisSubsystem,
				Name:      "findings_total",
				Help:      "Total risk findings produced by kind",
			},
			[]string{"kind"},
		),

		SummarizationErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: analysisSubsystem,
				Name:      "summarization_errors_total",
				Help:      "Total failed summarizations by error kind",
			},
			[]string{"kind"},
		),

		AnalysisDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: analysisSubsystem,
				Name:      "duration_seconds",
				Help:      "Risk analysis duration in seconds",
				Buckets:   []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"origin"},
		),

		SummaryAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: analysisSubsystem,
				Name:      "summary_attempts",
				Help:      "LLM attempts per summarized analysis",
				Buckets:   []float64{1, 2, 3, 5, 10},
			},
		),
	}
}

// RecordAnalysis records one finished analysis.
//
// # Inputs
//
//   - origin: who asked for the analysis (api, digest, mcp, cli).
//   - outcome: one of the Outcome constants.
//   - findings: the findings produced, counted by kind.
//   - d: wall-clock duration.
func (m *Metrics) RecordAnalysis(origin, outcome string, findings []risk.Finding, d time.Duration) {
	m.AnalysesTotal.WithLabelValues(origin, outcome).Inc()
	m.AnalysisDurationSeconds.WithLabelValues(origin).Observe(d.Seconds())
	for _, f := range findings {
		m.FindingsTotal.WithLabelValues(string(f.Kind)).Inc()
	}
}

// RecordSummaryAttempts records how many LLM calls a summary took.
func (m *Metrics) RecordSummaryAttempts(attempts int) {
	if attempts > 0 {
		m.SummaryAttempts.Observe(float64(attempts))
	}
}

// RecordSummarizationError counts a failed summarization.
func (m *Metrics) RecordSummarizationError(kind string) {
	m.SummarizationErrorsTotal.WithLabelValues(kind).Inc()
}
