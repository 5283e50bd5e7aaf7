// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the pulse HTTP API as gin handler factories.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/pulse/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

var tracer = otel.Tracer("aleutian.pulse.handlers")

// failSpan marks span as failed with err.
func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// recordAudit logs an audit event. Audit failures are logged, never
// surfaced to the client.
func recordAudit(c *gin.Context, logger extensions.AuditLogger, event extensions.AuditEvent) {
	if logger == nil {
		return
	}
	if err := logger.Log(c.Request.Context(), event); err != nil {
		slog.Warn("Failed to record audit event", "event_type", event.EventType, "error", err)
	}
}

// summarizationStatus maps a summarization failure to an HTTP status.
func summarizationStatus(kind summarizer.ErrorKind) int {
	switch kind {
	case summarizer.KindRateLimited:
		return http.StatusTooManyRequests
	case summarizer.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// writeAnalysisError answers an analysis failure. report may be nil.
func writeAnalysisError(c *gin.Context, span trace.Span, report *analysis.Report, err error) {
	failSpan(span, err)

	var ve *risk.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "details": ve})
		return
	}

	if se, ok := summarizer.AsSummarizationError(err); ok && report != nil {
		slog.Warn("Risk summarization failed", "kind", se.Kind, "findings", se.FindingCount, "error", se.Err)
		c.JSON(summarizationStatus(se.Kind), datatypes.SummarizationErrorResponse{
			Error:        "risk summarization failed",
			Kind:         string(se.Kind),
			FindingCount: se.FindingCount,
			Truncated:    se.Truncated,
			Findings:     report.Findings,
			Health:       report.Health,
		})
		return
	}

	slog.Error("Risk analysis failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
}
