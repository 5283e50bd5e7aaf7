// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/pulse/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/pulse/middleware"
	"github.com/AleutianAI/AleutianPulse/services/pulse/reports"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
)

// HandleAnalyze runs an analysis on signals in the request body. Nothing
// is persisted.
func HandleAnalyze(r *reports.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleAnalyze")
		defer span.End()

		var req datatypes.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		report, err := r.Analyze(ctx, store.OriginAPI, req.Tasks, req.Messages, datatypes.WantsSummary(req.Summarize))
		if err != nil {
			writeAnalysisError(c, span, report, err)
			return
		}
		span.SetAttributes(attribute.Int("risk.findings", len(report.Findings)))
		c.JSON(http.StatusOK, datatypes.AnalysisResponse{Report: report})
	}
}

// HandleAnalyzeProject runs an analysis on the project's stored signals
// and saves the summary.
func HandleAnalyzeProject(r *reports.Runner, audit extensions.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleAnalyzeProject")
		defer span.End()

		var req datatypes.ProjectAnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		projectID := c.Param(middleware.ProjectIDParam)
		span.SetAttributes(attribute.String("project.id", projectID))

		res, err := r.AnalyzeProject(ctx, projectID, store.OriginAPI, datatypes.WantsSummary(req.Summarize))
		if err != nil {
			var report *analysis.Report
			if res != nil {
				report = res.Report
			}
			writeAnalysisError(c, span, report, err)
			return
		}

		resp := datatypes.AnalysisResponse{Report: res.Report}
		if res.Saved != nil {
			resp.SummaryID = res.Saved.ID
		}
		recordAudit(c, audit, extensions.AuditEvent{
			EventType:    extensions.EventAnalysisRun,
			UserID:       middleware.GetAuthInfo(c).UserID,
			ResourceType: extensions.ResourceProject,
			ResourceID:   projectID,
			Outcome:      extensions.OutcomeSuccess,
			Metadata:     map[string]any{"findings": len(res.Report.Findings), "summary_id": resp.SummaryID},
		})
		c.JSON(http.StatusOK, resp)
	}
}

// HandleListSummaries lists a project's stored summaries, newest first.
// ?limit caps the count (default 20).
func HandleListSummaries(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 500 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
				return
			}
			limit = n
		}

		projectID := c.Param(middleware.ProjectIDParam)
		summaries, err := st.ListSummaries(c.Request.Context(), projectID, limit)
		if err != nil {
			slog.Error("Failed to list summaries", "project_id", projectID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list summaries"})
			return
		}
		c.JSON(http.StatusOK, datatypes.SummariesResponse{Summaries: summaries})
	}
}
