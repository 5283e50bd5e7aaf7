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
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
	"github.com/AleutianAI/AleutianPulse/services/pulse/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/pulse/middleware"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
	"github.com/AleutianAI/AleutianPulse/services/risk"
)

// HandlePutSignals upserts a project's tasks and messages. The whole
// batch is rejected if any record is malformed.
func HandlePutSignals(st *store.Store, v *risk.Validator, audit extensions.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandlePutSignals")
		defer span.End()

		var req datatypes.SignalsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := v.ValidateSignals(req.Tasks, req.Messages); err != nil {
			writeAnalysisError(c, span, nil, err)
			return
		}

		projectID := c.Param(middleware.ProjectIDParam)
		if err := st.UpsertSignals(ctx, projectID, req.Tasks, req.Messages); err != nil {
			failSpan(span, err)
			slog.Error("Failed to store signals", "project_id", projectID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store signals"})
			return
		}
		recordAudit(c, audit, extensions.AuditEvent{
			EventType:    extensions.EventSignalsIngest,
			UserID:       middleware.GetAuthInfo(c).UserID,
			ResourceType: extensions.ResourceProject,
			ResourceID:   projectID,
			Outcome:      extensions.OutcomeSuccess,
			Metadata:     map[string]any{"tasks": len(req.Tasks), "messages": len(req.Messages)},
		})
		c.JSON(http.StatusOK, gin.H{
			"tasks_upserted":    len(req.Tasks),
			"messages_upserted": len(req.Messages),
		})
	}
}

// HandleDeleteSignals clears every task and message of a project.
// Summaries already stored are kept.
func HandleDeleteSignals(st *store.Store, audit extensions.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID := c.Param(middleware.ProjectIDParam)
		if err := st.DeleteSignals(c.Request.Context(), projectID); err != nil {
			slog.Error("Failed to clear signals", "project_id", projectID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear signals"})
			return
		}
		recordAudit(c, audit, extensions.AuditEvent{
			EventType:    extensions.EventSignalsCleared,
			UserID:       middleware.GetAuthInfo(c).UserID,
			ResourceType: extensions.ResourceProject,
			ResourceID:   projectID,
			Outcome:      extensions.OutcomeSuccess,
		})
		c.Status(http.StatusNoContent)
	}
}

// HandleGetSignals lists a project's signals. ?since=RFC3339 filters
// messages.
func HandleGetSignals(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var since time.Time
		if s := c.Query("since"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC 3339 timestamp"})
				return
			}
			since = t
		}

		ctx := c.Request.Context()
		projectID := c.Param(middleware.ProjectIDParam)
		tasks, err := st.ListTasks(ctx, projectID)
		if err != nil {
			slog.Error("Failed to list tasks", "project_id", projectID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list signals"})
			return
		}
		messages, err := st.ListMessages(ctx, projectID, since)
		if err != nil {
			slog.Error("Failed to list messages", "project_id", projectID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list signals"})
			return
		}
		c.JSON(http.StatusOK, datatypes.SignalsResponse{Tasks: tasks, Messages: messages})
	}
}
