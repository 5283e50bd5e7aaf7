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
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
	"github.com/AleutianAI/AleutianPulse/services/pulse/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/pulse/middleware"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
)

func HandleCreateProject(st *store.Store, audit extensions.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleCreateProject")
		defer span.End()

		var req datatypes.CreateProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		p := &store.Project{
			OwnerID:     middleware.GetAuthInfo(c).UserID,
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Priority:    store.Priority(req.Priority),
		}
		for _, m := range req.Team {
			p.Team = append(p.Team, store.TeamMember{Name: m.Name, Role: m.Role, Email: m.Email})
		}

		if err := st.CreateProject(ctx, p); err != nil {
			failSpan(span, err)
			slog.Error("Failed to create project", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create project"})
			return
		}
		slog.Info("Project created", "project_id", p.ID, "owner_id", p.OwnerID)
		recordAudit(c, audit, extensions.AuditEvent{
			EventType:    extensions.EventProjectCreated,
			UserID:       p.OwnerID,
			ResourceType: extensions.ResourceProject,
			ResourceID:   p.ID,
			Outcome:      extensions.OutcomeSuccess,
			Metadata:     map[string]any{"team_size": len(p.Team)},
		})
		c.JSON(http.StatusCreated, p)
	}
}

func HandleListProjects(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := st.ListProjects(c.Request.Context(), middleware.GetAuthInfo(c).UserID)
		if err != nil {
			slog.Error("Failed to list projects", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": projects})
	}
}

func HandleGetProject(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := st.GetProject(c.Request.Context(), middleware.GetAuthInfo(c).UserID, c.Param(middleware.ProjectIDParam))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		if err != nil {
			slog.Error("Failed to get project", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get project"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func HandleDeleteProject(st *store.Store, audit extensions.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetAuthInfo(c).UserID
		projectID := c.Param(middleware.ProjectIDParam)
		err := st.DeleteProject(c.Request.Context(), userID, projectID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		if err != nil {
			slog.Error("Failed to delete project", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete project"})
			return
		}
		recordAudit(c, audit, extensions.AuditEvent{
			EventType:    extensions.EventProjectDeleted,
			UserID:       userID,
			ResourceType: extensions.ResourceProject,
			ResourceID:   projectID,
			Outcome:      extensions.OutcomeSuccess,
		})
		c.Status(http.StatusNoContent)
	}
}
