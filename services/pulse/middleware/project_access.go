// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
)

// ProjectIDParam is the route parameter holding the project id.
const ProjectIDParam = "id"

// RequireProjectAccess checks the authenticated user may act on the
// project named by the :id route parameter. GET and HEAD are checked as
// reads, everything else as writes.
//
// Denials answer 404 rather than 403 so callers cannot discover which
// project ids exist. Must run after AuthMiddleware.
func RequireProjectAccess(authz extensions.AuthzProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := GetAuthInfo(c)
		if info == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		action := extensions.ActionWrite
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			action = extensions.ActionRead
		}

		err := authz.Authorize(c.Request.Context(), extensions.AuthzRequest{
			User:         info,
			Action:       action,
			ResourceType: extensions.ResourceProject,
			ResourceID:   c.Param(ProjectIDParam),
		})
		if err != nil {
			if errors.Is(err, extensions.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "project not found"})
				return
			}
			slog.Error("Project authorization failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization failed"})
			return
		}
		c.Next()
	}
}
