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

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
	"github.com/AleutianAI/AleutianPulse/services/pulse/auth"
	"github.com/AleutianAI/AleutianPulse/services/pulse/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/pulse/middleware"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
)

func HandleRegister(svc *auth.Service, audit extensions.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleRegister")
		defer span.End()

		var req datatypes.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		u, err := svc.Register(ctx, req.Name, req.Email, req.Password)
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		if errors.Is(err, auth.ErrPasswordTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			failSpan(span, err)
			slog.Error("Failed to register user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
			return
		}
		recordAudit(c, audit, extensions.AuditEvent{
			EventType: extensions.EventUserRegistered,
			UserID:    u.ID,
			Outcome:   extensions.OutcomeSuccess,
		})
		c.JSON(http.StatusCreated, datatypes.UserView{ID: u.ID, Name: u.Name, Email: u.Email})
	}
}

func HandleLogin(svc *auth.Service, audit extensions.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleLogin")
		defer span.End()

		var req datatypes.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sess, err := svc.Login(ctx, req.Email, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			recordAudit(c, audit, extensions.AuditEvent{
				EventType: extensions.EventLogin,
				Outcome:   extensions.OutcomeDenied,
				Metadata:  map[string]any{"client_ip": c.ClientIP()},
			})
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			failSpan(span, err)
			slog.Error("Login failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}
		recordAudit(c, audit, extensions.AuditEvent{
			EventType: extensions.EventLogin,
			UserID:    sess.User.ID,
			Outcome:   extensions.OutcomeSuccess,
		})
		c.JSON(http.StatusOK, datatypes.TokenResponse{
			Token:     sess.Token,
			TokenType: "Bearer",
			ExpiresAt: sess.ExpiresAt,
			User:      datatypes.UserView{ID: sess.User.ID, Name: sess.User.Name, Email: sess.User.Email},
		})
	}
}

// HandleLogout revokes the token the request was authenticated with.
func HandleLogout(svc *auth.Service, audit extensions.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Revoke(c.Request.Context(), middleware.ExtractBearerToken(c)); err != nil {
			slog.Error("Logout failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
		if info := middleware.GetAuthInfo(c); info != nil {
			recordAudit(c, audit, extensions.AuditEvent{
				EventType: extensions.EventLogout,
				UserID:    info.UserID,
				Outcome:   extensions.OutcomeSuccess,
			})
		}
		c.Status(http.StatusNoContent)
	}
}

func HandleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		info := middleware.GetAuthInfo(c)
		if info == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.JSON(http.StatusOK, datatypes.UserView{ID: info.UserID, Name: info.Name, Email: info.Email})
	}
}
