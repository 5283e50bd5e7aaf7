// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"log/slog"
	"time"
)

// Audit event types emitted by the pulse service.
const (
	EventUserRegistered = "user.registered"
	EventLogin          = "auth.login"
	EventLogout         = "auth.logout"
	EventProjectCreated = "project.created"
	EventProjectDeleted = "project.deleted"
	EventSignalsIngest  = "signals.ingested"
	EventSignalsCleared = "signals.cleared"
	EventAnalysisRun    = "analysis.run"
)

// Outcomes for AuditEvent.Outcome.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

// AuditEvent is one security-relevant action.
//
// Example:
//
//	event := AuditEvent{
//	    EventType:    EventProjectCreated,
//	    UserID:       authInfo.UserID,
//	    ResourceType: ResourceProject,
//	    ResourceID:   project.ID,
//	    Outcome:      OutcomeSuccess,
//	}
type AuditEvent struct {
	EventType    string
	Timestamp    time.Time
	UserID       string
	ResourceType string
	ResourceID   string
	Outcome      string

	// Metadata holds event-specific details. Values must be safe to log;
	// never put passwords or tokens here.
	Metadata map[string]any
}

// AuditLogger records audit events.
//
// Implementations must be safe for concurrent use and should not block
// the request path for long.
type AuditLogger interface {
	Log(ctx context.Context, event AuditEvent) error
}

// NopAuditLogger discards every event.
type NopAuditLogger struct{}

// Log implements AuditLogger.
func (l *NopAuditLogger) Log(ctx context.Context, event AuditEvent) error {
	return nil
}

// SlogAuditLogger writes events as structured log records at Info level
// under the "audit" group.
type SlogAuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewSlogAuditLogger creates an audit logger. A nil logger uses slog.Default.
func NewSlogAuditLogger(logger *slog.Logger) *SlogAuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditLogger{logger: logger, now: time.Now}
}

// Log implements AuditLogger.
func (l *SlogAuditLogger) Log(ctx context.Context, event AuditEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	attrs := []any{
		"event_type", event.EventType,
		"timestamp", event.Timestamp.UTC(),
		"outcome", event.Outcome,
	}
	if event.UserID != "" {
		attrs = append(attrs, "user_id", event.UserID)
	}
	if event.ResourceType != "" {
		attrs = append(attrs, "resource_type", event.ResourceType, "resource_id", event.ResourceID)
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, k, v)
	}
	l.logger.InfoContext(ctx, "Audit event", slog.Group("audit", attrs...))
	return nil
}

var (
	_ AuditLogger = (*NopAuditLogger)(nil)
	_ AuditLogger = (*SlogAuditLogger)(nil)
)
