// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"time"

	"github.com/AleutianAI/AleutianPulse/services/risk"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Priority of a project.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Project struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Priority    Priority     `json:"priority"`
	CreatedAt   time.Time    `json:"created_at"`
	Team        []TeamMember `json:"team_members,omitempty"`
}

type TeamMember struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Origin records what produced a stored summary.
type Origin string

const (
	OriginAPI    Origin = "api"
	OriginDigest Origin = "digest"
	OriginMCP    Origin = "mcp"
	OriginCLI    Origin = "cli"
)

// Summary is one persisted analysis result.
type Summary struct {
	ID                 string            `json:"id"`
	ProjectID          string            `json:"project_id"`
	Origin             Origin            `json:"origin"`
	Text               string            `json:"text"`
	SourceFindingCount int               `json:"source_finding_count"`
	Truncated          bool              `json:"truncated"`
	Model              string            `json:"model,omitempty"`
	HealthScore        int               `json:"health_score"`
	HealthStatus       risk.HealthStatus `json:"health_status"`
	Findings           []risk.Finding    `json:"findings"`
	CreatedAt          time.Time         `json:"created_at"`
}
