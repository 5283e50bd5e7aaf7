// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "github.com/AleutianAI/AleutianPulse/services/risk"

type TeamMemberInput struct {
	Name  string `json:"name" binding:"required,max=200"`
	Role  string `json:"role" binding:"max=100"`
	Email string `json:"email" binding:"omitempty,email"`
}

type CreateProjectRequest struct {
	Name        string            `json:"name" binding:"required,max=200"`
	Description string            `json:"description" binding:"max=4000"`
	Priority    string            `json:"priority" binding:"omitempty,oneof=low medium high"`
	Team        []TeamMemberInput `json:"team_members" binding:"max=100,dive"`
}

// SignalsRequest upserts a project's signals. Records are validated
// against the evaluator's rules, not by binding tags.
type SignalsRequest struct {
	Tasks    []risk.TaskSignal    `json:"tasks"`
	Messages []risk.MessageSignal `json:"messages"`
}

type SignalsResponse struct {
	Tasks    []risk.TaskSignal    `json:"tasks"`
	Messages []risk.MessageSignal `json:"messages"`
}
