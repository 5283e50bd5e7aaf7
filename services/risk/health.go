// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package risk

// HealthStatus is the coarse project status shown on dashboards.
type HealthStatus string

const (
	HealthOnTrack        HealthStatus = "on_track"
	HealthNeedsAttention HealthStatus = "needs_attention"
	HealthHighRisk       HealthStatus = "high_risk"
)

// Score penalties per finding kind.
const (
	penaltyBlocked    = 20
	penaltyStale      = 10
	penaltyOverdue    = 10
	penaltyDependency = 5
)

// Health thresholds on the 0-100 score.
const (
	ThresholdOnTrack        = 80
	ThresholdNeedsAttention = 50
)

// Health summarizes project state for a signal set and its findings.
type Health struct {
	Status             HealthStatus `json:"status"`
	Score              int          `json:"score"`
	TotalTasks         int          `json:"total_tasks"`
	CompletedTasks     int          `json:"completed_tasks"`
	BlockedTasks       int          `json:"blocked_tasks"`
	StaleTasks         int          `json:"stale_tasks"`
	OverdueTasks       int          `json:"overdue_tasks"`
	DependencyMentions int          `json:"dependency_mentions"`
}

// AssessHealth computes a deterministic Health from tasks and the
// findings evaluated for them.
//
// Score starts at 100 and loses 20 per blocked, 10 per stale, 10 per
// overdue and 5 per dependency finding, clamped to [0, 100].
func AssessHealth(tasks []TaskSignal, findings []Finding) Health {
	h := Health{TotalTasks: len(tasks)}
	for _, t := range tasks {
		if t.Status == TaskStatusDone {
			h.CompletedTasks++
		}
	}

	score := 100
	for _, f := range findings {
		switch f.Kind {
		case KindBlockedTask:
			h.BlockedTasks++
			score -= penaltyBlocked
		case KindStaleTask:
			h.StaleTasks++
			score -= penaltyStale
		case KindOverdueTask:
			h.OverdueTasks++
			score -= penaltyOverdue
		case KindDependencyMention:
			h.DependencyMentions++
			score -= penaltyDependency
		}
	}
	if score < 0 {
		score = 0
	}
	h.Score = score

	switch {
	case score >= ThresholdOnTrack:
		h.Status = HealthOnTrack
	case score >= ThresholdNeedsAttention:
		h.Status = HealthNeedsAttention
	default:
		h.Status = HealthHighRisk
	}
	return h
}
