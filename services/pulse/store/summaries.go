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
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianPulse/services/risk"
)

// SaveSummary persists a summary. ID and CreatedAt are assigned here.
func (s *Store) SaveSummary(ctx context.Context, sum *Summary) error {
	sum.ID = uuid.NewString()
	sum.CreatedAt = s.timestamp()
	if sum.Findings == nil {
		sum.Findings = []risk.Finding{}
	}

	findingsJSON, err := json.Marshal(sum.Findings)
	if err != nil {
		return fmt.Errorf("failed to encode findings: %w", err)
	}

	truncated := 0
	if sum.Truncated {
		truncated = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO summaries
			(id, project_id, origin, text, source_finding_count, truncated, model,
			 health_score, health_status, findings_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sum.ID, sum.ProjectID, string(sum.Origin), sum.Text, sum.SourceFindingCount, truncated, sum.Model,
		sum.HealthScore, string(sum.HealthStatus), string(findingsJSON), sum.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// ListSummaries returns up to limit summaries of a project, newest first.
// limit <= 0 means no limit.
func (s *Store) ListSummaries(ctx context.Context, projectID string, limit int) ([]*Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, origin, text, source_finding_count, truncated, model,
		       health_score, health_status, findings_json, created_at
		FROM summaries WHERE project_id = ?
		ORDER BY rowid DESC
		LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	out := []*Summary{}
	for rows.Next() {
		var (
			sum          Summary
			truncated    int
			findingsJSON string
		)
		if err := rows.Scan(&sum.ID, &sum.ProjectID, &sum.Origin, &sum.Text, &sum.SourceFindingCount, &truncated,
			&sum.Model, &sum.HealthScore, &sum.HealthStatus, &findingsJSON, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		sum.Truncated = truncated == 1
		if err := json.Unmarshal([]byte(findingsJSON), &sum.Findings); err != nil {
			return nil, fmt.Errorf("failed to decode findings of summary %s: %w", sum.ID, err)
		}
		out = append(out, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// LatestSummary returns the newest summary of a project.
func (s *Store) LatestSummary(ctx context.Context, projectID string) (*Summary, error) {
	list, err := s.ListSummaries(ctx, projectID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}
