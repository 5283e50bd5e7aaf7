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
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateProject inserts a project and its team in one transaction.
// p.ID and member ids are generated; p.Priority defaults to medium.
func (s *Store) CreateProject(ctx context.Context, p *Project) error {
	p.ID = uuid.NewString()
	p.CreatedAt = s.timestamp()
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, owner_id, name, description, priority, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, p.OwnerID, p.Name, p.Description, p.Priority, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		for i := range p.Team {
			m := &p.Team[i]
			m.ID = uuid.NewString()
			m.ProjectID = p.ID
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO team_members (id, project_id, name, role, email) VALUES (?, ?, ?, ?, ?)`,
				m.ID, m.ProjectID, m.Name, m.Role, m.Email); err != nil {
				return fmt.Errorf("failed to add team member %q: %w", m.Name, err)
			}
		}
		return nil
	})
}

// GetProject returns a project owned by ownerID, with its team.
// Projects owned by someone else are reported as ErrNotFound.
func (s *Store) GetProject(ctx context.Context, ownerID, id string) (*Project, error) {
	p, err := s.getProject(ctx, s.db, `
		SELECT id, owner_id, name, description, priority, created_at
		FROM projects WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return nil, err
	}
	if p.Team, err = s.ListTeamMembers(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// ProjectOwner returns the owner id of project id.
func (s *Store) ProjectOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT owner_id FROM projects WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get project owner: %w", err)
	}
	return owner, nil
}

func (s *Store) getProject(ctx context.Context, exec executor, query string, args ...any) (*Project, error) {
	p := &Project{}
	err := exec.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Priority, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects returns the projects owned by ownerID, oldest first.
// Team members are not loaded.
func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]*Project, error) {
	return s.queryProjects(ctx, `
		SELECT id, owner_id, name, description, priority, created_at
		FROM projects WHERE owner_id = ? ORDER BY rowid
	`, ownerID)
}

// ListAllProjects returns every project. Used by background digests.
func (s *Store) ListAllProjects(ctx context.Context) ([]*Project, error) {
	return s.queryProjects(ctx, `
		SELECT id, owner_id, name, description, priority, created_at
		FROM projects ORDER BY rowid
	`)
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		p := &Project{}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Priority, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return projects, nil
}

// ListTeamMembers returns a project's team in insertion order.
func (s *Store) ListTeamMembers(ctx context.Context, projectID string) ([]TeamMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, role, email FROM team_members WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	members := []TeamMember{}
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Role, &m.Email); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return members, nil
}

// DeleteProject removes a project owned by ownerID along with its team,
// signals and summaries.
func (s *Store) DeleteProject(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
