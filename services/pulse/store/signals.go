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
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianPulse/services/risk"
)

// UpsertSignals inserts or replaces tasks and messages for a project in
// one transaction. Existing rows keep their position, so ListTasks and
// ListMessages return records in first-ingested order.
//
// Callers validate records before calling; the store only enforces
// the schema's NOT NULL and CHECK constraints.
func (s *Store) UpsertSignals(ctx context.Context, projectID string, tasks []risk.TaskSignal, messages []risk.MessageSignal) error {
	now := s.timestamp()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tasks {
			var due any
			if t.DueDate != nil {
				due = t.DueDate.UTC()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO task_signals
					(project_id, task_id, title, status, assignee, due_date, last_activity_days, source, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (project_id, task_id) DO UPDATE SET
					title = excluded.title,
					status = excluded.status,
					assignee = excluded.assignee,
					due_date = excluded.due_date,
					last_activity_days = excluded.last_activity_days,
					source = excluded.source,
					updated_at = excluded.updated_at
			`, projectID, t.TaskID, t.Title, string(t.Status), t.Assignee, due, t.LastActivityDays, string(t.Source), now)
			if err != nil {
				return fmt.Errorf("failed to upsert task %s: %w", t.TaskID, err)
			}
		}

		for _, m := range messages {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO message_signals (project_id, message_id, text, sent_at, source)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (project_id, message_id) DO UPDATE SET
					text = excluded.text,
					sent_at = excluded.sent_at,
					source = excluded.source
			`, projectID, m.MessageID, m.Text, m.Timestamp.UTC(), string(m.Source))
			if err != nil {
				return fmt.Errorf("failed to upsert message %s: %w", m.MessageID, err)
			}
		}
		return nil
	})
}

// ListTasks returns a project's task signals in ingestion order.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]risk.TaskSignal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, title, status, assignee, due_date, last_activity_days, source
		FROM task_signals WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []risk.TaskSignal{}
	for rows.Next() {
		var (
			t   risk.TaskSignal
			due sql.NullTime
		)
		if err := rows.Scan(&t.TaskID, &t.Title, &t.Status, &t.Assignee, &due, &t.LastActivityDays, &t.Source); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if due.Valid {
			d := due.Time
			t.DueDate = &d
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tasks, nil
}

// ListMessages returns a project's message signals in ingestion order.
// A non-zero since keeps only messages sent at or after it.
func (s *Store) ListMessages(ctx context.Context, projectID string, since time.Time) ([]risk.MessageSignal, error) {
	query := `SELECT message_id, text, sent_at, source FROM message_signals WHERE project_id = ?`
	args := []any{projectID}
	if !since.IsZero() {
		query += ` AND sent_at >= ?`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []risk.MessageSignal{}
	for rows.Next() {
		var m risk.MessageSignal
		if err := rows.Scan(&m.MessageID, &m.Text, &m.Timestamp, &m.Source); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return messages, nil
}

// DeleteSignals clears all signals of a project.
func (s *Store) DeleteSignals(ctx context.Context, projectID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_signals WHERE project_id = ?`, projectID); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM message_signals WHERE project_id = ?`, projectID); err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		return nil
	})
}
