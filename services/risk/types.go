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

import (
	"strings"
	"time"
)

// RuleSetVersion is the version of the evaluation rules.
// Increment when a change alters which findings are produced.
const RuleSetVersion = "1.0"

// Default configuration values.
const (
	DefaultStaleAfterDays    = 3
	DefaultDependencyKeyword = "waiting"
)

// TaskStatus is the closed set of task states accepted at ingestion.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists every recognized status.
var TaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusBlocked,
	TaskStatusDone,
}

// Valid reports whether s is a recognized status.
func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Source is a provenance tag for a signal. The built-in values cover the
// integrations shipped today; operators may register more through
// Config.ExtraTaskSources and Config.ExtraMessageSources.
type Source string

const (
	SourceJira     Source = "jira"
	SourceNotion   Source = "notion"
	SourceSlack    Source = "slack"
	SourceWhatsApp Source = "whatsapp"
	SourceManual   Source = "manual"
)

// Built-in source sets.
var (
	DefaultTaskSources    = []Source{SourceJira, SourceNotion, SourceManual}
	DefaultMessageSources = []Source{SourceSlack, SourceWhatsApp, SourceManual}
)

// normalizeSource lowercases and trims a source tag for set membership.
func normalizeSource(s string) Source {
	return Source(strings.ToLower(strings.TrimSpace(s)))
}

// TaskSignal is one unit of tracked work reported by an upstream tool.
type TaskSignal struct {
	TaskID           string     `json:"task_id" validate:"required,max=256"`
	Title            string     `json:"title" validate:"max=1024"`
	Status           TaskStatus `json:"status" validate:"required,task_status"`
	Assignee         string     `json:"assignee,omitempty" validate:"max=256"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	LastActivityDays int        `json:"last_activity_days" validate:"gte=0"`
	Source           Source     `json:"source" validate:"required,task_source"`
}

// MessageSignal is one communication event from a chat or collaboration tool.
type MessageSignal struct {
	MessageID string    `json:"message_id" validate:"required,max=256"`
	Text      string    `json:"text"` // empty for attachment-only messages
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Source    Source    `json:"source" validate:"required,message_source"`
}

// FindingKind categorizes a finding.
type FindingKind string

const (
	KindBlockedTask       FindingKind = "blocked_task"
	KindStaleTask         FindingKind = "stale_task"
	KindDependencyMention FindingKind = "dependency_mention"
	KindOverdueTask       FindingKind = "overdue_task"
)

// TaskScoped reports whether findings of this kind reference a task.
func (k FindingKind) TaskScoped() bool {
	switch k {
	case KindBlockedTask, KindStaleTask, KindOverdueTask:
		return true
	default:
		return false
	}
}

// Finding is a discrete, rule-derived risk observation.
//
// SubjectID is the id of the task that triggered the finding; it is empty
// for findings not tied to a single task (dependency mentions).
type Finding struct {
	Kind        FindingKind `json:"kind"`
	SubjectID   string      `json:"subject_id,omitempty"`
	Description string      `json:"description"`
}

// Descriptions for each rule. Summaries fall back to these when no LLM is
// involved, so changing them changes user-visible output.
const (
	descBlockedFmt        = "Task %s is blocked"
	descStaleFmt          = "Task %s has no recent updates"
	descOverdueFmt        = "Task %s is past its due date"
	descDependencyMention = "Dependency waiting mentioned in communication"
)

// Reason returns the short per-task reason used when findings are grouped
// by task ("blocked", "no recent updates").
func (f Finding) Reason() string {
	switch f.Kind {
	case KindBlockedTask:
		return "blocked"
	case KindStaleTask:
		return "no recent updates"
	case KindOverdueTask:
		return "past due date"
	default:
		return f.Description
	}
}
