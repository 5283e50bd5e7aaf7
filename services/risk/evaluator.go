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
	"fmt"
	"time"
)

// Config holds evaluator configuration.
//
// # Fields
//
//   - StaleAfterDays: A task is stale when last_activity_days exceeds this.
//     Negative values are replaced by DefaultStaleAfterDays.
//   - FlagOverdue: Enable the overdue rule (off by default).
//   - Classifier: Message classifier. Nil means a "waiting" keyword match.
//   - ExtraTaskSources / ExtraMessageSources: Additional accepted source tags.
//   - Now: Clock for the overdue rule. Nil means time.Now.
type Config struct {
	StaleAfterDays      int
	FlagOverdue         bool
	Classifier          MessageClassifier
	ExtraTaskSources    []string
	ExtraMessageSources []string
	Now                 func() time.Time
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		StaleAfterDays: DefaultStaleAfterDays,
		Classifier:     NewKeywordClassifier(DefaultDependencyKeyword),
	}
}

// Evaluator derives findings from signals.
//
// # Thread Safety
//
// Evaluator is immutable after construction and safe for concurrent use.
type Evaluator struct {
	staleAfterDays int
	flagOverdue    bool
	classifier     MessageClassifier
	validator      *Validator
	now            func() time.Time
}

// NewEvaluator creates an Evaluator from cfg, filling defaults.
func NewEvaluator(cfg Config) *Evaluator {
	if cfg.StaleAfterDays < 0 {
		cfg.StaleAfterDays = DefaultStaleAfterDays
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewKeywordClassifier(DefaultDependencyKeyword)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Evaluator{
		staleAfterDays: cfg.StaleAfterDays,
		flagOverdue:    cfg.FlagOverdue,
		classifier:     cfg.Classifier,
		validator:      NewValidator(cfg.ExtraTaskSources, cfg.ExtraMessageSources),
		now:            cfg.Now,
	}
}

// Validator returns the validator the evaluator applies, so ingestion
// paths can reject records with the same rules before storing them.
func (e *Evaluator) Validator() *Validator {
	return e.validator
}

// StaleAfterDays returns the configured stale threshold.
func (e *Evaluator) StaleAfterDays() int {
	return e.staleAfterDays
}

// Evaluate validates the signals and returns the ordered findings.
//
// # Description
//
// All records are validated first; the first malformed one aborts with a
// *ValidationError. Then each task contributes zero to three findings
// (blocked, stale, overdue in that order) and each message contributes
// the findings its classifier returns. Task findings precede message
// findings. Findings are never deduplicated.
//
// # Inputs
//
//   - tasks: Task signals. May be empty.
//   - messages: Message signals. May be empty.
//
// # Outputs
//
//   - []Finding: Ordered findings. Non-nil, empty when nothing is flagged.
//   - error: *ValidationError for malformed input.
//
// # Examples
//
//	findings, err := evaluator.Evaluate([]TaskSignal{
//	    {TaskID: "T-1", Title: "Contract", Status: TaskStatusBlocked, LastActivityDays: 5, Source: SourceJira},
//	}, nil)
//	// findings: [blocked_task T-1, stale_task T-1]
func (e *Evaluator) Evaluate(tasks []TaskSignal, messages []MessageSignal) ([]Finding, error) {
	if err := e.validator.ValidateSignals(tasks, messages); err != nil {
		return nil, err
	}

	findings := make([]Finding, 0, len(tasks)+len(messages))
	now := e.now()

	for _, t := range tasks {
		findings = append(findings, e.evaluateTask(t, now)...)
	}
	for _, m := range messages {
		findings = append(findings, e.evaluateMessage(m)...)
	}
	return findings, nil
}

func (e *Evaluator) evaluateTask(t TaskSignal, now time.Time) []Finding {
	var out []Finding
	if t.Status == TaskStatusBlocked {
		out = append(out, Finding{
			Kind:        KindBlockedTask,
			SubjectID:   t.TaskID,
			Description: fmt.Sprintf(descBlockedFmt, t.TaskID),
		})
	}
	if t.LastActivityDays > e.staleAfterDays {
		out = append(out, Finding{
			Kind:        KindStaleTask,
			SubjectID:   t.TaskID,
			Description: fmt.Sprintf(descStaleFmt, t.TaskID),
		})
	}
	if e.flagOverdue && t.DueDate != nil && t.Status != TaskStatusDone && t.DueDate.Before(now) {
		out = append(out, Finding{
			Kind:        KindOverdueTask,
			SubjectID:   t.TaskID,
			Description: fmt.Sprintf(descOverdueFmt, t.TaskID),
		})
	}
	return out
}

func (e *Evaluator) evaluateMessage(m MessageSignal) []Finding {
	kinds := e.classifier.Classify(m.Text)
	if len(kinds) == 0 {
		return nil
	}

	out := make([]Finding, 0, len(kinds))
	seen := make(map[FindingKind]bool, len(kinds))
	for _, k := range kinds {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, Finding{Kind: k, Description: messageDescription(k)})
	}
	return out
}

func messageDescription(k FindingKind) string {
	if k == KindDependencyMention {
		return descDependencyMention
	}
	return fmt.Sprintf("Communication indicates %s", k)
}
