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
	"reflect"
	"sync"
	"testing"
	"time"
)

func task(id string, status TaskStatus, days int) TaskSignal {
	return TaskSignal{
		TaskID:           id,
		Title:            "Task " + id,
		Status:           status,
		LastActivityDays: days,
		Source:           SourceJira,
	}
}

func message(id, text string) MessageSignal {
	return MessageSignal{
		MessageID: id,
		Text:      text,
		Timestamp: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Source:    SourceSlack,
	}
}

func TestEvaluate_Rules(t *testing.T) {
	tests := []struct {
		name     string
		tasks    []TaskSignal
		messages []MessageSignal
		want     []Finding
	}{
		{
			name: "empty input",
			want: []Finding{},
		},
		{
			name:  "healthy task",
			tasks: []TaskSignal{task("T1", TaskStatusInProgress, 1)},
			want:  []Finding{},
		},
		{
			name:  "threshold is exclusive",
			tasks: []TaskSignal{task("T1", TaskStatusTodo, 3)},
			want:  []Finding{},
		},
		{
			name:  "blocked and stale",
			tasks: []TaskSignal{task("T1", TaskStatusBlocked, 5)},
			want: []Finding{
				{Kind: KindBlockedTask, SubjectID: "T1", Description: "Task T1 is blocked"},
				{Kind: KindStaleTask, SubjectID: "T1", Description: "Task T1 has no recent updates"},
			},
		},
		{
			name:  "done tasks can still be stale",
			tasks: []TaskSignal{task("T9", TaskStatusDone, 10)},
			want: []Finding{
				{Kind: KindStaleTask, SubjectID: "T9", Description: "Task T9 has no recent updates"},
			},
		},
		{
			name:     "keyword is case-insensitive",
			messages: []MessageSignal{message("M1", "Still WAITING on legal")},
			want: []Finding{
				{Kind: KindDependencyMention, Description: "Dependency waiting mentioned in communication"},
			},
		},
		{
			name:     "keyword matches as substring",
			messages: []MessageSignal{message("M1", "awaiting sign-off")},
			want: []Finding{
				{Kind: KindDependencyMention, Description: "Dependency waiting mentioned in communication"},
			},
		},
		{
			name:     "repeated keyword yields one finding",
			messages: []MessageSignal{message("M1", "waiting, waiting, waiting")},
			want: []Finding{
				{Kind: KindDependencyMention, Description: "Dependency waiting mentioned in communication"},
			},
		},
		{
			name:     "attachment-only message",
			messages: []MessageSignal{message("M1", "")},
			want:     []Finding{},
		},
		{
			name:     "message without keyword",
			messages: []MessageSignal{message("M1", "shipped the release")},
			want:     []Finding{},
		},
		{
			name: "no dedup across records",
			tasks: []TaskSignal{
				task("T1", TaskStatusBlocked, 0),
				task("T2", TaskStatusBlocked, 0),
			},
			messages: []MessageSignal{
				message("M1", "waiting"),
				message("M2", "waiting"),
			},
			want: []Finding{
				{Kind: KindBlockedTask, SubjectID: "T1", Description: "Task T1 is blocked"},
				{Kind: KindBlockedTask, SubjectID: "T2", Description: "Task T2 is blocked"},
				{Kind: KindDependencyMention, Description: "Dependency waiting mentioned in communication"},
				{Kind: KindDependencyMention, Description: "Dependency waiting mentioned in communication"},
			},
		},
	}

	e := NewEvaluator(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.tasks, tt.messages)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_Ordering(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	tasks := []TaskSignal{
		task("A", TaskStatusTodo, 4),
		task("B", TaskStatusDone, 0),
		task("C", TaskStatusBlocked, 9),
	}
	messages := []MessageSignal{message("M1", "waiting on vendor")}

	got, err := e.Evaluate(tasks, messages)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	want := []struct {
		kind    FindingKind
		subject string
	}{
		{KindStaleTask, "A"},
		{KindBlockedTask, "C"},
		{KindStaleTask, "C"},
		{KindDependencyMention, ""},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d findings, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Kind != w.kind || got[i].SubjectID != w.subject {
			t.Errorf("finding[%d] = %s/%s, want %s/%s", i, got[i].Kind, got[i].SubjectID, w.kind, w.subject)
		}
	}
}

func TestEvaluate_StaleThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StaleAfterDays = 7
	e := NewEvaluator(cfg)

	got, err := e.Evaluate([]TaskSignal{task("T1", TaskStatusTodo, 5), task("T2", TaskStatusTodo, 8)}, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(got) != 1 || got[0].SubjectID != "T2" {
		t.Errorf("Evaluate() = %+v, want a single stale finding for T2", got)
	}

	cfg.StaleAfterDays = -1
	if NewEvaluator(cfg).StaleAfterDays() != DefaultStaleAfterDays {
		t.Error("negative threshold should fall back to the default")
	}
}

func TestEvaluate_Overdue(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	overdue := task("T1", TaskStatusBlocked, 5)
	overdue.DueDate = &past
	notDue := task("T2", TaskStatusTodo, 0)
	notDue.DueDate = &future
	finished := task("T3", TaskStatusDone, 0)
	finished.DueDate = &past

	tasks := []TaskSignal{overdue, notDue, finished}

	t.Run("disabled by default", func(t *testing.T) {
		e := NewEvaluator(Config{Now: func() time.Time { return now }})
		got, err := e.Evaluate(tasks, nil)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		for _, f := range got {
			if f.Kind == KindOverdueTask {
				t.Errorf("unexpected overdue finding %+v", f)
			}
		}
	})

	t.Run("enabled", func(t *testing.T) {
		e := NewEvaluator(Config{FlagOverdue: true, Now: func() time.Time { return now }})
		got, err := e.Evaluate(tasks, nil)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		want := []FindingKind{KindBlockedTask, KindStaleTask, KindOverdueTask}
		if len(got) != len(want) {
			t.Fatalf("got %+v, want kinds %v", got, want)
		}
		for i, k := range want {
			if got[i].Kind != k || got[i].SubjectID != "T1" {
				t.Errorf("finding[%d] = %+v, want %s on T1", i, got[i], k)
			}
		}
		if got[2].Description != "Task T1 is past its due date" {
			t.Errorf("overdue description = %q", got[2].Description)
		}
	})
}

type multiClassifier struct{}

func (multiClassifier) Classify(text string) []FindingKind {
	return []FindingKind{KindDependencyMention, "escalation", KindDependencyMention}
}

func TestEvaluate_CustomClassifier(t *testing.T) {
	e := NewEvaluator(Config{Classifier: multiClassifier{}})
	got, err := e.Evaluate(nil, []MessageSignal{message("M1", "anything")})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d findings, want 2: %+v", len(got), got)
	}
	if got[1].Kind != "escalation" || got[1].Description != "Communication indicates escalation" {
		t.Errorf("second finding = %+v", got[1])
	}
}

func TestEvaluate_InvalidInputFailsWholeCall(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	bad := task("T2", "paused", 0)

	got, err := e.Evaluate([]TaskSignal{task("T1", TaskStatusBlocked, 0), bad}, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got != nil {
		t.Errorf("expected no findings on error, got %+v", got)
	}
	if !IsValidationError(err) {
		t.Errorf("error %v is not a *ValidationError", err)
	}
}

func TestEvaluate_Concurrent(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	tasks := []TaskSignal{task("T1", TaskStatusBlocked, 5)}
	messages := []MessageSignal{message("M1", "waiting")}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Evaluate(tasks, messages)
			if err != nil || len(got) != 3 {
				t.Errorf("Evaluate() = %d findings, err %v", len(got), err)
			}
		}()
	}
	wg.Wait()
}

func TestKeywordClassifier(t *testing.T) {
	kc := NewKeywordClassifier("  Blocked By ", "", "HOLD")
	if got := kc.Keywords(); !reflect.DeepEqual(got, []string{"blocked by", "hold"}) {
		t.Errorf("Keywords() = %v", got)
	}
	if got := kc.Classify("we are blocked by infra"); len(got) != 1 {
		t.Errorf("Classify() = %v, want one kind", got)
	}
	if got := kc.Classify("waiting"); got != nil {
		t.Errorf("Classify() = %v, want nil", got)
	}
	if got := NewKeywordClassifier().Keywords(); !reflect.DeepEqual(got, []string{"waiting"}) {
		t.Errorf("default Keywords() = %v", got)
	}
}

func TestFindingReason(t *testing.T) {
	tests := []struct {
		f    Finding
		want string
	}{
		{Finding{Kind: KindBlockedTask}, "blocked"},
		{Finding{Kind: KindStaleTask}, "no recent updates"},
		{Finding{Kind: KindOverdueTask}, "past due date"},
		{Finding{Kind: KindDependencyMention, Description: "desc"}, "desc"},
	}
	for _, tt := range tests {
		if got := tt.f.Reason(); got != tt.want {
			t.Errorf("Reason(%s) = %q, want %q", tt.f.Kind, got, tt.want)
		}
	}
	if KindDependencyMention.TaskScoped() || !KindStaleTask.TaskScoped() {
		t.Error("TaskScoped() mismatch")
	}
}
