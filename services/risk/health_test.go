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

import "testing"

func TestAssessHealth(t *testing.T) {
	f := func(k FindingKind) Finding { return Finding{Kind: k} }

	tests := []struct {
		name       string
		tasks      []TaskSignal
		findings   []Finding
		wantScore  int
		wantStatus HealthStatus
	}{
		{"no findings", []TaskSignal{task("T1", TaskStatusDone, 0)}, nil, 100, HealthOnTrack},
		{"one blocked", nil, []Finding{f(KindBlockedTask)}, 80, HealthOnTrack},
		{"blocked and stale", nil, []Finding{f(KindBlockedTask), f(KindStaleTask)}, 70, HealthNeedsAttention},
		{"boundary 50", nil, []Finding{
			f(KindBlockedTask), f(KindBlockedTask), f(KindStaleTask),
		}, 50, HealthNeedsAttention},
		{"high risk", nil, []Finding{
			f(KindBlockedTask), f(KindBlockedTask), f(KindStaleTask), f(KindDependencyMention),
		}, 45, HealthHighRisk},
		{"clamped", nil, []Finding{
			f(KindBlockedTask), f(KindBlockedTask), f(KindBlockedTask),
			f(KindBlockedTask), f(KindBlockedTask), f(KindBlockedTask),
		}, 0, HealthHighRisk},
		{"overdue", nil, []Finding{f(KindOverdueTask)}, 90, HealthOnTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AssessHealth(tt.tasks, tt.findings)
			if h.Score != tt.wantScore || h.Status != tt.wantStatus {
				t.Errorf("AssessHealth() = %d/%s, want %d/%s", h.Score, h.Status, tt.wantScore, tt.wantStatus)
			}
		})
	}
}

func TestAssessHealth_Counts(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	tasks := []TaskSignal{
		task("T1", TaskStatusBlocked, 5),
		task("T2", TaskStatusDone, 0),
		task("T3", TaskStatusInProgress, 1),
	}
	findings, err := e.Evaluate(tasks, []MessageSignal{message("M1", "waiting on design")})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	h := AssessHealth(tasks, findings)
	want := Health{
		Status:             HealthNeedsAttention,
		Score:              65,
		TotalTasks:         3,
		CompletedTasks:     1,
		BlockedTasks:       1,
		StaleTasks:         1,
		DependencyMentions: 1,
	}
	if h != want {
		t.Errorf("AssessHealth() = %+v, want %+v", h, want)
	}
}
