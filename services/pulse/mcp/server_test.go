// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/pulse/reports"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

type stubSummarizer struct {
	err error
}

func (s *stubSummarizer) Summarize(_ context.Context, findings []risk.Finding) (*summarizer.RiskSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &summarizer.RiskSummary{Text: "API work is blocked.", SourceFindingCount: len(findings), Model: "stub"}, nil
}

const inlineSignals = `{
  "tasks": [
    {"task_id": "T1", "title": "API", "status": "blocked", "last_activity_days": 1, "source": "jira"},
    {"task_id": "T2", "title": "Docs", "status": "in_progress", "last_activity_days": 5, "source": "notion"}
  ],
  "messages": [
    {"message_id": "M1", "text": "Still waiting on design", "timestamp": "2025-01-02T10:00:00Z", "source": "slack"}
  ]
}`

func setup(t *testing.T, sum analysis.Summarizer) (*server.MCPServer, *store.Store, *store.Project) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Init(ctx); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	u, err := st.CreateUser(ctx, "Ann", "ann@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	p := &store.Project{OwnerID: u.ID, Name: "Apollo"}
	if err := st.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := st.UpsertSignals(ctx, p.ID, []risk.TaskSignal{
		{TaskID: "T1", Title: "API", Status: risk.TaskStatusBlocked, Source: risk.SourceJira},
	}, nil); err != nil {
		t.Fatalf("UpsertSignals: %v", err)
	}

	pipeline := analysis.NewPipeline(nil, sum, analysis.WithRetryPolicy(analysis.RetryPolicy{MaxAttempts: 1}))
	return NewServer(st, reports.NewRunner(st, pipeline, nil)), st, p
}

func call(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	if tool == nil {
		t.Fatalf("Tool %s not found", name)
	}
	result, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("Expected content, got none")
	}
	return result.Content[0].(mcp.TextContent).Text
}

func TestToolsRegistered(t *testing.T) {
	s, _, _ := setup(t, nil)
	for _, name := range []string{"detect_risks", "summarize_risks", "get_latest_summary"} {
		if s.GetTool(name) == nil {
			t.Errorf("Tool %s not registered", name)
		}
	}
}

func TestDetectRisks(t *testing.T) {
	s, _, _ := setup(t, nil)

	result := call(t, s, "detect_risks", map[string]any{"signals": inlineSignals})
	if result.IsError {
		t.Fatalf("Tool returned error: %s", text(t, result))
	}

	var out struct {
		Findings []risk.Finding `json:"findings"`
		Health   risk.Health    `json:"health"`
	}
	if err := json.Unmarshal([]byte(text(t, result)), &out); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}

	want := []risk.FindingKind{risk.KindBlockedTask, risk.KindStaleTask, risk.KindDependencyMention}
	if len(out.Findings) != len(want) {
		t.Fatalf("Expected %d findings, got %d: %+v", len(want), len(out.Findings), out.Findings)
	}
	for i, k := range want {
		if out.Findings[i].Kind != k {
			t.Errorf("finding %d: expected %s, got %s", i, k, out.Findings[i].Kind)
		}
	}
	if out.Health.TotalTasks != 2 {
		t.Errorf("Expected 2 tasks in health, got %d", out.Health.TotalTasks)
	}
}

func TestDetectRisks_InvalidInput(t *testing.T) {
	s, _, _ := setup(t, nil)

	if r := call(t, s, "detect_risks", map[string]any{"signals": "{not json"}); !r.IsError {
		t.Error("Expected error for malformed JSON")
	}

	bad := `{"tasks": [{"task_id": "T1", "title": "x", "status": "paused", "source": "jira"}]}`
	r := call(t, s, "detect_risks", map[string]any{"signals": bad})
	if !r.IsError {
		t.Fatal("Expected validation error")
	}
	if !strings.Contains(strings.ToLower(text(t, r)), "status") {
		t.Errorf("Expected error to name the field, got %q", text(t, r))
	}
}

func TestSummarizeRisks_Project(t *testing.T) {
	s, st, p := setup(t, &stubSummarizer{})

	r := call(t, s, "summarize_risks", map[string]any{"project_id": p.ID})
	if r.IsError {
		t.Fatalf("Tool returned error: %s", text(t, r))
	}
	if !strings.Contains(text(t, r), "API work is blocked.") {
		t.Errorf("Expected summary text in result, got %s", text(t, r))
	}

	saved, err := st.LatestSummary(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("LatestSummary: %v", err)
	}
	if saved.Origin != store.OriginMCP {
		t.Errorf("Expected origin mcp, got %s", saved.Origin)
	}

	r = call(t, s, "get_latest_summary", map[string]any{"project_id": p.ID})
	if r.IsError {
		t.Fatalf("Tool returned error: %s", text(t, r))
	}
	var got store.Summary
	if err := json.Unmarshal([]byte(text(t, r)), &got); err != nil {
		t.Fatalf("Failed to unmarshal summary: %v", err)
	}
	if got.ID != saved.ID {
		t.Errorf("Expected summary %s, got %s", saved.ID, got.ID)
	}
}

func TestSummarizeRisks_Inline(t *testing.T) {
	s, _, _ := setup(t, &stubSummarizer{})

	r := call(t, s, "summarize_risks", map[string]any{"signals": inlineSignals})
	if r.IsError {
		t.Fatalf("Tool returned error: %s", text(t, r))
	}
	if strings.Contains(text(t, r), "summary_id") {
		t.Error("Inline runs must not be persisted")
	}
}

func TestSummarizeRisks_Errors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s, _, p := setup(t, nil)
		r := call(t, s, "summarize_risks", map[string]any{"project_id": p.ID})
		if !r.IsError || !strings.Contains(text(t, r), "disabled") {
			t.Errorf("Expected disabled error, got %v", r.Content)
		}
	})

	t.Run("arguments", func(t *testing.T) {
		s, _, p := setup(t, &stubSummarizer{})
		if r := call(t, s, "summarize_risks", map[string]any{}); !r.IsError {
			t.Error("Expected error without arguments")
		}
		if r := call(t, s, "summarize_risks", map[string]any{"project_id": p.ID, "signals": inlineSignals}); !r.IsError {
			t.Error("Expected error with both arguments")
		}
		if r := call(t, s, "summarize_risks", map[string]any{"project_id": "missing"}); !r.IsError {
			t.Error("Expected error for unknown project")
		}
	})

	t.Run("llm failure", func(t *testing.T) {
		s, _, p := setup(t, &stubSummarizer{err: &summarizer.SummarizationError{
			Kind: summarizer.KindAuthenticationFailed, FindingCount: 1, Err: errors.New("bad key"),
		}})
		r := call(t, s, "summarize_risks", map[string]any{"project_id": p.ID})
		if !r.IsError {
			t.Fatal("Expected error result")
		}
		msg := text(t, r)
		if !strings.Contains(msg, "authentication_failed") || !strings.Contains(msg, "retryable=false") {
			t.Errorf("Expected kind and retryability in %q", msg)
		}
	})
}

func TestGetLatestSummary_None(t *testing.T) {
	s, _, p := setup(t, nil)
	r := call(t, s, "get_latest_summary", map[string]any{"project_id": p.ID})
	if !r.IsError || !strings.Contains(text(t, r), "No summary") {
		t.Errorf("Expected not-found error, got %v", r.Content)
	}
}
