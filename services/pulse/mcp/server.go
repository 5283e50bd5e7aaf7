// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mcp exposes risk detection and summarization as MCP tools over
// stdio, for use by local agents and editors.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/AleutianAI/AleutianPulse/services/pulse/reports"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

const (
	ServerName    = "AleutianPulse"
	ServerVersion = "0.1.0"
)

// Store is the read access the tools need.
type Store interface {
	ProjectOwner(ctx context.Context, id string) (string, error)
	LatestSummary(ctx context.Context, projectID string) (*store.Summary, error)
}

// signals is the inline payload accepted by detect_risks and
// summarize_risks.
type signals struct {
	Tasks    []risk.TaskSignal    `json:"tasks"`
	Messages []risk.MessageSignal `json:"messages"`
}

// NewServer creates the MCP server with every tool registered.
func NewServer(st Store, runner *reports.Runner) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion)

	s.AddTool(mcp.NewTool("detect_risks",
		mcp.WithDescription("Run the deterministic risk rules over task and message signals. No LLM is called."),
		mcp.WithString("signals", mcp.Description(`JSON object {"tasks": [...], "messages": [...]}`), mcp.Required()),
	), detectRisksHandler(runner))

	s.AddTool(mcp.NewTool("summarize_risks",
		mcp.WithDescription("Detect risks and summarize them with the configured LLM. Pass project_id to use stored signals and save the summary, or signals for an inline run."),
		mcp.WithString("project_id", mcp.Description("Stored project to analyze")),
		mcp.WithString("signals", mcp.Description(`Inline JSON object {"tasks": [...], "messages": [...]}`)),
	), summarizeRisksHandler(st, runner))

	s.AddTool(mcp.NewTool("get_latest_summary",
		mcp.WithDescription("Get the most recent saved risk summary of a project."),
		mcp.WithString("project_id", mcp.Description("Project ID"), mcp.Required()),
	), latestSummaryHandler(st))

	return s
}

// ServeStdio blocks serving s on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func parseSignals(raw string) (*signals, error) {
	var in signals
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("invalid signals JSON: %w", err)
	}
	return &in, nil
}

func detectRisksHandler(runner *reports.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in, err := parseSignals(mcp.ParseString(request, "signals", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		report, err := runner.Analyze(ctx, store.OriginMCP, in.Tasks, in.Messages, false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"findings":         report.Findings,
			"health":           report.Health,
			"rule_set_version": report.RuleSetVersion,
		})
	}
}

func summarizeRisksHandler(st Store, runner *reports.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !runner.Pipeline().CanSummarize() {
			return mcp.NewToolResultError("summaries are disabled: no LLM provider configured"), nil
		}

		projectID := mcp.ParseString(request, "project_id", "")
		raw := mcp.ParseString(request, "signals", "")

		switch {
		case projectID != "" && raw != "":
			return mcp.NewToolResultError("pass either project_id or signals, not both"), nil
		case projectID != "":
			if _, err := st.ProjectOwner(ctx, projectID); err != nil {
				return notFoundOr(err, fmt.Sprintf("Project '%s' not found", projectID)), nil
			}
			res, err := runner.AnalyzeProject(ctx, projectID, store.OriginMCP, true)
			if err != nil {
				return summarizeError(err), nil
			}
			out := map[string]any{"report": res.Report}
			if res.Saved != nil {
				out["summary_id"] = res.Saved.ID
			}
			return jsonResult(out)
		case raw != "":
			in, err := parseSignals(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			report, err := runner.Analyze(ctx, store.OriginMCP, in.Tasks, in.Messages, true)
			if err != nil {
				return summarizeError(err), nil
			}
			return jsonResult(map[string]any{"report": report})
		default:
			return mcp.NewToolResultError("project_id or signals is required"), nil
		}
	}
}

func latestSummaryHandler(st Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID := mcp.ParseString(request, "project_id", "")
		if projectID == "" {
			return mcp.NewToolResultError("project_id is required"), nil
		}

		sum, err := st.LatestSummary(ctx, projectID)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("No summary for project '%s'", projectID)), nil
		}
		return jsonResult(sum)
	}
}

// summarizeError reports a summarization failure with its kind so the
// agent can decide whether to retry.
func summarizeError(err error) *mcp.CallToolResult {
	if se, ok := summarizer.AsSummarizationError(err); ok {
		return mcp.NewToolResultError(fmt.Sprintf("summarization failed (%s, retryable=%t, findings=%d): %v",
			se.Kind, se.Retryable(), se.FindingCount, se.Err))
	}
	return mcp.NewToolResultError(err.Error())
}

func notFoundOr(err error, msg string) *mcp.CallToolResult {
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError(msg)
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
