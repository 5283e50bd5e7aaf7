// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
	"github.com/AleutianAI/AleutianPulse/services/risk"
)

// AnalyzeRequest runs an analysis on inline signals. Summarize defaults
// to true when omitted.
type AnalyzeRequest struct {
	Tasks     []risk.TaskSignal    `json:"tasks"`
	Messages  []risk.MessageSignal `json:"messages"`
	Summarize *bool                `json:"summarize,omitempty"`
}

// ProjectAnalyzeRequest runs an analysis on stored signals. The body is
// optional.
type ProjectAnalyzeRequest struct {
	Summarize *bool `json:"summarize,omitempty"`
}

// WantsSummary resolves the optional summarize flag.
func WantsSummary(flag *bool) bool {
	return flag == nil || *flag
}

type AnalysisResponse struct {
	*analysis.Report
	SummaryID string `json:"summary_id,omitempty"`
}

// SummarizationErrorResponse is returned when findings were computed but
// the summary could not be produced.
type SummarizationErrorResponse struct {
	Error        string         `json:"error"`
	Kind         string         `json:"kind"`
	FindingCount int            `json:"finding_count"`
	Truncated    bool           `json:"truncated"`
	Findings     []risk.Finding `json:"findings"`
	Health       risk.Health    `json:"health"`
}

type SummariesResponse struct {
	Summaries []*store.Summary `json:"summaries"`
}
