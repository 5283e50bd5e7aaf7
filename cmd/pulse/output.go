// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianPulse/pkg/ux"
	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/pulse/digest"
	"github.com/AleutianAI/AleutianPulse/services/risk"
)

// findingLabels orders and names finding kinds for display.
var findingLabels = []struct {
	kind  risk.FindingKind
	label string
}{
	{risk.KindBlockedTask, "Blocked"},
	{risk.KindOverdueTask, "Overdue"},
	{risk.KindStaleTask, "Stale"},
	{risk.KindDependencyMention, "Dependencies"},
}

// renderReport prints a human-readable analysis report.
func renderReport(p *ux.Printer, report *analysis.Report, savedID string) {
	p.Title("Project risk report")
	p.KeyValue("Health", fmt.Sprintf("%s %s", healthLabel(p, report.Health.Status), ux.ScoreBar(report.Health.Score, 20, p.Level())))
	p.KeyValue("Tasks", fmt.Sprintf("%d total, %d done", report.Health.TotalTasks, report.Health.CompletedTasks))
	p.KeyValue("Findings", fmt.Sprintf("%d", len(report.Findings)))
	p.KeyValue("Rules", report.RuleSetVersion)

	byKind := make(map[risk.FindingKind][]risk.Finding)
	for _, f := range report.Findings {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}
	for _, fl := range findingLabels {
		list := byKind[fl.kind]
		if len(list) == 0 {
			continue
		}
		p.Muted("")
		p.Muted(fmt.Sprintf("%s (%d)", fl.label, len(list)))
		for _, f := range list {
			p.Bullet(f.Description)
		}
	}

	if report.Summary != nil {
		title := "Summary"
		if report.Summary.Truncated {
			title = fmt.Sprintf("Summary (first %d of %d findings)", report.Summary.SourceFindingCount, len(report.Findings))
		}
		p.Box(title, strings.TrimSpace(report.Summary.Text))
	}
	if savedID != "" {
		p.Success("Summary saved as " + savedID)
	}
}

func healthLabel(p *ux.Printer, s risk.HealthStatus) string {
	if p.Machine() {
		return string(s)
	}
	label := strings.ReplaceAll(string(s), "_", " ")
	switch s {
	case risk.HealthOnTrack:
		return ux.Styles.Success.Render(label)
	case risk.HealthNeedsAttention:
		return ux.Styles.Warning.Render(label)
	default:
		return ux.Styles.Error.Render(label)
	}
}

// renderDigest prints a digest run result.
func renderDigest(p *ux.Printer, res *digest.Result) {
	p.Title("Digest")
	p.KeyValue("Projects", fmt.Sprintf("%d", res.Projects))
	p.KeyValue("Saved", fmt.Sprintf("%d", res.Saved))
	p.KeyValue("Skipped", fmt.Sprintf("%d", res.Skipped))
	p.KeyValue("Failed", fmt.Sprintf("%d", res.Failed))
	p.KeyValue("Duration", res.Duration.Round(time.Millisecond).String())
	if res.Failed > 0 {
		p.Warning(fmt.Sprintf("%d project(s) failed; see the log for details", res.Failed))
	}
}
