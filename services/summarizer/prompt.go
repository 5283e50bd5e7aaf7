// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package summarizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/AleutianPulse/services/risk"
)

const promptPreamble = "You are an AI project assistant.\n" +
	"Summarize the following project risks clearly.\n" +
	"Do not add information that is not present in the input.\n"

const ellipsis = "..."

// Prompt is the rendered request text plus what went into it.
type Prompt struct {
	Text      string
	Included  int
	Total     int
	Truncated bool
}

// BuildPrompt renders findings into a prompt.
//
// The result is a pure function of findings and the style/limit fields of
// cfg: identical input yields byte-identical text. When there are more
// findings than cfg.MaxInputFindings only the first N are rendered and a
// truncation notice follows the list.
func BuildPrompt(findings []risk.Finding, cfg Config) Prompt {
	cfg = cfg.withDefaults()

	p := Prompt{Total: len(findings), Included: len(findings)}
	if len(findings) > cfg.MaxInputFindings {
		findings = findings[:cfg.MaxInputFindings]
		p.Included = cfg.MaxInputFindings
		p.Truncated = true
	}

	var lines []string
	if cfg.Style == StyleByTask {
		lines = byTaskLines(findings)
	} else {
		lines = make([]string, 0, len(findings))
		for _, f := range findings {
			lines = append(lines, f.Description)
		}
	}

	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\nRisks:\n")
	for _, l := range lines {
		b.WriteString(boundLine("- "+flatten(l), cfg.MaxLineBytes))
		b.WriteByte('\n')
	}
	if p.Truncated {
		fmt.Fprintf(&b, "\nNote: the list was truncated to the first %d of %d risks.\n", p.Included, p.Total)
	}
	p.Text = b.String()
	return p
}

// byTaskLines groups task findings per subject in first-seen order and
// appends the non-task findings after them.
func byTaskLines(findings []risk.Finding) []string {
	var order []string
	reasons := make(map[string][]string)
	var other []string

	for _, f := range findings {
		if !f.Kind.TaskScoped() || f.SubjectID == "" {
			other = append(other, f.Description)
			continue
		}
		if _, ok := reasons[f.SubjectID]; !ok {
			order = append(order, f.SubjectID)
		}
		reasons[f.SubjectID] = append(reasons[f.SubjectID], f.Reason())
	}

	lines := make([]string, 0, len(order)+len(other))
	for _, id := range order {
		lines = append(lines, fmt.Sprintf("Task %s: %s", id, strings.Join(reasons[id], ", ")))
	}
	return append(lines, other...)
}

// flatten keeps one finding on one line.
func flatten(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}

// boundLine cuts s to at most max bytes on a rune boundary, marking the cut
// with an ellipsis.
func boundLine(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return ellipsis[:max]
	}
	cut := max - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
