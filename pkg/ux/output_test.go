// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"strings"
	"testing"
)

// =============================================================================
// Icon.Render Tests
// =============================================================================

func TestIcon_Render(t *testing.T) {
	for _, icon := range []Icon{IconSuccess, IconWarning, IconError, IconPending, IconBullet} {
		if got := icon.Render(); !strings.Contains(got, string(icon)) {
			t.Errorf("expected %q in rendered icon, got %q", icon, got)
		}
	}
}

// =============================================================================
// Printer Tests
// =============================================================================

func TestPrinter_MachineOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterLevel(&buf, PersonalityMachine)

	p.Title("Risk report")
	p.Success("saved")
	p.Warning("stale")
	p.Error("failed")
	p.Bullet("T-1 is blocked")
	p.KeyValue("Health Score", "60")
	p.Muted("hidden")
	p.Box("Summary", "All good.")

	want := "OK: saved\n" +
		"WARN: stale\n" +
		"ERROR: failed\n" +
		"- T-1 is blocked\n" +
		"health_score=60\n" +
		"Summary: All good.\n"
	if got := buf.String(); got != want {
		t.Errorf("machine output mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestPrinter_MinimalUsesIcons(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterLevel(&buf, PersonalityMinimal)

	p.Success("saved")
	p.Error("failed")

	out := buf.String()
	if !strings.Contains(out, "✓ saved") {
		t.Errorf("expected success icon, got %q", out)
	}
	if !strings.Contains(out, "✗ failed") {
		t.Errorf("expected error icon, got %q", out)
	}
}

func TestPrinter_StandardBox(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterLevel(&buf, PersonalityStandard)

	p.Box("Summary", "Two tasks are blocked.")
	out := buf.String()
	if !strings.Contains(out, "Summary") || !strings.Contains(out, "Two tasks are blocked.") {
		t.Errorf("expected title and content in box, got %q", out)
	}
	if p.Machine() {
		t.Error("standard printer must not be in machine mode")
	}
}

// =============================================================================
// ScoreBar Tests
// =============================================================================

func TestScoreBar_Machine(t *testing.T) {
	if got := ScoreBar(72, 20, PersonalityMachine); got != "72/100" {
		t.Errorf("expected 72/100, got %q", got)
	}
}

func TestScoreBar_Clamps(t *testing.T) {
	for _, score := range []int{-10, 0, 50, 100, 140} {
		got := ScoreBar(score, 10, PersonalityStandard)
		if strings.Count(got, "█")+strings.Count(got, "░") != 10 {
			t.Errorf("score %d: expected 10 cells, got %q", score, got)
		}
	}
}
