// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the pulse CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style
	ErrorBox   lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Printer writes styled output at a fixed personality level.
type Printer struct {
	w     io.Writer
	level PersonalityLevel
}

// NewPrinter returns a Printer for w at the current personality level.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, level: GetPersonality().Level}
}

// NewPrinterLevel returns a Printer for w at an explicit level.
func NewPrinterLevel(w io.Writer, level PersonalityLevel) *Printer {
	return &Printer{w: w, level: level}
}

// Stdout returns a Printer for os.Stdout.
func Stdout() *Printer { return NewPrinter(os.Stdout) }

// Level returns the printer's personality level.
func (p *Printer) Level() PersonalityLevel { return p.level }

// Machine reports whether output is plain text for scripts.
func (p *Printer) Machine() bool { return p.level == PersonalityMachine }

// Title prints a styled title
func (p *Printer) Title(text string) {
	if p.Machine() {
		return
	}
	fmt.Fprintln(p.w, Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func (p *Printer) Success(text string) {
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "OK: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.w, "%s %s\n", IconSuccess, text)
	default:
		fmt.Fprintf(p.w, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message
func (p *Printer) Warning(text string) {
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "WARN: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.w, "%s %s\n", IconWarning, text)
	default:
		fmt.Fprintf(p.w, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error message
func (p *Printer) Error(text string) {
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "ERROR: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.w, "%s %s\n", IconError, text)
	default:
		fmt.Fprintf(p.w, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Bullet prints one list item
func (p *Printer) Bullet(text string) {
	if p.Machine() {
		fmt.Fprintf(p.w, "- %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "  %s %s\n", IconBullet.Render(), text)
}

// KeyValue prints an aligned "key: value" line
func (p *Printer) KeyValue(key, value string) {
	if p.Machine() {
		fmt.Fprintf(p.w, "%s=%s\n", strings.ReplaceAll(strings.ToLower(key), " ", "_"), value)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", Styles.Muted.Render(fmt.Sprintf("%-12s", key+":")), value)
}

// Muted prints muted/secondary text
func (p *Printer) Muted(text string) {
	if p.Machine() {
		return
	}
	fmt.Fprintln(p.w, Styles.Muted.Render(text))
}

// Box prints text in a rounded box
func (p *Printer) Box(title, content string) {
	if p.Machine() {
		fmt.Fprintf(p.w, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(p.w, Styles.Box.Width(72).Render(Styles.Title.Render(title)+"\n"+content))
}

// WarningBox prints text in a warning-styled box
func (p *Printer) WarningBox(title, content string) {
	if p.Machine() {
		fmt.Fprintf(p.w, "WARN %s: %s\n", title, content)
		return
	}
	fmt.Fprintln(p.w, Styles.WarningBox.Width(72).Render(Styles.Warning.Bold(true).Render(title)+"\n"+content))
}

// ScoreBar renders a 0-100 score as a bar
func ScoreBar(score, width int, level PersonalityLevel) string {
	if level == PersonalityMachine {
		return fmt.Sprintf("%d/100", score)
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score * width / 100
	style := Styles.Success
	switch {
	case score < 50:
		style = Styles.Error
	case score < 80:
		style = Styles.Warning
	}
	bar := style.Render(strings.Repeat("█", filled)) + Styles.Muted.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3d", bar, score)
}
