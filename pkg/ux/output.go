// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the codesmith CLI.
//
// Output degrades to plain text when stdout is not a terminal or when
// NO_COLOR is set, so piped output stays parseable.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Codesmith color palette, forge embers on dark steel.
var (
	ColorEmber   = lipgloss.Color("#FF8A3D") // highlights, brand
	ColorFlame   = lipgloss.Color("#E85D2F") // interactive accents
	ColorGold    = lipgloss.Color("#F4C430") // warnings
	ColorSteel   = lipgloss.Color("#6B7A8F") // muted text, borders
	ColorIron    = lipgloss.Color("#3B4453") // deep borders
	ColorSuccess = lipgloss.Color("#5FD068")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
	CodeBox   lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorEmber),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSteel),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorGold),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorFlame).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorIron).
		Padding(0, 1),
	CodeBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorEmber).
		Padding(0, 1),
}

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout

	plain     bool
	plainOnce sync.Once
	plainSet  bool
)

// SetPlain forces plain or styled output, overriding terminal detection.
func SetPlain(p bool) {
	mu.Lock()
	defer mu.Unlock()
	plain = p
	plainSet = true
}

// Plain reports whether output should skip styling. Defaults to plain
// when stdout is not a terminal or NO_COLOR is set.
func Plain() bool {
	mu.Lock()
	defer mu.Unlock()
	if !plainSet {
		plainOnce.Do(func() {
			plain = os.Getenv("NO_COLOR") != "" ||
				(!isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()))
		})
	}
	return plain
}

// Title prints a styled section heading.
func Title(text string) {
	if Plain() {
		fprintln(out, text)
		return
	}
	fprintln(out, Styles.Title.Render(text))
}

// Success prints a success message with a checkmark.
func Success(text string) {
	if Plain() {
		fprintf(out, "OK: %s\n", text)
		return
	}
	fprintf(out, "%s %s\n", Styles.Success.Render("✓"), Styles.Success.Render(text))
}

// Warning prints a warning message.
func Warning(text string) {
	if Plain() {
		fprintf(out, "WARN: %s\n", text)
		return
	}
	fprintf(out, "%s %s\n", Styles.Warning.Render("⚠"), Styles.Warning.Render(text))
}

// Error prints an error message.
func Error(text string) {
	if Plain() {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", Styles.Error.Render("✗"), Styles.Error.Render(text))
}

// Info prints an informational line.
func Info(text string) {
	if Plain() {
		fprintln(out, text)
		return
	}
	fprintf(out, "%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints secondary text. Suppressed entirely in plain mode.
func Muted(text string) {
	if Plain() {
		return
	}
	fprintln(out, Styles.Muted.Render(text))
}

// Code prints generated source, boxed when styled.
func Code(source string) {
	source = strings.TrimRight(source, "\n")
	if Plain() {
		fprintln(out, source)
		return
	}
	fprintln(out, Styles.CodeBox.Render(source))
}

// KeyValue prints an aligned label and value pair.
func KeyValue(key, value string) {
	if Plain() {
		fprintf(out, "%s: %s\n", key, value)
		return
	}
	fprintf(out, "%s %s\n", Styles.Muted.Render(fmt.Sprintf("%-12s", key+":")), value)
}

func fprintln(w io.Writer, a ...any)          { _, _ = fmt.Fprintln(w, a...) }
func fprintf(w io.Writer, f string, a ...any) { _, _ = fmt.Fprintf(w, f, a...) }
