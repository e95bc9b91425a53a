// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pyast

import (
	"fmt"
	"strings"
)

const maxSyntaxIssues = 50

// SyntaxIssue is one parse error or missing token in the source.
type SyntaxIssue struct {
	Line    int
	Column  int
	Message string
	Snippet string
}

func (s SyntaxIssue) String() string {
	return fmt.Sprintf("line %d:%d: %s", s.Line, s.Column, s.Message)
}

// HasErrors reports whether the parse produced any error or missing nodes.
func (a *Arena) HasErrors() bool {
	for _, n := range a.Nodes {
		if n.IsError || n.IsMissing {
			return true
		}
	}
	return false
}

// SyntaxIssues collects every error and missing node, capped at
// maxSyntaxIssues so a garbage candidate cannot flood feedback.
func (a *Arena) SyntaxIssues() []SyntaxIssue {
	var issues []SyntaxIssue
	for i, n := range a.Nodes {
		if len(issues) >= maxSyntaxIssues {
			break
		}
		switch {
		case n.IsMissing:
			issues = append(issues, SyntaxIssue{
				Line:    n.StartRow + 1,
				Column:  n.StartCol,
				Message: fmt.Sprintf("missing %q", n.Kind),
				Snippet: a.lineSnippet(n.StartRow),
			})
		case n.IsError:
			issues = append(issues, SyntaxIssue{
				Line:    n.StartRow + 1,
				Column:  n.StartCol,
				Message: "invalid syntax near " + truncate(a.Text(i), 40),
				Snippet: a.lineSnippet(n.StartRow),
			})
		}
	}
	return issues
}

// lineSnippet returns the trimmed source line at the given 0-based row.
func (a *Arena) lineSnippet(row int) string {
	lines := strings.Split(string(a.Source), "\n")
	if row < 0 || row >= len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[row])
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
