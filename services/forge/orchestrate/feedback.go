// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrate

import (
	"fmt"
	"strings"

	"github.com/codesmith-ai/codesmith/services/forge/constraint"
	"github.com/codesmith-ai/codesmith/services/forge/ir"
	"github.com/codesmith-ai/codesmith/services/forge/pyast"
)

// Feedback is what a failed attempt tells the next one. Each failure stage
// produces its own variant; rendering happens only at the model boundary.
type Feedback interface {
	// Stage names the pipeline stage that produced the feedback.
	Stage() string
	Render() string
}

// SyntaxFeedback reports parse errors in the candidate.
type SyntaxFeedback struct {
	Issues []pyast.SyntaxIssue
}

func (f *SyntaxFeedback) Stage() string { return "syntax" }

func (f *SyntaxFeedback) Render() string {
	var b strings.Builder
	b.WriteString("The code does not parse:\n")
	for _, issue := range f.Issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	return b.String()
}

// ConstraintFeedback reports structural constraint violations.
type ConstraintFeedback struct {
	Violations []ir.Violation
}

func (f *ConstraintFeedback) Stage() string { return "constraints" }

func (f *ConstraintFeedback) Render() string {
	return constraint.RenderViolations(f.Violations)
}

// TestFeedback reports execution failures.
type TestFeedback struct {
	Result *ir.ValidationResult
}

func (f *TestFeedback) Stage() string { return "tests" }

func (f *TestFeedback) Render() string {
	var b strings.Builder
	b.WriteString(f.Result.Diagnostic)
	for i, failed := range f.Result.FailedTests {
		if i >= 3 {
			fmt.Fprintf(&b, "\n... and %d more failing case(s)", len(f.Result.FailedTests)-i)
			break
		}
		fmt.Fprintf(&b, "\n- inputs %v: expected %v, got %s (%s)",
			failed.Case.Inputs, failed.Case.Expected, failed.Actual, failed.Category)
	}
	return b.String()
}

// MalformedFeedback reports that the previous response was unusable.
type MalformedFeedback struct {
	Err error
}

func (f *MalformedFeedback) Stage() string { return "response" }

func (f *MalformedFeedback) Render() string {
	return "The previous response was not usable code: " + f.Err.Error() +
		". Respond with only the Python function definition."
}
