// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Violation is a detected mismatch between a candidate and one constraint.
//
// Violations are transient: the orchestrator consumes them immediately to
// build retry feedback, and keeps only their rendered history.
type Violation struct {
	Constraint Constraint
	// Location is a path into the candidate's syntax tree or a symbol name
	// ("function count_chars", "for loop at line 4").
	Location string
	Message  string
}

// String renders the violation for diagnostics and feedback.
func (v Violation) String() string {
	sev := SeverityError
	if v.Constraint != nil {
		sev = v.Constraint.Severity()
	}
	if v.Location != "" {
		return fmt.Sprintf("[%s] %s: %s", sev, v.Location, v.Message)
	}
	return fmt.Sprintf("[%s] %s", sev, v.Message)
}

// TestCase is one executable check derived from an IR.
//
// Inputs map parameter names to concrete values. Exactly one of Expected or
// ExpectRaise is meaningful: when ExpectRaise is true the case passes iff
// the candidate raises. Test cases are generated fresh per IR and never
// persisted beyond one generation attempt.
type TestCase struct {
	Inputs      map[string]any `json:"inputs"`
	Expected    any            `json:"expected"`
	ExpectRaise bool           `json:"expect_raise"`
	Description string         `json:"description"`
}

// Key returns a deterministic identity for de-duplication across the
// independent generation strategies.
func (tc TestCase) Key() string {
	names := make([]string, 0, len(tc.Inputs))
	for name := range tc.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "%s=%#v;", name, tc.Inputs[name])
	}
	fmt.Fprintf(&sb, "expect=%#v;raise=%t", tc.Expected, tc.ExpectRaise)
	return sb.String()
}

// FailureCategory is the coarse classification of one failed test case.
type FailureCategory string

const (
	// FailMissingReturn means the observed value was the language's
	// "no value" sentinel where a value was expected.
	FailMissingReturn FailureCategory = "missing-return"
	FailWrongValue    FailureCategory = "wrong-value"
	FailException     FailureCategory = "exception"
	FailTimeout       FailureCategory = "timeout"
)

// FailedTest records one test case the candidate did not pass.
type FailedTest struct {
	Case     TestCase
	Category FailureCategory
	// Actual is the observed output, or the exception "Type: message" text
	// for exception-category failures.
	Actual any
}

// ValidationResult aggregates execution of a candidate against a test suite.
type ValidationResult struct {
	Passed      bool
	FailedTests []FailedTest
	Diagnostic  string
}

// GeneratedCode is the working artifact of one generation attempt.
//
// It is created by the generation collaborator, mutated in place by the
// repair passes (which append to Repairs), and discarded on success or
// exhaustion in favor of the final artifact.
type GeneratedCode struct {
	Source  string
	Attempt int
	Repairs []string
}
