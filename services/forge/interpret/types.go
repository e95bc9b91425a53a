// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package interpret performs lightweight symbolic execution over an IR's
// effect list to catch semantic defects before any code generation is
// attempted.
//
// Three sub-analyses run in order: the effect-chain analyzer (value flow
// from parameters to a return), the semantic validator (type and reference
// consistency), and the logic-error detector (known defect shapes in the
// text itself). Each finding is an error, which blocks generation for the
// IR, or a warning, which is carried alongside the final artifact. The
// interpreter is purely textual and never touches generated code.
package interpret

import (
	"fmt"
	"strings"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// Stage identifies which sub-analysis produced a finding.
type Stage string

const (
	StageEffectChain Stage = "effect_chain"
	StageSemantics   Stage = "semantics"
	StageLogic       Stage = "logic"
)

// Finding is one defect the interpreter detected in the IR itself.
type Finding struct {
	Stage    Stage
	Code     string
	Message  string
	Severity ir.Severity
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s/%s] %s: %s", f.Stage, f.Severity, f.Code, f.Message)
}

// Report aggregates all findings for one IR.
type Report struct {
	Errors   []Finding
	Warnings []Finding
}

// Blocking reports whether generation must not be attempted for this IR.
func (r Report) Blocking() bool { return len(r.Errors) > 0 }

// add routes a finding to the right bucket by severity.
func (r *Report) add(f Finding) {
	if f.Severity == ir.SeverityError {
		r.Errors = append(r.Errors, f)
	} else {
		r.Warnings = append(r.Warnings, f)
	}
}

// Summary renders the report for logs and the blocked-IR error message.
func (r Report) Summary() string {
	var sb strings.Builder
	for _, f := range r.Errors {
		sb.WriteString(f.String())
		sb.WriteString("\n")
	}
	for _, f := range r.Warnings {
		sb.WriteString(f.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
