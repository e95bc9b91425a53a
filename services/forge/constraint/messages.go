// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package constraint

import (
	"fmt"
	"strings"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// RenderViolations formats violations into the text block that is folded
// into the next generation prompt and shown to operators. Violations are
// grouped by constraint type, error severity first.
func RenderViolations(violations []ir.Violation) string {
	if len(violations) == 0 {
		return ""
	}

	var errs, warns []ir.Violation
	for _, v := range violations {
		if v.Constraint != nil && v.Constraint.Severity() == ir.SeverityWarning {
			warns = append(warns, v)
		} else {
			errs = append(errs, v)
		}
	}

	var sb strings.Builder
	if len(errs) > 0 {
		sb.WriteString("Constraint violations that must be fixed:\n")
		for _, v := range errs {
			writeViolation(&sb, v)
		}
	}
	if len(warns) > 0 {
		sb.WriteString("Constraint warnings:\n")
		for _, v := range warns {
			writeViolation(&sb, v)
		}
	}
	return sb.String()
}

func writeViolation(sb *strings.Builder, v ir.Violation) {
	fmt.Fprintf(sb, "  - %s", v.Message)
	if v.Location != "" {
		fmt.Fprintf(sb, " (at %s)", v.Location)
	}
	if hint := Hint(v.Constraint); hint != "" {
		fmt.Fprintf(sb, "\n    hint: %s", hint)
	}
	sb.WriteString("\n")
}

// Hint returns a concrete, actionable suggestion for a violated constraint.
func Hint(c ir.Constraint) string {
	switch c := c.(type) {
	case ir.ReturnConstraint:
		return fmt.Sprintf("add an explicit `return %s` on every path that ends the function", c.ValueName)
	case ir.LoopBehaviorConstraint:
		switch c.Requirement {
		case ir.EarlyReturn:
			return "return inside the loop as soon as the condition matches; do not continue scanning"
		case ir.Accumulate:
			return "keep updating the tracked value across the whole loop and return it after the loop ends"
		default:
			return "build the transformed result inside the loop and return it after the loop ends"
		}
	case ir.PositionConstraint:
		if c.Requirement == ir.Ordered {
			return fmt.Sprintf("check that the position of %q is greater than the position of %q", last(c.Elements), first(c.Elements))
		}
		return fmt.Sprintf("compare the numeric gap between the positions of %q and %q; ordering alone is not enough", first(c.Elements), last(c.Elements))
	default:
		return ""
	}
}

// RenderDecisions formats a detection decision trail for logs and the
// `check --explain` CLI output.
func RenderDecisions(trail []Decision) string {
	var sb strings.Builder
	for _, d := range trail {
		state := "no match"
		switch {
		case d.Filtered:
			state = "filtered"
		case d.Matched:
			state = "attached"
		}
		fmt.Fprintf(&sb, "[%s] %s: %s\n", d.Rule, state, d.Rationale)
	}
	return sb.String()
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func last(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[len(ss)-1]
}
