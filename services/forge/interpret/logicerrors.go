// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package interpret

import (
	"fmt"
	"strings"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// logicErrors pattern-matches known defect shapes in the effect and
// assertion text itself: first/last confusion in search effects,
// incomplete multi-field validation, and unreachable-effect ordering.
func logicErrors(r *ir.IR, report *Report) {
	checkFirstLastConfusion(r, report)
	checkIncompleteValidation(r, report)
	checkUnreachableEffects(r, report)
}

// checkFirstLastConfusion blocks IRs whose search effects disagree about
// whether the first or the last match is wanted. Code generated from such
// an IR satisfies one effect by violating the other.
func checkFirstLastConfusion(r *ir.IR, report *Report) {
	var firstEffect, lastEffect string
	for _, effect := range r.Effects {
		lower := strings.ToLower(effect)
		if !isSearchEffect(lower) {
			continue
		}
		if strings.Contains(lower, "first") && firstEffect == "" {
			firstEffect = effect
		}
		if strings.Contains(lower, "last") && lastEffect == "" {
			lastEffect = effect
		}
	}
	if firstEffect != "" && lastEffect != "" {
		report.add(Finding{
			Stage:    StageLogic,
			Code:     "first-last-confusion",
			Severity: ir.SeverityError,
			Message: fmt.Sprintf(
				"search effects disagree: %q wants the first match, %q wants the last",
				firstEffect, lastEffect),
		})
	}
}

func isSearchEffect(lowerEffect string) bool {
	for _, verb := range []string{"find", "search", "locate", "return the", "look for"} {
		if strings.Contains(lowerEffect, verb) {
			return true
		}
	}
	return false
}

// formatSubChecks lists the sub-checks a named format validation is
// expected to mention. Observed failure shape: "validate the email format"
// effects that check for '@' but never for a dot, producing validators
// that accept "user@host".
var formatSubChecks = map[string][]string{
	"email": {"@", "."},
	"url":   {"://"},
	"phone": {"digit"},
}

// checkIncompleteValidation warns when a format-validation effect omits a
// required sub-check. Warning severity: the IR may delegate the missing
// check to an assertion, and the generated tests catch real gaps.
func checkIncompleteValidation(r *ir.IR, report *Report) {
	all := strings.ToLower(r.EffectText() + " " + strings.Join(r.Assertions, " "))
	if !strings.Contains(all, "valid") && !strings.Contains(all, "format") {
		return
	}
	for format, subChecks := range formatSubChecks {
		if !strings.Contains(all, format) {
			continue
		}
		var missing []string
		for _, check := range subChecks {
			if !strings.Contains(all, check) {
				missing = append(missing, check)
			}
		}
		if len(missing) > 0 {
			report.add(Finding{
				Stage:    StageLogic,
				Code:     "incomplete-validation",
				Severity: ir.SeverityWarning,
				Message: fmt.Sprintf(
					"%s validation never mentions checking for %v", format, missing),
			})
		}
	}
}

// conditionalMarkers indicate an effect's return is guarded, not terminal.
var conditionalMarkers = []string{
	"if ", "when ", "unless ", "otherwise", "in case", "for empty", "on failure",
}

// checkUnreachableEffects warns when an unconditional returning effect is
// followed by further effects, which can never execute. Warning severity:
// the phrase heuristics for "unconditional" are rough, and a wrongly
// blocked IR costs more than a wasted generation.
func checkUnreachableEffects(r *ir.IR, report *Report) {
	for i, effect := range r.Effects {
		if i == len(r.Effects)-1 {
			break
		}
		lower := strings.ToLower(effect)
		if !strings.HasPrefix(lower, "return") {
			continue
		}
		guarded := false
		for _, marker := range conditionalMarkers {
			if strings.Contains(lower, marker) {
				guarded = true
				break
			}
		}
		if guarded {
			continue
		}
		report.add(Finding{
			Stage:    StageLogic,
			Code:     "unreachable-effects",
			Severity: ir.SeverityWarning,
			Message: fmt.Sprintf(
				"effect %d (%q) returns unconditionally; %d later effect(s) may be unreachable",
				i+1, effect, len(r.Effects)-i-1),
		})
		return
	}
}
