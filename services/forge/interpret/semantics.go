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

// nounTypes maps recognized result nouns to the return type they imply.
var nounTypes = map[string]string{
	"index":   "int",
	"count":   "int",
	"total":   "int",
	"sum":     "int",
	"length":  "int",
	"average": "float",
}

// semanticValidation checks return-type consistency, that every declared
// parameter is referenced by at least one effect, and that every
// assertion's subject appears among the effects' outputs.
func semanticValidation(r *ir.IR, report *Report) {
	checkReturnType(r, report)
	checkParamReferences(r, report)
	checkAssertionSubjects(r, report)
}

// checkReturnType flags effects whose implied result type contradicts the
// declared return type.
func checkReturnType(r *ir.IR, report *Report) {
	declared := strings.ToLower(strings.TrimSpace(r.Signature.ReturnType))
	if declared == "" {
		return
	}
	for _, effect := range r.Effects {
		lower := strings.ToLower(effect)
		v, ok := producedValue(lower, 0)
		if !ok {
			continue
		}
		implied, known := nounTypes[v.Name]
		if !known {
			continue
		}
		if typesCompatible(declared, implied) {
			continue
		}
		report.add(Finding{
			Stage:    StageSemantics,
			Code:     "type-mismatch",
			Severity: ir.SeverityError,
			Message: fmt.Sprintf(
				"effect %q implies a %s result but the signature declares %q",
				effect, implied, r.Signature.ReturnType),
		})
		return
	}
}

// typesCompatible allows int results to satisfy float declarations, the
// only widening the candidate language performs implicitly.
func typesCompatible(declared, implied string) bool {
	if declared == implied {
		return true
	}
	if declared == "float" && implied == "int" {
		return true
	}
	// Unknown declared types never block; the execution validator decides.
	switch declared {
	case "int", "float", "str", "bool", "list", "dict":
		return false
	}
	return true
}

// checkParamReferences warns for parameters no effect ever mentions. This
// warns rather than blocks: IR generators routinely phrase effects against
// "the input" instead of the parameter name.
func checkParamReferences(r *ir.IR, report *Report) {
	allEffects := strings.ToLower(r.EffectText())
	for _, p := range r.Signature.Params {
		if p.Name == "" {
			continue
		}
		if strings.Contains(allEffects, strings.ToLower(p.Name)) {
			continue
		}
		report.add(Finding{
			Stage:    StageSemantics,
			Code:     "unreferenced-parameter",
			Severity: ir.SeverityWarning,
			Message:  fmt.Sprintf("parameter %q is not referenced by any effect", p.Name),
		})
	}
}

// assertionStopWords end the subject phrase of an assertion.
var assertionStopWords = map[string]bool{
	"must": true, "should": true, "is": true, "are": true, "equals": true,
	"shall": true, "will": true, "never": true, "always": true,
}

// checkAssertionSubjects verifies each assertion talks about something the
// effects actually produce or consume. An assertion about a value that
// appears nowhere in the effects cannot be satisfied by any generation and
// blocks.
func checkAssertionSubjects(r *ir.IR, report *Report) {
	allEffects := strings.ToLower(r.EffectText())
	paramNames := make(map[string]bool)
	for _, p := range r.Signature.Params {
		paramNames[strings.ToLower(p.Name)] = true
	}

	for _, assertion := range r.Assertions {
		subject := assertionSubject(assertion)
		if subject == "" {
			continue
		}
		if strings.Contains(allEffects, subject) || paramNames[subject] || isResultWord(subject) {
			continue
		}
		report.add(Finding{
			Stage:    StageSemantics,
			Code:     "unreferenced-assertion-subject",
			Severity: ir.SeverityError,
			Message: fmt.Sprintf(
				"assertion %q is about %q, which no effect produces or consumes",
				assertion, subject),
		})
	}
}

// assertionSubject extracts the head noun of an assertion: the last
// non-article word before the first stop word.
func assertionSubject(assertion string) string {
	words := strings.Fields(strings.ToLower(assertion))
	subject := ""
	for _, w := range words {
		w = strings.Trim(w, `'".,;:`)
		if assertionStopWords[w] {
			break
		}
		switch w {
		case "the", "a", "an", "of", "returned":
			continue
		}
		subject = w
	}
	return subject
}

// isResultWord reports whether the subject refers to the function's result
// generically ("result", "output", "value"), which every effect chain
// implicitly produces.
func isResultWord(subject string) bool {
	switch subject {
	case "result", "output", "value", "return":
		return true
	}
	for _, noun := range resultNouns {
		if subject == noun {
			return true
		}
	}
	return false
}
