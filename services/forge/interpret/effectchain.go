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

// symbolicValue is one named value flowing through the effect chain.
type symbolicValue struct {
	Name string
	// ProducedBy is the index of the producing effect, or -1 for a
	// function parameter.
	ProducedBy int
}

// producerVerbs mark effect text that brings a new value into existence.
var producerVerbs = []string{
	"compute", "calculate", "count", "sum", "find", "determine",
	"build", "create", "collect", "derive", "measure", "track",
}

// resultNouns are the value names the analyzer recognizes, most specific
// first. Shared with the detector's notion of a computed value by
// convention, not by import; the two lists are tuned independently.
var resultNouns = []string{
	"index", "count", "total", "sum", "average", "length",
	"maximum", "minimum", "max", "min", "result", "value",
}

// effectChain builds a symbolic trace of named values flowing from the
// parameters through each effect, and flags an IR whose non-void return
// type is never fed by any produced value.
func effectChain(r *ir.IR, report *Report) {
	values := make([]symbolicValue, 0, len(r.Signature.Params)+len(r.Effects))
	for _, p := range r.Signature.Params {
		values = append(values, symbolicValue{Name: p.Name, ProducedBy: -1})
	}

	var produced []symbolicValue
	returnsSomething := false

	for i, effect := range r.Effects {
		lower := strings.ToLower(effect)

		if v, ok := producedValue(lower, i); ok {
			values = append(values, v)
			produced = append(produced, v)
		}
		if strings.Contains(lower, "return") {
			returnsSomething = true
		}
	}

	if !r.Signature.HasReturn() {
		return
	}

	if len(produced) == 0 && !returnsSomething {
		report.add(Finding{
			Stage:    StageEffectChain,
			Code:     "missing-return-chain",
			Severity: ir.SeverityError,
			Message: fmt.Sprintf(
				"return type is %q but no effect produces a value or returns one",
				r.Signature.ReturnType),
		})
		return
	}

	// A value is produced but no effect ever says it is returned. The
	// generated code usually still returns it, so this warns rather than
	// blocks; the return constraint and the missing-return test catch the
	// genuinely broken candidates.
	if !returnsSomething {
		names := make([]string, 0, len(produced))
		for _, v := range produced {
			names = append(names, v.Name)
		}
		report.add(Finding{
			Stage:    StageEffectChain,
			Code:     "unreturned-value",
			Severity: ir.SeverityWarning,
			Message: fmt.Sprintf(
				"effects produce %v but none mentions returning a value", names),
		})
	}
}

// producedValue reports whether the effect text produces a named value.
func producedValue(lowerEffect string, effectIndex int) (symbolicValue, bool) {
	hasVerb := false
	for _, verb := range producerVerbs {
		if strings.Contains(lowerEffect, verb) {
			hasVerb = true
			break
		}
	}
	if !hasVerb {
		return symbolicValue{}, false
	}
	for _, noun := range resultNouns {
		if strings.Contains(lowerEffect, noun) {
			return symbolicValue{Name: noun, ProducedBy: effectIndex}, true
		}
	}
	// A producing verb without a recognized noun still yields a value.
	return symbolicValue{Name: "result", ProducedBy: effectIndex}, true
}
