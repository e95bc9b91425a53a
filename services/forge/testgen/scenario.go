// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package testgen

import (
	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// assertionCases builds cases straight from assertion oracles: promised
// values for empty input, not-found sentinels, and expected exceptions.
func (g *Generator) assertionCases(r *ir.IR) []ir.TestCase {
	var cases []ir.TestCase

	if v, ok := emptyOracle(r); ok {
		cases = append(cases, ir.TestCase{
			Inputs:      emptyInputs(r),
			Expected:    v,
			Description: "asserted value for empty input",
		})
	}

	if v, ok := notFoundOracle(r); ok {
		if hay, needle, ok := searchParams(r); ok {
			cases = append(cases, ir.TestCase{
				Inputs:      map[string]any{hay: []any{1, 2, 3}, needle: 9},
				Expected:    v,
				Description: "asserted not-found sentinel",
			})
		}
	}

	if raisesOnEmpty(r) {
		cases = append(cases, ir.TestCase{
			Inputs:      emptyInputs(r),
			ExpectRaise: true,
			Description: "asserted exception for empty input",
		})
	}

	return cases
}

// scenarioCases exercises behaviors described by the effects: repeated
// matches for first/last search semantics and a typical string for
// character counting. Every candidate input still has to clear the oracle
// derivation to be kept.
func (g *Generator) scenarioCases(r *ir.IR) []ir.TestCase {
	var cases []ir.TestCase
	add := func(inputs map[string]any, desc string) {
		expected, ok := deriveExpected(r, inputs)
		if !ok {
			return
		}
		cases = append(cases, ir.TestCase{
			Inputs:      inputs,
			Expected:    expected,
			Description: desc,
		})
	}

	if hay, needle, ok := searchParams(r); ok {
		// Distinguishes first-match from last-match implementations.
		add(map[string]any{hay: []any{5, 3, 5}, needle: 5}, "target occurs more than once")
		add(map[string]any{hay: []any{1, 2, 3}, needle: 9}, "target absent")
	}

	if p, ok := soleParamOfType(r, "str"); ok {
		add(map[string]any{p: "hello"}, "typical string input")
	}

	return cases
}

func emptyInputs(r *ir.IR) map[string]any {
	inputs := make(map[string]any, len(r.Signature.Params))
	for _, p := range r.Signature.Params {
		inputs[p.Name] = emptyValue(p.Type)
	}
	return inputs
}
