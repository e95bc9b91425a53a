// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package constraint derives explicit, checkable constraints from an IR's
// natural-language effect and assertion text.
//
// Detection is keyword and pattern heuristics over free text, so it is
// organized as an ordered list of independently testable rules, each
// returning a structured decision with a rationale string. The keyword sets
// are empirically derived from observed generation failures and are
// configuration, not semantic ground truth; tune them against the scenario
// tests, not against the literals themselves.
package constraint

// Keywords holds the tunable keyword sets the detection rules match against.
type Keywords struct {
	// Iteration marks effect text that actually describes looping. A loop
	// behavior constraint is only attached when at least one effect
	// contains one of these; a loop constraint on non-looping code can
	// never be satisfied and must never reach the validator.
	Iteration []string

	// Compute marks effect text that implies a value is produced.
	Compute []string

	// First/Last/All select the loop search type.
	First []string
	Last  []string
	All   []string

	// Output marks sentences that describe the output domain rather than
	// code structure ("return", "map", "grade"). Position elements found
	// in such sentences are semantic descriptions, not code entities.
	Output []string
}

// DefaultKeywords returns the keyword sets tuned against the scenario suite.
func DefaultKeywords() Keywords {
	return Keywords{
		Iteration: []string{
			"iterate", "iterating", "loop", "looping", "for each",
			"traverse", "traversing", "while", "scan through", "walk through",
		},
		Compute: []string{
			"compute", "calculate", "count", "sum", "find", "determine",
			"return", "produce", "measure", "derive", "collect",
		},
		First: []string{"first", "earliest", "leftmost"},
		Last:  []string{"last", "latest", "rightmost", "final"},
		All:   []string{"every", "all", "each"},
		Output: []string{
			"return", "returns", "map", "maps", "grade", "grades",
			"output", "outputs", "classify", "category",
		},
	}
}
