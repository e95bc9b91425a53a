// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package testgen derives executable test cases from a requirement record.
//
// Three strategies run in order: type-driven edge cases, oracles parsed
// from assertions, and scenarios built from effect descriptions. A case is
// only emitted when its expected output can actually be derived from the
// record; guessing an oracle would fail correct candidates, which is worse
// than a thinner suite.
package testgen

import (
	"log/slog"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

const defaultMaxCases = 12

// Generator builds test cases for a requirement record.
type Generator struct {
	logger   *slog.Logger
	maxCases int
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMaxCases caps the generated suite.
func WithMaxCases(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxCases = n
		}
	}
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{logger: slog.Default(), maxCases: defaultMaxCases}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces the deduplicated, capped test suite for r.
//
// Strategies run in priority order so that when the cap bites, the cases
// most likely to catch real failures (edge inputs, explicit assertions)
// survive. Duplicate inputs across strategies collapse onto the first
// occurrence via the case key.
func (g *Generator) Generate(r *ir.IR) []ir.TestCase {
	var all []ir.TestCase
	all = append(all, g.edgeCases(r)...)
	all = append(all, g.assertionCases(r)...)
	all = append(all, g.scenarioCases(r)...)

	seen := make(map[string]bool, len(all))
	out := make([]ir.TestCase, 0, len(all))
	for _, tc := range all {
		key := tc.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tc)
		if len(out) >= g.maxCases {
			break
		}
	}

	g.logger.Debug("test cases generated",
		"function", r.Signature.Name,
		"candidates", len(all),
		"kept", len(out))
	return out
}

// edgeCases varies one parameter at a time across its type's edge values,
// holding the others at typical values, and keeps only the combinations
// with a derivable expectation.
func (g *Generator) edgeCases(r *ir.IR) []ir.TestCase {
	params := r.Signature.Params
	if len(params) == 0 {
		return nil
	}

	var cases []ir.TestCase
	for i, p := range params {
		for _, edge := range edgeValues(p.Type) {
			inputs := make(map[string]any, len(params))
			for j, q := range params {
				if j == i {
					inputs[q.Name] = edge
				} else {
					inputs[q.Name] = typicalValue(q.Type)
				}
			}
			expected, ok := deriveExpected(r, inputs)
			if !ok {
				continue
			}
			cases = append(cases, ir.TestCase{
				Inputs:      inputs,
				Expected:    expected,
				Description: "edge value for " + p.Name,
			})
		}
	}
	return cases
}

func typicalValue(typ string) any {
	switch normalizeType(typ) {
	case "str":
		return "hello"
	case "int":
		return 3
	case "float":
		return 1.5
	case "bool":
		return true
	case "list":
		return []any{1, 2, 3}
	case "dict":
		return map[string]any{}
	default:
		return nil
	}
}

func edgeValues(typ string) []any {
	switch normalizeType(typ) {
	case "str":
		return []any{"", "a"}
	case "int":
		return []any{0, -1, 1}
	case "float":
		return []any{0.0}
	case "bool":
		return []any{false, true}
	case "list":
		return []any{[]any{}, []any{1}}
	default:
		return nil
	}
}
