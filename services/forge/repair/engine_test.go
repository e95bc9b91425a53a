// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package repair

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

func runEngine(t *testing.T, src string, r *ir.IR) *ir.GeneratedCode {
	t.Helper()
	code := &ir.GeneratedCode{Source: src, Attempt: 1}
	require.NoError(t, NewEngine().Run(context.Background(), code, r))
	return code
}

func plainIR(name, retType string) *ir.IR {
	return &ir.IR{
		Signature: ir.Signature{
			Name:       name,
			Params:     []ir.Param{{Name: "s", Type: "str"}},
			ReturnType: retType,
		},
	}
}

func TestBalancePass(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    string
		changed bool
	}{
		{
			"appends missing closer",
			"def f(s):\n    return len(s\n",
			"def f(s):\n    return len(s)\n",
			true,
		},
		{
			"nested closers in reverse order",
			"def f(s):\n    return sorted([len(s\n",
			"def f(s):\n    return sorted([len(s)])\n",
			true,
		},
		{
			"brackets in strings ignored",
			"def f(s):\n    return '(' + s\n",
			"def f(s):\n    return '(' + s\n",
			false,
		},
		{
			"unmatched closer left alone",
			"def f(s):\n    return s)\n",
			"def f(s):\n    return s)\n",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &balancePass{}
			got, changed, err := p.Apply(context.Background(), tt.src, plainIR("f", "str"))
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminalReturnPass(t *testing.T) {
	r := plainIR("count_chars", "int")
	r.Attach(ir.ReturnConstraint{ValueName: "count", Requirement: ir.MustReturn, Sev: ir.SeverityError})

	src := "def count_chars(s):\n" +
		"    total = 0\n" +
		"    for ch in s:\n" +
		"        total += 1\n"

	code := runEngine(t, src, r)
	assert.Contains(t, code.Repairs, "terminal-return")
	assert.Contains(t, code.Source, "\n    return total")

	// Already-returning source is untouched.
	fixed := runEngine(t, code.Source, r)
	assert.Empty(t, fixed.Repairs)
}

func TestTerminalReturnPass_VoidFunctionUntouched(t *testing.T) {
	r := plainIR("log_it", "None")
	src := "def log_it(s):\n    x = len(s)\n"

	code := runEngine(t, src, r)
	assert.Empty(t, code.Repairs)
	assert.Equal(t, src, code.Source)
}

func TestLoopReturnPass(t *testing.T) {
	r := &ir.IR{
		Signature: ir.Signature{
			Name: "find_target",
			Params: []ir.Param{
				{Name: "xs", Type: "list"},
				{Name: "target", Type: "int"},
			},
			ReturnType: "int",
		},
	}
	r.Attach(ir.LoopBehaviorConstraint{
		SearchType:  ir.FirstMatch,
		Requirement: ir.EarlyReturn,
		Sev:         ir.SeverityError,
	})

	src := "def find_target(xs, target):\n" +
		"    idx = -1\n" +
		"    for i in range(len(xs)):\n" +
		"        if xs[i] == target:\n" +
		"            idx = i\n" +
		"    return idx\n"

	code := runEngine(t, src, r)
	assert.Contains(t, code.Repairs, "loop-early-return")
	assert.Contains(t, code.Source, "return i\n")
	assert.Contains(t, code.Source, "return idx\n", "post-loop return stays as the not-found path")

	again := runEngine(t, code.Source, r)
	assert.Empty(t, again.Repairs, "pass must be idempotent")
}

func TestAdjacencyPass(t *testing.T) {
	r := plainIR("validate_email", "bool")
	r.Attach(ir.PositionConstraint{
		Elements:    []string{"@", "."},
		Requirement: ir.NotAdjacent,
		MinDistance: 2,
		Sev:         ir.SeverityError,
	})

	src := "def validate_email(s):\n" +
		"    return s.rindex('.') > s.index('@')\n"

	code := runEngine(t, src, r)
	assert.Contains(t, code.Repairs, "adjacency-distance")
	assert.Contains(t, code.Source, "s.rindex('.') - s.index('@') >= 2")

	again := runEngine(t, code.Source, r)
	assert.Empty(t, again.Repairs, "pass must be idempotent")
}

func TestAdjacencyPass_ReversedComparisonReoriented(t *testing.T) {
	r := plainIR("validate_email", "bool")
	r.Attach(ir.PositionConstraint{
		Elements:    []string{"@", "."},
		Requirement: ir.MinDistance,
		MinDistance: 3,
		Sev:         ir.SeverityError,
	})

	src := "def validate_email(s):\n" +
		"    return s.index('@') < s.rindex('.')\n"

	code := runEngine(t, src, r)
	assert.Contains(t, code.Source, "s.rindex('.') - s.index('@') >= 3")
}

func TestEngine_ChainsPasses(t *testing.T) {
	r := plainIR("f", "int")

	src := "def f(s):\n    total = len(s\n"
	code := runEngine(t, src, r)

	assert.Equal(t, []string{"bracket-balance", "terminal-return"}, code.Repairs)
	assert.Equal(t, "def f(s):\n    total = len(s)\n    return total\n", code.Source)
}
