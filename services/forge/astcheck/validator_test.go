// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package astcheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

func irWith(name string, constraints ...ir.Constraint) *ir.IR {
	return &ir.IR{
		Signature: ir.Signature{
			Name:       name,
			Params:     []ir.Param{{Name: "s", Type: "str"}},
			ReturnType: "int",
		},
		Constraints: constraints,
	}
}

func validate(t *testing.T, src string, r *ir.IR) []ir.Violation {
	t.Helper()
	v := NewValidator()
	violations, err := v.Validate(context.Background(), src, r)
	require.NoError(t, err)
	return violations
}

func TestValidate_MissingReturn(t *testing.T) {
	r := irWith("count_chars", ir.ReturnConstraint{
		ValueName:   "count",
		Requirement: ir.MustReturn,
		Sev:         ir.SeverityError,
	})
	src := "def count_chars(s):\n" +
		"    total = 0\n" +
		"    for ch in s:\n" +
		"        total += 1\n"

	violations := validate(t, src, r)
	require.Len(t, violations, 1)
	assert.Equal(t, ir.ConstraintReturn, violations[0].Constraint.Type())
	assert.Contains(t, violations[0].Message, "count")
}

func TestValidate_EarlyReturnInEveryBranchIsClean(t *testing.T) {
	r := irWith("classify", ir.ReturnConstraint{
		ValueName:   "result",
		Requirement: ir.MustReturn,
		Sev:         ir.SeverityError,
	})
	src := "def classify(s):\n" +
		"    if len(s) == 0:\n" +
		"        return 0\n" +
		"    elif len(s) < 10:\n" +
		"        return 1\n" +
		"    else:\n" +
		"        return 2\n"

	assert.Empty(t, validate(t, src, r))
}

func TestValidate_BareReturnOnly(t *testing.T) {
	r := irWith("f", ir.ReturnConstraint{
		ValueName:   "value",
		Requirement: ir.MustReturn,
		Sev:         ir.SeverityError,
	})
	src := "def f(s):\n    return\n"

	violations := validate(t, src, r)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "bare")
}

func TestValidate_LoopAccumulateUnderFirstMatch(t *testing.T) {
	r := irWith("find_target", ir.LoopBehaviorConstraint{
		SearchType:  ir.FirstMatch,
		Requirement: ir.EarlyReturn,
		Sev:         ir.SeverityError,
	})

	tests := []struct {
		name     string
		src      string
		wantViol bool
	}{
		{
			"accumulates and returns last match",
			"def find_target(xs, target):\n" +
				"    idx = -1\n" +
				"    for i in range(len(xs)):\n" +
				"        if xs[i] == target:\n" +
				"            idx = i\n" +
				"    return idx\n",
			true,
		},
		{
			"returns on first match",
			"def find_target(xs, target):\n" +
				"    for i in range(len(xs)):\n" +
				"        if xs[i] == target:\n" +
				"            return i\n" +
				"    return -1\n",
			false,
		},
		{
			"no loop at all",
			"def find_target(xs, target):\n" +
				"    return xs.index(target)\n",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := validate(t, tt.src, r)
			if tt.wantViol {
				require.Len(t, violations, 1)
				assert.Equal(t, ir.ConstraintLoopBehavior, violations[0].Constraint.Type())
			} else {
				assert.Empty(t, violations)
			}
		})
	}
}

func TestValidate_EarlyReturnUnderLastMatch(t *testing.T) {
	r := irWith("find_last", ir.LoopBehaviorConstraint{
		SearchType:  ir.LastMatch,
		Requirement: ir.Accumulate,
		Sev:         ir.SeverityError,
	})

	early := "def find_last(xs, target):\n" +
		"    for i in range(len(xs)):\n" +
		"        if xs[i] == target:\n" +
		"            return i\n" +
		"    return -1\n"
	violations := validate(t, early, r)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "first hit")

	// A constant return inside the loop is a guard, not a result.
	guarded := "def find_last(xs, target):\n" +
		"    idx = -1\n" +
		"    for i in range(len(xs)):\n" +
		"        if xs[i] is None:\n" +
		"            return -1\n" +
		"        if xs[i] == target:\n" +
		"            idx = i\n" +
		"    return idx\n"
	assert.Empty(t, validate(t, guarded, r))
}

func TestValidate_AdjacencyOrderingOnly(t *testing.T) {
	r := irWith("validate_email", ir.PositionConstraint{
		Elements:    []string{"@", "."},
		Requirement: ir.NotAdjacent,
		MinDistance: 2,
		Sev:         ir.SeverityError,
	})

	tests := []struct {
		name     string
		src      string
		wantViol bool
	}{
		{
			"ordering-only comparison",
			"def validate_email(s):\n" +
				"    return s.rindex('.') > s.index('@')\n",
			true,
		},
		{
			"inline distance comparison",
			"def validate_email(s):\n" +
				"    return s.rindex('.') - s.index('@') >= 2\n",
			false,
		},
		{
			"distance via variables",
			"def validate_email(s):\n" +
				"    at = s.index('@')\n" +
				"    dot = s.rindex('.')\n" +
				"    return dot - at >= 2\n",
			false,
		},
		{
			"no position lookups",
			"def validate_email(s):\n" +
				"    return '@' in s and '.' in s\n",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := validate(t, tt.src, r)
			if tt.wantViol {
				require.Len(t, violations, 1)
				assert.Contains(t, violations[0].Message, "distance")
			} else {
				assert.Empty(t, violations)
			}
		})
	}
}

func TestValidate_OrderedComparedIsClean(t *testing.T) {
	r := irWith("check", ir.PositionConstraint{
		Elements:    []string{"@", "."},
		Requirement: ir.Ordered,
		Sev:         ir.SeverityError,
	})

	compared := "def check(s):\n" +
		"    return s.rindex('.') > s.index('@')\n"
	assert.Empty(t, validate(t, compared, r))

	uncompared := "def check(s):\n" +
		"    at = s.index('@')\n" +
		"    dot = s.rindex('.')\n" +
		"    return at >= 0\n"
	violations := validate(t, uncompared, r)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "never compared")
}

func TestValidate_SyntaxErrorsAreUnparseable(t *testing.T) {
	v := NewValidator()
	_, err := v.Validate(context.Background(), "def f(:\n    return\n", irWith("f"))
	assert.ErrorIs(t, err, ErrUnparseable)
}
