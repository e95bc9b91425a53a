// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package testgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

func findCase(cases []ir.TestCase, inputs map[string]any) (ir.TestCase, bool) {
	want := ir.TestCase{Inputs: inputs}
	for _, tc := range cases {
		if tc.Key() == want.Key() {
			return tc, true
		}
	}
	return ir.TestCase{}, false
}

func TestGenerate_CountCharacters(t *testing.T) {
	r := &ir.IR{
		Signature: ir.Signature{
			Name:       "count_chars",
			Params:     []ir.Param{{Name: "s", Type: "str"}},
			ReturnType: "int",
		},
		Effects: []string{
			"iterate over the string",
			"count each character",
			"return the count",
		},
		Assertions: []string{"the result must be zero for empty input"},
	}

	cases := NewGenerator().Generate(r)
	require.NotEmpty(t, cases)

	empty, ok := findCase(cases, map[string]any{"s": ""})
	require.True(t, ok, "empty-string case missing")
	assert.Equal(t, 0, empty.Expected)

	hello, ok := findCase(cases, map[string]any{"s": "hello"})
	require.True(t, ok, "typical-string case missing")
	assert.Equal(t, 5, hello.Expected)

	seen := map[string]bool{}
	for _, tc := range cases {
		assert.False(t, seen[tc.Key()], "duplicate case %s", tc.Key())
		seen[tc.Key()] = true
	}
}

func TestGenerate_SearchSemantics(t *testing.T) {
	base := func(search ir.LoopSearchType) *ir.IR {
		return &ir.IR{
			Signature: ir.Signature{
				Name: "find_target",
				Params: []ir.Param{
					{Name: "xs", Type: "list"},
					{Name: "target", Type: "int"},
				},
				ReturnType: "int",
			},
			Effects: []string{
				"iterate over xs",
				"find the index where the value equals target",
				"return the index",
			},
			Assertions: []string{"returns -1 when the target is not found"},
			Constraints: []ir.Constraint{
				ir.LoopBehaviorConstraint{
					SearchType: search,
					Requirement: func() ir.LoopRequirement {
						if search == ir.FirstMatch {
							return ir.EarlyReturn
						}
						return ir.Accumulate
					}(),
					Sev: ir.SeverityError,
				},
			},
		}
	}

	repeated := map[string]any{"xs": []any{5, 3, 5}, "target": 5}
	absent := map[string]any{"xs": []any{1, 2, 3}, "target": 9}

	firstCases := NewGenerator().Generate(base(ir.FirstMatch))
	tc, ok := findCase(firstCases, repeated)
	require.True(t, ok)
	assert.Equal(t, 0, tc.Expected, "first match should take the earliest index")

	lastCases := NewGenerator().Generate(base(ir.LastMatch))
	tc, ok = findCase(lastCases, repeated)
	require.True(t, ok)
	assert.Equal(t, 2, tc.Expected, "last match should take the latest index")

	tc, ok = findCase(lastCases, absent)
	require.True(t, ok)
	assert.Equal(t, -1, tc.Expected)
}

func TestGenerate_DiscardsUnderivableCases(t *testing.T) {
	r := &ir.IR{
		Signature: ir.Signature{
			Name:       "shout",
			Params:     []ir.Param{{Name: "s", Type: "str"}},
			ReturnType: "str",
		},
		Effects: []string{"convert s to uppercase", "return the converted string"},
	}

	assert.Empty(t, NewGenerator().Generate(r))
}

func TestGenerate_ExpectedException(t *testing.T) {
	r := &ir.IR{
		Signature: ir.Signature{
			Name:       "head",
			Params:     []ir.Param{{Name: "xs", Type: "list"}},
			ReturnType: "int",
		},
		Effects:    []string{"return the first element of xs"},
		Assertions: []string{"raises ValueError when xs is empty"},
	}

	cases := NewGenerator().Generate(r)
	tc, ok := findCase(cases, map[string]any{"xs": []any{}})
	require.True(t, ok, "expected-exception case missing")
	assert.True(t, tc.ExpectRaise)
}

func TestGenerate_RespectsCap(t *testing.T) {
	r := &ir.IR{
		Signature: ir.Signature{
			Name:       "count_chars",
			Params:     []ir.Param{{Name: "s", Type: "str"}},
			ReturnType: "int",
		},
		Effects: []string{"count each character", "return the count"},
	}

	cases := NewGenerator(WithMaxCases(1)).Generate(r)
	assert.Len(t, cases, 1)
}
