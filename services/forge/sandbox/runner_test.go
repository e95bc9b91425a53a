// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sandbox

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(defaultPython); err != nil {
		t.Skip("python3 not available")
	}
}

func run(t *testing.T, src string, cases []ir.TestCase, opts ...Option) *ir.ValidationResult {
	t.Helper()
	res, err := NewRunner(opts...).Run(context.Background(), src, "f", cases)
	require.NoError(t, err)
	return res
}

func TestRun_PassingCandidate(t *testing.T) {
	requirePython(t)

	src := "def f(s):\n    return len(s)\n"
	cases := []ir.TestCase{
		{Inputs: map[string]any{"s": ""}, Expected: 0},
		{Inputs: map[string]any{"s": "hello"}, Expected: 5},
	}

	res := run(t, src, cases)
	assert.True(t, res.Passed)
	assert.Empty(t, res.FailedTests)
	assert.Empty(t, res.Diagnostic)
}

func TestRun_CategorizesFailures(t *testing.T) {
	requirePython(t)

	tests := []struct {
		name     string
		src      string
		tc       ir.TestCase
		category ir.FailureCategory
	}{
		{
			"missing return",
			"def f(s):\n    total = len(s)\n",
			ir.TestCase{Inputs: map[string]any{"s": "abc"}, Expected: 3},
			ir.FailMissingReturn,
		},
		{
			"wrong value",
			"def f(s):\n    return len(s) + 1\n",
			ir.TestCase{Inputs: map[string]any{"s": "abc"}, Expected: 3},
			ir.FailWrongValue,
		},
		{
			"unexpected exception",
			"def f(s):\n    raise ValueError(s)\n",
			ir.TestCase{Inputs: map[string]any{"s": "abc"}, Expected: 3},
			ir.FailException,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.src, []ir.TestCase{tt.tc})
			assert.False(t, res.Passed)
			require.Len(t, res.FailedTests, 1)
			assert.Equal(t, tt.category, res.FailedTests[0].Category)
			assert.NotEmpty(t, res.Diagnostic)
		})
	}
}

func TestRun_ExpectedException(t *testing.T) {
	requirePython(t)

	src := "def f(xs):\n    if not xs:\n        raise ValueError('empty')\n    return xs[0]\n"
	cases := []ir.TestCase{
		{Inputs: map[string]any{"xs": []any{}}, ExpectRaise: true},
		{Inputs: map[string]any{"xs": []any{7}}, Expected: 7},
	}

	assert.True(t, run(t, src, cases).Passed)
}

func TestRun_InfiniteLoopTimesOut(t *testing.T) {
	requirePython(t)

	src := "def f(s):\n    while True:\n        pass\n"
	tc := ir.TestCase{Inputs: map[string]any{"s": "x"}, Expected: 0}

	start := time.Now()
	res := run(t, src, []ir.TestCase{tc}, WithTimeout(200*time.Millisecond))
	require.Len(t, res.FailedTests, 1)
	assert.Equal(t, ir.FailTimeout, res.FailedTests[0].Category)
	assert.Less(t, time.Since(start), 5*time.Second, "interpreter should be killed promptly")
}

func TestRun_BlocksEscapes(t *testing.T) {
	requirePython(t)

	tests := []struct {
		name string
		src  string
	}{
		{"file access", "def f(s):\n    return open('/etc/passwd').read()\n"},
		{"os import", "import os\n\ndef f(s):\n    return os.getcwd()\n"},
		{"dynamic eval", "def f(s):\n    return eval('1 + 1')\n"},
		{"guard internals", "def f(s):\n    return _real_import('os').getcwd()\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := ir.TestCase{Inputs: map[string]any{"s": "x"}, Expected: "anything"}
			res := run(t, tt.src, []ir.TestCase{tc})
			require.Len(t, res.FailedTests, 1)
			assert.Equal(t, ir.FailException, res.FailedTests[0].Category)
		})
	}
}

func TestRun_AllowsSafeImports(t *testing.T) {
	requirePython(t)

	src := "import re\n\ndef f(s):\n    return bool(re.match(r'[a-z]+$', s))\n"
	cases := []ir.TestCase{
		{Inputs: map[string]any{"s": "abc"}, Expected: true},
		{Inputs: map[string]any{"s": "123"}, Expected: false},
	}

	assert.True(t, run(t, src, cases).Passed)
}

func TestRun_CancelledContextDrainsWorkers(t *testing.T) {
	requirePython(t)

	src := "def f(s):\n    while True:\n        pass\n"
	cases := make([]ir.TestCase, 4)
	for i := range cases {
		cases[i] = ir.TestCase{Inputs: map[string]any{"s": "x"}, Expected: "x"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := NewRunner(WithParallelism(1), WithTimeout(5*time.Second)).Run(ctx, src, "f", cases)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InvalidFunctionName(t *testing.T) {
	requirePython(t)

	_, err := NewRunner().Run(context.Background(), "def f(s):\n    return s\n", "f(); import os", nil)
	assert.Error(t, err)
}
