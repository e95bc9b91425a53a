// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sandbox executes candidate functions against generated test
// cases in isolated Python subprocesses.
//
// Each case gets its own interpreter so state cannot leak between cases
// and a hung case only costs its own timeout. The interpreter runs with -I
// (isolated mode) plus a harness that stubs out filesystem, dynamic
// execution, and non-allowlisted imports.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

const (
	defaultPython      = "python3"
	defaultTimeout     = time.Second
	defaultParallelism = 4
)

// ErrPythonNotFound is returned when no Python interpreter is on PATH.
var ErrPythonNotFound = errors.New("python interpreter not found")

// Runner executes candidates against test cases.
type Runner struct {
	python      string
	timeout     time.Duration
	parallelism int64
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithPython sets the interpreter binary.
func WithPython(path string) Option {
	return func(r *Runner) {
		if path != "" {
			r.python = path
		}
	}
}

// WithTimeout sets the per-case wall clock limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithParallelism caps concurrently running interpreters.
func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallelism = int64(n)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		python:      defaultPython,
		timeout:     defaultTimeout,
		parallelism: defaultParallelism,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every case against the candidate and returns the aggregate
// result.
//
// Description:
//
//	Cases run in parallel up to the configured limit, each in a fresh
//	subprocess with its own timeout. Failures are categorized as
//	missing-return, wrong-value, exception, or timeout, and the
//	diagnostic summarizes them for generator feedback.
//
// Inputs:
//
//	ctx - Context; cancellation kills in-flight interpreters.
//	source - Candidate Python source defining funcName.
//	funcName - The function under test.
//	cases - Test cases to execute.
//
// Outputs:
//
//	*ir.ValidationResult - Aggregate pass/fail with per-case failures.
//	error - Environment failures only (missing interpreter, bad function
//	name). A failing candidate is a result, not an error.
func (r *Runner) Run(ctx context.Context, source, funcName string, cases []ir.TestCase) (*ir.ValidationResult, error) {
	if _, err := exec.LookPath(r.python); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPythonNotFound, r.python)
	}
	harness, err := buildHarness(source, funcName)
	if err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(r.parallelism)
	failures := make([]*ir.FailedTest, len(cases))
	var wg sync.WaitGroup
	// In-flight goroutines write into failures; they must drain before any
	// return path, including a cancelled Acquire.
	defer wg.Wait()
	for i, tc := range cases {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, tc ir.TestCase) {
			defer wg.Done()
			defer sem.Release(1)
			failures[i] = r.runCase(ctx, harness, tc)
		}(i, tc)
	}
	wg.Wait()

	result := &ir.ValidationResult{Passed: true}
	for _, f := range failures {
		if f != nil {
			result.Passed = false
			result.FailedTests = append(result.FailedTests, *f)
		}
	}
	result.Diagnostic = buildDiagnostic(result.FailedTests)

	r.logger.Debug("execution finished",
		"function", funcName,
		"cases", len(cases),
		"failed", len(result.FailedTests))
	return result, nil
}

type caseOutput struct {
	Status  string `json:"status"`
	Value   any    `json:"value"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// runCase executes one case and returns nil on pass.
func (r *Runner) runCase(ctx context.Context, harness string, tc ir.TestCase) *ir.FailedTest {
	payload, err := json.Marshal(map[string]any{"inputs": tc.Inputs})
	if err != nil {
		return &ir.FailedTest{Case: tc, Category: ir.FailException, Actual: "unencodable inputs: " + err.Error()}
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, r.python, "-I", "-c", harness)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()
	if cctx.Err() == context.DeadlineExceeded {
		return &ir.FailedTest{
			Case:     tc,
			Category: ir.FailTimeout,
			Actual:   fmt.Sprintf("no result within %s", r.timeout),
		}
	}

	var out caseOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		// The harness itself crashed, usually a top-level error in the
		// candidate's module body.
		detail := strings.TrimSpace(stderr.String())
		if detail == "" && runErr != nil {
			detail = runErr.Error()
		}
		return &ir.FailedTest{Case: tc, Category: ir.FailException, Actual: lastLine(detail)}
	}

	switch out.Status {
	case "raised":
		if tc.ExpectRaise {
			return nil
		}
		return &ir.FailedTest{
			Case:     tc,
			Category: ir.FailException,
			Actual:   fmt.Sprintf("%s: %s", out.Type, out.Message),
		}
	case "ok":
		if tc.ExpectRaise {
			return &ir.FailedTest{
				Case:     tc,
				Category: ir.FailWrongValue,
				Actual:   fmt.Sprintf("expected an exception, got %v", out.Value),
			}
		}
		if out.Value == nil && tc.Expected != nil {
			return &ir.FailedTest{Case: tc, Category: ir.FailMissingReturn, Actual: "None"}
		}
		if !valuesEqual(tc.Expected, out.Value) {
			return &ir.FailedTest{
				Case:     tc,
				Category: ir.FailWrongValue,
				Actual:   fmt.Sprintf("%v", out.Value),
			}
		}
		return nil
	default:
		return &ir.FailedTest{Case: tc, Category: ir.FailException, Actual: "malformed harness output"}
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}

// buildDiagnostic summarizes failures by category with a concrete hint per
// category present, ordered from most to least actionable.
func buildDiagnostic(failed []ir.FailedTest) string {
	if len(failed) == 0 {
		return ""
	}
	counts := map[ir.FailureCategory]int{}
	for _, f := range failed {
		counts[f.Category]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d test case(s) failed.", len(failed))
	if n := counts[ir.FailMissingReturn]; n > 0 {
		fmt.Fprintf(&b, " %d returned None: make sure every path returns the computed value.", n)
	}
	if n := counts[ir.FailWrongValue]; n > 0 {
		f := firstOfCategory(failed, ir.FailWrongValue)
		fmt.Fprintf(&b, " %d returned the wrong value, e.g. inputs %v expected %v but got %s.",
			n, f.Case.Inputs, f.Case.Expected, f.Actual)
	}
	if n := counts[ir.FailException]; n > 0 {
		f := firstOfCategory(failed, ir.FailException)
		fmt.Fprintf(&b, " %d raised unexpectedly, e.g. %s.", n, f.Actual)
	}
	if n := counts[ir.FailTimeout]; n > 0 {
		fmt.Fprintf(&b, " %d timed out: check that every loop terminates.", n)
	}
	return b.String()
}

func firstOfCategory(failed []ir.FailedTest, cat ir.FailureCategory) ir.FailedTest {
	for _, f := range failed {
		if f.Category == cat {
			return f
		}
	}
	return ir.FailedTest{}
}
