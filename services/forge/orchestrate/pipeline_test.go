// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesmith-ai/codesmith/services/forge/config"
	"github.com/codesmith-ai/codesmith/services/forge/history"
	"github.com/codesmith-ai/codesmith/services/forge/ir"
	"github.com/codesmith-ai/codesmith/services/forge/llm"
)

type scriptStep struct {
	source string
	err    error
}

// scriptedClient replays canned responses and records every request it saw.
type scriptedClient struct {
	mu    sync.Mutex
	steps []scriptStep
	calls []llm.CodeRequest
}

func (c *scriptedClient) GenerateIR(context.Context, llm.IRRequest) (*ir.IR, error) {
	return nil, errors.New("not scripted")
}

func (c *scriptedClient) GenerateCode(_ context.Context, req llm.CodeRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	idx := len(c.calls) - 1
	if idx >= len(c.steps) {
		idx = len(c.steps) - 1
	}
	return c.steps[idx].source, c.steps[idx].err
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *scriptedClient) call(i int) llm.CodeRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[i]
}

func testCfg() config.PipelineConfig {
	return config.PipelineConfig{
		MaxAttempts:               3,
		TemperatureSchedule:       []float32{0.3, 0.45, 0.6},
		EnableConstraintDetection: true,
		EnableInterpreter:         true,
		EnableASTRepair:           false,
		EnableExecution:           false,
	}
}

func countIR() *ir.IR {
	return &ir.IR{
		Signature: ir.Signature{
			Name:       "count_chars",
			Params:     []ir.Param{{Name: "s", Type: "str"}},
			ReturnType: "int",
		},
		Effects: []string{
			"iterate over the string",
			"count the characters in s",
			"return the count",
		},
	}
}

const goodCandidate = "def count_chars(s):\n    return len(s)\n"

const noReturnCandidate = "def count_chars(s):\n" +
	"    total = 0\n" +
	"    for ch in s:\n" +
	"        total += 1\n"

func TestRun_SucceedsFirstAttempt(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{{source: goodCandidate}}}
	p := NewPipeline(client, WithConfig(testCfg()))

	out, err := p.Run(context.Background(), countIR())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, goodCandidate, out.Code.Source)
	assert.NotEmpty(t, out.RunID)
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, float32(0.3), out.Attempts[0].Temperature)
	assert.Equal(t, 1, client.callCount())

	// The detector found a return constraint and it reached the prompt.
	assert.Contains(t, client.call(0).ConstraintHints, "returned")
}

func TestRun_ViolationBecomesFeedback(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{source: noReturnCandidate},
		{source: goodCandidate},
	}}
	p := NewPipeline(client, WithConfig(testCfg()))

	out, err := p.Run(context.Background(), countIR())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	require.Len(t, out.Attempts, 2)
	assert.NotEmpty(t, out.Attempts[0].Violations)
	assert.Equal(t, float32(0.45), out.Attempts[1].Temperature, "temperature escalates per attempt")

	require.Equal(t, 2, client.callCount())
	assert.Empty(t, client.call(0).Feedback)
	assert.Contains(t, client.call(1).Feedback, "returns")
}

func TestRun_RepairSalvagesFirstAttempt(t *testing.T) {
	cfg := testCfg()
	cfg.EnableASTRepair = true
	client := &scriptedClient{steps: []scriptStep{{source: noReturnCandidate}}}
	p := NewPipeline(client, WithConfig(cfg))

	out, err := p.Run(context.Background(), countIR())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	require.Len(t, out.Attempts, 1)
	assert.Contains(t, out.Code.Repairs, "terminal-return")
	assert.Contains(t, out.Code.Source, "return total")
}

func TestRun_SyntaxGateFeedsBack(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{source: "def count_chars(s:\n    return len(s)\n"},
		{source: goodCandidate},
	}}
	p := NewPipeline(client, WithConfig(testCfg()))

	out, err := p.Run(context.Background(), countIR())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	require.Equal(t, 2, client.callCount())
	assert.Contains(t, client.call(1).Feedback, "does not parse")
}

func TestRun_ExhaustionKeepsBestAttempt(t *testing.T) {
	cfg := testCfg()
	cfg.MaxAttempts = 2
	secondBad := "def count_chars(s):\n    n = 0\n    if s:\n        n = 1\n"
	client := &scriptedClient{steps: []scriptStep{
		{source: noReturnCandidate},
		{source: secondBad},
	}}
	p := NewPipeline(client, WithConfig(cfg))

	out, err := p.Run(context.Background(), countIR())
	require.NoError(t, err, "exhaustion is an outcome, not an error")

	assert.Equal(t, StatusExhausted, out.Status)
	require.Len(t, out.Attempts, 2)
	assert.Equal(t, secondBad, out.Code.Source, "equal scores prefer the later attempt")
}

func TestRun_TransientFailuresDoNotConsumeAttempts(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{err: &llm.TransientError{Err: errors.New("gateway timeout")}},
		{source: goodCandidate},
	}}
	p := NewPipeline(client, WithConfig(testCfg()))

	out, err := p.Run(context.Background(), countIR())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Len(t, out.Attempts, 1)
	assert.Equal(t, 2, client.callCount())
}

func TestRun_PersistentTransientFailureIsAnError(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{err: &llm.TransientError{Err: errors.New("connection refused")}},
	}}
	p := NewPipeline(client, WithConfig(testCfg()))

	_, err := p.Run(context.Background(), countIR())
	require.Error(t, err)
	assert.True(t, llm.IsTransient(err))
}

func TestRun_MalformedResponsesConsumeAttempts(t *testing.T) {
	cfg := testCfg()
	cfg.MaxAttempts = 2
	client := &scriptedClient{steps: []scriptStep{
		{err: llm.ErrMalformed},
	}}
	p := NewPipeline(client, WithConfig(cfg))

	out, err := p.Run(context.Background(), countIR())
	require.NoError(t, err)

	assert.Equal(t, StatusExhausted, out.Status)
	assert.Len(t, out.Attempts, 2)
	require.Equal(t, 2, client.callCount())
	assert.Contains(t, client.call(1).Feedback, "not usable")
}

func TestRun_IncoherentRecordBlocksBeforeGeneration(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{{source: goodCandidate}}}
	p := NewPipeline(client, WithConfig(testCfg()))

	r := &ir.IR{
		Signature: ir.Signature{
			Name:       "describe",
			Params:     []ir.Param{{Name: "s", Type: "str"}},
			ReturnType: "int",
		},
		Effects: []string{"print the s to standard output"},
	}

	_, err := p.Run(context.Background(), r)
	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.NotEmpty(t, blocked.Report.Errors)
	assert.Zero(t, client.callCount(), "blocked records must not reach the model")
}

func TestRun_PersistsOutcome(t *testing.T) {
	store, err := history.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := &scriptedClient{steps: []scriptStep{{source: goodCandidate}}}
	p := NewPipeline(client, WithConfig(testCfg()), WithHistory(store))

	out, err := p.Run(context.Background(), countIR())
	require.NoError(t, err)

	rec, err := store.Get(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, "count_chars", rec.Function)
	assert.Equal(t, string(StatusSuccess), rec.Status)
	assert.Equal(t, goodCandidate, rec.Source)
}
