// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package repair applies deterministic source-level fixes for mechanical
// defects in candidate code, cheaper than a regeneration round trip.
//
// Passes run in a fixed order and every pass is idempotent: applying it to
// its own output changes nothing. Each pass works on an immutable parse
// snapshot and produces edited source, so no pass ever sees a half-edited
// tree. A pass that cannot prove its precondition holds leaves the source
// alone.
package repair

import (
	"context"
	"log/slog"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// Pass is one deterministic repair transformation.
type Pass interface {
	Name() string
	// Apply returns the (possibly rewritten) source and whether it changed
	// anything.
	Apply(ctx context.Context, source string, r *ir.IR) (string, bool, error)
}

// Engine runs the pass pipeline over a candidate.
type Engine struct {
	passes []Pass
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPasses overrides the default pass pipeline.
func WithPasses(passes ...Pass) Option {
	return func(e *Engine) {
		e.passes = passes
	}
}

// NewEngine creates an Engine with the default passes: bracket balancing,
// terminal return insertion, loop early-return rewriting, and adjacency
// distance rewriting. Balancing runs first because the later passes need a
// parseable tree.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		passes: []Pass{
			&balancePass{},
			&terminalReturnPass{},
			&loopReturnPass{},
			&adjacencyPass{},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run applies every pass in order to code, recording the name of each pass
// that changed the source in code.Repairs.
func (e *Engine) Run(ctx context.Context, code *ir.GeneratedCode, r *ir.IR) error {
	for _, p := range e.passes {
		src, changed, err := p.Apply(ctx, code.Source, r)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		code.Source = src
		code.Repairs = append(code.Repairs, p.Name())
		e.logger.Debug("repair applied", "pass", p.Name(), "attempt", code.Attempt)
	}
	return nil
}

// replaceSpan splices repl over source[start:end].
func replaceSpan(source string, start, end int, repl string) string {
	return source[:start] + repl + source[end:]
}
