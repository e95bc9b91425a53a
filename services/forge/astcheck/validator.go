// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package astcheck validates candidate source against the constraints
// attached to its requirement record, using syntax-tree heuristics.
//
// Every check favors false negatives: a constraint the tree cannot be
// shown to violate produces no violation. Flagging correct code sends the
// generator chasing phantom bugs, which is worse than letting a subtle
// violation through to execution.
package astcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
	"github.com/codesmith-ai/codesmith/services/forge/pyast"
)

// ErrUnparseable is returned when the candidate has syntax errors. Callers
// should route the candidate to syntax feedback instead of constraint
// checking.
var ErrUnparseable = errors.New("candidate source has syntax errors")

// Validator checks candidate source against attached constraints.
type Validator struct {
	logger *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewValidator creates a Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate parses the candidate and checks every constraint on r.
//
// Description:
//
//	Each constraint type gets its own tree heuristic: terminal-path
//	analysis for return constraints, loop body shape for loop-behavior
//	constraints, and distance-versus-ordering comparison detection for
//	position constraints. Violations carry the source line where the
//	evidence sits when one can be pinned down.
//
// Inputs:
//
//	ctx - Context for cancellation of the parse.
//	source - Candidate Python source.
//	r - Requirement record whose Constraints are checked.
//
// Outputs:
//
//	[]ir.Violation - All detected violations, nil when the candidate is
//	clean.
//	error - ErrUnparseable when the source has syntax errors, or a parse
//	failure.
func (v *Validator) Validate(ctx context.Context, source string, r *ir.IR) ([]ir.Violation, error) {
	arena, err := pyast.Parse(ctx, []byte(source))
	if err != nil {
		return nil, err
	}
	if arena.HasErrors() {
		issues := arena.SyntaxIssues()
		return nil, fmt.Errorf("%w: %s", ErrUnparseable, issues[0])
	}

	def := arena.FunctionByName(r.Signature.Name)

	var violations []ir.Violation
	for _, c := range r.Constraints {
		var viol *ir.Violation
		switch cc := c.(type) {
		case ir.ReturnConstraint:
			viol = checkReturn(arena, def, cc)
		case ir.LoopBehaviorConstraint:
			viol = checkLoop(arena, def, cc)
		case ir.PositionConstraint:
			viol = checkPosition(arena, def, cc)
		default:
			v.logger.Warn("unknown constraint type skipped", "type", c.Type())
		}
		if viol != nil {
			violations = append(violations, *viol)
		}
	}

	v.logger.Debug("constraint validation finished",
		"function", r.Signature.Name,
		"constraints", len(r.Constraints),
		"violations", len(violations))
	return violations, nil
}
