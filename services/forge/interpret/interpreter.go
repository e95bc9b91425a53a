// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package interpret

import (
	"log/slog"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// InterpreterOption configures an Interpreter.
type InterpreterOption func(*Interpreter)

// WithLogger sets the logger for analysis findings.
func WithLogger(logger *slog.Logger) InterpreterOption {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// Interpreter runs the three IR sub-analyses.
//
// Thread Safety: stateless after construction, safe for concurrent use.
type Interpreter struct {
	logger *slog.Logger
}

// NewInterpreter creates an Interpreter.
func NewInterpreter(opts ...InterpreterOption) *Interpreter {
	i := &Interpreter{logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Analyze runs the effect-chain analyzer, the semantic validator, and the
// logic-error detector over the IR, in that order.
//
// Description:
//
//	Any error-severity finding blocks generation for this IR entirely;
//	the caller surfaces the report without requesting a candidate.
//	Warnings are carried through and attached to the final artifact.
//
// Inputs:
//
//	r - The IR to analyze. Must be non-nil. Never mutated.
//
// Outputs:
//
//	Report - All findings, split into errors and warnings.
func (i *Interpreter) Analyze(r *ir.IR) Report {
	var report Report

	effectChain(r, &report)
	semanticValidation(r, &report)
	logicErrors(r, &report)

	if report.Blocking() {
		i.logger.Warn("IR blocked by interpreter",
			"function", r.Signature.Name,
			"errors", len(report.Errors),
			"warnings", len(report.Warnings),
		)
	} else {
		i.logger.Debug("IR passed interpretation",
			"function", r.Signature.Name,
			"warnings", len(report.Warnings),
		)
	}
	return report
}
