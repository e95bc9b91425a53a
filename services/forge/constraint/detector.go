// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package constraint

import (
	"log/slog"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithKeywords overrides the default keyword sets.
func WithKeywords(kw Keywords) DetectorOption {
	return func(d *Detector) {
		d.keywords = kw
	}
}

// WithLogger sets the logger for detection decisions.
func WithLogger(logger *slog.Logger) DetectorOption {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Detector derives explicit constraints from an IR by running an ordered
// list of heuristic rules.
//
// Thread Safety: Detector is stateless after construction and safe for
// concurrent use.
type Detector struct {
	rules    []Rule
	keywords Keywords
	logger   *slog.Logger
}

// NewDetector creates a Detector with the standard rule ordering: return
// value, loop behavior, relative position.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		rules:    []Rule{returnRule{}, loopRule{}, positionRule{}},
		keywords: DefaultKeywords(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect evaluates every rule against the IR and returns the constraints to
// attach plus the full decision trail (matched, filtered, and unmatched).
//
// Description:
//
//	Detect never mutates the IR; the caller attaches the returned
//	constraints via IR.Attach. Filtered decisions record constraints the
//	applicability filters elided — they are the interesting ones when
//	tuning keyword sets.
//
// Inputs:
//
//	r - The IR to analyze. Must be non-nil.
//
// Outputs:
//
//	[]ir.Constraint - Constraints to attach, in rule order.
//	[]Decision - The complete decision trail.
func (d *Detector) Detect(r *ir.IR) ([]ir.Constraint, []Decision) {
	var constraints []ir.Constraint
	var trail []Decision

	for _, rule := range d.rules {
		decisions := rule.Evaluate(r, d.keywords)
		for _, dec := range decisions {
			trail = append(trail, dec)
			if dec.Constraint != nil {
				constraints = append(constraints, dec.Constraint)
			}
			if dec.Filtered {
				d.logger.Debug("constraint elided by applicability filter",
					"rule", dec.Rule,
					"source", dec.Source,
					"rationale", dec.Rationale,
				)
			}
		}
	}

	d.logger.Debug("constraint detection complete",
		"function", r.Signature.Name,
		"attached", len(constraints),
		"decisions", len(trail),
	)
	return constraints, trail
}
