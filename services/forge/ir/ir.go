// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ir defines the intermediate representation that sits between a
// natural-language function description and generated source code, plus the
// value objects the validation pipeline exchanges (constraints, violations,
// test cases, results).
//
// Everything in this package is pure data. Behavior lives in the detector,
// interpreter, validator, and orchestrator packages that consume these types.
package ir

import (
	"fmt"
	"strings"
)

// Param is one typed parameter of the target function's signature.
//
// Type uses the candidate language's spelling ("str", "int", "list",
// "float", "bool", "dict"). An empty Type means the IR generator could not
// infer one; downstream heuristics treat it as "any".
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Signature describes the function the pipeline must produce.
type Signature struct {
	Name       string  `json:"name"`
	Params     []Param `json:"params"`
	ReturnType string  `json:"return_type"`
}

// HasReturn reports whether the signature declares a non-void return type.
func (s Signature) HasReturn() bool {
	switch strings.ToLower(strings.TrimSpace(s.ReturnType)) {
	case "", "none", "void", "null":
		return false
	}
	return true
}

// ParamNames returns the declared parameter names in order.
func (s Signature) ParamNames() []string {
	names := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		names = append(names, p.Name)
	}
	return names
}

// String renders the signature in the candidate language's def form,
// for prompts and diagnostics.
func (s Signature) String() string {
	parts := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		if p.Type != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", p.Name, p.Type))
		} else {
			parts = append(parts, p.Name)
		}
	}
	sig := fmt.Sprintf("def %s(%s)", s.Name, strings.Join(parts, ", "))
	if s.ReturnType != "" {
		sig += " -> " + s.ReturnType
	}
	return sig
}

// IR is the typed representation of a function's intent.
//
// Description:
//
//	An IR is created by the IR-generation collaborator from a natural
//	language prompt. The constraint detector appends to Constraints;
//	otherwise the IR is immutable once it enters the validation pipeline.
//	The orchestrator never mutates it.
//
// Effects are ordered natural-language descriptions of computation steps.
// Assertions are natural-language post-conditions on the result.
type IR struct {
	Intent     string    `json:"intent"`
	Signature  Signature `json:"signature"`
	Effects    []string  `json:"effects"`
	Assertions []string  `json:"assertions"`

	// Constraints are attached by the constraint detector. Not part of
	// the collaborator's output format.
	Constraints []Constraint `json:"-"`
}

// EffectText returns all effects joined for whole-IR keyword scans.
func (r *IR) EffectText() string {
	return strings.Join(r.Effects, " ")
}

// Attach appends detected constraints. Constraints themselves are immutable
// value objects; Attach is the only sanctioned mutation of an IR.
func (r *IR) Attach(cs ...Constraint) {
	r.Constraints = append(r.Constraints, cs...)
}

// ErrorConstraints returns the attached constraints with error severity.
func (r *IR) ErrorConstraints() []Constraint {
	var out []Constraint
	for _, c := range r.Constraints {
		if c.Severity() == SeverityError {
			out = append(out, c)
		}
	}
	return out
}
