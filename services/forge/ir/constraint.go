// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ir

import (
	"encoding/json"
	"fmt"
)

// Severity classifies how a constraint violation is handled by the
// orchestrator: error-severity violations force a retry, warning-severity
// violations are recorded alongside the final artifact.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ConstraintType tags the concrete variant of a Constraint.
type ConstraintType string

const (
	ConstraintReturn       ConstraintType = "return"
	ConstraintLoopBehavior ConstraintType = "loop_behavior"
	ConstraintPosition     ConstraintType = "position"
)

// ReturnRequirement says whether the named value must be returned.
type ReturnRequirement string

const (
	MustReturn     ReturnRequirement = "must_return"
	OptionalReturn ReturnRequirement = "optional"
)

// LoopSearchType classifies what a loop-based effect searches for.
type LoopSearchType string

const (
	FirstMatch LoopSearchType = "first_match"
	LastMatch  LoopSearchType = "last_match"
	AllMatches LoopSearchType = "all_matches"
)

// LoopRequirement is the structural shape the loop body must take.
type LoopRequirement string

const (
	EarlyReturn LoopRequirement = "early_return"
	Accumulate  LoopRequirement = "accumulate"
	Transform   LoopRequirement = "transform"
)

// PositionRequirement classifies a positional relationship between elements.
type PositionRequirement string

const (
	NotAdjacent PositionRequirement = "not_adjacent"
	Ordered     PositionRequirement = "ordered"
	MinDistance PositionRequirement = "min_distance"
)

// Constraint is an explicit, checkable requirement on generated code,
// derived from an IR by the constraint detector.
//
// Constraints are immutable value objects. The three concrete variants are
// ReturnConstraint, LoopBehaviorConstraint, and PositionConstraint. Each
// serializes to a structured record with stable field names (`type`,
// `severity`, `description`, plus variant-specific fields) so a host can
// render them; wire encoding beyond JSON is a host concern.
type Constraint interface {
	Type() ConstraintType
	Severity() Severity
	Describe() string

	// Record returns the stable structured form of the constraint.
	Record() map[string]any
}

// -----------------------------------------------------------------------------
// ReturnConstraint
// -----------------------------------------------------------------------------

// ReturnConstraint requires that the value bound to ValueName (or its
// last-assigned alias) is returned on every feasible terminal path.
type ReturnConstraint struct {
	ValueName   string
	Requirement ReturnRequirement
	Sev         Severity
	Description string
}

func (c ReturnConstraint) Type() ConstraintType { return ConstraintReturn }
func (c ReturnConstraint) Severity() Severity   { return c.Sev }
func (c ReturnConstraint) Describe() string     { return c.Description }

func (c ReturnConstraint) Record() map[string]any {
	return map[string]any{
		"type":        string(ConstraintReturn),
		"severity":    string(c.Sev),
		"description": c.Description,
		"value_name":  c.ValueName,
		"requirement": string(c.Requirement),
	}
}

// -----------------------------------------------------------------------------
// LoopBehaviorConstraint
// -----------------------------------------------------------------------------

// LoopBehaviorConstraint requires a specific loop shape: an early return on
// the first match, or an accumulate/transform pattern for last/all matches.
type LoopBehaviorConstraint struct {
	SearchType  LoopSearchType
	Requirement LoopRequirement
	Sev         Severity
	Description string
}

func (c LoopBehaviorConstraint) Type() ConstraintType { return ConstraintLoopBehavior }
func (c LoopBehaviorConstraint) Severity() Severity   { return c.Sev }
func (c LoopBehaviorConstraint) Describe() string     { return c.Description }

func (c LoopBehaviorConstraint) Record() map[string]any {
	return map[string]any{
		"type":        string(ConstraintLoopBehavior),
		"severity":    string(c.Sev),
		"description": c.Description,
		"search_type": string(c.SearchType),
		"requirement": string(c.Requirement),
	}
}

// -----------------------------------------------------------------------------
// PositionConstraint
// -----------------------------------------------------------------------------

// PositionConstraint requires a positional relationship between code-level
// elements (parameter names or literal symbols). For NotAdjacent and
// MinDistance, satisfying code must compare the numeric gap between the
// elements' positions, not merely their order.
type PositionConstraint struct {
	Elements    []string
	Requirement PositionRequirement
	MinDistance int
	MaxDistance *int
	Sev         Severity
	Description string
}

func (c PositionConstraint) Type() ConstraintType { return ConstraintPosition }
func (c PositionConstraint) Severity() Severity   { return c.Sev }
func (c PositionConstraint) Describe() string     { return c.Description }

func (c PositionConstraint) Record() map[string]any {
	rec := map[string]any{
		"type":         string(ConstraintPosition),
		"severity":     string(c.Sev),
		"description":  c.Description,
		"elements":     append([]string(nil), c.Elements...),
		"requirement":  string(c.Requirement),
		"min_distance": c.MinDistance,
	}
	if c.MaxDistance != nil {
		rec["max_distance"] = *c.MaxDistance
	}
	return rec
}

// -----------------------------------------------------------------------------
// Serialization
// -----------------------------------------------------------------------------

// MarshalConstraint encodes any constraint variant as JSON via its Record.
func MarshalConstraint(c Constraint) ([]byte, error) {
	return json.Marshal(c.Record())
}

// constraintEnvelope is the decode target for all variants.
type constraintEnvelope struct {
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	ValueName   string   `json:"value_name"`
	Requirement string   `json:"requirement"`
	SearchType  string   `json:"search_type"`
	Elements    []string `json:"elements"`
	MinDistance int      `json:"min_distance"`
	MaxDistance *int     `json:"max_distance"`
}

// UnmarshalConstraint decodes a constraint record produced by
// MarshalConstraint back into its concrete variant.
func UnmarshalConstraint(data []byte) (Constraint, error) {
	var env constraintEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding constraint: %w", err)
	}
	sev := Severity(env.Severity)
	switch ConstraintType(env.Type) {
	case ConstraintReturn:
		return ReturnConstraint{
			ValueName:   env.ValueName,
			Requirement: ReturnRequirement(env.Requirement),
			Sev:         sev,
			Description: env.Description,
		}, nil
	case ConstraintLoopBehavior:
		return LoopBehaviorConstraint{
			SearchType:  LoopSearchType(env.SearchType),
			Requirement: LoopRequirement(env.Requirement),
			Sev:         sev,
			Description: env.Description,
		}, nil
	case ConstraintPosition:
		return PositionConstraint{
			Elements:    env.Elements,
			Requirement: PositionRequirement(env.Requirement),
			MinDistance: env.MinDistance,
			MaxDistance: env.MaxDistance,
			Sev:         sev,
			Description: env.Description,
		}, nil
	default:
		return nil, fmt.Errorf("unknown constraint type %q", env.Type)
	}
}
