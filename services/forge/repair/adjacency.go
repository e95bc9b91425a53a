// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package repair

import (
	"context"
	"fmt"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
	"github.com/codesmith-ai/codesmith/services/forge/pyast"
)

// adjacencyPass upgrades an ordering-only comparison of two element
// positions into the numeric distance check the record requires: pos(b) >
// pos(a) becomes pos(b) - pos(a) >= min_distance. The rewritten form no
// longer matches the pass's own pattern, which makes it idempotent.
type adjacencyPass struct{}

func (p *adjacencyPass) Name() string { return "adjacency-distance" }

func (p *adjacencyPass) Apply(ctx context.Context, source string, r *ir.IR) (string, bool, error) {
	pc, ok := distanceConstraint(r)
	if !ok {
		return source, false, nil
	}
	a, err := pyast.Parse(ctx, []byte(source))
	if err != nil {
		return source, false, err
	}
	if a.HasErrors() {
		return source, false, nil
	}
	def := a.FunctionByName(r.Signature.Name)
	if def < 0 {
		return source, false, nil
	}

	earlier := a.PositionTokens(def, pc.Elements[0])
	later := a.PositionTokens(def, pc.Elements[1])
	if len(earlier) == 0 || len(later) == 0 {
		return source, false, nil
	}

	for _, cmp := range a.FindWithin(def, "comparison_operator") {
		laterSide, earlierSide, ok := orderingOperands(a, cmp, earlier, later)
		if !ok {
			continue
		}
		n := a.Nodes[cmp]
		repl := fmt.Sprintf("%s - %s >= %d", laterSide, earlierSide, pc.MinDistance)
		return replaceSpan(source, n.StartByte, n.EndByte, repl), true, nil
	}
	return source, false, nil
}

func distanceConstraint(r *ir.IR) (ir.PositionConstraint, bool) {
	for _, c := range r.Constraints {
		pc, ok := c.(ir.PositionConstraint)
		if !ok || len(pc.Elements) < 2 {
			continue
		}
		if pc.Requirement == ir.NotAdjacent || pc.Requirement == ir.MinDistance {
			return pc, true
		}
	}
	return ir.PositionConstraint{}, false
}

// orderingOperands matches a plain two-operand ordering comparison where
// one side holds the later element's position and the other the earlier
// element's, with no subtraction already present. It returns the operand
// texts oriented as (later, earlier).
func orderingOperands(a *pyast.Arena, cmp int, earlier, later []string) (string, string, bool) {
	if !a.HasOperatorChild(cmp, ">") && !a.HasOperatorChild(cmp, "<") &&
		!a.HasOperatorChild(cmp, ">=") && !a.HasOperatorChild(cmp, "<=") {
		return "", "", false
	}

	var operands []int
	for _, c := range a.Nodes[cmp].Children {
		if a.Nodes[c].Named {
			operands = append(operands, c)
		}
	}
	if len(operands) != 2 {
		return "", "", false
	}
	for _, op := range operands {
		if a.Nodes[op].Kind == "binary_operator" {
			return "", "", false
		}
	}

	left, right := a.Text(operands[0]), a.Text(operands[1])
	switch {
	case pyast.RefersTo(left, later) && pyast.RefersTo(right, earlier):
		return left, right, true
	case pyast.RefersTo(left, earlier) && pyast.RefersTo(right, later):
		return right, left, true
	default:
		return "", "", false
	}
}
