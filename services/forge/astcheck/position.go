// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package astcheck

import (
	"fmt"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
	"github.com/codesmith-ai/codesmith/services/forge/pyast"
)

// checkPosition verifies that adjacency and distance requirements are
// enforced with an actual numeric comparison between the two elements'
// positions. pos(b) > pos(a) proves ordering but says nothing about the
// gap, so an ordering-only comparison under a distance requirement is a
// violation.
//
// A candidate that never computes positions at all (a regex strategy, say)
// is left alone; the execution validator decides its fate.
func checkPosition(a *pyast.Arena, def int, c ir.PositionConstraint) *ir.Violation {
	if def < 0 || len(c.Elements) < 2 {
		return nil
	}
	first := a.PositionTokens(def, c.Elements[0])
	second := a.PositionTokens(def, c.Elements[1])
	if len(first) == 0 || len(second) == 0 {
		return nil
	}

	distance, ordering, at := scanComparisons(a, def, first, second)

	switch c.Requirement {
	case ir.NotAdjacent, ir.MinDistance:
		if distance {
			return nil
		}
		if ordering {
			return &ir.Violation{
				Constraint: c,
				Location:   fmt.Sprintf("line %d", at),
				Message: fmt.Sprintf("comparison only orders %q and %q; the requirement needs their distance checked against %d",
					c.Elements[0], c.Elements[1], c.MinDistance),
			}
		}
		return nil
	case ir.Ordered:
		if distance || ordering {
			return nil
		}
		return &ir.Violation{
			Constraint: c,
			Message: fmt.Sprintf("positions of %q and %q are computed but never compared",
				c.Elements[0], c.Elements[1]),
		}
	default:
		return nil
	}
}

// scanComparisons classifies every comparison in the function that touches
// both elements' position tokens. It reports whether any is a numeric
// distance comparison (a subtraction of positions), whether any is a plain
// ordering comparison, and the line of the first ordering comparison.
func scanComparisons(a *pyast.Arena, def int, first, second []string) (distance, ordering bool, line int) {
	for _, cmp := range a.FindWithin(def, "comparison_operator") {
		text := a.Text(cmp)
		if !pyast.RefersTo(text, first) || !pyast.RefersTo(text, second) {
			continue
		}
		if subtractsPositions(a, cmp, first, second) {
			distance = true
			continue
		}
		if !ordering {
			ordering = true
			line = a.Line(cmp)
		}
	}
	return distance, ordering, line
}

// subtractsPositions reports whether the comparison contains a subtraction
// whose text references a position token, or an abs() around one.
func subtractsPositions(a *pyast.Arena, cmp int, first, second []string) bool {
	for _, bin := range a.FindWithin(cmp, "binary_operator") {
		if !a.HasOperatorChild(bin, "-") {
			continue
		}
		text := a.Text(bin)
		if pyast.RefersTo(text, first) || pyast.RefersTo(text, second) {
			return true
		}
	}
	return false
}
