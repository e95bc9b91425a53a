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

// checkReturn verifies that every feasible terminal path through the target
// function returns a value. The returned expression is not matched against
// the constraint's value name: candidates rename freely, and a wrong value
// is the execution validator's job to catch.
func checkReturn(a *pyast.Arena, def int, c ir.ReturnConstraint) *ir.Violation {
	if c.Requirement != ir.MustReturn {
		return nil
	}
	if def < 0 {
		return &ir.Violation{
			Constraint: c,
			Message:    "no function is defined, so nothing can be returned",
		}
	}
	line := a.Line(def)
	if !a.AllPathsReturn(a.Body(def)) {
		return &ir.Violation{
			Constraint: c,
			Location:   fmt.Sprintf("line %d", line),
			Message: fmt.Sprintf("not every path through %s returns; a fall-through path yields None instead of %s",
				a.FunctionName(def), c.ValueName),
		}
	}
	if !a.ReturnsWithValue(def) {
		return &ir.Violation{
			Constraint: c,
			Location:   fmt.Sprintf("line %d", line),
			Message:    fmt.Sprintf("%s only has bare returns; %s is never returned", a.FunctionName(def), c.ValueName),
		}
	}
	return nil
}
