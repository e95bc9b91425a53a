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

var loopKinds = []string{"for_statement", "while_statement"}

// checkLoop verifies the loop's control shape against the constraint.
//
// A candidate with no loop at all is left alone: builtins like index()
// already carry first-match semantics, and flagging them would punish the
// idiomatic solution.
func checkLoop(a *pyast.Arena, def int, c ir.LoopBehaviorConstraint) *ir.Violation {
	if def < 0 {
		return nil
	}
	loops := findLoops(a, def)
	if len(loops) == 0 {
		return nil
	}

	switch c.Requirement {
	case ir.EarlyReturn:
		return checkEarlyReturn(a, def, loops, c)
	case ir.Accumulate:
		return checkAccumulate(a, loops, c)
	default:
		return nil
	}
}

func findLoops(a *pyast.Arena, def int) []int {
	var loops []int
	for _, kind := range loopKinds {
		loops = append(loops, a.FindWithin(def, kind)...)
	}
	return loops
}

// checkEarlyReturn flags the accumulate-then-return-last shape: a loop that
// overwrites a variable on match, never returns from inside its body, and
// feeds a return placed after the loop. Under first-match semantics that
// shape silently returns the last match.
func checkEarlyReturn(a *pyast.Arena, def int, loops []int, c ir.LoopBehaviorConstraint) *ir.Violation {
	for _, loop := range loops {
		if len(a.FindWithin(loop, "return_statement")) > 0 {
			continue
		}
		if !loopAccumulates(a, loop) {
			continue
		}
		if !hasReturnAfter(a, def, loop) {
			continue
		}
		return &ir.Violation{
			Constraint: c,
			Location:   fmt.Sprintf("line %d", a.Line(loop)),
			Message: fmt.Sprintf("loop accumulates matches and returns after it finishes; searching for the %s match requires returning as soon as it is found",
				c.SearchType),
		}
	}
	return nil
}

// checkAccumulate flags a return from inside the loop that carries a
// non-constant expression. Returning a computed value mid-loop under
// last-match or all-matches semantics stops at the first hit. Constant
// returns are left alone since they are usually guard clauses.
func checkAccumulate(a *pyast.Arena, loops []int, c ir.LoopBehaviorConstraint) *ir.Violation {
	for _, loop := range loops {
		for _, ret := range a.FindWithin(loop, "return_statement") {
			if retIsConstant(a, ret) {
				continue
			}
			return &ir.Violation{
				Constraint: c,
				Location:   fmt.Sprintf("line %d", a.Line(ret)),
				Message: fmt.Sprintf("loop returns on the first hit, but the %s match requires scanning the whole input",
					c.SearchType),
			}
		}
	}
	return nil
}

// loopAccumulates reports whether the loop body assigns to some variable,
// either on every iteration or under a condition.
func loopAccumulates(a *pyast.Arena, loop int) bool {
	body := a.Body(loop)
	if body < 0 {
		return false
	}
	return len(a.FindWithin(body, "assignment")) > 0 ||
		len(a.FindWithin(body, "augmented_assignment")) > 0
}

// hasReturnAfter reports whether the function has a return statement that
// starts after the loop ends and is not nested in another loop.
func hasReturnAfter(a *pyast.Arena, def, loop int) bool {
	loopEnd := a.Nodes[loop].EndByte
	for _, ret := range a.FindWithin(def, "return_statement") {
		if a.Nodes[ret].StartByte >= loopEnd && a.Enclosing(ret, "for_statement") < 0 &&
			a.Enclosing(ret, "while_statement") < 0 {
			return true
		}
	}
	return false
}

var constantKinds = map[string]bool{
	"integer":        true,
	"float":          true,
	"string":         true,
	"true":           true,
	"false":          true,
	"none":           true,
	"unary_operator": true, // -1 and friends
}

func retIsConstant(a *pyast.Arena, ret int) bool {
	for _, c := range a.Nodes[ret].Children {
		if a.Nodes[c].Named && !constantKinds[a.Nodes[c].Kind] {
			return false
		}
	}
	return true
}
