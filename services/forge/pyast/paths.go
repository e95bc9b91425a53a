// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pyast

// AllPathsReturn reports whether every feasible terminal path through the
// given block ends in a return or raise.
//
// The analysis is deliberately conservative in the candidate's favor:
//   - an if/elif chain terminates only when it carries an else clause and
//     every branch terminates
//   - loops are never assumed to terminate the function, even when their
//     bodies return (the loop may run zero times)
//   - try statements terminate when the try body and every handler do
//
// A false "no" here at worst triggers an unnecessary repair or feedback
// round; a false "yes" would let a fall-through-to-None candidate pass.
func (a *Arena) AllPathsReturn(block int) bool {
	if block < 0 {
		return false
	}
	for _, stmt := range a.Nodes[block].Children {
		if a.stmtTerminates(stmt) {
			return true
		}
	}
	return false
}

func (a *Arena) stmtTerminates(stmt int) bool {
	switch a.Nodes[stmt].Kind {
	case "return_statement", "raise_statement":
		return true
	case "if_statement":
		return a.ifTerminates(stmt)
	case "try_statement":
		return a.tryTerminates(stmt)
	case "with_statement":
		return a.AllPathsReturn(a.Body(stmt))
	default:
		return false
	}
}

func (a *Arena) ifTerminates(stmt int) bool {
	if !a.AllPathsReturn(a.Body(stmt)) {
		return false
	}
	hasElse := false
	for _, c := range a.Nodes[stmt].Children {
		switch a.Nodes[c].Kind {
		case "elif_clause":
			if !a.AllPathsReturn(a.Body(c)) {
				return false
			}
		case "else_clause":
			hasElse = true
			if !a.AllPathsReturn(a.Body(c)) {
				return false
			}
		}
	}
	return hasElse
}

func (a *Arena) tryTerminates(stmt int) bool {
	// A finally clause that returns covers every path by itself.
	for _, c := range a.Nodes[stmt].Children {
		if a.Nodes[c].Kind == "finally_clause" && a.AllPathsReturn(a.Body(c)) {
			return true
		}
	}
	if !a.AllPathsReturn(a.Body(stmt)) {
		return false
	}
	for _, c := range a.Nodes[stmt].Children {
		if a.Nodes[c].Kind == "except_clause" && !a.AllPathsReturn(a.Body(c)) {
			return false
		}
	}
	return true
}

// ReturnsWithValue reports whether any return statement in the subtree at
// root carries an expression (as opposed to a bare "return").
func (a *Arena) ReturnsWithValue(root int) bool {
	for _, ret := range a.FindWithin(root, "return_statement") {
		for _, c := range a.Nodes[ret].Children {
			if a.Nodes[c].Named {
				return true
			}
		}
	}
	return false
}
