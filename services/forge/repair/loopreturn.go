// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package repair

import (
	"context"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
	"github.com/codesmith-ai/codesmith/services/forge/pyast"
)

// loopReturnPass rewrites accumulate-then-return-last loops into early
// returns when the record demands first-match semantics. The conditional
// assignment feeding the post-loop return becomes a return of the assigned
// expression; the post-loop return stays as the not-found path.
type loopReturnPass struct{}

func (p *loopReturnPass) Name() string { return "loop-early-return" }

func (p *loopReturnPass) Apply(ctx context.Context, source string, r *ir.IR) (string, bool, error) {
	if !wantsEarlyReturn(r) {
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

	for _, kind := range []string{"for_statement", "while_statement"} {
		for _, loop := range a.FindWithin(def, kind) {
			if len(a.FindWithin(loop, "return_statement")) > 0 {
				continue
			}
			retVar := postLoopReturnVar(a, def, loop)
			if retVar == "" {
				continue
			}
			if src, ok := rewriteAssignment(a, source, loop, retVar); ok {
				return src, true, nil
			}
		}
	}
	return source, false, nil
}

func wantsEarlyReturn(r *ir.IR) bool {
	for _, c := range r.Constraints {
		if lc, ok := c.(ir.LoopBehaviorConstraint); ok && lc.Requirement == ir.EarlyReturn {
			return true
		}
	}
	return false
}

// postLoopReturnVar returns the identifier returned after the loop, or "".
func postLoopReturnVar(a *pyast.Arena, def, loop int) string {
	loopEnd := a.Nodes[loop].EndByte
	for _, ret := range a.FindWithin(def, "return_statement") {
		if a.Nodes[ret].StartByte < loopEnd {
			continue
		}
		for _, c := range a.Nodes[ret].Children {
			if a.Nodes[c].Kind == "identifier" {
				return a.Text(c)
			}
		}
	}
	return ""
}

// rewriteAssignment finds a conditional assignment to retVar inside the
// loop and replaces it with a return of its right-hand side.
func rewriteAssignment(a *pyast.Arena, source string, loop int, retVar string) (string, bool) {
	body := a.Body(loop)
	if body < 0 {
		return source, false
	}
	for _, assign := range a.FindWithin(body, "assignment") {
		left := a.ChildByField(assign, "left")
		right := a.ChildByField(assign, "right")
		if left < 0 || right < 0 {
			continue
		}
		if a.Nodes[left].Kind != "identifier" || a.Text(left) != retVar {
			continue
		}
		ifStmt := a.Enclosing(assign, "if_statement")
		if ifStmt < 0 || !a.Contains(loop, ifStmt) {
			continue
		}
		n := a.Nodes[assign]
		return replaceSpan(source, n.StartByte, n.EndByte, "return "+a.Text(right)), true
	}
	return source, false
}
