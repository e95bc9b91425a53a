// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package repair

import (
	"context"
	"strings"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
	"github.com/codesmith-ai/codesmith/services/forge/pyast"
)

// terminalReturnPass appends a return of the last-assigned variable to a
// function whose fall-through path would yield None. It only fires when
// the record says the function must return something and the tree shows a
// variable to return.
type terminalReturnPass struct{}

func (p *terminalReturnPass) Name() string { return "terminal-return" }

func (p *terminalReturnPass) Apply(ctx context.Context, source string, r *ir.IR) (string, bool, error) {
	if !needsReturn(r) {
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
	body := a.Body(def)
	if body < 0 || len(a.Nodes[body].Children) == 0 || a.AllPathsReturn(body) {
		return source, false, nil
	}

	name := lastAssignedVar(a, def)
	if name == "" {
		return source, false, nil
	}

	indent := strings.Repeat(" ", a.Nodes[a.Nodes[body].Children[0]].StartCol)
	end := a.Nodes[def].EndByte
	return source[:end] + "\n" + indent + "return " + name + source[end:], true, nil
}

func needsReturn(r *ir.IR) bool {
	for _, c := range r.ErrorConstraints() {
		if rc, ok := c.(ir.ReturnConstraint); ok && rc.Requirement == ir.MustReturn {
			return true
		}
	}
	return r.Signature.HasReturn()
}

// lastAssignedVar finds the variable assigned last in the function, in
// source order, counting augmented assignments.
func lastAssignedVar(a *pyast.Arena, def int) string {
	name := ""
	pos := -1
	for _, kind := range []string{"assignment", "augmented_assignment"} {
		for _, assign := range a.FindWithin(def, kind) {
			left := a.ChildByField(assign, "left")
			if left < 0 || a.Nodes[left].Kind != "identifier" {
				continue
			}
			if a.Nodes[assign].StartByte > pos {
				pos = a.Nodes[assign].StartByte
				name = a.Text(left)
			}
		}
	}
	return name
}
