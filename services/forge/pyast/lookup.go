// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pyast

import (
	"strings"
	"unicode"
)

var lookupMethods = map[string]bool{
	"index":  true,
	"find":   true,
	"rindex": true,
	"rfind":  true,
}

// PositionTokens collects the expressions holding an element's computed
// position within the function at def: each index/find style lookup call
// whose argument is the element literal, plus any variable that call is
// assigned to.
func (a *Arena) PositionTokens(def int, element string) []string {
	var tokens []string
	for _, call := range a.FindWithin(def, "call") {
		fn := a.ChildByField(call, "function")
		if fn < 0 || a.Nodes[fn].Kind != "attribute" {
			continue
		}
		attr := a.ChildByField(fn, "attribute")
		if attr < 0 || !lookupMethods[a.Text(attr)] {
			continue
		}
		if !a.callTargets(call, element) {
			continue
		}
		tokens = append(tokens, a.Text(call))
		if name := a.assignedName(call); name != "" {
			tokens = append(tokens, name)
		}
	}
	return tokens
}

// callTargets reports whether the lookup call's first argument is a string
// literal for the element.
func (a *Arena) callTargets(call int, element string) bool {
	args := a.ChildByField(call, "arguments")
	if args < 0 {
		return false
	}
	for _, arg := range a.Nodes[args].Children {
		if !a.Nodes[arg].Named {
			continue
		}
		if a.Nodes[arg].Kind != "string" {
			return false
		}
		return strings.Trim(a.Text(arg), `'"`) == element
	}
	return false
}

// assignedName returns the variable name a call's result lands in, or "".
func (a *Arena) assignedName(call int) string {
	for p := a.Nodes[call].Parent; p >= 0; p = a.Nodes[p].Parent {
		if a.Nodes[p].Kind != "assignment" {
			continue
		}
		left := a.ChildByField(p, "left")
		if left >= 0 && a.Nodes[left].Kind == "identifier" {
			return a.Text(left)
		}
		return ""
	}
	return ""
}

// HasOperatorChild reports whether node n has the given anonymous operator
// token among its direct children.
func (a *Arena) HasOperatorChild(n int, op string) bool {
	for _, c := range a.Nodes[n].Children {
		if !a.Nodes[c].Named && a.Text(c) == op {
			return true
		}
	}
	return false
}

// RefersTo reports whether text mentions any of the tokens. Identifier
// tokens match on word boundaries so "at" cannot hit "concatenate";
// call-expression tokens match verbatim.
func RefersTo(text string, tokens []string) bool {
	for _, tok := range tokens {
		if isIdentifier(tok) {
			if containsIdent(text, tok) {
				return true
			}
		} else if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

func isIdentifier(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return s != ""
}

func containsIdent(text, ident string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], ident)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isIdentRune(rune(text[i-1]))
		afterIdx := i + len(ident)
		after := afterIdx >= len(text) || !isIdentRune(rune(text[afterIdx]))
		if before && after {
			return true
		}
		start = i + len(ident)
	}
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
