// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package testgen

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// deriveExpected computes the expected output for the given inputs, or
// reports that no oracle can be derived and the case must be discarded.
func deriveExpected(r *ir.IR, inputs map[string]any) (any, bool) {
	text := strings.ToLower(r.EffectText() + " " + strings.Join(r.Assertions, " "))

	if hay, needle, ok := searchParams(r); ok && mentionsSearch(text) {
		return deriveSearch(r, text, inputs[hay], inputs[needle])
	}

	if p, ok := soleParamOfType(r, "str"); ok && countsCharacters(text) {
		if s, isStr := inputs[p].(string); isStr {
			return len(s), true
		}
	}

	if p, ok := soleParamOfType(r, "list"); ok && strings.Contains(text, "sum") {
		if vals, isList := inputs[p].([]any); isList {
			return sumNumbers(vals)
		}
	}

	if v, ok := emptyOracle(r); ok && allSequencesEmpty(r, inputs) {
		return v, true
	}

	return nil, false
}

func countsCharacters(text string) bool {
	if strings.Contains(text, "length") {
		return true
	}
	return strings.Contains(text, "count") && strings.Contains(text, "character")
}

func mentionsSearch(text string) bool {
	for _, kw := range []string{"index", "position", "occurrence", "find", "locate"} {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// deriveSearch computes the index of the needle in the haystack under the
// record's first/last semantics. An absent needle is only derivable when an
// assertion names the not-found value.
func deriveSearch(r *ir.IR, text string, hay, needle any) (any, bool) {
	items, ok := sequenceItems(hay)
	if !ok {
		return nil, false
	}
	idx := -1
	for i, item := range items {
		if item != needle {
			continue
		}
		idx = i
		if !wantsLast(r, text) {
			break
		}
	}
	if idx >= 0 {
		return idx, true
	}
	if v, ok := notFoundOracle(r); ok {
		return v, true
	}
	return nil, false
}

func wantsLast(r *ir.IR, text string) bool {
	for _, c := range r.Constraints {
		if lc, ok := c.(ir.LoopBehaviorConstraint); ok {
			return lc.SearchType == ir.LastMatch
		}
	}
	return strings.Contains(text, "last") || strings.Contains(text, "rightmost")
}

func sequenceItems(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case string:
		items := make([]any, 0, len(s))
		for _, r := range s {
			items = append(items, string(r))
		}
		return items, true
	default:
		return nil, false
	}
}

func sumNumbers(vals []any) (any, bool) {
	total := 0
	for _, v := range vals {
		n, ok := v.(int)
		if !ok {
			return nil, false
		}
		total += n
	}
	return total, true
}

// ---- assertion oracles ----

var (
	reEmptyOracle = regexp.MustCompile(`(?i)(?:returns?|must be|should be|is)\s+(-?\d+|zero|one|true|false|none)\s+(?:for|when|if|on)\s+(?:an?\s+|the\s+)?empty`)
	reNotFound    = regexp.MustCompile(`(?i)returns?\s+(-?\d+)\s+(?:if|when)\s+(?:the\s+)?\w+\s+is\s+not\s+(?:found|present)`)
	reRaises      = regexp.MustCompile(`(?i)raises?\s+[A-Za-z]+Error\b.*\bempty`)
)

// emptyOracle extracts the value an assertion promises for empty input.
func emptyOracle(r *ir.IR) (any, bool) {
	for _, a := range r.Assertions {
		if m := reEmptyOracle.FindStringSubmatch(a); m != nil {
			return parseOracleValue(m[1])
		}
	}
	return nil, false
}

func notFoundOracle(r *ir.IR) (any, bool) {
	for _, a := range r.Assertions {
		if m := reNotFound.FindStringSubmatch(a); m != nil {
			return parseOracleValue(m[1])
		}
	}
	return nil, false
}

func raisesOnEmpty(r *ir.IR) bool {
	for _, a := range r.Assertions {
		if reRaises.MatchString(a) {
			return true
		}
	}
	return false
}

func parseOracleValue(s string) (any, bool) {
	switch strings.ToLower(s) {
	case "zero":
		return 0, true
	case "one":
		return 1, true
	case "true":
		return true, true
	case "false":
		return false, true
	case "none":
		return nil, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, false
	}
	return n, true
}

// ---- parameter roles ----

func normalizeType(typ string) string {
	t := strings.ToLower(strings.TrimSpace(typ))
	if i := strings.IndexAny(t, "[("); i > 0 {
		t = t[:i]
	}
	switch t {
	case "str", "string":
		return "str"
	case "int", "integer":
		return "int"
	case "float", "double", "number":
		return "float"
	case "bool", "boolean":
		return "bool"
	case "list", "sequence", "array", "tuple":
		return "list"
	case "dict", "map", "mapping":
		return "dict"
	default:
		return t
	}
}

// soleParamOfType returns the name of the single parameter when the
// signature has exactly one and it has the given type.
func soleParamOfType(r *ir.IR, typ string) (string, bool) {
	if len(r.Signature.Params) != 1 {
		return "", false
	}
	p := r.Signature.Params[0]
	if normalizeType(p.Type) != typ {
		return "", false
	}
	return p.Name, true
}

// searchParams identifies a haystack/needle parameter pair: the first
// sequence-typed parameter plus one other parameter.
func searchParams(r *ir.IR) (hay, needle string, ok bool) {
	if len(r.Signature.Params) != 2 {
		return "", "", false
	}
	for i, p := range r.Signature.Params {
		t := normalizeType(p.Type)
		if t == "list" || t == "str" {
			return p.Name, r.Signature.Params[1-i].Name, true
		}
	}
	return "", "", false
}

func allSequencesEmpty(r *ir.IR, inputs map[string]any) bool {
	found := false
	for _, p := range r.Signature.Params {
		switch v := inputs[p.Name].(type) {
		case string:
			found = true
			if v != "" {
				return false
			}
		case []any:
			found = true
			if len(v) != 0 {
				return false
			}
		}
	}
	return found
}

func emptyValue(typ string) any {
	switch normalizeType(typ) {
	case "str":
		return ""
	case "list":
		return []any{}
	case "dict":
		return map[string]any{}
	case "int":
		return 0
	case "float":
		return 0.0
	case "bool":
		return false
	default:
		return nil
	}
}
