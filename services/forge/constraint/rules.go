// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package constraint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// Decision is the structured outcome of evaluating one rule against one
// piece of IR text. Unmatched and filtered decisions are kept so false
// positive/negative tuning stays auditable.
type Decision struct {
	Rule      string
	Source    string // the effect/assertion text that triggered the rule
	Matched   bool
	Filtered  bool // matched but elided by an applicability filter
	Rationale string

	// Constraint is non-nil only when Matched && !Filtered.
	Constraint ir.Constraint
}

// Rule is one ordered detection heuristic.
type Rule interface {
	Name() string
	Evaluate(r *ir.IR, kw Keywords) []Decision
}

// -----------------------------------------------------------------------------
// Return rule
// -----------------------------------------------------------------------------

// returnRule emits a ReturnConstraint(MustReturn) when an effect implies a
// value is computed and the signature declares a return type.
type returnRule struct{}

func (returnRule) Name() string { return "return_value" }

func (returnRule) Evaluate(r *ir.IR, kw Keywords) []Decision {
	if !r.Signature.HasReturn() {
		return []Decision{{
			Rule:      "return_value",
			Rationale: "signature declares no return type",
		}}
	}
	for _, effect := range r.Effects {
		lower := strings.ToLower(effect)
		for _, word := range kw.Compute {
			if !strings.Contains(lower, word) {
				continue
			}
			valueName := deriveValueName(lower)
			return []Decision{{
				Rule:      "return_value",
				Source:    effect,
				Matched:   true,
				Rationale: fmt.Sprintf("effect implies a computed value (keyword %q) and return type is %q", word, r.Signature.ReturnType),
				Constraint: ir.ReturnConstraint{
					ValueName:   valueName,
					Requirement: ir.MustReturn,
					Sev:         ir.SeverityError,
					Description: fmt.Sprintf("the computed %s must be returned", valueName),
				},
			}}
		}
	}
	return []Decision{{
		Rule:      "return_value",
		Rationale: "no effect implies a computed value",
	}}
}

// valueNouns are computation results the rule recognizes by name. Ordered:
// more specific nouns first.
var valueNouns = []string{
	"index", "count", "total", "sum", "average", "length",
	"maximum", "minimum", "max", "min", "result", "value",
}

// deriveValueName picks the name the return check will look for. Falls back
// to "result" when no recognized noun appears.
func deriveValueName(lowerEffect string) string {
	for _, noun := range valueNouns {
		if strings.Contains(lowerEffect, noun) {
			return noun
		}
	}
	return "result"
}

// -----------------------------------------------------------------------------
// Loop behavior rule
// -----------------------------------------------------------------------------

// loopRule emits a LoopBehaviorConstraint when effect text denotes a loop
// search pattern, but only if the IR's effects actually describe iteration.
type loopRule struct{}

func (loopRule) Name() string { return "loop_behavior" }

func (loopRule) Evaluate(r *ir.IR, kw Keywords) []Decision {
	var decisions []Decision
	for _, effect := range r.Effects {
		lower := strings.ToLower(effect)

		search, requirement, keyword := classifySearch(lower, kw)
		if search == "" {
			continue
		}

		iterates, why := describesIteration(r, kw)
		if !iterates {
			// Matched the search pattern but the IR never iterates; a loop
			// constraint here would reject correct non-looping code.
			decisions = append(decisions, Decision{
				Rule:      "loop_behavior",
				Source:    effect,
				Matched:   true,
				Filtered:  true,
				Rationale: fmt.Sprintf("search keyword %q present but %s", keyword, why),
			})
			continue
		}

		decisions = append(decisions, Decision{
			Rule:      "loop_behavior",
			Source:    effect,
			Matched:   true,
			Rationale: fmt.Sprintf("search keyword %q with iteration context (%s)", keyword, why),
			Constraint: ir.LoopBehaviorConstraint{
				SearchType:  search,
				Requirement: requirement,
				Sev:         ir.SeverityError,
				Description: loopDescription(search),
			},
		})
	}
	if len(decisions) == 0 {
		decisions = append(decisions, Decision{
			Rule:      "loop_behavior",
			Rationale: "no effect contains a search keyword",
		})
	}
	return decisions
}

// classifySearch maps search keywords to the constraint's search type and
// loop requirement: early return for "first", accumulate otherwise.
func classifySearch(lowerEffect string, kw Keywords) (ir.LoopSearchType, ir.LoopRequirement, string) {
	for _, word := range kw.First {
		if containsWord(lowerEffect, word) {
			return ir.FirstMatch, ir.EarlyReturn, word
		}
	}
	for _, word := range kw.Last {
		if containsWord(lowerEffect, word) {
			return ir.LastMatch, ir.Accumulate, word
		}
	}
	for _, word := range kw.All {
		if containsWord(lowerEffect, word) {
			return ir.AllMatches, ir.Accumulate, word
		}
	}
	return "", "", ""
}

func loopDescription(search ir.LoopSearchType) string {
	switch search {
	case ir.FirstMatch:
		return "return immediately on the first match inside the loop"
	case ir.LastMatch:
		return "track the last match across the whole loop before returning"
	default:
		return "accumulate every match across the whole loop"
	}
}

// containsWord matches word at word boundaries so "first" does not fire on
// "thirsty" and "all" does not fire on "small".
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordByte(text[start-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// -----------------------------------------------------------------------------
// Position rule
// -----------------------------------------------------------------------------

// Positional relationship patterns over effect/assertion text. Quoted or
// bare tokens on either side of the relation are the candidate elements.
var (
	rePosAfter = regexp.MustCompile(`(?i)['"]?([^'"\s]+)['"]?\s+must\s+(?:come|be|appear)\s+after\s+['"]?([^'"\s,.]+)['"]?`)
	reNotAdj   = regexp.MustCompile(`(?i)['"]?([^'"\s]+)['"]?\s+and\s+['"]?([^'"\s]+)['"]?\s+must\s+not\s+be\s+adjacent`)
	reMinDist  = regexp.MustCompile(`(?i)['"]?([^'"\s]+)['"]?\s+(?:must\s+)?(?:come|be|appear)\s+at\s+least\s+(\d+)\s+(?:characters?|positions?)\s+after\s+['"]?([^'"\s,.]+)['"]?`)
)

// positionRule emits a PositionConstraint when assertion/effect text
// enumerates ordered tokens with a positional relationship, retaining it
// only when every referenced element is a code-level entity.
type positionRule struct{}

func (positionRule) Name() string { return "relative_position" }

func (positionRule) Evaluate(r *ir.IR, kw Keywords) []Decision {
	var decisions []Decision
	sentences := make([]string, 0, len(r.Effects)+len(r.Assertions))
	sentences = append(sentences, r.Effects...)
	sentences = append(sentences, r.Assertions...)

	for _, sentence := range sentences {
		if d, ok := matchPosition(sentence, r, kw); ok {
			decisions = append(decisions, d)
		}
	}
	if len(decisions) == 0 {
		decisions = append(decisions, Decision{
			Rule:      "relative_position",
			Rationale: "no positional relationship found",
		})
	}
	return decisions
}

func matchPosition(sentence string, r *ir.IR, kw Keywords) (Decision, bool) {
	// Min-distance first: its phrasing is a superset of the plain "after"
	// pattern and must win.
	if m := reMinDist.FindStringSubmatch(sentence); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 {
			n = 1
		}
		return buildPosition(sentence, r, kw, []string{m[3], m[1]}, ir.MinDistance, n), true
	}
	if m := reNotAdj.FindStringSubmatch(sentence); m != nil {
		// Adjacent positions differ by exactly 1, so "not adjacent"
		// requires a gap of at least 2.
		return buildPosition(sentence, r, kw, []string{m[1], m[2]}, ir.NotAdjacent, 2), true
	}
	if m := rePosAfter.FindStringSubmatch(sentence); m != nil {
		return buildPosition(sentence, r, kw, []string{m[2], m[1]}, ir.Ordered, 0), true
	}
	return Decision{}, false
}

// buildPosition applies the code-entity applicability filter, then builds
// the constraint. Elements are ordered earlier-element first.
func buildPosition(sentence string, r *ir.IR, kw Keywords, elements []string, req ir.PositionRequirement, minDist int) Decision {
	for _, el := range elements {
		ok, why := isCodeEntity(el, sentence, r, kw)
		if !ok {
			return Decision{
				Rule:      "relative_position",
				Source:    sentence,
				Matched:   true,
				Filtered:  true,
				Rationale: "element is not a code-level entity: " + why,
			}
		}
	}
	return Decision{
		Rule:      "relative_position",
		Source:    sentence,
		Matched:   true,
		Rationale: fmt.Sprintf("positional relation %s between code entities %v", req, elements),
		Constraint: ir.PositionConstraint{
			Elements:    elements,
			Requirement: req,
			MinDistance: minDist,
			Sev:         ir.SeverityError,
			Description: positionDescription(elements, req, minDist),
		},
	}
}

func positionDescription(elements []string, req ir.PositionRequirement, minDist int) string {
	switch req {
	case ir.Ordered:
		return fmt.Sprintf("%q must occur before %q", elements[0], elements[1])
	case ir.NotAdjacent:
		return fmt.Sprintf("%q and %q must not be adjacent", elements[0], elements[1])
	default:
		return fmt.Sprintf("%q must occur at least %d positions after %q", elements[1], minDist, elements[0])
	}
}
