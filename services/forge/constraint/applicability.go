// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package constraint

import (
	"strings"
	"unicode"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// describesIteration reports whether any effect in the IR actually describes
// a loop, per the iteration keyword set.
//
// A sequence-typed parameter alone is not enough: "reverse the string" has a
// str parameter but no iteration the generated code is obliged to write as
// a loop.
func describesIteration(r *ir.IR, kw Keywords) (bool, string) {
	for _, effect := range r.Effects {
		lower := strings.ToLower(effect)
		for _, word := range kw.Iteration {
			if strings.Contains(lower, word) {
				return true, "effect contains iteration keyword " + quote(word)
			}
		}
	}
	return false, "no effect contains an iteration keyword"
}

// maxCodeEntityLen bounds how long a space-free token may be and still count
// as a code-level entity. Parameter names and literal symbols fit well under
// this; prose fragments do not.
const maxCodeEntityLen = 24

// isCodeEntity classifies one position-constraint element as a code-level
// entity (short, space-free token: a parameter name or a literal symbol)
// versus a semantic description (multi-word phrase describing intent).
//
// srcSentence is the effect/assertion the element was extracted from; when
// the sentence carries output-describing keywords and the element is an
// output-domain value (a bare word that is not a declared parameter), the
// element is semantic even though it has no spaces. This keeps constraints
// like "return 'A' for scores above 90" from becoming structural
// requirements the validator would wrongly enforce.
func isCodeEntity(element, srcSentence string, r *ir.IR, kw Keywords) (bool, string) {
	element = strings.TrimSpace(element)
	if element == "" {
		return false, "empty element"
	}
	if strings.ContainsAny(element, " \t") {
		return false, "multi-word phrase: " + quote(element)
	}
	if len(element) > maxCodeEntityLen {
		return false, "token too long to be a code entity: " + quote(element)
	}

	// Declared parameter names are always code entities.
	for _, name := range r.Signature.ParamNames() {
		if element == name {
			return true, "matches parameter " + quote(element)
		}
	}

	// Literal symbols ('@', '.', '-') are code entities.
	if isSymbolToken(element) {
		return true, "literal symbol " + quote(element)
	}

	// A bare word in an output-describing sentence is an output-domain
	// value, not a structural element.
	lower := strings.ToLower(srcSentence)
	for _, word := range kw.Output {
		if strings.Contains(lower, word) {
			return false, "output-domain value in output-describing sentence: " + quote(element)
		}
	}

	// Anything else is a prose word the pattern happened to capture.
	// Rejecting it loses the occasional quoted-letter constraint, which is
	// the cheap direction: an unflagged violation costs one test failure,
	// a spurious constraint costs a whole regeneration cycle.
	return false, "bare word is neither a parameter nor a literal symbol: " + quote(element)
}

// isSymbolToken reports whether s consists only of punctuation/symbols.
func isSymbolToken(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return len(s) > 0
}

// quote quotes a string for rationale text without importing fmt at every
// call site.
func quote(s string) string { return "\"" + s + "\"" }
