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
)

// balancePass appends closers for brackets a truncated generation left
// open. Brackets inside string literals and comments are ignored. Source
// with an unmatched CLOSER is left untouched; deleting tokens is not a
// safe mechanical fix.
type balancePass struct{}

func (p *balancePass) Name() string { return "bracket-balance" }

func (p *balancePass) Apply(_ context.Context, source string, _ *ir.IR) (string, bool, error) {
	var stack []byte
	i := 0
	for i < len(source) {
		c := source[i]
		switch c {
		case '#':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			continue
		case '\'', '"':
			i = skipString(source, i)
			continue
		case '(', '[', '{':
			stack = append(stack, closerFor(c))
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return source, false, nil
			}
			stack = stack[:len(stack)-1]
		}
		i++
	}
	if len(stack) == 0 {
		return source, false, nil
	}

	var closers strings.Builder
	for j := len(stack) - 1; j >= 0; j-- {
		closers.WriteByte(stack[j])
	}
	trimmed := strings.TrimRight(source, "\n")
	return trimmed + closers.String() + "\n", true, nil
}

func closerFor(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

// skipString advances past the string literal starting at i, handling
// escapes and triple quotes. Returns the index just past the literal, or
// len(source) for an unterminated one.
func skipString(source string, i int) int {
	quote := source[i]
	if strings.HasPrefix(source[i:], strings.Repeat(string(quote), 3)) {
		end := strings.Index(source[i+3:], strings.Repeat(string(quote), 3))
		if end < 0 {
			return len(source)
		}
		return i + 3 + end + 3
	}
	for j := i + 1; j < len(source); j++ {
		switch source[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		case '\n':
			// Single-quoted strings do not span lines; treat as closed.
			return j
		}
	}
	return len(source)
}
