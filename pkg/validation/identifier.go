// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for security-critical
// operations.
//
// Function and parameter names from requirement records end up spliced
// into Python source that runs in a subprocess. Validating them here
// prevents code injection through a crafted record.
package validation

import (
	"fmt"
	"regexp"
)

// identifierPattern matches valid Python identifiers. Unicode
// identifiers are deliberately rejected; generated functions use ASCII
// names and a tighter pattern leaves no room for homoglyph tricks.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// pythonKeywords are names that parse as identifiers but cannot be
// function or parameter names.
var pythonKeywords = map[string]struct{}{
	"False": {}, "None": {}, "True": {}, "and": {}, "as": {}, "assert": {},
	"async": {}, "await": {}, "break": {}, "class": {}, "continue": {},
	"def": {}, "del": {}, "elif": {}, "else": {}, "except": {},
	"finally": {}, "for": {}, "from": {}, "global": {}, "if": {},
	"import": {}, "in": {}, "is": {}, "lambda": {}, "nonlocal": {},
	"not": {}, "or": {}, "pass": {}, "raise": {}, "return": {},
	"try": {}, "while": {}, "with": {}, "yield": {},
}

// ValidateFunctionName checks that name is safe to splice into Python
// source as a function reference.
func ValidateFunctionName(name string) error {
	return validateIdentifier("function name", name)
}

// ValidateParamName checks that name is a usable Python parameter name.
func ValidateParamName(name string) error {
	return validateIdentifier("parameter name", name)
}

func validateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid %s %q: must be an ASCII identifier", kind, name)
	}
	if _, reserved := pythonKeywords[name]; reserved {
		return fmt.Errorf("invalid %s %q: reserved keyword", kind, name)
	}
	return nil
}
