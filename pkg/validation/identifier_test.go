// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFunctionName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "count_chars", false},
		{"leading underscore", "_helper", false},
		{"digits", "f2", false},
		{"empty", "", true},
		{"leading digit", "2f", true},
		{"injection attempt", "f(); import os", true},
		{"whitespace", "count chars", true},
		{"keyword", "return", true},
		{"keyword class", "class", true},
		{"unicode", "compté", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFunctionName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateParamName(t *testing.T) {
	assert.NoError(t, ValidateParamName("xs"))
	assert.Error(t, ValidateParamName("lambda"))
	assert.Error(t, ValidateParamName("x-y"))
}
