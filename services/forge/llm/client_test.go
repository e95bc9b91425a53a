package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", "def f(s):\n    return s", "def f(s):\n    return s"},
		{
			"python fence",
			"```python\ndef f(s):\n    return s\n```",
			"def f(s):\n    return s",
		},
		{
			"bare fence with prose around it",
			"Here you go:\n```\ndef f(s):\n    return s\n```\nHope that helps!",
			"def f(s):\n    return s",
		},
		{"unterminated fence", "```python\ndef f(s):\n    return s", "def f(s):\n    return s"},
		{"whitespace only", "   \n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestDecodeIR(t *testing.T) {
	raw := "```json\n" +
		`{"name": "count_chars",
		  "params": [{"name": "s", "type": "str"}],
		  "return_type": "int",
		  "effects": ["count each character", "return the count"],
		  "assertions": ["the result must be zero for empty input"]}` +
		"\n```"

	r, err := decodeIR(raw)
	require.NoError(t, err)
	assert.Equal(t, "count_chars", r.Signature.Name)
	require.Len(t, r.Signature.Params, 1)
	assert.Equal(t, ir.Param{Name: "s", Type: "str"}, r.Signature.Params[0])
	assert.Equal(t, "int", r.Signature.ReturnType)
	assert.Len(t, r.Effects, 2)
	assert.Len(t, r.Assertions, 1)
}

func TestDecodeIR_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "sure, here is the IR you asked for"},
		{"missing name", `{"params": [], "return_type": "int"}`},
		{"unsafe name", `{"name": "f(); import os", "return_type": "int"}`},
		{"keyword param", `{"name": "f", "params": [{"name": "lambda", "type": "int"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeIR(tt.raw)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestIsTransient(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := fmt.Errorf("calling model: %w", &TransientError{Err: base})

	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsTransient(base))
	assert.False(t, IsTransient(ErrMalformed))
	assert.ErrorIs(t, wrapped, base)
}

func TestBuildCodePrompt(t *testing.T) {
	r := &ir.IR{
		Signature: ir.Signature{
			Name:       "count_chars",
			Params:     []ir.Param{{Name: "s", Type: "str"}},
			ReturnType: "int",
		},
		Effects:    []string{"count each character"},
		Assertions: []string{"result is zero for empty input"},
	}

	prompt := BuildCodePrompt(CodeRequest{
		IR:              r,
		ConstraintHints: "- the count must be returned",
		Feedback:        "2 test case(s) failed.",
	})

	assert.Contains(t, prompt, "def count_chars(s: str) -> int")
	assert.Contains(t, prompt, "count each character")
	assert.Contains(t, prompt, "the count must be returned")
	assert.Contains(t, prompt, "Fix them:")
	assert.Contains(t, prompt, "2 test case(s) failed.")
}
