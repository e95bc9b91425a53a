// Package llm wraps the generation model behind a narrow client interface
// so the pipeline can swap providers and tests can substitute fakes.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/codesmith-ai/codesmith/pkg/validation"
	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// ErrMalformed marks a response the model produced but the pipeline cannot
// use: unparseable JSON, a missing function name, an empty body. Malformed
// responses consume a generation attempt; retrying the identical request
// tends to reproduce them.
var ErrMalformed = errors.New("malformed model response")

// TransientError marks an infrastructure failure (timeouts, 5xx, rate
// limits) that does not consume a generation attempt.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient model error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable infrastructure failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IRRequest asks the model to formalize a natural-language description.
type IRRequest struct {
	Description string
	Temperature float32
}

// CodeRequest asks the model for candidate source implementing the record.
type CodeRequest struct {
	IR              *ir.IR
	ConstraintHints string
	Feedback        string
	Temperature     float32
}

// Client is the generation model surface the pipeline depends on.
type Client interface {
	GenerateIR(ctx context.Context, req IRRequest) (*ir.IR, error)
	GenerateCode(ctx context.Context, req CodeRequest) (string, error)
}

// StripFences extracts the body of the first markdown code fence, or
// returns the trimmed input when there is none. Models wrap code in fences
// no matter how firmly told not to.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}
	rest := trimmed[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

type irWire struct {
	Name   string `json:"name"`
	Params []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"params"`
	ReturnType string   `json:"return_type"`
	Effects    []string `json:"effects"`
	Assertions []string `json:"assertions"`
}

// decodeIR parses a model response into a requirement record.
func decodeIR(raw string) (*ir.IR, error) {
	var wire irWire
	if err := json.Unmarshal([]byte(StripFences(raw)), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if wire.Name == "" {
		return nil, fmt.Errorf("%w: missing function name", ErrMalformed)
	}
	if err := validation.ValidateFunctionName(wire.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, p := range wire.Params {
		if err := validation.ValidateParamName(p.Name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	r := &ir.IR{
		Signature: ir.Signature{
			Name:       wire.Name,
			ReturnType: wire.ReturnType,
		},
		Effects:    wire.Effects,
		Assertions: wire.Assertions,
	}
	for _, p := range wire.Params {
		r.Signature.Params = append(r.Signature.Params, ir.Param{Name: p.Name, Type: p.Type})
	}
	return r, nil
}
