package llm

import (
	"fmt"
	"strings"
)

const irSystemPrompt = `You formalize natural-language function descriptions.
Respond with a single JSON object and nothing else, shaped as:
{"name": "...", "params": [{"name": "...", "type": "..."}],
 "return_type": "...", "effects": ["..."], "assertions": ["..."]}
Effects are the observable steps the function performs, in order.
Assertions are properties the result must satisfy.`

const codeSystemPrompt = `You write Python functions.
Respond with only the function definition. No prose, no examples, no fences.`

// BuildIRPrompt renders the formalization request.
func BuildIRPrompt(description string) string {
	return "Formalize this function description:\n\n" + description
}

// BuildCodePrompt renders the code-generation request, folding in
// constraint hints and feedback from earlier attempts.
func BuildCodePrompt(req CodeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Implement this Python function:\n\n%s\n", req.IR.Signature.String())

	if len(req.IR.Effects) > 0 {
		b.WriteString("\nBehavior, in order:\n")
		for _, e := range req.IR.Effects {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	if len(req.IR.Assertions) > 0 {
		b.WriteString("\nThe result must satisfy:\n")
		for _, a := range req.IR.Assertions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	if req.ConstraintHints != "" {
		b.WriteString("\nStructural requirements:\n")
		b.WriteString(req.ConstraintHints)
		b.WriteString("\n")
	}
	if req.Feedback != "" {
		b.WriteString("\nYour previous attempt had these problems. Fix them:\n")
		b.WriteString(req.Feedback)
		b.WriteString("\n")
	}
	return b.String()
}
