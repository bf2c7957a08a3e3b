package pipeline

import (
	"fmt"
	"strings"
)

// FormatContext serializes prior completed steps into the dialog block
// prepended to a context-chaining step's prompt. Deterministic: the same
// results always produce the same string, and no results produce "".
func FormatContext(prior []StepResult) string {
	if len(prior) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("[Previous pipeline steps]\n")
	for _, r := range prior {
		fmt.Fprintf(&b, "Step %d (%s)\n", r.Index+1, r.Task)
		fmt.Fprintf(&b, "Prompt: %s\n", r.Prompt)
		fmt.Fprintf(&b, "Answer: %s\n", answerLine(r))
		// Raw coordinate text rides along verbatim so the next model call
		// can ground its own answer in it.
		if !r.Geometry.Empty() && r.RawModelText != "" {
			fmt.Fprintf(&b, "Result coordinates: %s\n", r.RawModelText)
		}
	}
	b.WriteString("[Current step]\n")
	return b.String()
}

func answerLine(r StepResult) string {
	switch {
	case r.Succeeded && r.Answer != "":
		return r.Answer
	case !r.Succeeded && r.ErrorMessage != "":
		return "Error: " + r.ErrorMessage
	default:
		return "No response"
	}
}
