package expr

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Expression string
	Diags      hcl.Diagnostics
}

func (e *SyntaxError) Error() string {
	parts := make([]string, 0, len(e.Diags))
	for _, d := range e.Diags {
		if d.Severity != hcl.DiagError {
			continue
		}

		parts = append(parts, d.Summary)
	}

	return fmt.Sprintf("syntax error in expression %q: %s", e.Expression, strings.Join(parts, "; "))
}

// ResolutionError reports a well-formed expression that does not resolve
// against the managed-type graph.
type ResolutionError struct {
	Expression string
	// Type is the managed type the failing step was resolved against.
	Type   string
	Reason string
	// Suggestions holds near-miss attribute names, best first.
	Suggestions []string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("could not resolve expression %q", e.Expression)
	if e.Type != "" {
		msg += " against " + e.Type
	}

	msg += ": " + e.Reason

	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}

	return msg
}
