package types

import (
	"fmt"
	"strings"
)

// ValidationError describes one problem found in a schema or data document.
// Line and Column are zero when the position is unknown.
type ValidationError struct {
	Kind    ValidationKind
	Source  string
	Line    int
	Column  int
	Path    string
	Message string
}

func (e ValidationError) String() string {
	var builder strings.Builder
	builder.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&builder, ":%d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&builder, ":%d", e.Column)
		}
	}
	builder.WriteString(": ")
	builder.WriteString(string(e.Kind))
	builder.WriteString(" error")
	if e.Path != "" {
		builder.WriteString(" at ")
		builder.WriteString(e.Path)
	}
	builder.WriteString(": ")
	builder.WriteString(e.Message)
	return builder.String()
}

// ValidationFailure is returned when the validation phase found problems.
// It carries every error collected across all barclamps.
type ValidationFailure struct {
	Errors []ValidationError
}

func (f *ValidationFailure) Error() string {
	if len(f.Errors) == 1 {
		return "validation failed: " + f.Errors[0].String()
	}
	return fmt.Sprintf("validation failed with %d errors", len(f.Errors))
}
