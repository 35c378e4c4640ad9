package trace

import (
	"fmt"
	"strings"
)

// Issue captures one place where a payload broke the trace contract.
type Issue struct {
	Path    string
	Message string
}

// ValidationError aggregates every issue found in a trace payload.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation issues one per line.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "trace validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Path, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// issues collects validation problems while a payload is decoded.
type issues struct {
	list []Issue
}

func (i *issues) add(path, format string, args ...any) {
	i.list = append(i.list, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (i *issues) err() error {
	if len(i.list) == 0 {
		return nil
	}
	return &ValidationError{Issues: i.list}
}
