// Package codebase gathers repository content for the model prompt and
// produces local codebase summaries.
package codebase

import (
	"context"
	"fmt"
	"strings"
)

// Collector assembles the codebase context sent with a generation request.
type Collector interface {
	Collect(ctx context.Context, branch string) (string, error)
}

// Entry formats one file for the context payload.
func Entry(path, branch, content string) string {
	return fmt.Sprintf("File: %s (branch: %s)\n\n%s\n\n", path, branch, content)
}

func join(entries []string) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e)
	}
	return b.String()
}
