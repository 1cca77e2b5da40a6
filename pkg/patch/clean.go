package patch

import (
	"regexp"
	"strings"
)

// Cleaner strips non-code text from proposed file content.
type Cleaner interface {
	Clean(content string) string
}

// codeLine matches lines that start, after indentation, with an identifier
// character or an operator/bracket.
var codeLine = regexp.MustCompile(`^\s*[\p{L}\p{N}_(){}\[\]=+\-*/:<>!&|]`)

// CodeLineCleaner keeps only lines that look like code. Lines beginning
// with '#' in column one, Markdown fence lines, stray fence tokens and blank
// lines are dropped. The filter is lossy: code lines starting with quotes,
// '@', '.' or '#' are removed as well.
type CodeLineCleaner struct{}

func (CodeLineCleaner) Clean(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		line = strings.ReplaceAll(line, "```", "")
		if !codeLine.MatchString(line) || strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
