package patch

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Stats counts changed lines.
type Stats struct {
	Added   int
	Removed int
}

func (s Stats) String() string {
	return fmt.Sprintf("+%d -%d", s.Added, s.Removed)
}

// UnifiedDiff returns the unified diff from old to new with three lines of
// context and a/ b/ headers. Identical input yields "".
func UnifiedDiff(path, old, new string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        lines(old),
		B:        lines(new),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
}

// LineStats counts inserted and deleted lines between old and new.
func LineStats(old, new string) Stats {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var s Stats
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			s.Added += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			s.Removed += countLines(d.Text)
		}
	}
	return s
}

// lines splits s into newline-terminated lines. "" has no lines.
func lines(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] += "\n"
	}
	return parts
}

func countLines(s string) int {
	return len(lines(s))
}
