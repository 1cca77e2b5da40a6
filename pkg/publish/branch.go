package publish

import (
	"fmt"
	"regexp"
	"strings"
)

const maxSlugLen = 50

var (
	slugStrip = regexp.MustCompile(`[^a-zA-Z0-9\p{Z}\s-]`)
	slugSpace = regexp.MustCompile(`[\p{Z}\s]+`)
)

// BranchName returns "fix-<number>-<slug>" where slug is the lower-cased
// title with everything but ASCII letters, digits, spaces and hyphens
// removed, runs of Unicode spaces replaced by '-', cut to 50 characters.
func BranchName(number int, title string) string {
	slug := strings.TrimSpace(slugStrip.ReplaceAllString(strings.ToLower(title), ""))
	slug = slugSpace.ReplaceAllString(slug, "-")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	if slug == "" {
		return fmt.Sprintf("fix-%d", number)
	}
	return fmt.Sprintf("fix-%d-%s", number, slug)
}

// candidate returns the branch name tried on the given attempt: the base
// name first, then name-1, name-2, ...
func candidate(name string, attempt int) string {
	if attempt == 0 {
		return name
	}
	return fmt.Sprintf("%s-%d", name, attempt)
}
