package publish

import (
	"fmt"
	"strings"

	"github.com/saint0x/issol/pkg/intent"
	"github.com/saint0x/issol/pkg/patch"
)

const disclaimer = "This code was generated automatically by an AI assistant. Please review carefully before merging."

// Title returns the change request title for an issue.
func Title(number int, title string) string {
	return fmt.Sprintf("Fix #%d: %s", number, title)
}

// Description renders the change request body: the issue number, the
// extracted problem and outcome, one diff block per changed file and a
// closing disclaimer.
func Description(number int, in intent.Intent, changes []patch.Change) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This pull request addresses issue #%d.\n\n", number)
	fmt.Fprintf(&b, "Problem Description:\n%s\n\n", in.ProblemDescription)
	fmt.Fprintf(&b, "Desired Outcome:\n%s\n\n", in.DesiredOutcome)
	b.WriteString("Changes made:\n")
	for _, c := range changes {
		fmt.Fprintf(&b, "\nChanges in %s (%s):\n```diff\n%s\n```\n", c.Path, c.Stats, strings.TrimRight(c.Diff, "\n"))
	}
	b.WriteString("\n" + disclaimer)
	return b.String()
}

func commitMessage(number int, c patch.Change) string {
	if c.Existed {
		return fmt.Sprintf("Fix #%d: Update %s", number, c.Path)
	}
	return fmt.Sprintf("Fix #%d: Create %s", number, c.Path)
}
