// Package intent pulls the problem, desired outcome and affected files out of
// free-form issue text.
package intent

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNoSections is returned when neither a problem description nor a desired
// outcome could be found.
var ErrNoSections = errors.New("could not extract problem description or desired outcome from the issue")

// Intent is the structured reading of an issue body.
type Intent struct {
	ProblemDescription string
	DesiredOutcome     string
	AffectedFiles      []string
}

// Extractor turns an issue body into an Intent.
type Extractor interface {
	Extract(body string) (Intent, error)
}

type section int

const (
	none section = iota
	problemSection
	outcomeSection
	filesSection
)

// headers are checked in this order; the first section with a matching
// synonym wins.
var headers = []struct {
	section  section
	synonyms []string
}{
	{problemSection, []string{"problem description", "problem", "description"}},
	{outcomeSection, []string{"desired outcome", "outcome", "goal"}},
	{filesSection, []string{"affected files", "files"}},
}

// HeuristicExtractor reads loosely formatted issues. Any line mentioning a
// section synonym switches the current section; a line with a colon is a
// header and is not accumulated itself, though text after the colon of a
// section header is. Every line is lower-cased.
type HeuristicExtractor struct{}

var _ Extractor = HeuristicExtractor{}

func (HeuristicExtractor) Extract(body string) (Intent, error) {
	var (
		problem, outcome strings.Builder
		files            []string
	)
	current := none

	appendText := func(s section, text string) {
		switch s {
		case problemSection:
			problem.WriteString(text + " ")
		case outcomeSection:
			outcome.WriteString(text + " ")
		}
	}

	for _, raw := range strings.Split(body, "\n") {
		line := strings.ToLower(strings.TrimSpace(raw))

		matched := matchSection(line)
		if matched != none {
			current = matched
		}
		if current == none {
			continue
		}

		if strings.Contains(line, ":") {
			if matched == none {
				continue
			}
			inline := strings.TrimSpace(line[strings.Index(line, ":")+1:])
			if inline == "" {
				continue
			}
			if current == filesSection {
				files = append(files, splitFiles(inline)...)
			} else {
				appendText(current, inline)
			}
			continue
		}

		if current == filesSection {
			if line != "" && matched == none {
				files = append(files, line)
			}
			continue
		}
		appendText(current, line)
	}

	intent := Intent{
		ProblemDescription: strings.TrimSpace(problem.String()),
		DesiredOutcome:     strings.TrimSpace(outcome.String()),
		AffectedFiles:      files,
	}
	if intent.ProblemDescription == "" && intent.DesiredOutcome == "" {
		return intent, errors.WithHint(ErrNoSections,
			"Please ensure the issue contains sections for 'Problem Description' and 'Desired Outcome'.")
	}
	return intent, nil
}

func matchSection(line string) section {
	for _, h := range headers {
		for _, synonym := range h.synonyms {
			if strings.Contains(line, synonym) {
				return h.section
			}
		}
	}
	return none
}

// splitFiles splits an inline file list such as "a.go, b.go".
func splitFiles(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(part), "-*•"))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
