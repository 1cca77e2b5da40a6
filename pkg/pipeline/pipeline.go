// Package pipeline runs one issue through extraction, context gathering,
// generation, reconciliation and publishing.
package pipeline

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/saint0x/issol/pkg/ai"
	"github.com/saint0x/issol/pkg/codebase"
	"github.com/saint0x/issol/pkg/forge"
	"github.com/saint0x/issol/pkg/intent"
	"github.com/saint0x/issol/pkg/log"
	"github.com/saint0x/issol/pkg/patch"
	"github.com/saint0x/issol/pkg/publish"
)

// DefaultTitleMarker must appear in an issue title unless the gate is
// disabled.
const DefaultTitleMarker = "AI: Generate Code"

var (
	// ErrNotMarked is the reason for skipping an issue without the title marker.
	ErrNotMarked = errors.New("issue is not marked for AI code generation")
	// ErrGeneration is the reason for stopping when the model returned nothing.
	ErrGeneration = errors.New("no code was generated by the AI")
)

// State is a step of the per-issue state machine.
type State string

const (
	Received         State = "received"
	Extracted        State = "extracted"
	ContextGathered  State = "context-gathered"
	Generated        State = "generated"
	Reconciled       State = "reconciled"
	Published        State = "published"
	NoOpCleaned      State = "noop-cleaned"
	Skipped          State = "skipped"
	FailedExtraction State = "failed-extraction"
	FailedGeneration State = "failed-generation"
	FailedNoPatch    State = "failed-no-patch"
)

// Terminal reports whether no further step follows s.
func (s State) Terminal() bool {
	switch s {
	case Published, NoOpCleaned, Skipped, FailedExtraction, FailedGeneration, FailedNoPatch:
		return true
	}
	return false
}

// Generator returns a completion, or "" when there is none.
type Generator interface {
	Complete(ctx context.Context, system, user string) string
}

var _ Generator = (*ai.Generator)(nil)

// Result is the outcome for one issue. Reason explains every terminal state
// other than Published.
type Result struct {
	Issue  *forge.Issue
	State  State
	Intent intent.Intent
	Record *publish.Record
	Reason error
}

// Resolver wires the pipeline stages together.
type Resolver struct {
	Forge       forge.Forge
	Extractor   intent.Extractor
	Collector   codebase.Collector
	Generator   Generator
	Reconciler  *patch.Reconciler
	Publisher   *publish.Publisher
	Logger      *log.Logger
	TitleMarker string // empty disables the gate
}

// Resolve processes issue number against base. Ticket-level failures end in
// a terminal state with a Reason; hosting API and context errors are
// returned as errors together with the state reached so far.
func (r *Resolver) Resolve(ctx context.Context, number int, base string) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.Discard()
	}
	res := &Result{State: Received}

	issue, err := r.Forge.Issue(ctx, number)
	if err != nil {
		return res, errors.Wrapf(err, "fetching issue #%d", number)
	}
	res.Issue = issue
	logger.Step("Processing issue #%d: %s", issue.Number, issue.Title)
	logger.Block("Issue body", issue.Body)

	if r.TitleMarker != "" && !strings.Contains(issue.Title, r.TitleMarker) {
		logger.Warning("Skipping issue #%d: Not marked for AI code generation", issue.Number)
		return finish(res, Skipped, errors.WithHintf(ErrNotMarked,
			"Add %q to the issue title or pass --force.", r.TitleMarker)), nil
	}

	in, err := r.Extractor.Extract(issue.Body)
	if err != nil {
		logger.Error("Could not extract problem description or desired outcome from the issue.")
		return finish(res, FailedExtraction, err), nil
	}
	res.Intent = in
	res.State = Extracted
	logger.Debug("Problem: %s", in.ProblemDescription)
	logger.Debug("Outcome: %s", in.DesiredOutcome)
	if len(in.AffectedFiles) > 0 {
		logger.Debug("Affected files: %s", strings.Join(in.AffectedFiles, ", "))
	}

	logger.Step("Gathering codebase context from %s...", base)
	codebaseContext, err := r.Collector.Collect(ctx, base)
	if err != nil {
		return res, errors.Wrap(err, "gathering codebase context")
	}
	res.State = ContextGathered
	logger.Debug("Context payload is %d bytes", len(codebaseContext))

	logger.Step("Generating code...")
	system, user := ai.SolvePrompts(in, base, codebaseContext)
	generated := r.Generator.Complete(ctx, system, user)
	if strings.TrimSpace(generated) == "" {
		logger.Error("No code was generated by the AI.")
		return finish(res, FailedGeneration, ErrGeneration), nil
	}
	res.State = Generated

	logger.Step("Comparing generated code with %s...", base)
	reconciled, err := r.Reconciler.Reconcile(ctx, patch.Parse(generated), base)
	if err != nil {
		if errors.Is(err, patch.ErrNoPatch) {
			logger.Error("No file changes found in the generated code.")
			return finish(res, FailedNoPatch, err), nil
		}
		return res, err
	}
	res.State = Reconciled
	logger.Info("%d file(s) changed, %d unchanged", len(reconciled.Changes), len(reconciled.Unchanged))

	rec, err := r.Publisher.Publish(ctx, issue, in, reconciled, base)
	res.Record = rec
	if err != nil {
		if errors.Is(err, publish.ErrNoChanges) {
			return finish(res, NoOpCleaned, err), nil
		}
		return res, err
	}
	res.State = Published
	logger.Success("Resolved issue #%d", issue.Number)
	return res, nil
}

func finish(res *Result, state State, reason error) *Result {
	res.State = state
	res.Reason = reason
	return res
}
