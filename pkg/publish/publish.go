// Package publish turns reconciled changes into a branch and a change
// request on the hosting service.
package publish

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/saint0x/issol/pkg/forge"
	"github.com/saint0x/issol/pkg/intent"
	"github.com/saint0x/issol/pkg/log"
	"github.com/saint0x/issol/pkg/patch"
)

var (
	// ErrNoChanges is returned with a NoOp record when nothing differs.
	ErrNoChanges = errors.New("no changes were made to any files")
	// ErrBranchAttempts is returned when every candidate branch name is taken.
	ErrBranchAttempts = errors.New("could not find a free branch name")
)

const noChangesHint = `Possible reasons:
1. The AI's suggested code is identical to the existing code.
2. The AI didn't generate any code changes for the specified files.
3. The issue description might not have provided enough information for the AI to suggest concrete changes.`

// Record describes a published (or abandoned) change.
type Record struct {
	Branch      string
	Changes     []patch.Change
	Description string
	URL         string
	NoOp        bool
}

// Publisher writes changes through a Forge.
type Publisher struct {
	forge       forge.Forge
	logger      *log.Logger
	maxAttempts int
}

// New creates a Publisher. maxAttempts caps branch name attempts; zero
// means no cap.
func New(f forge.Forge, logger *log.Logger, maxAttempts int) *Publisher {
	if logger == nil {
		logger = log.Discard()
	}
	return &Publisher{forge: f, logger: logger, maxAttempts: maxAttempts}
}

// Publish creates a branch for issue at the tip of base, commits every
// change and opens a change request. If res has no changes the branch is
// deleted again and Publish returns a NoOp record together with
// ErrNoChanges.
func (p *Publisher) Publish(ctx context.Context, issue *forge.Issue, in intent.Intent, res *patch.Result, base string) (*Record, error) {
	sha, err := p.forge.BranchHead(ctx, base)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving base branch %s", base)
	}

	branch, err := p.createBranch(ctx, BranchName(issue.Number, issue.Title), sha)
	if err != nil {
		return nil, err
	}
	p.logger.Branch("Created new branch: %s", branch)

	rec := &Record{Branch: branch}
	for _, c := range res.Changes {
		if err := p.write(ctx, issue.Number, branch, c); err != nil {
			return nil, err
		}
		rec.Changes = append(rec.Changes, c)
	}

	if len(rec.Changes) == 0 {
		p.logger.Warning("No changes were made to any files. Not creating a pull request.")
		if err := p.forge.DeleteBranch(ctx, branch); err != nil {
			p.logger.Error("Failed to delete branch %s: %v", branch, err)
		} else {
			p.logger.Branch("Deleted branch %s as no changes were made", branch)
		}
		rec.NoOp = true
		return rec, errors.WithHint(ErrNoChanges, noChangesHint)
	}

	rec.Description = Description(issue.Number, in, rec.Changes)
	p.logger.Step("Creating pull request...")
	cr, err := p.forge.OpenChangeRequest(ctx, forge.NewChangeRequest{
		Title: Title(issue.Number, issue.Title),
		Body:  rec.Description,
		Head:  branch,
		Base:  base,
	})
	if err != nil {
		return nil, err
	}
	rec.URL = cr.URL
	p.logger.PR("Created pull request: %s", cr.URL)
	return rec, nil
}

func (p *Publisher) createBranch(ctx context.Context, name, sha string) (string, error) {
	for attempt := 0; p.maxAttempts <= 0 || attempt < p.maxAttempts; attempt++ {
		branch := candidate(name, attempt)
		err := p.forge.CreateBranch(ctx, branch, sha)
		if err == nil {
			return branch, nil
		}
		if !errors.Is(err, forge.ErrBranchExists) {
			return "", err
		}
		p.logger.Debug("Branch %s already exists", branch)
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	return "", errors.WithHintf(errors.Wrapf(ErrBranchAttempts, "%s after %d attempts", name, p.maxAttempts),
		"Delete stale %s-* branches or raise ISSOL_MAX_BRANCH_ATTEMPTS.", name)
}

// write creates or updates one file on branch. Updates re-read the file on
// branch for its current blob SHA.
func (p *Publisher) write(ctx context.Context, number int, branch string, c patch.Change) error {
	change := forge.FileChange{
		Path:    c.Path,
		Content: c.Content,
		Branch:  branch,
		Message: commitMessage(number, c),
	}
	if c.Existed {
		file, err := p.forge.File(ctx, c.Path, branch)
		switch {
		case err == nil:
			change.SHA = file.SHA
		case errors.Is(err, forge.ErrNotFound):
			c.Existed = false
			change.Message = commitMessage(number, c)
		default:
			return errors.Wrapf(err, "reading %s on %s", c.Path, branch)
		}
	}
	if err := p.forge.PutFile(ctx, change); err != nil {
		return errors.Wrapf(err, "writing %s", c.Path)
	}
	if change.SHA != "" {
		p.logger.Success("Updated file: %s", c.Path)
	} else {
		p.logger.Success("Created file: %s", c.Path)
	}
	return nil
}
