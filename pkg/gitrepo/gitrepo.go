// Package gitrepo inspects the local working copy by shelling out to git.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNotAGitRepository is returned when the directory is not inside a git
// working copy.
var ErrNotAGitRepository = errors.New("not a git repository")

// Repo is a local working copy.
type Repo struct {
	Root string
}

// Open resolves the working-copy root containing dir.
func Open(ctx context.Context, dir string) (*Repo, error) {
	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(ErrNotAGitRepository, "%s", dir),
			"Run issol from inside a git repository.",
		)
	}
	return &Repo{Root: out}, nil
}

// RemoteURL returns the URL of origin, falling back to the first configured
// remote. An empty string means no remotes are configured.
func (r *Repo) RemoteURL(ctx context.Context) (string, error) {
	if out, err := run(ctx, r.Root, "remote", "get-url", "origin"); err == nil {
		return out, nil
	}

	remotes, err := run(ctx, r.Root, "remote")
	if err != nil {
		return "", fmt.Errorf("could not list git remotes: %w", err)
	}
	first := strings.TrimSpace(strings.SplitN(remotes, "\n", 2)[0])
	if first == "" {
		return "", nil
	}
	out, err := run(ctx, r.Root, "remote", "get-url", first)
	if err != nil {
		return "", fmt.Errorf("could not get git remote URL: %w", err)
	}
	return out, nil
}

// Remote parses the repository identity from RemoteURL.
func (r *Repo) Remote(ctx context.Context) (Remote, error) {
	u, err := r.RemoteURL(ctx)
	if err != nil {
		return Remote{}, err
	}
	if u == "" {
		return Remote{}, errors.WithHint(
			errors.New("no git remote configured"),
			"Add a remote pointing at the hosted repository, e.g. git remote add origin <url>.",
		)
	}
	return ParseRemote(u)
}

// CurrentBranch returns the checked-out branch, or "" on a detached HEAD.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := run(ctx, r.Root, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		// unborn branch: no commits yet
		out, err = run(ctx, r.Root, "symbolic-ref", "--short", "HEAD")
		if err != nil {
			return "", fmt.Errorf("failed to get current branch: %w", err)
		}
	}
	if out == "HEAD" {
		return "", nil
	}
	return out, nil
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), msg, err)
	}
	return strings.TrimSpace(string(out)), nil
}
