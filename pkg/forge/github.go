package forge

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHub is the GitHub REST backend.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHub creates a GitHub backend for owner/repo.
func NewGitHub(owner, repo string, opts Options) (*GitHub, error) {
	if opts.Token == "" {
		return nil, errors.WithHint(
			errors.New("GitHub token not set"),
			"Export GITHUB_TOKEN or run issol interactively to store one.",
		)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: opts.Token},
	)
	hc := newHTTPClient(opts.Transport, opts.RateLimit, opts.Timeout)
	hc.Transport = &oauth2.Transport{Source: ts, Base: hc.Transport}

	client := github.NewClient(hc)
	if opts.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, errors.Wrapf(err, "invalid GitHub base URL %q", opts.BaseURL)
		}
		client.BaseURL = u
	}

	return &GitHub{client: client, owner: owner, repo: repo}, nil
}

func (g *GitHub) Name() string { return GitHubBackend }

// Repository gets the repository metadata.
func (g *GitHub) Repository(ctx context.Context) (*Repository, error) {
	repository, resp, err := g.client.Repositories.Get(ctx, g.owner, g.repo)
	if err != nil {
		return nil, githubError("get repository", resp, err)
	}

	return &Repository{
		FullName:      repository.GetFullName(),
		DefaultBranch: repository.GetDefaultBranch(),
		WebURL:        repository.GetHTMLURL(),
	}, nil
}

// Issue gets a single issue by number.
func (g *GitHub) Issue(ctx context.Context, number int) (*Issue, error) {
	issue, resp, err := g.client.Issues.Get(ctx, g.owner, g.repo, number)
	if err != nil {
		return nil, githubError("get issue", resp, err)
	}
	return githubIssue(issue), nil
}

// OpenIssues lists open issues, skipping pull requests.
func (g *GitHub) OpenIssues(ctx context.Context) ([]*Issue, error) {
	var all []*Issue
	opts := &github.IssueListByRepoOptions{
		State: "open",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	for {
		issues, resp, err := g.client.Issues.ListByRepo(ctx, g.owner, g.repo, opts)
		if err != nil {
			return nil, githubError("list issues", resp, err)
		}

		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			all = append(all, githubIssue(issue))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// File gets a file's content at ref.
func (g *GitHub) File(ctx context.Context, path, ref string) (*File, error) {
	content, dir, resp, err := g.client.Repositories.GetContents(
		ctx,
		g.owner,
		g.repo,
		path,
		&github.RepositoryContentGetOptions{Ref: ref},
	)
	if err != nil {
		return nil, githubError("get "+path, resp, err)
	}
	if content == nil || dir != nil {
		return nil, &Error{Op: "get " + path, StatusCode: http.StatusNotFound, Err: errors.New("not a file")}
	}

	decoded, err := content.GetContent()
	if err != nil {
		return nil, unreadable(path, errors.Wrapf(err, "failed to decode %s", path))
	}

	return &File{Path: path, Content: decoded, SHA: content.GetSHA()}, nil
}

// BranchHead gets the commit SHA a branch points to.
func (g *GitHub) BranchHead(ctx context.Context, branch string) (string, error) {
	ref, resp, err := g.client.Git.GetRef(ctx, g.owner, g.repo, "heads/"+branch)
	if err != nil {
		return "", githubError("get branch "+branch, resp, err)
	}
	return ref.GetObject().GetSHA(), nil
}

// CreateBranch creates a branch ref at sha.
func (g *GitHub) CreateBranch(ctx context.Context, branch, sha string) error {
	_, resp, err := g.client.Git.CreateRef(ctx, g.owner, g.repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(sha)},
	})
	if err != nil {
		ferr := githubError("create branch "+branch, resp, err)
		if StatusCode(ferr) == http.StatusUnprocessableEntity {
			return errors.Mark(ferr, ErrBranchExists)
		}
		return ferr
	}
	return nil
}

// DeleteBranch deletes a branch ref.
func (g *GitHub) DeleteBranch(ctx context.Context, branch string) error {
	resp, err := g.client.Git.DeleteRef(ctx, g.owner, g.repo, "heads/"+branch)
	if err != nil {
		return githubError("delete branch "+branch, resp, err)
	}
	return nil
}

// PutFile creates or updates a file on a branch.
func (g *GitHub) PutFile(ctx context.Context, change FileChange) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(change.Message),
		Content: []byte(change.Content),
		Branch:  github.String(change.Branch),
	}

	var (
		resp *github.Response
		err  error
	)
	if change.SHA == "" {
		_, resp, err = g.client.Repositories.CreateFile(ctx, g.owner, g.repo, change.Path, opts)
	} else {
		opts.SHA = github.String(change.SHA)
		_, resp, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, change.Path, opts)
	}
	if err != nil {
		return githubError("write "+change.Path, resp, err)
	}
	return nil
}

// OpenChangeRequest opens a pull request.
func (g *GitHub) OpenChangeRequest(ctx context.Context, req NewChangeRequest) (*ChangeRequest, error) {
	pr, resp, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: github.String(req.Title),
		Body:  github.String(req.Body),
		Head:  github.String(req.Head),
		Base:  github.String(req.Base),
	})
	if err != nil {
		ferr := githubError("create pull request", resp, err)
		if StatusCode(ferr) == http.StatusUnprocessableEntity {
			return nil, withChangeRequestHint(ferr)
		}
		return nil, ferr
	}

	return &ChangeRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
}

func githubIssue(issue *github.Issue) *Issue {
	return &Issue{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		URL:    issue.GetHTMLURL(),
	}
}

func githubError(op string, resp *github.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	var er *github.ErrorResponse
	if status == 0 && errors.As(err, &er) && er.Response != nil {
		status = er.Response.StatusCode
	}
	return &Error{Op: op, StatusCode: status, Err: err}
}

func withChangeRequestHint(err error) error {
	return errors.WithHint(err, `Possible reasons:
1. A pull request between these branches already exists.
2. The branch you are trying to create the request from does not exist.
3. There are no differences between the branches.`)
}
