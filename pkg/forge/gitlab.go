package forge

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const defaultGitLabURL = "https://gitlab.com"

// GitLab is the GitLab REST backend. Issue numbers are project-scoped IIDs
// and change requests are merge requests.
type GitLab struct {
	client  *gitlab.Client
	project string
}

// NewGitLab creates a GitLab backend for the project path (group/.../name).
func NewGitLab(project string, opts Options) (*GitLab, error) {
	if opts.Token == "" {
		return nil, errors.WithHint(
			errors.New("GitLab token not set"),
			"Export GITLAB_TOKEN or run issol interactively to store one.",
		)
	}

	instanceURL := opts.BaseURL
	if instanceURL == "" {
		instanceURL = defaultGitLabURL
	}
	apiURL := strings.TrimSuffix(instanceURL, "/") + "/api/v4"

	client, err := gitlab.NewClient(
		opts.Token,
		gitlab.WithBaseURL(apiURL),
		gitlab.WithHTTPClient(newHTTPClient(opts.Transport, opts.RateLimit, opts.Timeout)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating gitlab client")
	}

	return &GitLab{client: client, project: project}, nil
}

func (g *GitLab) Name() string { return GitLabBackend }

// Repository gets the project metadata.
func (g *GitLab) Repository(ctx context.Context) (*Repository, error) {
	project, resp, err := g.client.Projects.GetProject(g.project, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, gitlabError("get project", resp, err)
	}

	return &Repository{
		FullName:      project.PathWithNamespace,
		DefaultBranch: project.DefaultBranch,
		WebURL:        project.WebURL,
	}, nil
}

// Issue gets an issue by IID.
func (g *GitLab) Issue(ctx context.Context, number int) (*Issue, error) {
	issue, resp, err := g.client.Issues.GetIssue(g.project, int64(number), nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, gitlabError("get issue", resp, err)
	}
	return gitlabIssue(issue), nil
}

// OpenIssues lists opened issues, following pagination.
func (g *GitLab) OpenIssues(ctx context.Context) ([]*Issue, error) {
	opts := &gitlab.ListProjectIssuesOptions{
		State: gitlab.Ptr("opened"),
		ListOptions: gitlab.ListOptions{
			Page:    1,
			PerPage: 100,
		},
	}

	var all []*Issue
	for {
		issues, resp, err := g.client.Issues.ListProjectIssues(g.project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, gitlabError("list issues", resp, err)
		}

		for _, issue := range issues {
			all = append(all, gitlabIssue(issue))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// File gets a file's content at ref.
func (g *GitLab) File(ctx context.Context, path, ref string) (*File, error) {
	f, resp, err := g.client.RepositoryFiles.GetFile(g.project, path, &gitlab.GetFileOptions{
		Ref: gitlab.Ptr(ref),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, gitlabError("get "+path, resp, err)
	}

	content := f.Content
	if f.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			return nil, unreadable(path, errors.Wrapf(err, "failed to decode %s", path))
		}
		content = string(decoded)
	}

	return &File{Path: path, Content: content, SHA: f.BlobID}, nil
}

// BranchHead gets the commit ID at the tip of a branch.
func (g *GitLab) BranchHead(ctx context.Context, branch string) (string, error) {
	b, resp, err := g.client.Branches.GetBranch(g.project, branch, gitlab.WithContext(ctx))
	if err != nil {
		return "", gitlabError("get branch "+branch, resp, err)
	}
	if b.Commit == nil {
		return "", errors.Newf("branch %s has no commit", branch)
	}
	return b.Commit.ID, nil
}

// CreateBranch creates a branch at sha.
func (g *GitLab) CreateBranch(ctx context.Context, branch, sha string) error {
	_, resp, err := g.client.Branches.CreateBranch(g.project, &gitlab.CreateBranchOptions{
		Branch: gitlab.Ptr(branch),
		Ref:    gitlab.Ptr(sha),
	}, gitlab.WithContext(ctx))
	if err != nil {
		ferr := gitlabError("create branch "+branch, resp, err)
		// GitLab answers 400 "Branch already exists".
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return errors.Mark(ferr, ErrBranchExists)
		}
		return ferr
	}
	return nil
}

// DeleteBranch deletes a branch.
func (g *GitLab) DeleteBranch(ctx context.Context, branch string) error {
	resp, err := g.client.Branches.DeleteBranch(g.project, branch, gitlab.WithContext(ctx))
	if err != nil {
		return gitlabError("delete branch "+branch, resp, err)
	}
	return nil
}

// PutFile creates or updates a file on a branch.
func (g *GitLab) PutFile(ctx context.Context, change FileChange) error {
	var (
		resp *gitlab.Response
		err  error
	)
	if change.SHA == "" {
		_, resp, err = g.client.RepositoryFiles.CreateFile(g.project, change.Path, &gitlab.CreateFileOptions{
			Branch:        gitlab.Ptr(change.Branch),
			Content:       gitlab.Ptr(change.Content),
			CommitMessage: gitlab.Ptr(change.Message),
		}, gitlab.WithContext(ctx))
	} else {
		_, resp, err = g.client.RepositoryFiles.UpdateFile(g.project, change.Path, &gitlab.UpdateFileOptions{
			Branch:        gitlab.Ptr(change.Branch),
			Content:       gitlab.Ptr(change.Content),
			CommitMessage: gitlab.Ptr(change.Message),
		}, gitlab.WithContext(ctx))
	}
	if err != nil {
		return gitlabError("write "+change.Path, resp, err)
	}
	return nil
}

// OpenChangeRequest opens a merge request.
func (g *GitLab) OpenChangeRequest(ctx context.Context, req NewChangeRequest) (*ChangeRequest, error) {
	mr, resp, err := g.client.MergeRequests.CreateMergeRequest(g.project, &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(req.Title),
		Description:  gitlab.Ptr(req.Body),
		SourceBranch: gitlab.Ptr(req.Head),
		TargetBranch: gitlab.Ptr(req.Base),
	}, gitlab.WithContext(ctx))
	if err != nil {
		ferr := gitlabError("create merge request", resp, err)
		switch StatusCode(ferr) {
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return nil, withChangeRequestHint(ferr)
		}
		return nil, ferr
	}

	return &ChangeRequest{Number: int(mr.IID), URL: mr.WebURL}, nil
}

func gitlabIssue(issue *gitlab.Issue) *Issue {
	return &Issue{
		Number: int(issue.IID),
		Title:  issue.Title,
		Body:   issue.Description,
		URL:    issue.WebURL,
	}
}

func gitlabError(op string, resp *gitlab.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	return &Error{Op: op, StatusCode: status, Err: err}
}
