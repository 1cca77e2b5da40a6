// Package forgetest provides an in-memory forge.Forge for tests.
package forgetest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/saint0x/issol/pkg/forge"
)

// Forge keeps branches, files per branch, issues and opened change requests
// in memory. Every method call is recorded in Calls.
type Forge struct {
	mu sync.Mutex

	Repo           forge.Repository
	Issues         map[int]*forge.Issue
	Branches       map[string]string                 // branch -> head sha
	Files          map[string]map[string]*forge.File // branch -> path -> file
	ChangeRequests []forge.NewChangeRequest
	Commits        []forge.FileChange
	Calls          []string

	// Fail makes the named method return the given error.
	Fail map[string]error

	seq int
}

var _ forge.Forge = (*Forge)(nil)

// New returns a forge for acme/widgets with an empty main branch.
func New() *Forge {
	return &Forge{
		Repo: forge.Repository{
			FullName:      "acme/widgets",
			DefaultBranch: "main",
			WebURL:        "https://example.test/acme/widgets",
		},
		Issues:   map[int]*forge.Issue{},
		Branches: map[string]string{"main": "sha-main"},
		Files:    map[string]map[string]*forge.File{"main": {}},
		Fail:     map[string]error{},
	}
}

// AddIssue registers an issue.
func (f *Forge) AddIssue(number int, title, body string) *forge.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue := &forge.Issue{
		Number: number,
		Title:  title,
		Body:   body,
		URL:    fmt.Sprintf("%s/issues/%d", f.Repo.WebURL, number),
	}
	f.Issues[number] = issue
	return issue
}

// SetFile stores content at path on branch, creating the branch if needed.
func (f *Forge) SetFile(branch, path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Branches[branch]; !ok {
		f.Branches[branch] = "sha-" + branch
	}
	f.put(branch, path, content)
}

// Content returns the content of path on branch.
func (f *Forge) Content(branch, path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.Files[branch][path]
	if !ok {
		return "", false
	}
	return file.Content, true
}

// HasBranch reports whether branch exists.
func (f *Forge) HasBranch(branch string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Branches[branch]
	return ok
}

// Called returns how many times method was called.
func (f *Forge) Called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *Forge) Name() string { return "memory" }

func (f *Forge) Repository(ctx context.Context) (*forge.Repository, error) {
	if err := f.enter("Repository"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	repo := f.Repo
	return &repo, nil
}

func (f *Forge) Issue(ctx context.Context, number int) (*forge.Issue, error) {
	if err := f.enter("Issue"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	issue, ok := f.Issues[number]
	if !ok {
		return nil, notFound("get issue")
	}
	cp := *issue
	return &cp, nil
}

func (f *Forge) OpenIssues(ctx context.Context) ([]*forge.Issue, error) {
	if err := f.enter("OpenIssues"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	numbers := make([]int, 0, len(f.Issues))
	for n := range f.Issues {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	issues := make([]*forge.Issue, 0, len(numbers))
	for _, n := range numbers {
		cp := *f.Issues[n]
		issues = append(issues, &cp)
	}
	return issues, nil
}

func (f *Forge) File(ctx context.Context, path, ref string) (*forge.File, error) {
	if err := f.enter("File"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	file, ok := f.Files[ref][path]
	if !ok {
		return nil, notFound("get " + path)
	}
	cp := *file
	return &cp, nil
}

func (f *Forge) BranchHead(ctx context.Context, branch string) (string, error) {
	if err := f.enter("BranchHead"); err != nil {
		return "", err
	}
	defer f.mu.Unlock()
	sha, ok := f.Branches[branch]
	if !ok {
		return "", notFound("get branch " + branch)
	}
	return sha, nil
}

// CreateBranch creates branch at sha, copying the files of the branch that
// currently points at sha.
func (f *Forge) CreateBranch(ctx context.Context, branch, sha string) error {
	if err := f.enter("CreateBranch"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if _, ok := f.Branches[branch]; ok {
		return errors.Mark(&forge.Error{
			Op:         "create branch " + branch,
			StatusCode: http.StatusUnprocessableEntity,
			Err:        errors.New("Reference already exists"),
		}, forge.ErrBranchExists)
	}

	files := map[string]*forge.File{}
	for name, head := range f.Branches {
		if head != sha {
			continue
		}
		for p, file := range f.Files[name] {
			cp := *file
			files[p] = &cp
		}
		break
	}
	f.Branches[branch] = sha
	f.Files[branch] = files
	return nil
}

func (f *Forge) DeleteBranch(ctx context.Context, branch string) error {
	if err := f.enter("DeleteBranch"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if _, ok := f.Branches[branch]; !ok {
		return notFound("delete branch " + branch)
	}
	delete(f.Branches, branch)
	delete(f.Files, branch)
	return nil
}

// PutFile enforces the create/update contract: creating an existing file or
// updating with a stale SHA fails.
func (f *Forge) PutFile(ctx context.Context, change forge.FileChange) error {
	if err := f.enter("PutFile"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if _, ok := f.Branches[change.Branch]; !ok {
		return notFound("write " + change.Path)
	}
	existing, exists := f.Files[change.Branch][change.Path]
	switch {
	case change.SHA == "" && exists:
		return &forge.Error{Op: "write " + change.Path, StatusCode: http.StatusUnprocessableEntity, Err: errors.New("sha wasn't supplied")}
	case change.SHA != "" && (!exists || existing.SHA != change.SHA):
		return &forge.Error{Op: "write " + change.Path, StatusCode: http.StatusConflict, Err: errors.New("sha does not match")}
	}
	f.put(change.Branch, change.Path, change.Content)
	f.seq++
	f.Branches[change.Branch] = fmt.Sprintf("sha-commit-%d", f.seq)
	f.Commits = append(f.Commits, change)
	return nil
}

func (f *Forge) OpenChangeRequest(ctx context.Context, req forge.NewChangeRequest) (*forge.ChangeRequest, error) {
	if err := f.enter("OpenChangeRequest"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	f.ChangeRequests = append(f.ChangeRequests, req)
	n := 100 + len(f.ChangeRequests)
	return &forge.ChangeRequest{
		Number: n,
		URL:    fmt.Sprintf("%s/pull/%d", f.Repo.WebURL, n),
	}, nil
}

// enter records the call and locks f unless a failure is injected. The
// caller unlocks on success.
func (f *Forge) enter(method string) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, method)
	if err := f.Fail[method]; err != nil {
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *Forge) put(branch, path, content string) {
	if f.Files[branch] == nil {
		f.Files[branch] = map[string]*forge.File{}
	}
	f.seq++
	f.Files[branch][path] = &forge.File{
		Path:    path,
		Content: content,
		SHA:     fmt.Sprintf("blob-%d", f.seq),
	}
}

func notFound(op string) error {
	return &forge.Error{Op: op, StatusCode: http.StatusNotFound, Err: errors.New("Not Found")}
}
