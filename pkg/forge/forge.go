// Package forge talks to the hosting service that owns the repository:
// issues, file contents, branches and pull/merge requests.
package forge

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNotFound is matched by errors for a missing issue, file, branch or
	// repository.
	ErrNotFound = errors.New("forge: resource not found")

	// ErrBranchExists is matched when a branch could not be created because
	// the reference is already taken.
	ErrBranchExists = errors.New("forge: reference already exists")

	// ErrUnreadable is matched when a file exists but its content cannot be
	// fetched through the API, such as blobs too large to be inlined.
	ErrUnreadable = errors.New("forge: file content unavailable")
)

// Repository describes the hosted repository.
type Repository struct {
	FullName      string
	DefaultBranch string
	WebURL        string
}

// Issue is an issue ticket. Pull requests are never returned as issues.
type Issue struct {
	Number int
	Title  string
	Body   string
	URL    string
}

// File is the content of a file at a ref. SHA identifies the blob and is
// passed back when the file is replaced.
type File struct {
	Path    string
	Content string
	SHA     string
}

// FileChange writes Content to Path on Branch as one commit. An empty SHA
// creates the file, otherwise the blob identified by SHA is replaced.
type FileChange struct {
	Path    string
	Content string
	Branch  string
	Message string
	SHA     string
}

// NewChangeRequest are the options for opening a pull/merge request.
type NewChangeRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// ChangeRequest is an opened pull/merge request.
type ChangeRequest struct {
	Number int
	URL    string
}

// FileReader reads repository files at a ref.
type FileReader interface {
	// File returns the file at path on ref, or an error matching ErrNotFound.
	File(ctx context.Context, path, ref string) (*File, error)
}

// Forge is a hosting service bound to a single repository.
type Forge interface {
	FileReader

	// Name identifies the backend, e.g. "github".
	Name() string
	Repository(ctx context.Context) (*Repository, error)
	Issue(ctx context.Context, number int) (*Issue, error)
	// OpenIssues lists every open issue, following pagination.
	OpenIssues(ctx context.Context) ([]*Issue, error)
	// BranchHead returns the commit SHA at the tip of branch.
	BranchHead(ctx context.Context, branch string) (string, error)
	// CreateBranch creates branch at sha. A taken name yields an error
	// matching ErrBranchExists.
	CreateBranch(ctx context.Context, branch, sha string) error
	DeleteBranch(ctx context.Context, branch string) error
	PutFile(ctx context.Context, change FileChange) error
	OpenChangeRequest(ctx context.Context, req NewChangeRequest) (*ChangeRequest, error)
}

// Error is a failed hosting API call.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a 404 as ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// unreadable marks err as ErrUnreadable and names the file in a hint.
func unreadable(path string, err error) error {
	return errors.WithHintf(
		errors.Mark(err, ErrUnreadable),
		"The content of %s could not be fetched. Files larger than 1 MB are not returned inline by the API.",
		path,
	)
}
