package publish

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/saint0x/issol/pkg/forge"
	"github.com/saint0x/issol/pkg/forge/forgetest"
	"github.com/saint0x/issol/pkg/intent"
	"github.com/saint0x/issol/pkg/log"
	"github.com/saint0x/issol/pkg/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchName(t *testing.T) {
	tests := []struct {
		name   string
		number int
		title  string
		want   string
	}{
		{"simple", 42, "Title", "fix-42-title"},
		{"punctuation stripped", 7, "Fix: the (broken) button!", "fix-7-fix-the-broken-button"},
		{"whitespace runs", 3, "a  b\tc", "fix-3-a-b-c"},
		{"hyphens kept", 5, "re-enable cache", "fix-5-re-enable-cache"},
		{"non ascii dropped", 9, "Café crash", "fix-9-caf-crash"},
		{"unicode spaces", 4, "fix\u00a0bug\u2003now", "fix-4-fix-bug-now"},
		{"truncated", 1, strings.Repeat("abcde ", 20), "fix-1-" + strings.Repeat("abcde-", 8) + "ab"},
		{"empty slug", 2, "!!!", "fix-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BranchName(tt.number, tt.title))
		})
	}
}

func TestDescription(t *testing.T) {
	in := intent.Intent{ProblemDescription: "button misaligned", DesiredOutcome: "center it"}
	changes := []patch.Change{{
		Path:  "styles.css",
		Diff:  "--- a/styles.css\n+++ b/styles.css\n@@ -0,0 +1 @@\n+.btn { margin: auto }\n",
		Stats: patch.Stats{Added: 1},
	}}

	want := "This pull request addresses issue #12.\n\n" +
		"Problem Description:\nbutton misaligned\n\n" +
		"Desired Outcome:\ncenter it\n\n" +
		"Changes made:\n" +
		"\nChanges in styles.css (+1 -0):\n```diff\n" +
		"--- a/styles.css\n+++ b/styles.css\n@@ -0,0 +1 @@\n+.btn { margin: auto }\n```\n" +
		"\nThis code was generated automatically by an AI assistant. Please review carefully before merging."
	assert.Equal(t, want, Description(12, in, changes))
	assert.Equal(t, "Fix #12: Align button", Title(12, "Align button"))
}

func reconcile(t *testing.T, f *forgetest.Forge, raw string) *patch.Result {
	t.Helper()
	res, err := patch.NewReconciler(f, nil, nil, nil).Reconcile(context.Background(), patch.Parse(raw), "main")
	require.NoError(t, err)
	return res
}

func TestPublishCreatesChangeRequest(t *testing.T) {
	f := forgetest.New()
	f.SetFile("main", "a.py", "print(1)")
	issue := f.AddIssue(42, "Title", "")
	res := reconcile(t, f, "# File: a.py\nprint(1)\n# File: b.py\nprint(2)\n")

	rec, err := New(f, nil, 0).Publish(context.Background(), issue, intent.Intent{ProblemDescription: "p", DesiredOutcome: "o"}, res, "main")
	require.NoError(t, err)

	assert.Equal(t, "fix-42-title", rec.Branch)
	assert.False(t, rec.NoOp)
	assert.Equal(t, "https://example.test/acme/widgets/pull/101", rec.URL)
	require.Len(t, f.Commits, 1)
	assert.Equal(t, forge.FileChange{
		Path:    "b.py",
		Content: "print(2)\n",
		Branch:  "fix-42-title",
		Message: "Fix #42: Create b.py",
	}, f.Commits[0])

	content, ok := f.Content("fix-42-title", "b.py")
	require.True(t, ok)
	assert.Equal(t, "print(2)\n", content)
	_, ok = f.Content("main", "b.py")
	assert.False(t, ok)

	require.Len(t, f.ChangeRequests, 1)
	cr := f.ChangeRequests[0]
	assert.Equal(t, "Fix #42: Title", cr.Title)
	assert.Equal(t, "fix-42-title", cr.Head)
	assert.Equal(t, "main", cr.Base)
	assert.Contains(t, cr.Body, "Changes in b.py (+1 -0):")
	assert.NotContains(t, cr.Body, "Changes in a.py")
}

func TestPublishUpdatesExistingFile(t *testing.T) {
	f := forgetest.New()
	f.SetFile("main", "calc.py", "x = 1\n")
	issue := f.AddIssue(3, "Bump x", "")
	res := reconcile(t, f, "# File: calc.py\nx = 2\n")

	rec, err := New(f, nil, 0).Publish(context.Background(), issue, intent.Intent{}, res, "main")
	require.NoError(t, err)

	require.Len(t, f.Commits, 1)
	assert.Equal(t, "Fix #3: Update calc.py", f.Commits[0].Message)
	assert.NotEmpty(t, f.Commits[0].SHA)
	content, _ := f.Content(rec.Branch, "calc.py")
	assert.Equal(t, "x = 2\n", content)
	original, _ := f.Content("main", "calc.py")
	assert.Equal(t, "x = 1\n", original)
}

func TestPublishBranchCollision(t *testing.T) {
	f := forgetest.New()
	f.Branches["fix-42-title"] = "sha-old"
	issue := f.AddIssue(42, "title", "")
	res := reconcile(t, f, "# File: b.py\nprint(2)\n")

	rec, err := New(f, nil, 0).Publish(context.Background(), issue, intent.Intent{}, res, "main")
	require.NoError(t, err)
	assert.Equal(t, "fix-42-title-1", rec.Branch)
	assert.Equal(t, 2, f.Called("CreateBranch"))
	assert.Equal(t, "fix-42-title-1", f.ChangeRequests[0].Head)
}

func TestPublishBranchAttemptsExhausted(t *testing.T) {
	f := forgetest.New()
	f.Branches["fix-1-x"] = "a"
	f.Branches["fix-1-x-1"] = "b"
	issue := f.AddIssue(1, "x", "")
	res := reconcile(t, f, "# File: b.py\nprint(2)\n")

	_, err := New(f, nil, 2).Publish(context.Background(), issue, intent.Intent{}, res, "main")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBranchAttempts))
	assert.Equal(t, 2, f.Called("CreateBranch"))
	assert.Empty(t, f.ChangeRequests)
}

func TestPublishNoChanges(t *testing.T) {
	f := forgetest.New()
	f.SetFile("main", "a.py", "print(1)")
	issue := f.AddIssue(8, "Nothing to do", "")
	res := reconcile(t, f, "# File: a.py\nprint(1)\n")

	var buf bytes.Buffer
	rec, err := New(f, log.New(false, log.WithWriter(&buf)), 0).Publish(context.Background(), issue, intent.Intent{}, res, "main")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoChanges))
	assert.Contains(t, strings.Join(errors.GetAllHints(err), "\n"), "identical to the existing code")

	require.NotNil(t, rec)
	assert.True(t, rec.NoOp)
	assert.Equal(t, "fix-8-nothing-to-do", rec.Branch)
	assert.Equal(t, 1, f.Called("CreateBranch"))
	assert.Equal(t, 1, f.Called("DeleteBranch"))
	assert.False(t, f.HasBranch("fix-8-nothing-to-do"))
	assert.Empty(t, f.ChangeRequests)
	assert.Contains(t, buf.String(), "Deleted branch fix-8-nothing-to-do")
}

func TestPublishDeleteFailureIsLogged(t *testing.T) {
	f := forgetest.New()
	f.Fail["DeleteBranch"] = &forge.Error{Op: "delete", StatusCode: http.StatusForbidden, Err: errors.New("forbidden")}
	issue := f.AddIssue(8, "noop", "")

	var buf bytes.Buffer
	rec, err := New(f, log.New(false, log.WithWriter(&buf)), 0).Publish(context.Background(), issue, intent.Intent{}, &patch.Result{}, "main")
	assert.True(t, errors.Is(err, ErrNoChanges))
	assert.True(t, rec.NoOp)
	assert.Contains(t, buf.String(), "Failed to delete branch fix-8-noop")
}

func TestPublishChangeRequestError(t *testing.T) {
	f := forgetest.New()
	f.Fail["OpenChangeRequest"] = &forge.Error{Op: "create pull request", StatusCode: http.StatusUnprocessableEntity, Err: errors.New("Validation Failed")}
	issue := f.AddIssue(4, "t", "")
	res := reconcile(t, f, "# File: b.py\nprint(2)\n")

	rec, err := New(f, nil, 0).Publish(context.Background(), issue, intent.Intent{}, res, "main")
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, http.StatusUnprocessableEntity, forge.StatusCode(err))
}

func TestPublishMissingBase(t *testing.T) {
	f := forgetest.New()
	issue := f.AddIssue(4, "t", "")

	_, err := New(f, nil, 0).Publish(context.Background(), issue, intent.Intent{}, &patch.Result{}, "develop")
	require.Error(t, err)
	assert.True(t, errors.Is(err, forge.ErrNotFound))
	assert.Zero(t, f.Called("CreateBranch"))
}
