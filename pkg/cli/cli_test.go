package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/saint0x/issol/pkg/codebase"
	"github.com/saint0x/issol/pkg/forge/forgetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	out string
}

func (c *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return c.out, nil
}

const issueBody = "Problem Description: crash on start\nDesired Outcome: start cleanly\nAffected Files: app.py"

func newOptions(t *testing.T, dir string) (*Options, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &Options{
		Dir:     dir,
		Out:     &out,
		Environ: map[string]string{"ISSOL_LOG_FILE": filepath.Join(t.TempDir(), "issol.log")},
	}, &out
}

func newRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	for _, args := range [][]string{{"init", "-q"}, {"symbolic-ref", "HEAD", "refs/heads/main"}} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	return dir
}

func notRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	return dir
}

func TestVersion(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}, {"-v"}} {
		opts, out := newOptions(t, notRepo(t))
		code := Execute(context.Background(), args, opts)
		assert.Equal(t, 0, code, args)
		assert.Equal(t, "issol version 0.3.2\n", out.String(), args)
	}
}

func TestHelpWithoutArguments(t *testing.T) {
	opts, out := newOptions(t, notRepo(t))
	assert.Equal(t, 0, Execute(context.Background(), nil, opts))
	assert.Contains(t, out.String(), "resolve")
	assert.Contains(t, out.String(), "--list")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad issue number", []string{"resolve", "abc"}},
		{"missing issue number", []string{"resolve"}},
		{"conflicting legacy flags", []string{"-l", "-s"}},
		{"unknown command", []string{"deploy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _ := newOptions(t, notRepo(t))
			assert.Equal(t, 1, Execute(context.Background(), tt.args, opts))
		})
	}
}

func TestNotARepository(t *testing.T) {
	opts, out := newOptions(t, notRepo(t))
	opts.Forge = forgetest.New()
	assert.Equal(t, 1, Execute(context.Background(), []string{"list"}, opts))
	assert.Contains(t, out.String(), "not a git repository")
}

func TestList(t *testing.T) {
	f := forgetest.New()
	f.AddIssue(3, "Crash on start", issueBody)
	f.AddIssue(7, "Slow search", "")

	opts, out := newOptions(t, newRepo(t))
	opts.Forge = f
	require.Equal(t, 0, Execute(context.Background(), []string{"-l"}, opts))

	assert.Contains(t, out.String(), "Open issues in acme/widgets")
	assert.Contains(t, out.String(), "Crash on start")
	assert.Contains(t, out.String(), "Slow search")
}

func TestOptionsKeepPresetFlags(t *testing.T) {
	dir := newRepo(t)
	f := forgetest.New()
	f.AddIssue(3, "Crash on start", issueBody)

	opts, out := newOptions(t, dir)
	opts.Forge = f
	opts.Branch = "dev"
	opts.Debug = true
	require.Equal(t, 0, Execute(context.Background(), []string{"list"}, opts), out.String())
	assert.Equal(t, dir, opts.Dir)
	assert.Equal(t, "dev", opts.Branch)
	assert.True(t, opts.Debug)
	assert.Contains(t, out.String(), "Crash on start")

	opts, _ = newOptions(t, dir)
	opts.Forge = f
	opts.Branch = "dev"
	require.Equal(t, 0, Execute(context.Background(), []string{"list", "-b", "main"}, opts))
	assert.Equal(t, "main", opts.Branch)
}

func TestResolve(t *testing.T) {
	f := forgetest.New()
	f.AddIssue(12, "AI: Generate Code crash on start", issueBody)

	opts, out := newOptions(t, newRepo(t))
	opts.Forge = f
	opts.Completer = &stubCompleter{out: "# File: app.py\nrun()\n"}
	require.Equal(t, 0, Execute(context.Background(), []string{"resolve", "12", "-b", "main"}, opts))

	require.Len(t, f.ChangeRequests, 1)
	assert.Equal(t, "fix-12-ai-generate-code-crash-on-start", f.ChangeRequests[0].Head)
	assert.Equal(t, "main", f.ChangeRequests[0].Base)
	assert.Contains(t, out.String(), "Created pull request")
}

func TestResolveLegacyFlag(t *testing.T) {
	f := forgetest.New()
	f.AddIssue(12, "AI: Generate Code crash", issueBody)

	opts, _ := newOptions(t, newRepo(t))
	opts.Forge = f
	opts.Completer = &stubCompleter{out: "# File: app.py\nrun()\n"}
	require.Equal(t, 0, Execute(context.Background(), []string{"-r", "12", "-b", "main"}, opts))
	assert.Len(t, f.ChangeRequests, 1)
}

func TestResolvePipelineFailureExitsZero(t *testing.T) {
	f := forgetest.New()
	f.AddIssue(5, "Crash", issueBody)

	opts, out := newOptions(t, newRepo(t))
	opts.Forge = f
	opts.Completer = &stubCompleter{out: "# File: app.py\nrun()\n"}
	require.Equal(t, 0, Execute(context.Background(), []string{"resolve", "5", "-b", "main"}, opts))
	assert.Contains(t, out.String(), "Not marked for AI code generation")
	assert.Contains(t, out.String(), "--force")
	assert.Empty(t, f.ChangeRequests)

	opts, _ = newOptions(t, newRepo(t))
	opts.Forge = f
	opts.Completer = &stubCompleter{out: "# File: app.py\nrun()\n"}
	require.Equal(t, 0, Execute(context.Background(), []string{"resolve", "5", "--force", "-b", "main"}, opts))
	assert.Len(t, f.ChangeRequests, 1)
}

func TestResolveMissingIssue(t *testing.T) {
	opts, out := newOptions(t, newRepo(t))
	opts.Forge = forgetest.New()
	opts.Completer = &stubCompleter{}
	assert.Equal(t, 0, Execute(context.Background(), []string{"resolve", "99", "-b", "main"}, opts))
	assert.Contains(t, out.String(), "fetching issue #99")
}

func TestSummarize(t *testing.T) {
	dir := notRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# demo\n"), 0o644))

	opts, out := newOptions(t, dir)
	require.Equal(t, 0, Execute(context.Background(), []string{"summarize"}, opts))
	assert.Contains(t, out.String(), "Codebase Summary")
	assert.Contains(t, out.String(), ".go")
	assert.Contains(t, out.String(), "TOTAL LINES")
}

func TestContextReport(t *testing.T) {
	dir := notRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module demo\n"), 0o644))

	opts, _ := newOptions(t, dir)
	opts.Completer = &stubCompleter{out: "Go module"}
	require.Equal(t, 0, Execute(context.Background(), []string{"-c"}, opts))

	data, err := os.ReadFile(filepath.Join(dir, codebase.ReportDir, "tech_stack.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Tech Stack Identification\n\nGo module", string(data))
}
