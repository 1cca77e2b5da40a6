package pipeline

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/saint0x/issol/pkg/codebase"
	"github.com/saint0x/issol/pkg/forge"
	"github.com/saint0x/issol/pkg/forge/forgetest"
	"github.com/saint0x/issol/pkg/intent"
	"github.com/saint0x/issol/pkg/log"
	"github.com/saint0x/issol/pkg/patch"
	"github.com/saint0x/issol/pkg/publish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	out    string
	system string
	user   string
	calls  int
}

func (g *stubGenerator) Complete(ctx context.Context, system, user string) string {
	g.calls++
	g.system, g.user = system, user
	return g.out
}

const markedBody = "Problem Description: button misaligned\nDesired Outcome: center it\nAffected Files: styles.css"

func newResolver(f *forgetest.Forge, gen Generator, logger *log.Logger) *Resolver {
	return &Resolver{
		Forge:       f,
		Extractor:   intent.HeuristicExtractor{},
		Collector:   codebase.NewRemoteCollector(f, nil, nil, logger),
		Generator:   gen,
		Reconciler:  patch.NewReconciler(f, nil, nil, logger),
		Publisher:   publish.New(f, logger, 0),
		Logger:      logger,
		TitleMarker: DefaultTitleMarker,
	}
}

func TestResolvePublished(t *testing.T) {
	f := forgetest.New()
	f.SetFile("main", "README.md", "# Widgets")
	f.SetFile("main", "styles.css", "button { margin: 0 }")
	f.AddIssue(12, "AI: Generate Code center button", markedBody)
	gen := &stubGenerator{out: "# File: styles.css\nbutton { margin: auto }\n"}

	res, err := newResolver(f, gen, nil).Resolve(context.Background(), 12, "main")
	require.NoError(t, err)

	assert.Equal(t, Published, res.State)
	assert.True(t, res.State.Terminal())
	assert.Nil(t, res.Reason)
	assert.Equal(t, intent.Intent{
		ProblemDescription: "button misaligned",
		DesiredOutcome:     "center it",
		AffectedFiles:      []string{"styles.css"},
	}, res.Intent)
	require.NotNil(t, res.Record)
	assert.Equal(t, "fix-12-ai-generate-code-center-button", res.Record.Branch)
	assert.NotEmpty(t, res.Record.URL)

	assert.Contains(t, gen.user, "File: README.md (branch: main)\n\n# Widgets\n\n")
	assert.Contains(t, gen.user, "Problem Description: button misaligned")

	content, ok := f.Content(res.Record.Branch, "styles.css")
	require.True(t, ok)
	assert.Equal(t, "button { margin: auto }\n", content)
	require.Len(t, f.ChangeRequests, 1)
	assert.Equal(t, "Fix #12: AI: Generate Code center button", f.ChangeRequests[0].Title)
}

func TestResolveSkipsUnmarkedIssue(t *testing.T) {
	f := forgetest.New()
	f.AddIssue(5, "Plain bug", markedBody)
	gen := &stubGenerator{out: "# File: a.py\nx = 1\n"}

	res, err := newResolver(f, gen, nil).Resolve(context.Background(), 5, "main")
	require.NoError(t, err)
	assert.Equal(t, Skipped, res.State)
	assert.True(t, errors.Is(res.Reason, ErrNotMarked))
	assert.Zero(t, gen.calls)
	assert.Zero(t, f.Called("CreateBranch"))
}

func TestResolveWithoutMarkerGate(t *testing.T) {
	f := forgetest.New()
	f.AddIssue(5, "Plain bug", markedBody)
	r := newResolver(f, &stubGenerator{out: "# File: a.py\nx = 1\n"}, nil)
	r.TitleMarker = ""

	res, err := r.Resolve(context.Background(), 5, "main")
	require.NoError(t, err)
	assert.Equal(t, Published, res.State)
}

func TestResolveFailedExtraction(t *testing.T) {
	f := forgetest.New()
	f.AddIssue(6, "AI: Generate Code", "it is broken, please help")
	gen := &stubGenerator{out: "# File: a.py\nx = 1\n"}

	var buf bytes.Buffer
	res, err := newResolver(f, gen, log.New(false, log.WithWriter(&buf))).Resolve(context.Background(), 6, "main")
	require.NoError(t, err)
	assert.Equal(t, FailedExtraction, res.State)
	assert.True(t, errors.Is(res.Reason, intent.ErrNoSections))
	assert.Zero(t, gen.calls)
	assert.Contains(t, buf.String(), "Could not extract problem description")
}

func TestResolveFailedGeneration(t *testing.T) {
	f := forgetest.New()
	f.AddIssue(7, "AI: Generate Code", markedBody)

	res, err := newResolver(f, &stubGenerator{out: "  \n"}, nil).Resolve(context.Background(), 7, "main")
	require.NoError(t, err)
	assert.Equal(t, FailedGeneration, res.State)
	assert.True(t, errors.Is(res.Reason, ErrGeneration))
	assert.Zero(t, f.Called("CreateBranch"))
}

func TestResolveFailedNoPatch(t *testing.T) {
	f := forgetest.New()
	f.AddIssue(8, "AI: Generate Code", markedBody)

	res, err := newResolver(f, &stubGenerator{out: "Sorry, I need more detail."}, nil).Resolve(context.Background(), 8, "main")
	require.NoError(t, err)
	assert.Equal(t, FailedNoPatch, res.State)
	assert.True(t, errors.Is(res.Reason, patch.ErrNoPatch))
	assert.Zero(t, f.Called("CreateBranch"))
}

func TestResolveNoOpCleaned(t *testing.T) {
	f := forgetest.New()
	f.SetFile("main", "a.py", "print(1)")
	f.AddIssue(9, "AI: Generate Code noop", markedBody)

	res, err := newResolver(f, &stubGenerator{out: "# File: a.py\nprint(1)\n"}, nil).Resolve(context.Background(), 9, "main")
	require.NoError(t, err)
	assert.Equal(t, NoOpCleaned, res.State)
	assert.True(t, errors.Is(res.Reason, publish.ErrNoChanges))
	require.NotNil(t, res.Record)
	assert.True(t, res.Record.NoOp)
	assert.False(t, f.HasBranch(res.Record.Branch))
	assert.Empty(t, f.ChangeRequests)
}

func TestResolveIssueFetchFailure(t *testing.T) {
	f := forgetest.New()

	res, err := newResolver(f, &stubGenerator{}, nil).Resolve(context.Background(), 404, "main")
	require.Error(t, err)
	assert.True(t, errors.Is(err, forge.ErrNotFound))
	assert.Equal(t, Received, res.State)
	assert.False(t, res.State.Terminal())
}

func TestResolveHostingError(t *testing.T) {
	f := forgetest.New()
	f.AddIssue(10, "AI: Generate Code", markedBody)
	f.Fail["PutFile"] = &forge.Error{Op: "write", StatusCode: http.StatusForbidden, Err: errors.New("Resource not accessible")}

	res, err := newResolver(f, &stubGenerator{out: "# File: a.py\nx = 1\n"}, nil).Resolve(context.Background(), 10, "main")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, forge.StatusCode(err))
	assert.Equal(t, Reconciled, res.State)
}
