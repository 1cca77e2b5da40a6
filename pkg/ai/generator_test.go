package ai

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/saint0x/issol/pkg/log"
	"github.com/stretchr/testify/assert"
)

// mockCompleter implements Completer for testing
type mockCompleter struct {
	response string
	err      error
	system   string
	user     string
	deadline bool
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.system, m.user = system, user
	_, m.deadline = ctx.Deadline()
	return m.response, m.err
}

func TestGeneratorComplete(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockCompleter{response: "# File: a.py\nprint(1)\n"}
	gen := New(log.New(true, log.WithWriter(&buf)), mock, time.Minute)

	out := gen.Complete(context.Background(), "sys", "user prompt")
	assert.Equal(t, "# File: a.py\nprint(1)\n", out)
	assert.Equal(t, "sys", mock.system)
	assert.Equal(t, "user prompt", mock.user)
	assert.True(t, mock.deadline)
	assert.Contains(t, buf.String(), "Generated code")
}

func TestGeneratorCompleteError(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockCompleter{err: io.ErrUnexpectedEOF}
	gen := New(log.New(false, log.WithWriter(&buf)), mock, 0)

	assert.Equal(t, "", gen.Complete(context.Background(), "sys", "user"))
	assert.False(t, mock.deadline)
	assert.Contains(t, buf.String(), "Error generating code")
}

func TestGeneratorBlankCompletion(t *testing.T) {
	gen := New(nil, &mockCompleter{response: " \n\t"}, 0)
	assert.Equal(t, "", gen.Complete(context.Background(), "sys", "user"))
}
