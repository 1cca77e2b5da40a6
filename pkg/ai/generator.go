// Package ai requests code and reports from a language model.
package ai

import (
	"context"
	"strings"
	"time"

	"github.com/saint0x/issol/pkg/log"
)

// Generator wraps a Completer for the pipeline: failures are logged and
// reported as an empty completion.
type Generator struct {
	logger    *log.Logger
	completer Completer
	timeout   time.Duration
}

// New creates a Generator. A zero timeout leaves the call bounded only by
// ctx.
func New(logger *log.Logger, completer Completer, timeout time.Duration) *Generator {
	if logger == nil {
		logger = log.Discard()
	}
	return &Generator{
		logger:    logger,
		completer: completer,
		timeout:   timeout,
	}
}

// Complete returns the model's reply, or "" if the request failed or the
// reply was blank.
func (g *Generator) Complete(ctx context.Context, system, user string) string {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.logger.Block("Prompt", user)
	start := time.Now()
	out, err := g.completer.Complete(ctx, system, user)
	if err != nil {
		g.logger.Error("Error generating code: %v", err)
		return ""
	}
	g.logger.Debug("Completion received in %s", time.Since(start).Round(time.Millisecond))
	g.logger.Block("Generated code", out)

	if strings.TrimSpace(out) == "" {
		return ""
	}
	return out
}
