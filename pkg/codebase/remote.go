package codebase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/saint0x/issol/pkg/forge"
	"github.com/saint0x/issol/pkg/ignore"
	"github.com/saint0x/issol/pkg/log"
)

// DefaultContextFiles are read in fixed-file mode when none are configured.
var DefaultContextFiles = []string{"README.md", "codebase.md"}

// RemoteCollector reads a fixed list of files from the hosting service.
type RemoteCollector struct {
	reader forge.FileReader
	paths  []string
	rules  *ignore.Rules
	logger *log.Logger
}

// NewRemoteCollector creates a collector for paths. Nil rules ignore
// nothing and no paths means DefaultContextFiles.
func NewRemoteCollector(reader forge.FileReader, paths []string, rules *ignore.Rules, logger *log.Logger) *RemoteCollector {
	if len(paths) == 0 {
		paths = DefaultContextFiles
	}
	if rules == nil {
		rules = ignore.New()
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &RemoteCollector{reader: reader, paths: paths, rules: rules, logger: logger}
}

// Collect reads each configured file on branch. Files that are missing or
// cannot be fetched get no entry at all.
func (c *RemoteCollector) Collect(ctx context.Context, branch string) (string, error) {
	var entries []string
	for _, p := range c.paths {
		if c.rules.IsIgnored(p) {
			c.logger.Debug("Skipping ignored context file %s", p)
			continue
		}
		file, err := c.reader.File(ctx, p, branch)
		if err != nil {
			if errors.Is(err, forge.ErrNotFound) {
				c.logger.Warning("Context file %s not found on %s", p, branch)
				continue
			}
			if errors.Is(err, forge.ErrUnreadable) {
				c.logger.Warning("Skipping context file %s: %v", p, err)
				continue
			}
			return "", errors.Wrapf(err, "reading %s", p)
		}
		entries = append(entries, Entry(p, branch, file.Content))
	}
	return join(entries), nil
}
