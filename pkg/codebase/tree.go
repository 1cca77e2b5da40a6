package codebase

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/saint0x/issol/pkg/ignore"
)

// TreeCollector walks the local working copy. Ignored directories are pruned
// before they are opened and unreadable or binary files are skipped.
type TreeCollector struct {
	root  string
	rules *ignore.Rules
}

// NewTreeCollector creates a collector rooted at root.
func NewTreeCollector(root string, rules *ignore.Rules) *TreeCollector {
	if rules == nil {
		rules = ignore.New()
	}
	return &TreeCollector{root: root, rules: rules}
}

// Collect concatenates every eligible file. The branch is only used to label
// entries.
func (c *TreeCollector) Collect(ctx context.Context, branch string) (string, error) {
	var entries []string
	err := walk(ctx, c.root, c.rules, func(rel string, data []byte) {
		if content, ok := decodeText(data); ok {
			entries = append(entries, Entry(rel, branch, content))
		}
	})
	if err != nil {
		return "", err
	}
	return join(entries), nil
}

// walk visits every regular, non-ignored file below root in lexical order,
// passing its slash-separated relative path and content. Files that cannot
// be read are skipped.
func walk(ctx context.Context, root string, rules *ignore.Rules, visit func(rel string, data []byte)) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rules.IsIgnored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || rules.IsIgnored(rel) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		visit(rel, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return nil
}
