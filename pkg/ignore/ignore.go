// Package ignore decides which repository paths are kept out of the model
// context and out of published changes.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Rules is an ordered, read-only set of shell-glob patterns, optionally backed
// by a compiled .gitignore.
type Rules struct {
	patterns  []string
	gitignore *gitignore.GitIgnore
}

// New builds a ruleset from the given patterns in order. Blank entries are
// dropped.
func New(patterns ...string) *Rules {
	r := &Rules{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r.patterns = append(r.patterns, p)
	}
	return r
}

// Default returns the built-in ruleset.
func Default() *Rules {
	return New(DefaultPatterns...)
}

// Load returns the built-in patterns followed by the patterns found in the
// project ignore file at root/name. A missing file is not an error.
func Load(root, name string) (*Rules, error) {
	patterns := append([]string(nil), DefaultPatterns...)
	if name == "" {
		return New(patterns...), nil
	}
	extra, err := readPatterns(filepath.Join(root, name))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read ignore file %s: %w", name, err)
	}
	return New(append(patterns, extra...)...), nil
}

// WithGitIgnore returns a copy of r that additionally honours root/.gitignore.
// A missing .gitignore leaves the rules unchanged.
func (r *Rules) WithGitIgnore(root string) *Rules {
	lines, err := readPatterns(filepath.Join(root, ".gitignore"))
	if err != nil || len(lines) == 0 {
		return r
	}
	return &Rules{
		patterns:  r.patterns,
		gitignore: gitignore.CompileIgnoreLines(lines...),
	}
}

// Patterns returns a copy of the glob patterns in order.
func (r *Rules) Patterns() []string {
	return append([]string(nil), r.patterns...)
}

// IsIgnored reports whether p is excluded. Each pattern is matched against
// every segment of p on its own and against every root-anchored prefix
// (a, a/b, a/b/c, ...), so "node_modules*" excludes node_modules at any
// depth while "docs/private" only matches at the root.
func (r *Rules) IsIgnored(p string) bool {
	p = normalize(p)
	if p == "" {
		return false
	}
	if r.gitignore != nil && r.gitignore.MatchesPath(p) {
		return true
	}

	segments := strings.Split(p, "/")
	for _, pattern := range r.patterns {
		for i, seg := range segments {
			if match(pattern, seg) {
				return true
			}
			if i > 0 && match(pattern, strings.Join(segments[:i+1], "/")) {
				return true
			}
		}
	}
	return false
}

func match(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

func normalize(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return strings.Trim(p, "/")
}

// readPatterns returns the non-blank, non-comment lines of an ignore file.
func readPatterns(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
