package codebase

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/saint0x/issol/pkg/ignore"
)

const (
	// ReportDir holds generated codebase reports, relative to the root.
	ReportDir      = ".codebase_context"
	stackReport    = "tech_stack.md"
	maxImports     = 10
	importsPerFile = 5
)

var (
	configFiles = []string{
		"package.json", "requirements.txt", "Gemfile", "Dockerfile",
		"go.mod", "pyproject.toml", "Cargo.toml",
	}
	readmeFiles = []string{"README.md", "README.txt", "README"}
	importExts  = map[string]bool{".js": true, ".ts": true, ".py": true, ".rb": true, ".go": true}
	importLine  = regexp.MustCompile(`(?m)^(?:import|require|from)\b.*$`)
)

// Profile is the raw material for tech stack identification.
type Profile struct {
	Structure   string
	ConfigFiles map[string]string
	Readme      string
	Extensions  map[string]int
	Imports     []string
}

// BuildProfile inspects the working copy at root.
func BuildProfile(ctx context.Context, root string, rules *ignore.Rules) (*Profile, error) {
	if rules == nil {
		rules = ignore.New()
	}
	p := &Profile{
		ConfigFiles: map[string]string{},
		Extensions:  map[string]int{},
	}

	structure, err := tree(root, rules)
	if err != nil {
		return nil, err
	}
	p.Structure = structure

	for _, name := range configFiles {
		if data, err := os.ReadFile(filepath.Join(root, name)); err == nil {
			p.ConfigFiles[name] = string(data)
		}
	}
	for _, name := range readmeFiles {
		if data, err := os.ReadFile(filepath.Join(root, name)); err == nil {
			p.Readme = string(data)
			break
		}
	}

	err = walk(ctx, root, rules, func(rel string, data []byte) {
		ext := path.Ext(rel)
		if ext != "" {
			p.Extensions[ext]++
		}
		if !importExts[ext] || len(p.Imports) >= maxImports {
			return
		}
		content, ok := decodeText(data)
		if !ok {
			return
		}
		for _, imp := range importLine.FindAllString(content, importsPerFile) {
			if len(p.Imports) == maxImports {
				break
			}
			p.Imports = append(p.Imports, strings.TrimRight(imp, "\r"))
		}
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// tree renders the directory layout, four spaces per level.
func tree(root string, rules *ignore.Rules) (string, error) {
	var lines []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if p == root {
			lines = append(lines, "./")
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rules.IsIgnored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		indent := strings.Repeat("    ", strings.Count(rel, "/")+1)
		if d.IsDir() {
			lines = append(lines, indent+d.Name()+"/")
		} else {
			lines = append(lines, indent+d.Name())
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return strings.Join(lines, "\n"), nil
}

// WriteStackReport stores the tech stack report under ReportDir and returns
// its path.
func WriteStackReport(root, report string) (string, error) {
	dir := filepath.Join(root, ReportDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", ReportDir, err)
	}
	file := filepath.Join(dir, stackReport)
	content := "# Tech Stack Identification\n\n" + report
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", file, err)
	}
	return file, nil
}
