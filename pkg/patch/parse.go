// Package patch turns a model completion into per-file edits and compares
// them with the repository.
package patch

import "strings"

// Marker starts each file in a completion: "# File: <path>".
const Marker = "# File: "

// File is the proposed content for one path.
type File struct {
	Path    string
	Content string
}

// Set is the ordered collection of proposed files. Paths are unique.
type Set []File

// Paths returns the paths in order.
func (s Set) Paths() []string {
	paths := make([]string, len(s))
	for i, f := range s {
		paths[i] = f.Path
	}
	return paths
}

// Parse splits raw on Marker. Text before the first marker is discarded.
// The rest of a marker line is the path, taken verbatim after trimming, and
// the following lines are its raw content. A repeated path keeps its first
// position but takes the later content.
func Parse(raw string) Set {
	sections := strings.Split(raw, Marker)
	var set Set
	index := map[string]int{}
	for _, section := range sections[1:] {
		path, content, _ := strings.Cut(section, "\n")
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if i, ok := index[path]; ok {
			set[i].Content = content
			continue
		}
		index[path] = len(set)
		set = append(set, File{Path: path, Content: content})
	}
	return set
}
