package codebase

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/saint0x/issol/pkg/ignore"
)

// Summary counts files and lines in the working copy.
type Summary struct {
	TotalFiles int
	TotalLines int
	Extensions map[string]int
}

// Summarize walks root and counts every non-ignored, non-hidden file.
// Binary files count as files but contribute no lines.
func Summarize(ctx context.Context, root string, rules *ignore.Rules) (*Summary, error) {
	if rules == nil {
		rules = ignore.New()
	}
	s := &Summary{Extensions: map[string]int{}}
	err := walk(ctx, root, rules, func(rel string, data []byte) {
		if strings.HasPrefix(path.Base(rel), ".") {
			return
		}
		s.TotalFiles++
		s.Extensions[path.Ext(rel)]++
		if content, ok := decodeText(data); ok {
			s.TotalLines += countLines(content)
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// countLines counts lines the way a line reader would: a trailing partial
// line counts, a trailing newline does not start a new one.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// Render writes the summary as a table, extensions sorted by count.
func (s *Summary) Render(w io.Writer) {
	exts := make([]string, 0, len(s.Extensions))
	for ext := range s.Extensions {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		ci, cj := s.Extensions[exts[i]], s.Extensions[exts[j]]
		if ci != cj {
			return ci > cj
		}
		return exts[i] < exts[j]
	})

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Codebase Summary")
	tw.AppendHeader(table.Row{"EXTENSION", "FILES"})
	for _, ext := range exts {
		label := ext
		if label == "" {
			label = "(none)"
		}
		tw.AppendRow(table.Row{label, s.Extensions[ext]})
	}
	tw.AppendFooter(table.Row{"TOTAL FILES", s.TotalFiles})
	tw.AppendFooter(table.Row{"TOTAL LINES", s.TotalLines})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	tw.SetStyle(table.StyleLight)
	tw.Render()
}
