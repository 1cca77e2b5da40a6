package cli

import (
	"context"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/saint0x/issol/pkg/forge"
	"github.com/spf13/cobra"
)

func newListCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all open issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), opts)
		},
	}
}

func runList(ctx context.Context, opts *Options) error {
	s, err := newSession(ctx, opts)
	if err != nil {
		return err
	}
	if err := s.requireRepo(); err != nil {
		return err
	}

	f, repo, err := s.forge(ctx)
	if err != nil {
		return s.fail(err)
	}
	issues, err := f.OpenIssues(ctx)
	if err != nil {
		return s.fail(err)
	}
	if len(issues) == 0 {
		s.logger.Info("No open issues in %s", repo.FullName)
		return nil
	}
	renderIssues(s.logger.Writer(), repo.FullName, issues)
	return nil
}

func renderIssues(w io.Writer, title string, issues []*forge.Issue) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Open issues in " + title)
	tw.AppendHeader(table.Row{"#", "TITLE", "URL"})
	for _, issue := range issues {
		tw.AppendRow(table.Row{issue.Number, issue.Title, issue.URL})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
}
