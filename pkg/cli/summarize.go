package cli

import (
	"context"

	"github.com/saint0x/issol/pkg/ai"
	"github.com/saint0x/issol/pkg/codebase"
	"github.com/spf13/cobra"
)

func newSummarizeCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Summarize the local codebase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummarize(cmd.Context(), opts)
		},
	}
}

func runSummarize(ctx context.Context, opts *Options) error {
	s, err := newSession(ctx, opts)
	if err != nil {
		return err
	}
	rules, err := s.rules()
	if err != nil {
		return s.fail(err)
	}
	summary, err := codebase.Summarize(ctx, s.root, rules)
	if err != nil {
		return s.fail(err)
	}
	summary.Render(s.logger.Writer())
	return nil
}

func newContextCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Identify the tech stack and write it to " + codebase.ReportDir,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStackReport(cmd.Context(), opts)
		},
	}
}

func runStackReport(ctx context.Context, opts *Options) error {
	s, err := newSession(ctx, opts)
	if err != nil {
		return err
	}
	rules, err := s.rules()
	if err != nil {
		return s.fail(err)
	}

	s.logger.Step("Analyzing project structure...")
	profile, err := codebase.BuildProfile(ctx, s.root, rules)
	if err != nil {
		return s.fail(err)
	}

	gen, err := s.generator()
	if err != nil {
		return s.fail(err)
	}
	s.logger.Step("Identifying tech stack...")
	system, user := ai.StackPrompts(profile)
	report := gen.Complete(ctx, system, user)
	if report == "" {
		s.logger.Error("No tech stack report was generated by the AI.")
		return nil
	}

	path, err := codebase.WriteStackReport(s.root, report)
	if err != nil {
		return s.fail(err)
	}
	s.logger.Success("Tech stack report written to %s", path)
	return nil
}
