package cli

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/saint0x/issol/pkg/codebase"
	"github.com/saint0x/issol/pkg/config"
	"github.com/saint0x/issol/pkg/intent"
	"github.com/saint0x/issol/pkg/patch"
	"github.com/saint0x/issol/pkg/pipeline"
	"github.com/saint0x/issol/pkg/publish"
	"github.com/spf13/cobra"
)

type resolveFlags struct {
	force       bool
	fullContext bool
}

func newResolveCommand(opts *Options) *cobra.Command {
	flags := resolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve <issue-number>",
		Short: "Generate code for an issue and open a pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil || number <= 0 {
				return errors.Newf("invalid issue number %q", args[0])
			}
			return runResolve(cmd.Context(), opts, number, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.force, "force", false, "Process the issue even if its title lacks the marker")
	cmd.Flags().BoolVar(&flags.fullContext, "full-context", false, "Send the whole local working tree as context")
	return cmd
}

func runResolve(ctx context.Context, opts *Options, number int, flags resolveFlags) error {
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
	gen, err := s.generator()
	if err != nil {
		return s.fail(err)
	}
	rules, err := s.rules()
	if err != nil {
		return s.fail(err)
	}
	base := s.baseBranch(ctx, repo)
	s.logger.Branch("Using branch: %s", base)

	var collector codebase.Collector
	if flags.fullContext || s.cfg.ContextMode == config.ContextModeTree {
		collector = codebase.NewTreeCollector(s.root, rules.WithGitIgnore(s.root))
	} else {
		collector = codebase.NewRemoteCollector(f, s.cfg.ContextFiles, rules, s.logger)
	}

	marker := s.cfg.TitleMarker
	if flags.force {
		marker = ""
	}
	r := &pipeline.Resolver{
		Forge:       f,
		Extractor:   intent.HeuristicExtractor{},
		Collector:   collector,
		Generator:   gen,
		Reconciler:  patch.NewReconciler(f, patch.CodeLineCleaner{}, rules, s.logger),
		Publisher:   publish.New(f, s.logger, s.cfg.MaxBranchAttempts),
		Logger:      s.logger,
		TitleMarker: marker,
	}

	res, err := r.Resolve(ctx, number, base)
	if err != nil {
		s.logger.Error("Error processing issue #%d (stopped after %s)", number, res.State)
		return s.fail(err)
	}
	if res.Reason != nil {
		return s.fail(res.Reason)
	}
	return nil
}
