// Package cli defines the issol command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/saint0x/issol/pkg/ai"
	"github.com/saint0x/issol/pkg/forge"
	"github.com/saint0x/issol/pkg/log"
	"github.com/spf13/cobra"
)

// Version is the released version of issol.
const Version = "0.3.2"

// Options holds global flags and the dependencies a command needs.
type Options struct {
	Debug  bool
	Branch string
	Dir    string

	Out io.Writer
	In  *os.File

	// Environ replaces the process environment when non-nil.
	Environ map[string]string
	// Forge and Completer replace the configured services when non-nil.
	Forge     forge.Forge
	Completer ai.Completer

	logger *log.Logger
}

type legacyFlags struct {
	list        bool
	resolve     int
	summarize   bool
	stackReport bool
}

// Execute runs the command line with args and returns the process exit
// status. Pipeline failures are reported and exit 0; invalid usage, a
// missing repository and unresolvable credentials exit 1.
func Execute(ctx context.Context, args []string, opts *Options) int {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if args == nil {
		args = []string{}
	}

	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.Out)

	err := cmd.ExecuteContext(ctx)
	if opts.logger != nil {
		defer opts.logger.Close()
	}
	if err == nil {
		return 0
	}
	logger := opts.logger
	if logger == nil {
		logger = log.New(opts.Debug, log.WithWriter(opts.Out))
	}
	report(logger, err)
	return 1
}

func newRootCommand(opts *Options) *cobra.Command {
	legacy := &legacyFlags{}
	cmd := &cobra.Command{
		Use:           "issol",
		Short:         "Resolve issues with AI-generated pull requests",
		Long:          "issol reads an issue from GitHub or GitLab, asks a language model for the code changes it describes and opens a pull request with them.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case legacy.list:
				return runList(cmd.Context(), opts)
			case legacy.resolve > 0:
				return runResolve(cmd.Context(), opts, legacy.resolve, resolveFlags{})
			case legacy.summarize:
				return runSummarize(cmd.Context(), opts)
			case legacy.stackReport:
				return runStackReport(cmd.Context(), opts)
			}
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("issol version {{.Version}}\n")

	cmd.PersistentFlags().BoolVarP(&opts.Debug, "debug", "d", opts.Debug, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&opts.Branch, "branch", "b", opts.Branch, "Branch to read code from (default: current branch, then the repository default)")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", opts.Dir, "Repository directory (default: working directory)")

	cmd.Flags().BoolVarP(&legacy.list, "list", "l", false, "List all open issues")
	cmd.Flags().IntVarP(&legacy.resolve, "resolve", "r", 0, "Resolve a specific issue by number")
	cmd.Flags().BoolVarP(&legacy.summarize, "summarize", "s", false, "Summarize the codebase")
	cmd.Flags().BoolVarP(&legacy.stackReport, "codebase-context", "c", false, "Generate the tech stack report")
	cmd.MarkFlagsMutuallyExclusive("list", "resolve", "summarize", "codebase-context")

	cmd.AddCommand(
		newListCommand(opts),
		newResolveCommand(opts),
		newSummarizeCommand(opts),
		newContextCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current version of issol",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "issol version %s\n", Version)
		},
	}
}

// report prints err and every hint attached to it.
func report(logger *log.Logger, err error) {
	logger.Error("%v", err)
	for _, hint := range errors.GetAllHints(err) {
		logger.Print(hint + "\n")
	}
}
