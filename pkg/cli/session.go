package cli

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/saint0x/issol/pkg/ai"
	"github.com/saint0x/issol/pkg/config"
	"github.com/saint0x/issol/pkg/forge"
	"github.com/saint0x/issol/pkg/gitrepo"
	"github.com/saint0x/issol/pkg/ignore"
	"github.com/saint0x/issol/pkg/log"
)

// session is the state shared by one command run.
type session struct {
	opts    *Options
	cfg     *config.Config
	logger  *log.Logger
	root    string
	repo    *gitrepo.Repo
	repoErr error
}

// newSession locates the repository, loads settings and builds the logger.
// Not being inside a repository is recorded, not returned, since local
// commands can run anywhere.
func newSession(ctx context.Context, opts *Options) (*session, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get working directory")
		}
		dir = wd
	}

	s := &session{opts: opts, root: dir}
	s.repo, s.repoErr = gitrepo.Open(ctx, dir)
	if s.repoErr == nil {
		s.root = s.repo.Root
	}

	var err error
	if opts.Environ != nil {
		s.cfg, err = config.LoadWithEnv(s.root, opts.Environ)
	} else {
		s.cfg, err = config.Load(s.root)
	}
	if err != nil {
		return nil, err
	}

	logOpts := []log.Option{log.WithWriter(opts.Out)}
	if s.cfg.LogFile != "" {
		w, err := log.OpenTranscript(s.cfg.LogFile)
		if err != nil {
			return nil, err
		}
		logOpts = append(logOpts, log.WithTranscript(w))
	}
	s.logger = log.New(opts.Debug || s.cfg.Debug, logOpts...)
	opts.logger = s.logger
	return s, nil
}

// requireRepo fails unless the command runs inside a git repository.
func (s *session) requireRepo() error {
	return s.repoErr
}

func (s *session) rules() (*ignore.Rules, error) {
	return ignore.Load(s.root, s.cfg.IgnoreFile)
}

// credentials fills missing secrets for backend and the configured provider
// from the credential store or an interactive prompt.
func (s *session) credentials(backend string) error {
	store, err := config.DefaultStore()
	if err != nil {
		return err
	}
	saved, err := s.cfg.EnsureCredentials(backend, store, &config.TermPrompter{In: s.opts.In, Out: s.opts.Out})
	if err != nil {
		return errors.WithHint(
			errors.Wrap(err, "resolving credentials"),
			"Set the token in the environment, in .env, or in ~/"+config.CredentialsFile+".",
		)
	}
	for _, name := range saved {
		s.logger.Success("%s has been saved to %s", name, store.Path)
	}
	return nil
}

// forge connects to the hosting service of the repository's remote and
// checks that the repository is reachable.
func (s *session) forge(ctx context.Context) (forge.Forge, *forge.Repository, error) {
	f := s.opts.Forge
	if f == nil {
		remote, err := s.repo.Remote(ctx)
		if err != nil {
			return nil, nil, err
		}
		s.logger.Debug("Determined repo name: %s", remote.FullName())

		backend, err := forge.DetectBackend(s.cfg.Forge, remote.Host)
		if err != nil {
			return nil, nil, err
		}
		if err := s.credentials(backend); err != nil {
			return nil, nil, fatal(err)
		}

		token := s.cfg.GitHubToken
		if backend == forge.GitLabBackend {
			token = s.cfg.GitLabToken
		}
		f, err = forge.New(backend, remote.Owner, remote.Name, forge.Options{
			Token:     token,
			BaseURL:   s.cfg.ForgeURL,
			RateLimit: s.cfg.RateLimit,
			Timeout:   s.cfg.RequestTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	repo, err := f.Repository(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "accessing repository")
	}
	s.logger.Debug("Successfully accessed repository: %s", repo.FullName)
	return f, repo, nil
}

// generator builds the model client for the configured provider.
func (s *session) generator() (*ai.Generator, error) {
	c := s.opts.Completer
	if c == nil {
		if err := s.credentials(""); err != nil {
			return nil, fatal(err)
		}
		key := s.cfg.AnthropicKey
		if s.cfg.Provider == ai.OpenAI {
			key = s.cfg.OpenAIKey
		}
		var err error
		c, err = ai.NewCompleter(ai.Settings{
			Provider:    s.cfg.Provider,
			Model:       s.cfg.Model,
			MaxTokens:   int(s.cfg.MaxTokens),
			Temperature: s.cfg.Temperature,
			APIKey:      key,
			BaseURL:     s.cfg.ProviderURL,
		})
		if err != nil {
			return nil, err
		}
	}
	return ai.New(s.logger, c, s.cfg.RequestTimeout), nil
}

// baseBranch picks the --branch flag, else the checked-out branch, else
// the repository default.
func (s *session) baseBranch(ctx context.Context, repo *forge.Repository) string {
	if s.opts.Branch != "" {
		return s.opts.Branch
	}
	if s.repo != nil {
		if b, err := s.repo.CurrentBranch(ctx); err == nil && b != "" {
			return b
		}
	}
	return repo.DefaultBranch
}

// fatalError marks failures that end the process with a non-zero status.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func fatal(err error) error {
	return &fatalError{err: err}
}

// fail reports a pipeline failure and swallows it so the process exits 0.
// Fatal errors are passed through.
func (s *session) fail(err error) error {
	var fe *fatalError
	if errors.As(err, &fe) {
		return fe.err
	}
	report(s.logger, err)
	return nil
}
