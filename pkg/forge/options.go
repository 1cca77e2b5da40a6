package forge

import (
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Options configure a backend client.
type Options struct {
	Token string
	// BaseURL points at a GitHub Enterprise API root or a self-hosted GitLab
	// instance. Empty uses the public service.
	BaseURL string
	// RateLimit caps requests per second. Zero disables pacing.
	RateLimit float64
	Timeout   time.Duration
	// Transport replaces http.DefaultTransport underneath auth and pacing.
	Transport http.RoundTripper
}

// Backend names.
const (
	GitHubBackend = "github"
	GitLabBackend = "gitlab"
)

// DetectBackend picks a backend from the configured name, falling back to
// the remote host.
func DetectBackend(configured, host string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(configured)) {
	case GitHubBackend:
		return GitHubBackend, nil
	case GitLabBackend:
		return GitLabBackend, nil
	case "", "auto":
	default:
		return "", errors.WithHint(
			errors.Newf("unknown forge %q", configured),
			"Set ISSOL_FORGE to github or gitlab.",
		)
	}

	host = strings.ToLower(host)
	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.com"):
		return GitHubBackend, nil
	case strings.Contains(host, "gitlab"):
		return GitLabBackend, nil
	}
	return "", errors.WithHint(
		errors.Newf("cannot tell which forge hosts %q", host),
		"Set ISSOL_FORGE to github or gitlab.",
	)
}

// New constructs the backend for the repository owner/name.
func New(backend, owner, name string, opts Options) (Forge, error) {
	switch backend {
	case GitHubBackend:
		return NewGitHub(owner, name, opts)
	case GitLabBackend:
		return NewGitLab(owner+"/"+name, opts)
	}
	return nil, errors.Newf("unsupported forge %q", backend)
}
