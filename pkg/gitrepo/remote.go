package gitrepo

import (
	"fmt"
	"net/url"
	"strings"
)

// Remote identifies a hosted repository.
type Remote struct {
	Host  string
	Owner string // may contain nested groups, e.g. "group/subgroup"
	Name  string
}

// FullName returns the canonical "owner/name" form.
func (r Remote) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRemote parses a remote URL into host, owner and repository name.
// HTTPS, scp-style SSH (git@host:owner/repo) and ssh:// URLs are accepted.
func ParseRemote(remoteURL string) (Remote, error) {
	raw := strings.TrimSpace(remoteURL)
	raw = strings.TrimSuffix(strings.TrimSuffix(raw, "/"), ".git")

	var host, p string
	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Remote{}, fmt.Errorf("invalid URL: %w", err)
		}
		host, p = u.Hostname(), u.Path
	case strings.Contains(raw, "@") && strings.Contains(raw, ":"):
		// scp-style: user@host:owner/repo
		at := strings.Index(raw, "@")
		rest := raw[at+1:]
		colon := strings.Index(rest, ":")
		host, p = rest[:colon], rest[colon+1:]
	default:
		return Remote{}, fmt.Errorf("unsupported remote URL %q", remoteURL)
	}

	parts := strings.Split(strings.Trim(p, "/"), "/")
	if host == "" || len(parts) < 2 {
		return Remote{}, fmt.Errorf("invalid repository URL format: %q", remoteURL)
	}
	for _, part := range parts {
		if part == "" {
			return Remote{}, fmt.Errorf("invalid repository URL format: %q", remoteURL)
		}
	}

	return Remote{
		Host:  strings.ToLower(host),
		Owner: strings.Join(parts[:len(parts)-1], "/"),
		Name:  parts[len(parts)-1],
	}, nil
}
