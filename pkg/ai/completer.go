package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// Provider names.
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Ollama    = "ollama"
)

// Completer sends one system and one user message and returns the text of
// the reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Settings configure a Completer.
type Settings struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	APIKey      string
	BaseURL     string
	HTTPClient  *http.Client
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case OpenAI:
		return "gpt-4o"
	case Ollama:
		return "llama3.1"
	default:
		return "claude-3-5-sonnet-20240620"
	}
}

// NeedsAPIKey reports whether provider requires an API key.
func NeedsAPIKey(provider string) bool {
	return provider != Ollama
}

// NewCompleter builds the backend named by s.Provider.
func NewCompleter(s Settings) (Completer, error) {
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if s.Provider == "" {
		s.Provider = Anthropic
	}
	if s.Model == "" {
		s.Model = DefaultModel(s.Provider)
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 4000
	}
	if s.HTTPClient == nil {
		s.HTTPClient = http.DefaultClient
	}
	if NeedsAPIKey(s.Provider) && s.APIKey == "" {
		return nil, errors.Newf("API key is required for %s", s.Provider)
	}

	switch s.Provider {
	case Anthropic:
		return newAnthropic(s), nil
	case OpenAI:
		return newOpenAI(s), nil
	case Ollama:
		return newOllama(s)
	}
	return nil, errors.WithHint(
		errors.Newf("unknown provider %q", s.Provider),
		"Set ISSOL_PROVIDER to anthropic, openai or ollama.",
	)
}
