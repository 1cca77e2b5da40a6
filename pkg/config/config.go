// Package config loads issol settings from defaults, the repository's
// .issol.yaml and .env files, and the process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the optional YAML settings file in the repository root.
	FileName = ".issol.yaml"
	// EnvFileName is the optional dotenv file in the repository root.
	EnvFileName = ".env"

	ContextModeFiles = "files"
	ContextModeTree  = "tree"
)

// Config holds every setting. Credentials are never read from YAML.
type Config struct {
	GitHubToken  string `env:"GITHUB_TOKEN" yaml:"-"`
	GitLabToken  string `env:"GITLAB_TOKEN" yaml:"-"`
	AnthropicKey string `env:"ANTHROPIC_API_KEY" yaml:"-"`
	OpenAIKey    string `env:"OPENAI_API_KEY" yaml:"-"`

	Provider    string  `env:"ISSOL_PROVIDER" yaml:"provider"`
	Model       string  `env:"ISSOL_MODEL" yaml:"model"`
	MaxTokens   int64   `env:"ISSOL_MAX_TOKENS" yaml:"maxTokens"`
	Temperature float64 `env:"ISSOL_TEMPERATURE" yaml:"temperature"`
	ProviderURL string  `env:"ISSOL_PROVIDER_URL" yaml:"providerURL"`

	Forge    string `env:"ISSOL_FORGE" yaml:"forge"`
	ForgeURL string `env:"ISSOL_FORGE_URL" yaml:"forgeURL"`

	TitleMarker       string        `env:"ISSOL_TITLE_MARKER" yaml:"titleMarker"`
	ContextMode       string        `env:"ISSOL_CONTEXT_MODE" yaml:"contextMode"`
	ContextFiles      []string      `env:"ISSOL_CONTEXT_FILES" yaml:"contextFiles"`
	IgnoreFile        string        `env:"ISSOL_IGNORE_FILE" yaml:"ignoreFile"`
	MaxBranchAttempts int           `env:"ISSOL_MAX_BRANCH_ATTEMPTS" yaml:"maxBranchAttempts"`
	RequestTimeout    time.Duration `env:"ISSOL_TIMEOUT" yaml:"timeout"`
	RateLimit         float64       `env:"ISSOL_RATE_LIMIT" yaml:"rateLimit"`

	LogFile string `env:"ISSOL_LOG_FILE" yaml:"logFile"`
	Debug   bool   `env:"ISSOL_DEBUG" yaml:"debug"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Provider:       "anthropic",
		MaxTokens:      4000,
		Temperature:    0.1,
		TitleMarker:    "AI: Generate Code",
		ContextMode:    ContextModeFiles,
		ContextFiles:   []string{"README.md", "codebase.md"},
		IgnoreFile:     ".issolignore",
		RequestTimeout: 2 * time.Minute,
		RateLimit:      5,
		LogFile:        "~/.issol/issol.log",
	}
}

// Load reads the settings for the repository at root using the process
// environment.
func Load(root string) (*Config, error) {
	return LoadWithEnv(root, env.ToMap(os.Environ()))
}

// LoadWithEnv layers defaults, root/.issol.yaml, root/.env and environ, each
// overriding the previous one. Variables set to "" are treated as unset.
func LoadWithEnv(root string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if root != "" {
		data, err := os.ReadFile(filepath.Join(root, FileName))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
		}
	}

	merged := map[string]string{}
	if root != "" {
		dotenv, err := godotenv.Read(filepath.Join(root, EnvFileName))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", EnvFileName, err)
		}
		mergeSet(merged, dotenv)
	}
	mergeSet(merged, environ)

	if err := env.ParseWithOptions(cfg, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.LogFile = expandHome(cfg.LogFile)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeSet copies the non-empty values of src into dst. An empty value
// counts as unset.
func mergeSet(dst, src map[string]string) {
	for k, v := range src {
		if v != "" {
			dst[k] = v
		}
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic", "openai", "ollama":
	default:
		return fmt.Errorf("unknown provider %q (expected anthropic, openai or ollama)", c.Provider)
	}
	switch c.ContextMode {
	case ContextModeFiles, ContextModeTree:
	default:
		return fmt.Errorf("unknown context mode %q (expected %s or %s)", c.ContextMode, ContextModeFiles, ContextModeTree)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.MaxBranchAttempts < 0 {
		return fmt.Errorf("max branch attempts must not be negative, got %d", c.MaxBranchAttempts)
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
