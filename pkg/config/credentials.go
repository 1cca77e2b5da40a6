package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// CredentialsFile is the per-user token store, relative to the home
// directory.
const CredentialsFile = ".issol_config.json"

// Credential is a secret the selected forge or provider needs.
type Credential struct {
	Name   string // environment variable name and store key
	Prompt string
	value  *string
}

// RequiredCredentials lists the credentials needed for the given forge
// backend and the configured provider. An empty backend needs no forge
// token.
func (c *Config) RequiredCredentials(backend string) []Credential {
	var creds []Credential
	switch backend {
	case "gitlab":
		creds = append(creds, Credential{"GITLAB_TOKEN", "Please enter your GitLab Personal Access Token", &c.GitLabToken})
	case "github":
		creds = append(creds, Credential{"GITHUB_TOKEN", "Please enter your GitHub Personal Access Token", &c.GitHubToken})
	}
	switch c.Provider {
	case "anthropic":
		creds = append(creds, Credential{"ANTHROPIC_API_KEY", "Please enter your Anthropic API Key", &c.AnthropicKey})
	case "openai":
		creds = append(creds, Credential{"OPENAI_API_KEY", "Please enter your OpenAI API Key", &c.OpenAIKey})
	}
	return creds
}

// Prompter asks the user for a secret.
type Prompter interface {
	Prompt(message string) (string, error)
}

// Store persists credentials as a JSON object keyed by variable name.
type Store struct {
	Path string
}

// DefaultStore returns the store in the user's home directory.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate home directory: %w", err)
	}
	return &Store{Path: filepath.Join(home, CredentialsFile)}, nil
}

// Load returns the stored credentials. A missing file yields an empty map.
func (s *Store) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.Path, err)
	}
	return values, nil
}

// Save writes values with owner-only permissions.
func (s *Store) Save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.Path, err)
	}
	return os.Chmod(s.Path, 0o600)
}

// EnsureCredentials fills every required credential that is still empty
// from the store, then from the prompter, saving prompted values. It
// returns the names of the credentials that were saved.
func (c *Config) EnsureCredentials(backend string, store *Store, prompter Prompter) ([]string, error) {
	var missing []Credential
	for _, cred := range c.RequiredCredentials(backend) {
		if *cred.value == "" {
			missing = append(missing, cred)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	stored, err := store.Load()
	if err != nil {
		return nil, err
	}
	var saved []string
	for _, cred := range missing {
		if v := stored[cred.Name]; v != "" {
			*cred.value = v
			continue
		}
		if prompter == nil {
			return nil, fmt.Errorf("%s is not set", cred.Name)
		}
		v, err := prompter.Prompt(cred.Prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", cred.Name, err)
		}
		*cred.value = v
		stored[cred.Name] = v
		saved = append(saved, cred.Name)
	}
	if len(saved) > 0 {
		if err := store.Save(stored); err != nil {
			return nil, err
		}
	}
	return saved, nil
}

// TermPrompter reads secrets from In, hiding input when In is a terminal.
type TermPrompter struct {
	In  *os.File
	Out io.Writer
}

// NewTermPrompter prompts on stdin and stderr.
func NewTermPrompter() *TermPrompter {
	return &TermPrompter{In: os.Stdin, Out: os.Stderr}
}

func (p *TermPrompter) Prompt(message string) (string, error) {
	fmt.Fprintf(p.Out, "%s: ", message)

	var value string
	fd := int(p.In.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", err
		}
		value = string(b)
	} else {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		value = line
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("no value provided")
	}
	return value, nil
}
