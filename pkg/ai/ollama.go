package ai

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

type ollamaCompleter struct {
	client      *ollama.Client
	model       string
	maxTokens   int
	temperature float64
}

// newOllama talks to BaseURL, or to OLLAMA_HOST when BaseURL is empty.
func newOllama(s Settings) (*ollamaCompleter, error) {
	var client *ollama.Client
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama URL %q: %w", s.BaseURL, err)
		}
		client = ollama.NewClient(u, s.HTTPClient)
	} else {
		var err error
		client, err = ollama.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("could not create ollama client: %w", err)
		}
	}

	return &ollamaCompleter{
		client:      client,
		model:       s.Model,
		maxTokens:   s.MaxTokens,
		temperature: s.Temperature,
	}, nil
}

func (c *ollamaCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	stream := false
	req := &ollama.ChatRequest{
		Model: c.model,
		Messages: []ollama.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	}

	var b strings.Builder
	err := c.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	return b.String(), nil
}
