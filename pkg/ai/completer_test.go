package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompleter(t *testing.T) {
	_, err := NewCompleter(Settings{Provider: Anthropic})
	assert.Error(t, err, "anthropic needs a key")

	_, err = NewCompleter(Settings{Provider: "bard", APIKey: "k"})
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))

	c, err := NewCompleter(Settings{APIKey: "k"})
	require.NoError(t, err)
	a, ok := c.(*anthropicCompleter)
	require.True(t, ok)
	assert.Equal(t, "claude-3-5-sonnet-20240620", a.model)
	assert.Equal(t, 4000, a.maxTokens)

	c, err = NewCompleter(Settings{Provider: "Ollama", BaseURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", c.(*ollamaCompleter).model)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "gpt-4o", DefaultModel(OpenAI))
	assert.Equal(t, "llama3.1", DefaultModel(Ollama))
	assert.Equal(t, "claude-3-5-sonnet-20240620", DefaultModel(Anthropic))
	assert.False(t, NeedsAPIKey(Ollama))
	assert.True(t, NeedsAPIKey(OpenAI))
}

func TestAnthropicComplete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-sonnet-20240620",
			"content":[{"type":"text","text":"# File: a.py\n"},{"type":"text","text":"print(1)"}],
			"stop_reason":"end_turn","stop_sequence":null,
			"usage":{"input_tokens":10,"output_tokens":5}
		}`)
	}))
	defer server.Close()

	c, err := NewCompleter(Settings{
		Provider:    Anthropic,
		APIKey:      "test-key",
		BaseURL:     server.URL,
		Temperature: 0.1,
	})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "be terse", "fix it")
	require.NoError(t, err)
	assert.Equal(t, "# File: a.py\nprint(1)", out)

	assert.Equal(t, "claude-3-5-sonnet-20240620", body["model"])
	assert.EqualValues(t, 4000, body["max_tokens"])
	assert.InDelta(t, 0.1, body["temperature"], 1e-9)
	system := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "be terse", system[0].(map[string]any)["text"])
	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestAnthropicCompleteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer server.Close()

	c, err := NewCompleter(Settings{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "s", "u")
	assert.ErrorContains(t, err, "anthropic completion")
}

func TestOpenAIComplete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"message":{"role":"assistant","content":"# File: b.py\nprint(2)"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}
		}`)
	}))
	defer server.Close()

	c, err := NewCompleter(Settings{
		Provider:    OpenAI,
		APIKey:      "test-key",
		BaseURL:     server.URL,
		MaxTokens:   256,
		Temperature: 0.2,
	})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "# File: b.py\nprint(2)", out)

	assert.Equal(t, "gpt-4o", body["model"])
	assert.EqualValues(t, 256, body["max_completion_tokens"])
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "usr", messages[1].(map[string]any)["content"])
}

func TestOllamaComplete(t *testing.T) {
	var req map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"model":"llama3.1","message":{"role":"assistant","content":"print("},"done":false}`)
		fmt.Fprintln(w, `{"model":"llama3.1","message":{"role":"assistant","content":"3)"},"done":true}`)
	}))
	defer server.Close()

	c, err := NewCompleter(Settings{Provider: Ollama, BaseURL: server.URL, MaxTokens: 100})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "print(3)", out)
	assert.Equal(t, false, req["stream"])
	assert.EqualValues(t, 100, req["options"].(map[string]any)["num_predict"])
}
