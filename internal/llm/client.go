// Package llm is an optional OpenAI-compatible client used only to rephrase
// already-computed explanation sentences. It never sees raw documents and
// never contributes numbers.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clarabill/internal/config"
)

const systemPrompt = "You rewrite one sentence about a medical bill line item in plain, friendly language. " +
	"Keep every number, code and dollar amount exactly as given. Reply with the rewritten sentence only."

// Client calls a chat-completions endpoint. Implements port.SentenceRewriter.
type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
}

// NewClient creates a Client. The HTTP timeout doubles as the hard ceiling on
// a rewrite; the per-call context can only shorten it.
func NewClient(cfg config.LLMConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Rewrite asks the model for a friendlier phrasing of sentence. Any failure
// is returned to the caller, which keeps the deterministic sentence.
func (c *Client) Rewrite(ctx context.Context, sentence string) (string, error) {
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: sentence},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	bs, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding rewrite request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return "", fmt.Errorf("building rewrite request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("rewrite request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading rewrite response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("rewrite request: status %d: %s", resp.StatusCode, truncate(string(raw), 256))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decoding rewrite response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("rewrite request: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("rewrite response had no choices")
	}
	out := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("rewrite response was empty")
	}
	return out, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
