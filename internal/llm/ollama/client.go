// Package ollama adapts a local Ollama server to the llm.Completer contract.
// No credential: the base URL substitutes for one.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lexakit/lexa/internal/llm"
)

type Client struct {
	http   *http.Client
	logger *slog.Logger
}

func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 180 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: httpClient, logger: logger}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Complete implements llm.Completer using Ollama's non-streaming generate API.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if req.BaseURL == "" {
		return "", fmt.Errorf("ollama: no base URL configured")
	}
	url := strings.TrimRight(req.BaseURL, "/") + "/api/generate"

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	body := generateRequest{
		Model:   req.Model,
		Prompt:  req.User,
		System:  req.System,
		Stream:  false,
		Options: options,
	}

	raw, _, err := llm.SendJSON(ctx, c.http, url, body, nil, c.logger)
	if err != nil {
		return "", fmt.Errorf("ollama API request failed: %w", err)
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", resp.Error)
	}

	return resp.Response, nil
}
