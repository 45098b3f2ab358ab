// Package gemini adapts the Google generative language API to the
// llm.Completer contract.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexakit/lexa/internal/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

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
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Complete implements llm.Completer using a non-streaming generateContent call.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if req.APIKey == "" {
		return "", fmt.Errorf("gemini: no API key available")
	}

	base := req.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	// Key goes in a header, not the query string, so request logging never
	// captures it.
	url := fmt.Sprintf("%s/models/%s:generateContent", base, req.Model)
	headers := map[string]string{"x-goog-api-key": req.APIKey}

	body := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: req.User}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}

	raw, _, err := llm.SendJSON(ctx, c.http, url, body, headers, c.logger)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("gemini API error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}
