// Package edge calls an edge-inference API (Cloudflare Workers AI shape).
// The backend has no native structured-extraction mode, so callers assemble
// the prompt and wrap the plain completion themselves.
package edge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/llm"
)

// MaxTokensCeiling bounds every edge call regardless of the request; the edge
// API rejects unbounded generations.
const MaxTokensCeiling = 2048

type Client struct {
	baseURL   string
	accountID string
	http      *http.Client
	logger    *slog.Logger
}

func NewClient(baseURL, accountID string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 180 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accountID: accountID,
		http:      httpClient,
		logger:    logger,
	}
}

type runRequest struct {
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type runResponse struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Run posts prompt+text to {base}/{account}/ai/run/{model} and returns the
// completion text. Non-2xx responses surface as BackendError with the status
// code and body.
func (c *Client) Run(ctx context.Context, params llm.CallParams) (string, error) {
	if params.APIKey == "" {
		return "", fmt.Errorf("edge-inference: no API token available")
	}
	if c.accountID == "" {
		return "", fmt.Errorf("edge-inference: no account ID configured")
	}

	url := fmt.Sprintf("%s/%s/ai/run/%s", c.baseURL, c.accountID, params.ModelID)

	prompt := strings.TrimSpace(params.Prompt) + "\n\n" + params.Text
	body := runRequest{
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: params.Temperature,
		MaxTokens:   MaxTokensCeiling,
	}
	headers := map[string]string{"Authorization": "Bearer " + params.APIKey}

	raw, status, err := llm.SendJSON(ctx, c.http, url, body, headers, c.logger)
	if err != nil {
		if status != 0 {
			return "", &common.BackendError{
				Provider:   "edge-inference",
				StatusCode: status,
				Body:       string(raw),
			}
		}
		return "", &common.BackendError{Provider: "edge-inference", Cause: err}
	}

	var resp runResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("edge-inference: decode response: %w", err)
	}
	if !resp.Success {
		msg := "unknown error"
		if len(resp.Errors) > 0 {
			msg = fmt.Sprintf("%d: %s", resp.Errors[0].Code, resp.Errors[0].Message)
		}
		return "", &common.BackendError{Provider: "edge-inference", StatusCode: status, Body: msg}
	}

	return resp.Result.Response, nil
}
