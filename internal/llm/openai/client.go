// Package openai adapts the OpenAI chat completions API to the llm.Completer
// contract.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/lexakit/lexa/internal/llm"
)

type Client struct {
	logger *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{logger: logger}
}

// Complete implements llm.Completer. The credential and base URL arrive with
// the request because callers may override the configured key per call.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if req.APIKey == "" {
		return "", fmt.Errorf("openai: no API key available")
	}

	opts := []option.RequestOption{option.WithAPIKey(req.APIKey)}
	if req.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(req.BaseURL))
	}
	client := openai.NewClient(opts...)

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logger.Error("openai.complete.error", "model", req.Model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("openai API call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai: no completion choices returned")
	}

	c.logger.Info("openai.complete.ok",
		"model", req.Model,
		"tokens", completion.Usage.TotalTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return completion.Choices[0].Message.Content, nil
}
