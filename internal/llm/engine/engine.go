// Package engine runs structured extraction over a plain-completion backend:
// prompt assembly, chunking, multi-pass merging, and response parsing.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexakit/lexa/internal/llm"
)

// Engine turns a text + task description into typed extraction records using
// any provider client that satisfies llm.Completer.
type Engine struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Extract runs the configured number of extraction passes over the text,
// chunked by MaxCharBuffer, and merges results in appearance order.
func (e *Engine) Extract(ctx context.Context, completer llm.Completer, params llm.CallParams) ([]llm.Extraction, error) {
	if completer == nil {
		return nil, fmt.Errorf("engine: no completer for provider %q", params.Provider)
	}

	chunks := chunkText(params.Text, params.MaxCharBuffer)
	passes := params.ExtractionPasses
	if passes <= 0 {
		passes = 1
	}

	start := time.Now()
	e.logger.Info("engine.extract.start",
		"model", params.ModelID,
		"provider", string(params.Provider),
		"chunks", len(chunks),
		"passes", passes,
		"text_len", len(params.Text),
	)

	var results []llm.Extraction
	seen := make(map[string]struct{})

	for pass := 0; pass < passes; pass++ {
		for i, chunk := range chunks {
			req := llm.CompletionRequest{
				Model:       params.ModelID,
				System:      SystemPrompt,
				User:        BuildUserPrompt(params, chunk),
				Temperature: params.Temperature,
				MaxTokens:   params.MaxTokens,
				APIKey:      params.APIKey,
				BaseURL:     params.BaseURL,
			}

			raw, err := completer.Complete(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("engine: completion failed (pass %d, chunk %d): %w", pass+1, i+1, err)
			}

			parsed, err := ParseResponse(raw)
			if err != nil {
				return nil, fmt.Errorf("engine: %w", err)
			}

			// Later passes only add records not seen before; within a pass,
			// appearance order is preserved.
			for _, ex := range parsed {
				key := ex.Class + "\x00" + ex.Text
				if _, dup := seen[key]; dup && pass > 0 {
					continue
				}
				seen[key] = struct{}{}
				results = append(results, ex)
			}
		}
	}

	e.logger.Info("engine.extract.ok",
		"model", params.ModelID,
		"results", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// chunkText splits text into pieces of at most max characters, preferring to
// break at whitespace near the boundary.
func chunkText(text string, max int) []string {
	if max <= 0 || len(text) <= max {
		return []string{text}
	}

	var chunks []string
	for len(text) > max {
		cut := max
		// Walk back to the nearest whitespace so words stay intact, but give
		// up after a reasonable distance.
		for i := max; i > max-200 && i > 0; i-- {
			if text[i-1] == ' ' || text[i-1] == '\n' || text[i-1] == '\t' {
				cut = i
				break
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
