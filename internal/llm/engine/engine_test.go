package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexakit/lexa/internal/llm"
)

// scriptedCompleter returns canned responses in order and records requests.
type scriptedCompleter struct {
	responses []string
	requests  []llm.CompletionRequest
}

func (c *scriptedCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		return "[]", nil
	}
	resp := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	return resp, nil
}

type failingCompleter struct{}

func (failingCompleter) Complete(context.Context, llm.CompletionRequest) (string, error) {
	return "", fmt.Errorf("connection refused")
}

func params() llm.CallParams {
	return llm.CallParams{
		Text:             "The quick brown fox jumps over the lazy dog",
		Prompt:           "extract animals",
		ModelID:          "llama3.2:1b",
		Provider:         "ollama",
		Temperature:      0.3,
		MaxCharBuffer:    1000,
		ExtractionPasses: 1,
		MaxTokens:        256,
	}
}

func TestExtractSinglePass(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		`[{"extraction_class":"animal","extraction_text":"fox"},{"extraction_class":"animal","extraction_text":"dog"}]`,
	}}

	got, err := New(nil).Extract(context.Background(), completer, params())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fox", got[0].Text)
	assert.Equal(t, "dog", got[1].Text)
	require.Len(t, completer.requests, 1)
	assert.Equal(t, "llama3.2:1b", completer.requests[0].Model)
	assert.Contains(t, completer.requests[0].User, "extract animals")
}

func TestExtractMultiPassDeduplicates(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		`[{"extraction_class":"animal","extraction_text":"fox"}]`,
		`[{"extraction_class":"animal","extraction_text":"fox"},{"extraction_class":"animal","extraction_text":"dog"}]`,
	}}

	p := params()
	p.ExtractionPasses = 2
	got, err := New(nil).Extract(context.Background(), completer, p)
	require.NoError(t, err)

	// The duplicate fox from pass two is dropped; dog is new and kept.
	require.Len(t, got, 2)
	assert.Equal(t, "fox", got[0].Text)
	assert.Equal(t, "dog", got[1].Text)
}

func TestExtractChunksLongText(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		`[{"extraction_class":"word","extraction_text":"alpha"}]`,
	}}

	p := params()
	p.Text = "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	p.MaxCharBuffer = 20
	_, err := New(nil).Extract(context.Background(), completer, p)
	require.NoError(t, err)
	assert.Greater(t, len(completer.requests), 1)
}

func TestExtractCompleterFailure(t *testing.T) {
	_, err := New(nil).Extract(context.Background(), failingCompleter{}, params())
	assert.Error(t, err)
}

func TestExtractNilCompleter(t *testing.T) {
	_, err := New(nil).Extract(context.Background(), nil, params())
	assert.Error(t, err)
}
