package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/llm"
)

type stubInvoker struct {
	result llm.Result
	err    error
}

func (s stubInvoker) Invoke(context.Context, llm.CallParams) (llm.Result, error) {
	return s.result, s.err
}

func serviceConfig() *common.Config {
	return &common.Config{
		Defaults: common.ExtractionDefaults{
			ModelID:          "llama3",
			Temperature:      0.3,
			MaxCharBuffer:    1000,
			ExtractionPasses: 1,
			MaxTokens:        256,
		},
	}
}

func personResult() llm.Result {
	return llm.Result{
		Kind: llm.KindRecords,
		Extractions: []llm.Extraction{
			{Class: "person", Text: "Ada", Attributes: map[string]any{"born": "1815"}},
		},
	}
}

func TestRunDebugTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	svc := NewService(serviceConfig(), stubInvoker{result: personResult()}, logger)

	req := &Request{Text: "Ada", PromptDescription: "extract people", Debug: true}
	_, err := svc.Run(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "extract.debug")

	buf.Reset()
	req.Debug = false
	_, err = svc.Run(context.Background(), req, nil)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "extract.debug")
}

func TestRunSchemaMismatchWarnsButSucceeds(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	svc := NewService(serviceConfig(), stubInvoker{result: personResult()}, logger)

	// Results marshal as a JSON array, so an object schema cannot match.
	req := &Request{
		Text:              "Ada",
		PromptDescription: "extract people",
		Schema:            json.RawMessage(`{"type":"object"}`),
	}
	records, err := svc.Run(context.Background(), req, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, buf.String(), "extract.schema_mismatch")

	buf.Reset()
	req.Schema = json.RawMessage(`{"type":"array"}`)
	_, err = svc.Run(context.Background(), req, nil)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "extract.schema_mismatch")
}
