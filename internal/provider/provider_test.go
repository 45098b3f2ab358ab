package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		modelID string
		want    Tag
	}{
		{"gpt-4o-mini", OpenAI},
		{"gpt-4.1", OpenAI},
		{"openai/gpt-oss-120b", OpenAI},
		{"gemini-2.5-flash", Gemini},
		{"palm-2", Gemini},
		{"llama3.2:1b", Ollama},
		{"gemma2:2b", Ollama},
		{"qwen2.5-coder", Ollama},
		{"mistral-small", Ollama},
		{"phi-4", Ollama},
		{"deepseek-r1", Ollama},
		{"codellama:7b", Ollama},
		{"@cf/meta/llama-3.3-70b-instruct-fp8-fast", Edge},
		{"@cf/qwen/qwen1.5-14b-chat-awq", Edge},
		{"totally-unknown-model", Ollama},
		{"", Ollama},
	}
	for _, tt := range tests {
		t.Run(tt.modelID, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.modelID))
		})
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	assert.Equal(t, OpenAI, Resolve("GPT-4O"))
	assert.Equal(t, Gemini, Resolve("Gemini-2.5-Pro"))
	assert.Equal(t, Edge, Resolve("@CF/meta/llama-3-8b-instruct"))
}

func TestEdgePrefixBeatsLocalFamily(t *testing.T) {
	// A llama model behind the edge prefix must route to edge, not ollama.
	assert.Equal(t, Edge, Resolve("@cf/meta/llama-3.1-8b-instruct"))
}

func TestRequiresAPIKey(t *testing.T) {
	assert.True(t, OpenAI.RequiresAPIKey())
	assert.True(t, Gemini.RequiresAPIKey())
	assert.True(t, Edge.RequiresAPIKey())
	assert.False(t, Ollama.RequiresAPIKey())
}

func TestCatalogAvailability(t *testing.T) {
	hasKey := func(tag Tag) bool { return tag == Gemini || tag == Ollama }

	for _, d := range Catalog(hasKey) {
		switch d.Provider {
		case Gemini, Ollama:
			assert.True(t, d.Available, "model %s should be available", d.ModelID)
		default:
			assert.False(t, d.Available, "model %s should be unavailable without a key", d.ModelID)
		}
	}
}
