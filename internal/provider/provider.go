// Package provider classifies model identifiers into backend providers and
// carries the static catalog exposed by the models endpoint.
package provider

import "strings"

// Tag identifies a backend capable of running a model.
type Tag string

const (
	OpenAI Tag = "openai"
	Gemini Tag = "gemini"
	Ollama Tag = "ollama"
	Edge   Tag = "edge-inference"
)

// EdgePrefix marks model identifiers served by the edge-inference backend,
// e.g. "@cf/meta/llama-3.3-70b-instruct-fp8-fast".
const EdgePrefix = "@cf/"

// localFamilies are model family names that resolve to the local provider.
var localFamilies = []string{
	"llama", "gemma", "qwen", "mistral", "phi", "deepseek", "codellama",
}

// Resolve maps a model identifier to a provider tag. Matching is
// case-insensitive and priority ordered; unknown identifiers fall back to
// the local provider rather than failing.
func Resolve(modelID string) Tag {
	id := strings.ToLower(strings.TrimSpace(modelID))

	switch {
	case strings.Contains(id, "gpt") || strings.Contains(id, "openai"):
		return OpenAI
	case strings.Contains(id, "gemini") || strings.Contains(id, "palm"):
		return Gemini
	case strings.HasPrefix(id, EdgePrefix):
		return Edge
	}

	for _, family := range localFamilies {
		if strings.Contains(id, family) {
			return Ollama
		}
	}

	return Ollama
}

// RequiresAPIKey reports whether the provider refuses calls without a
// credential. Local and edge note: the edge backend authenticates with an
// account-scoped token, which counts as a credential here.
func (t Tag) RequiresAPIKey() bool {
	switch t {
	case OpenAI, Gemini, Edge:
		return true
	default:
		return false
	}
}
