// Package llm holds the shared contracts between the extraction engine, the
// per-provider backend clients, and the orchestration layer above them.
package llm

import (
	"context"
	"encoding/json"

	"github.com/lexakit/lexa/internal/provider"
)

// Extraction is one structured fact pulled from input text: a class label,
// the verbatim extracted span, and free-form attributes. The span is expected
// to be a quotation of the input, not a paraphrase; that policy is owned by
// the prompt, not enforced here.
type Extraction struct {
	Class      string         `json:"extraction_class"`
	Text       string         `json:"extraction_text"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Example is a few-shot demonstration pair: source text plus the extractions
// the model should have produced for it.
type Example struct {
	Text        string       `json:"text"`
	Extractions []Extraction `json:"extractions"`
}

// CallParams is the fully resolved parameter set for one backend call,
// assembled from the request, server configuration, and resolved provider.
type CallParams struct {
	Text              string
	Prompt            string
	AdditionalContext string
	Examples          []Example
	Schema            json.RawMessage

	ModelID  string
	Provider provider.Tag

	Temperature      float64
	MaxCharBuffer    int
	ExtractionPasses int
	MaxTokens        int

	APIKey  string
	BaseURL string
}

// CompletionRequest is the minimal prompt/completion contract the engine
// needs from a provider client.
type CompletionRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	APIKey      string
	BaseURL     string
}

// Completer is implemented by every provider client that can run a
// plain-text completion.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ResultKind tags the shape of a backend result so normalization is an
// explicit projection per variant instead of runtime type sniffing.
type ResultKind int

const (
	// KindRecords is an ordered sequence of typed extractions (engine path).
	KindRecords ResultKind = iota
	// KindRecord is a single extraction (edge backend wraps its completion
	// into one synthetic record).
	KindRecord
	// KindRaw is unstructured text, kept as a last-resort fallback.
	KindRaw
)

// Result is the typed intermediate produced by a backend invocation.
type Result struct {
	Kind        ResultKind
	Extractions []Extraction
	Raw         string
}
