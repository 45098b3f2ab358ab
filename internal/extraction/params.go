package extraction

import (
	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/llm"
	"github.com/lexakit/lexa/internal/provider"
)

// BuildCallParams merges the request with environment-sourced defaults into a
// fully resolved parameter set. Credential priority: caller-supplied key,
// then the configured key for the resolved provider, then none. A missing
// credential is not a preflight failure here; hosted backends reject the
// call themselves and the error surfaces as a backend failure.
func BuildCallParams(req *Request, tag provider.Tag, cfg *common.Config) (llm.CallParams, error) {
	examples, err := llm.ParseExamples(req.Examples)
	if err != nil {
		return llm.CallParams{}, common.NewAppError("VALIDATION_ERROR", err.Error(), common.ErrInvalidInput)
	}

	params := llm.CallParams{
		Text:              req.Text,
		Prompt:            req.PromptDescription,
		AdditionalContext: req.AdditionalContext,
		Examples:          examples,
		Schema:            req.Schema,
		ModelID:           req.ModelID,
		Provider:          tag,
		Temperature:       cfg.Defaults.Temperature,
		MaxCharBuffer:     cfg.Defaults.MaxCharBuffer,
		ExtractionPasses:  cfg.Defaults.ExtractionPasses,
		MaxTokens:         cfg.Defaults.MaxTokens,
	}

	if params.ModelID == "" {
		params.ModelID = cfg.Defaults.ModelID
		params.Provider = provider.Resolve(params.ModelID)
	}
	if req.Temperature != nil {
		params.Temperature = *req.Temperature
	}
	if req.MaxCharBuffer > 0 {
		params.MaxCharBuffer = req.MaxCharBuffer
	}
	if req.ExtractionPasses > 0 {
		params.ExtractionPasses = req.ExtractionPasses
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = req.MaxTokens
	}

	params.APIKey = req.APIKey
	if params.APIKey == "" {
		params.APIKey = cfg.Providers.APIKeyForProvider(string(params.Provider))
	}

	// The local provider substitutes a base URL for a credential. A custom
	// model URL overrides the configured endpoint for any provider.
	if params.Provider == provider.Ollama {
		params.BaseURL = req.ModelURL
		if params.BaseURL == "" {
			params.BaseURL = cfg.Providers.OllamaBaseURL
		}
	} else if req.ModelURL != "" {
		params.BaseURL = req.ModelURL
	}

	return params, nil
}
