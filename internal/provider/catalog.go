package provider

// Descriptor describes one model offered through the API. Static data, not
// mutated at runtime.
type Descriptor struct {
	ModelID        string `json:"model_id"`
	Provider       Tag    `json:"provider"`
	Description    string `json:"description"`
	RequiresAPIKey bool   `json:"requires_api_key"`
	Available      bool   `json:"available"`
}

// Catalog returns the supported model list. hasKey reports whether a
// credential is configured for the given provider tag.
func Catalog(hasKey func(Tag) bool) []Descriptor {
	models := []Descriptor{
		{ModelID: "gemini-2.5-flash", Provider: Gemini, Description: "Fast and efficient Gemini model", RequiresAPIKey: true},
		{ModelID: "gemini-2.5-pro", Provider: Gemini, Description: "Advanced Gemini model for complex tasks", RequiresAPIKey: true},
		{ModelID: "gpt-4o", Provider: OpenAI, Description: "OpenAI GPT-4 Omni model", RequiresAPIKey: true},
		{ModelID: "gpt-4o-mini", Provider: OpenAI, Description: "Smaller, faster GPT-4 model", RequiresAPIKey: true},
		{ModelID: "llama3.2:1b", Provider: Ollama, Description: "Local Llama 3.2 1B model", RequiresAPIKey: false},
		{ModelID: "llama3.2:3b", Provider: Ollama, Description: "Local Llama 3.2 3B model", RequiresAPIKey: false},
		{ModelID: "gemma2:2b", Provider: Ollama, Description: "Local Gemma 2 2B model", RequiresAPIKey: false},
		{ModelID: "qwen2.5:1.5b", Provider: Ollama, Description: "Local Qwen 2.5 1.5B model", RequiresAPIKey: false},
		{ModelID: "@cf/meta/llama-3.3-70b-instruct-fp8-fast", Provider: Edge, Description: "Llama 3.3 70B on edge inference", RequiresAPIKey: true},
	}

	for i := range models {
		if !models[i].RequiresAPIKey {
			models[i].Available = true
		} else if hasKey != nil {
			models[i].Available = hasKey(models[i].Provider)
		}
	}
	return models
}
