// Package extraction holds the core pipeline: classify the model id, assemble
// call parameters, invoke the resolved backend, and normalize the result.
package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/llm"
)

// Request is the extraction request as it arrives on the wire. Examples are
// kept raw because callers may send either a JSON array or a JSON string
// holding one; they are parsed during parameter assembly.
type Request struct {
	Text              string          `json:"text"`
	PromptDescription string          `json:"prompt_description"`
	Examples          json.RawMessage `json:"examples,omitempty"`
	ModelID           string          `json:"model_id,omitempty"`
	Temperature       *float64        `json:"temperature,omitempty"`
	MaxCharBuffer     int             `json:"max_char_buffer,omitempty"`
	ExtractionPasses  int             `json:"extraction_passes,omitempty"`
	MaxTokens         int             `json:"max_tokens,omitempty"`
	APIKey            string          `json:"api_key,omitempty"`
	ModelURL          string          `json:"model_url,omitempty"`
	AdditionalContext string          `json:"additional_context,omitempty"`
	Schema            json.RawMessage `json:"schema,omitempty"`
	FormatType        string          `json:"format_type,omitempty"`
	Debug             bool            `json:"debug,omitempty"`
	RequestID         string          `json:"request_id,omitempty"`
}

// Validate checks the request invariants: non-empty text and prompt,
// temperature within [0, 2], positive tuning values, a supported format
// type, parseable examples, and a compilable schema when one is supplied.
func (r *Request) Validate() error {
	v := common.NewValidator()
	v.Field("text", r.Text, common.Required)
	v.Field("prompt_description", r.PromptDescription, common.Required)
	v.Field("model_id", r.ModelID, common.MaxLength(256))
	if r.Temperature != nil {
		v.Field("temperature", *r.Temperature, common.TemperatureRange)
	}
	if r.MaxCharBuffer != 0 {
		v.Field("max_char_buffer", r.MaxCharBuffer, common.PositiveInt)
	}
	if r.ExtractionPasses != 0 {
		v.Field("extraction_passes", r.ExtractionPasses, common.PositiveInt)
	}
	if err := v.Error(); err != nil {
		return err
	}

	// Extraction output is always JSON; anything else is rejected up front
	// rather than silently ignored.
	if r.FormatType != "" && !strings.EqualFold(r.FormatType, "json") {
		return common.NewAppError("VALIDATION_ERROR",
			fmt.Sprintf("format_type %q is not supported; results are produced as json", r.FormatType),
			common.ErrInvalidInput)
	}

	if _, err := llm.ParseExamples(r.Examples); err != nil {
		return common.NewAppError("VALIDATION_ERROR", err.Error(), common.ErrInvalidInput)
	}
	if _, err := llm.CompileSchema(r.Schema); err != nil {
		return common.NewAppError("VALIDATION_ERROR", err.Error(), common.ErrInvalidInput)
	}
	return nil
}
