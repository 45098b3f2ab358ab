package engine

import (
	"encoding/json"
	"strings"

	"github.com/lexakit/lexa/internal/llm"
)

// SystemPrompt instructs the model to return structured JSON only.
const SystemPrompt = `You are a structured information extraction assistant.
Extract the facts the task describes from the given text.
Return ONLY a valid JSON array of extraction objects.
No markdown, no explanation. Start with [ and end with ].`

// BuildUserPrompt constructs the extraction prompt for one chunk of text:
// the task description, the record contract, optional few-shot examples
// rendered as JSON, optional schema constraint, and the source text.
func BuildUserPrompt(params llm.CallParams, chunk string) string {
	var sb strings.Builder

	sb.WriteString("TASK:\n")
	sb.WriteString(strings.TrimSpace(params.Prompt))
	sb.WriteString("\n\n")

	if ctx := strings.TrimSpace(params.AdditionalContext); ctx != "" {
		sb.WriteString("CONTEXT:\n")
		sb.WriteString(ctx)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Each extraction object:\n")
	sb.WriteString("- \"extraction_class\": category of the fact (string)\n")
	sb.WriteString("- \"extraction_text\": the EXACT text span from the source, verbatim (string)\n")
	sb.WriteString("- \"attributes\": optional object of attribute name to value\n\n")

	sb.WriteString("RULES:\n")
	sb.WriteString("1. extraction_text must be quoted verbatim from the text, never paraphrased\n")
	sb.WriteString("2. Preserve the order facts appear in the text\n")
	sb.WriteString("3. Return [] if nothing matches the task\n\n")

	if len(params.Examples) > 0 {
		sb.WriteString("EXAMPLES:\n")
		for _, ex := range params.Examples {
			sb.WriteString("Text: ")
			sb.WriteString(ex.Text)
			sb.WriteString("\nExtractions: ")
			if b, err := json.Marshal(ex.Extractions); err == nil {
				sb.Write(b)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(params.Schema) > 0 {
		sb.WriteString("Attributes must conform to this JSON Schema:\n")
		sb.Write(params.Schema)
		sb.WriteString("\n\n")
	}

	sb.WriteString("TEXT:\n")
	sb.WriteString(chunk)

	return sb.String()
}
