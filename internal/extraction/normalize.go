package extraction

import (
	"github.com/lexakit/lexa/internal/llm"
)

// Record is the uniform output shape every backend result is projected into.
// Callers depend on this schema being stable regardless of backend.
type Record struct {
	Class      string         `json:"class"`
	Text       string         `json:"text"`
	Attributes map[string]any `json:"attributes"`
}

// Normalize projects a typed backend result into an ordered record sequence.
// Each variant has one explicit projection arm; the raw arm stringifies
// whatever is left, trading type fidelity for a stable JSON shape.
func Normalize(res llm.Result) []Record {
	switch res.Kind {
	case llm.KindRecords:
		out := make([]Record, 0, len(res.Extractions))
		for _, e := range res.Extractions {
			out = append(out, project(e))
		}
		return out

	case llm.KindRecord:
		if len(res.Extractions) == 0 {
			return []Record{}
		}
		return []Record{project(res.Extractions[0])}

	default:
		return []Record{{Class: "result", Text: res.Raw, Attributes: map[string]any{}}}
	}
}

func project(e llm.Extraction) Record {
	attrs := e.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	return Record{Class: e.Class, Text: e.Text, Attributes: attrs}
}
