package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/lexakit/lexa/internal/llm"
)

// ParseResponse parses a raw model response into extractions. Handles
// markdown code fences and attempts regex repair on malformed JSON.
func ParseResponse(raw string) ([]llm.Extraction, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil, nil
	}

	// Try parsing as an array of extraction objects.
	var items []llm.Extraction
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return filterExtractions(items), nil
	}

	// A single object is accepted and wrapped.
	var single llm.Extraction
	if err := json.Unmarshal([]byte(cleaned), &single); err == nil && single.Class != "" {
		return filterExtractions([]llm.Extraction{single}), nil
	}

	// Some models wrap the array in {"extractions": [...]}.
	var wrapped struct {
		Extractions []llm.Extraction `json:"extractions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil && len(wrapped.Extractions) > 0 {
		return filterExtractions(wrapped.Extractions), nil
	}

	// Last resort: regex repair.
	repaired := repairExtractions(cleaned)
	if len(repaired) == 0 {
		return nil, fmt.Errorf("engine: failed to parse model response")
	}
	return repaired, nil
}

// stripCodeFence removes markdown code block wrappers (```json ... ```).
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// filterExtractions drops records with no class or empty span and trims both.
func filterExtractions(items []llm.Extraction) []llm.Extraction {
	out := make([]llm.Extraction, 0, len(items))
	for _, e := range items {
		e.Class = strings.TrimSpace(e.Class)
		e.Text = strings.TrimSpace(e.Text)
		if e.Class == "" || e.Text == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// extractionPattern matches complete extraction objects inside otherwise
// malformed output.
var extractionPattern = regexp.MustCompile(
	`\{\s*"extraction_class"\s*:\s*"[^"]+"\s*,\s*"extraction_text"\s*:\s*"[^"]*"\s*(?:,\s*"attributes"\s*:\s*\{[^{}]*\})?\s*\}`,
)

// repairExtractions attempts to recover extraction objects from malformed JSON.
func repairExtractions(raw string) []llm.Extraction {
	matches := extractionPattern.FindAllString(raw, -1)
	out := make([]llm.Extraction, 0, len(matches))
	for _, m := range matches {
		var e llm.Extraction
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			continue
		}
		e.Class = strings.TrimSpace(e.Class)
		e.Text = strings.TrimSpace(e.Text)
		if e.Class == "" || e.Text == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}
