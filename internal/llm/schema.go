package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema compiles a caller-supplied JSON schema so a malformed schema
// is rejected at request admission instead of mid-extraction.
func CompileSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("request-schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("request-schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateAgainstSchema validates data against a raw JSON schema.
func ValidateAgainstSchema(raw json.RawMessage, data []byte) error {
	schema, err := CompileSchema(raw)
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ParseExamples accepts few-shot examples either as an already-typed array or
// as a JSON string holding one, mirroring the request wire format.
func ParseExamples(raw json.RawMessage) ([]Example, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	// A JSON string payload carries the array encoded once more.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil, nil
		}
		raw = json.RawMessage(s)
	}

	var examples []Example
	if err := json.Unmarshal(raw, &examples); err != nil {
		return nil, fmt.Errorf("examples must be a JSON array of {text, extractions}: %w", err)
	}
	return examples, nil
}
