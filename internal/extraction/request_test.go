package extraction

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexakit/lexa/internal/common"
)

func validRequest() *Request {
	return &Request{Text: "some text", PromptDescription: "extract the entities"}
}

func TestValidateRequired(t *testing.T) {
	req := validRequest()
	require.NoError(t, req.Validate())

	assert.Error(t, (&Request{PromptDescription: "p"}).Validate())
	assert.Error(t, (&Request{Text: "t"}).Validate())
}

func TestValidateTemperatureBoundaries(t *testing.T) {
	tests := []struct {
		temp  float64
		valid bool
	}{
		{0.0, true},
		{2.0, true},
		{1.0, true},
		{2.01, false},
		{-0.1, false},
	}
	for _, tt := range tests {
		req := validRequest()
		req.Temperature = &tt.temp
		err := req.Validate()
		if tt.valid {
			assert.NoError(t, err, "temperature %v should pass", tt.temp)
		} else {
			require.Error(t, err, "temperature %v should fail", tt.temp)
			assert.True(t, errors.Is(err, common.ErrInvalidInput))
		}
	}
}

func TestValidatePositiveInts(t *testing.T) {
	req := validRequest()
	req.MaxCharBuffer = -5
	assert.Error(t, req.Validate())

	req = validRequest()
	req.ExtractionPasses = -1
	assert.Error(t, req.Validate())
}

func TestValidateFormatType(t *testing.T) {
	req := validRequest()
	req.FormatType = "json"
	assert.NoError(t, req.Validate())

	req.FormatType = "JSON"
	assert.NoError(t, req.Validate())

	req.FormatType = "yaml"
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
	assert.Contains(t, err.Error(), "format_type")
}

func TestValidateMalformedExamples(t *testing.T) {
	req := validRequest()
	req.Examples = json.RawMessage(`{"not":"an array"}`)
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestValidateSchema(t *testing.T) {
	req := validRequest()
	req.Schema = json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}}}`)
	assert.NoError(t, req.Validate())

	req.Schema = json.RawMessage(`{"type":"not-a-real-type"}`)
	assert.Error(t, req.Validate())
}
