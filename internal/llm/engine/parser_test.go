package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponseArray(t *testing.T) {
	raw := `[
		{"extraction_class": "person", "extraction_text": "Lady Juliet", "attributes": {"emotion": "longing"}},
		{"extraction_class": "location", "extraction_text": "the garden"}
	]`

	got, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "person", got[0].Class)
	assert.Equal(t, "Lady Juliet", got[0].Text)
	assert.Equal(t, "longing", got[0].Attributes["emotion"])
	assert.Equal(t, "location", got[1].Class)
}

func TestParseResponseFenced(t *testing.T) {
	raw := "```json\n[{\"extraction_class\": \"person\", \"extraction_text\": \"Alice\"}]\n```"

	got, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Text)
}

func TestParseResponseSingleObject(t *testing.T) {
	raw := `{"extraction_class": "date", "extraction_text": "March 3rd"}`

	got, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "date", got[0].Class)
}

func TestParseResponseWrappedArray(t *testing.T) {
	raw := `{"extractions": [{"extraction_class": "person", "extraction_text": "Bob"}]}`

	got, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].Text)
}

func TestParseResponseRepairsMalformed(t *testing.T) {
	// Trailing prose after the array breaks strict parsing; the repair pass
	// should still recover both objects.
	raw := `Here are the extractions:
	{"extraction_class": "person", "extraction_text": "Carol", "attributes": {"role": "engineer"}},
	{"extraction_class": "company", "extraction_text": "Acme"},
	hope that helps!`

	got, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Carol", got[0].Text)
	assert.Equal(t, "Acme", got[1].Text)
}

func TestParseResponseUnparseable(t *testing.T) {
	_, err := ParseResponse("I could not find anything of note.")
	assert.Error(t, err)
}

func TestParseResponseDropsEmptyRecords(t *testing.T) {
	raw := `[
		{"extraction_class": "person", "extraction_text": "  Dana  "},
		{"extraction_class": "", "extraction_text": "orphan"},
		{"extraction_class": "thing", "extraction_text": "   "}
	]`

	got, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dana", got[0].Text)
}

func TestChunkTextPrefersWhitespace(t *testing.T) {
	text := "alpha beta gamma delta epsilon"
	chunks := chunkText(text, 12)

	require.Greater(t, len(chunks), 1)
	var rebuilt string
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 12)
		rebuilt += c
	}
	assert.Equal(t, text, rebuilt)
}

func TestChunkTextNoSplitNeeded(t *testing.T) {
	chunks := chunkText("short", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0])
}
