package extraction

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lexakit/lexa/internal/llm"
)

func TestNormalizeRecords(t *testing.T) {
	res := llm.Result{
		Kind: llm.KindRecords,
		Extractions: []llm.Extraction{
			{Class: "person", Text: "Marie Curie", Attributes: map[string]any{"field": "physics"}},
			{Class: "award", Text: "Nobel Prize"},
		},
	}

	got := Normalize(res)
	want := []Record{
		{Class: "person", Text: "Marie Curie", Attributes: map[string]any{"field": "physics"}},
		{Class: "award", Text: "Nobel Prize", Attributes: map[string]any{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	res := llm.Result{Kind: llm.KindRecords}
	for _, text := range []string{"first", "second", "third", "fourth"} {
		res.Extractions = append(res.Extractions, llm.Extraction{Class: "item", Text: text})
	}

	got := Normalize(res)
	if len(got) != 4 {
		t.Fatalf("expected 4 records, got %d", len(got))
	}
	for i, text := range []string{"first", "second", "third", "fourth"} {
		if got[i].Text != text {
			t.Errorf("record %d: expected %q, got %q", i, text, got[i].Text)
		}
	}
}

func TestNormalizeSingleRecord(t *testing.T) {
	res := llm.Result{
		Kind: llm.KindRecord,
		Extractions: []llm.Extraction{
			{Class: "response", Text: "plain completion text", Attributes: map[string]any{}},
		},
	}

	got := Normalize(res)
	want := []Record{{Class: "response", Text: "plain completion text", Attributes: map[string]any{}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeRawFallback(t *testing.T) {
	got := Normalize(llm.Result{Kind: llm.KindRaw, Raw: "unstructured output"})
	want := []Record{{Class: "result", Text: "unstructured output", Attributes: map[string]any{}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeNeverNilAttributes(t *testing.T) {
	res := llm.Result{
		Kind:        llm.KindRecords,
		Extractions: []llm.Extraction{{Class: "a", Text: "b", Attributes: nil}},
	}
	for _, rec := range Normalize(res) {
		if rec.Attributes == nil {
			t.Errorf("record %q has nil attributes", rec.Text)
		}
	}
}
