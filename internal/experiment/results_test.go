package experiment

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MishaK15/SmartSparse/internal/nn"
)

func TestSaveLoadResultsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	want := &Results{
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Model:     nn.Config{VocabSize: 10, ContextSize: 4, EmbedDim: 8, HiddenDim: 16, HiddenLayers: 1},
		Summaries: []SeedSummary{Summarize("demo", runsWithPPL(10, 12))},
	}
	if err := SaveResults(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadResults(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("createdAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if got.Model != want.Model {
		t.Fatalf("model = %+v, want %+v", got.Model, want.Model)
	}
	if len(got.Summaries) != 1 || got.Summaries[0].Label != "demo" || got.Summaries[0].Seeds != 2 {
		t.Fatalf("summaries = %+v", got.Summaries)
	}
}

func TestLoadResultsInitializesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	got, err := LoadResults(path)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if len(got.Summaries) != 0 {
		t.Fatalf("expected empty summaries, got %+v", got.Summaries)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected initialized file at %s: %v", path, err)
	}
}

func TestLoadResultsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadResults(path); err == nil {
		t.Fatal("expected error for malformed results file")
	}
}
