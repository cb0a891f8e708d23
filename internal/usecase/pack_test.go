package usecase

import (
	"strings"
	"testing"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
	"docqa/internal/port"
)

func packChunk(id string, position int, text string) domain.Chunk {
	return domain.Chunk{
		ID:       id,
		Source:   "/docs/report.pdf",
		FileName: "report.pdf",
		Page:     1,
		Position: position,
		Section:  domain.SectionAll,
		Text:     text,
	}
}

func TestPackBudget(t *testing.T) {
	packUC := NewPackUseCase(analyzer.NewTokenizer(), port.ScoreAscending)

	chunks := []domain.ScoredChunk{
		{Chunk: packChunk("c1", 0, "This is a short chunk of text"), Score: 0.1},
		{Chunk: packChunk("c2", 2, "Another chunk with some more text here for testing purposes"), Score: 0.3},
		{Chunk: packChunk("c3", 4, "Yet another chunk"), Score: 0.5},
	}

	packed, err := packUC.Pack("test query", chunks, 20)
	if err != nil {
		t.Fatal(err)
	}

	if packed.UsedTokens > 20 {
		t.Errorf("packed context exceeds budget: %d > 20", packed.UsedTokens)
	}
	if packed.BudgetTokens != 20 {
		t.Errorf("expected budget 20, got %d", packed.BudgetTokens)
	}
	if len(packed.Snippets) == 0 {
		t.Fatal("expected at least one snippet within budget")
	}

	packed, err = packUC.Pack("test query", chunks, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if len(packed.Snippets) != 3 {
		t.Errorf("expected 3 snippets with a large budget, got %d", len(packed.Snippets))
	}

	for _, s := range packed.Snippets {
		if s.Source == "" {
			t.Error("snippet missing source")
		}
		if s.Section == "" {
			t.Error("snippet missing section")
		}
		if !strings.HasPrefix(s.Why, "distance ") {
			t.Errorf("expected distance note for ascending scores, got %q", s.Why)
		}
	}
}

func TestPackEmptyChunks(t *testing.T) {
	packUC := NewPackUseCase(analyzer.NewTokenizer(), port.ScoreAscending)

	packed, err := packUC.Pack("test query", nil, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if packed.UsedTokens != 0 {
		t.Errorf("expected 0 used tokens for empty chunks, got %d", packed.UsedTokens)
	}
	if len(packed.Snippets) != 0 {
		t.Errorf("expected 0 snippets for empty chunks, got %d", len(packed.Snippets))
	}
}

func TestPackMergeAdjacent(t *testing.T) {
	packUC := NewPackUseCase(analyzer.NewTokenizer(), port.ScoreAscending)

	chunks := []domain.ScoredChunk{
		{Chunk: packChunk("c1", 0, "one two three"), Score: 0.1},
		{Chunk: packChunk("c2", 1, "three four five"), Score: 0.2},
		{Chunk: packChunk("c3", 5, "somewhere else entirely"), Score: 0.3},
	}

	packed, err := packUC.Pack("test", chunks, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if len(packed.Snippets) != 2 {
		t.Fatalf("expected adjacent chunks to merge into 2 snippets, got %d", len(packed.Snippets))
	}

	merged := packed.Snippets[0]
	if merged.Text != "one two three four five" {
		t.Errorf("expected overlap-deduplicated merge, got %q", merged.Text)
	}
}

func TestPackUtilityRanking(t *testing.T) {
	packUC := NewPackUseCase(analyzer.NewTokenizer(), port.ScoreAscending)

	long := strings.Repeat("densely packed explanation with many words ", 5)
	chunks := []domain.ScoredChunk{
		{Chunk: packChunk("big", 0, long), Score: 0.1},
		{Chunk: packChunk("small", 9, "compact useful"), Score: 0.3},
	}

	packed, err := packUC.Pack("test", chunks, 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(packed.Snippets) != 1 {
		t.Fatalf("expected exactly the small chunk to fit, got %d snippets", len(packed.Snippets))
	}
	if packed.Snippets[0].Text != "compact useful" {
		t.Errorf("expected the cheaper chunk to win the budget, got %q", packed.Snippets[0].Text)
	}
}

func TestPackSimilarityNote(t *testing.T) {
	packUC := NewPackUseCase(analyzer.NewTokenizer(), port.ScoreDescending)

	chunks := []domain.ScoredChunk{
		{Chunk: packChunk("c1", 0, "some text"), Score: 0.9},
	}

	packed, err := packUC.Pack("test", chunks, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(packed.Snippets) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(packed.Snippets))
	}
	if !strings.HasPrefix(packed.Snippets[0].Why, "similarity ") {
		t.Errorf("expected similarity note for descending scores, got %q", packed.Snippets[0].Why)
	}
}
