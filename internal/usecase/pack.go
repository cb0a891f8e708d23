package usecase

import (
	"fmt"
	"sort"
	"strings"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// PackUseCase packs retrieval results into a token budget for export.
type PackUseCase struct {
	tokenizer *analyzer.Tokenizer
	order     port.ScoreOrder
}

// NewPackUseCase creates a new pack use case.
func NewPackUseCase(tokenizer *analyzer.Tokenizer, order port.ScoreOrder) *PackUseCase {
	return &PackUseCase{
		tokenizer: tokenizer,
		order:     order,
	}
}

// Pack packs scored chunks into a context that fits the token budget.
func (u *PackUseCase) Pack(query string, chunks []domain.ScoredChunk, budget int) (domain.PackedContext, error) {
	if len(chunks) == 0 {
		return domain.PackedContext{
			Query:        query,
			BudgetTokens: budget,
			UsedTokens:   0,
			Snippets:     []domain.Snippet{},
		}, nil
	}

	// Rank by utility: relevance per token spent.
	type rankedChunk struct {
		chunk   domain.ScoredChunk
		utility float64
		tokens  int
	}

	ranked := make([]rankedChunk, 0, len(chunks))
	for _, c := range chunks {
		tokens := u.tokenizer.CountTokens(c.Chunk.Text)
		if tokens == 0 {
			tokens = 1
		}
		utility := u.relevance(c.Score) / float64(tokens)
		ranked = append(ranked, rankedChunk{
			chunk:   c,
			utility: utility,
			tokens:  tokens,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].utility > ranked[j].utility
	})

	// Greedy selection until the budget is exhausted
	selected := make([]domain.ScoredChunk, 0)
	usedTokens := 0

	for _, rc := range ranked {
		if usedTokens+rc.tokens > budget {
			continue
		}
		selected = append(selected, rc.chunk)
		usedTokens += rc.tokens
	}

	merged := u.mergeAdjacentChunks(selected)

	snippets := make([]domain.Snippet, 0, len(merged))
	for _, sc := range merged {
		snippets = append(snippets, domain.Snippet{
			Source:  sc.Chunk.Source,
			Page:    sc.Chunk.Page,
			Section: string(sc.Chunk.Section),
			Why:     u.scoreNote(sc.Score),
			Text:    sc.Chunk.Text,
		})
	}

	// Recalculate used tokens after merging
	usedTokens = 0
	for _, s := range snippets {
		usedTokens += u.tokenizer.CountTokens(s.Text)
	}

	return domain.PackedContext{
		Query:        query,
		BudgetTokens: budget,
		UsedTokens:   usedTokens,
		Snippets:     snippets,
	}, nil
}

// relevance maps a raw score to higher-is-better. Cosine distance lives in
// [0, 2], so half the complement lands in [0, 1].
func (u *PackUseCase) relevance(score float64) float64 {
	if u.order == port.ScoreAscending {
		return (2 - score) / 2
	}
	return score
}

func (u *PackUseCase) scoreNote(score float64) string {
	if u.order == port.ScoreAscending {
		return fmt.Sprintf("distance %.3f", score)
	}
	return fmt.Sprintf("similarity %.3f", score)
}

// mergeAdjacentChunks joins chunks that follow each other in the same
// source file into one snippet.
func (u *PackUseCase) mergeAdjacentChunks(chunks []domain.ScoredChunk) []domain.ScoredChunk {
	if len(chunks) <= 1 {
		return chunks
	}

	bySource := make(map[string][]domain.ScoredChunk)
	var sources []string
	for _, c := range chunks {
		if _, seen := bySource[c.Chunk.Source]; !seen {
			sources = append(sources, c.Chunk.Source)
		}
		bySource[c.Chunk.Source] = append(bySource[c.Chunk.Source], c)
	}

	result := make([]domain.ScoredChunk, 0, len(chunks))

	for _, source := range sources {
		group := bySource[source]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Chunk.Position < group[j].Chunk.Position
		})

		i := 0
		for i < len(group) {
			merged := group[i]
			end := merged.Chunk.Position
			j := i + 1

			for j < len(group) {
				next := group[j]
				if next.Chunk.Position != end+1 {
					break
				}
				merged.Chunk.Text = joinOverlapping(merged.Chunk.Text, next.Chunk.Text)
				merged.Score = u.betterScore(merged.Score, next.Score)
				end = next.Chunk.Position
				j++
			}

			result = append(result, merged)
			i = j
		}
	}

	return result
}

func (u *PackUseCase) betterScore(a, b float64) float64 {
	if u.order == port.ScoreAscending {
		if a < b {
			return a
		}
		return b
	}
	if a > b {
		return a
	}
	return b
}

// joinOverlapping concatenates b onto a, dropping the longest prefix of b
// that a already ends with. Consecutive chunks share their overlap region,
// and repeating it in a merged snippet would waste budget.
func joinOverlapping(a, b string) string {
	max := len(b)
	if len(a) < max {
		max = len(a)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(a, b[:n]) {
			return a + b[n:]
		}
	}
	return a + "\n" + b
}
