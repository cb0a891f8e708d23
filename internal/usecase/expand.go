package usecase

import (
	"sort"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// ChunkSource looks up every stored chunk that came from one source file.
type ChunkSource interface {
	ChunksBySource(source string) ([]domain.Chunk, error)
}

// ContextExpander widens search results with the chunks that sit directly
// before and after each hit in its source document. A hit often cuts an
// explanation in half; its neighbors carry the other half.
type ContextExpander struct {
	store        ChunkSource
	order        port.ScoreOrder
	maxExpansion int
}

// NewContextExpander creates a new context expander.
func NewContextExpander(store ChunkSource, order port.ScoreOrder) *ContextExpander {
	return &ContextExpander{
		store:        store,
		order:        order,
		maxExpansion: 3,
	}
}

// Expand appends neighboring chunks to the results. Hits keep their rank
// order; neighbors follow with a discounted score.
func (e *ContextExpander) Expand(results []domain.ScoredChunk) ([]domain.ScoredChunk, error) {
	if len(results) == 0 {
		return results, nil
	}

	included := make(map[string]bool, len(results))
	for _, r := range results {
		included[r.Chunk.ID] = true
	}

	expanded := make([]domain.ScoredChunk, 0, len(results))
	expanded = append(expanded, results...)

	for _, r := range results {
		siblings, err := e.store.ChunksBySource(r.Chunk.Source)
		if err != nil {
			continue
		}
		sort.Slice(siblings, func(i, j int) bool {
			return siblings[i].Position < siblings[j].Position
		})

		added := 0
		for _, sib := range siblings {
			if added >= e.maxExpansion {
				break
			}
			if included[sib.ID] {
				continue
			}
			d := sib.Position - r.Chunk.Position
			if d != -1 && d != 1 {
				continue
			}
			expanded = append(expanded, domain.ScoredChunk{
				Chunk: sib,
				Score: e.discounted(r.Score),
			})
			included[sib.ID] = true
			added++
		}
	}

	return expanded, nil
}

// discounted ranks a neighbor behind the hit that pulled it in, whichever
// direction the scores run.
func (e *ContextExpander) discounted(score float64) float64 {
	if e.order == port.ScoreAscending {
		return score + 0.5
	}
	return score * 0.5
}
