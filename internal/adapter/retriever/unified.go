package retriever

import (
	"fmt"
	"sort"

	"docqa/internal/domain"
	"docqa/internal/logger"
	"docqa/internal/port"
)

// UnifiedRetriever runs one embedded query against every collection in the
// store and merges the per-collection results into a single ranked list.
type UnifiedRetriever struct {
	store    port.VectorStore
	embedder port.Embedder
}

func NewUnifiedRetriever(store port.VectorStore, embedder port.Embedder) *UnifiedRetriever {
	return &UnifiedRetriever{
		store:    store,
		embedder: embedder,
	}
}

// Search returns the overall best k chunks across all collections, best
// first. Each collection contributes at most its own top k, so the merge
// pool holds at most collections times k candidates; a chunk ranked below
// k inside its collection cannot reach the merged result. A collection
// that fails to answer is skipped with a warning instead of failing the
// whole search.
func (r *UnifiedRetriever) Search(query string, k int) ([]domain.ScoredChunk, error) {
	if r.store == nil || r.embedder == nil {
		return nil, fmt.Errorf("search not available: store or embedder not configured")
	}
	if k <= 0 {
		return nil, nil
	}

	embeddings, err := r.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}
	vector := embeddings[0]

	infos, err := r.store.ListCollections()
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	merged := make([]domain.ScoredChunk, 0, len(infos)*k)
	for _, info := range infos {
		results, err := r.store.Query(info.Name, vector, k)
		if err != nil {
			logger.Warnf("skipping collection %q: %v", info.Name, err)
			continue
		}
		for _, res := range results {
			merged = append(merged, domain.ScoredChunk{
				Chunk: res.Chunk,
				Score: res.Score,
			})
		}
	}

	ascending := r.store.Order() == port.ScoreAscending
	sort.SliceStable(merged, func(i, j int) bool {
		if ascending {
			return merged[i].Score < merged[j].Score
		}
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}
