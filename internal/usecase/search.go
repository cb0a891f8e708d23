package usecase

import (
	"docqa/internal/domain"
	"docqa/internal/port"
)

// SearchUseCase runs retrieval for the CLI and the answer pipeline.
type SearchUseCase struct {
	retriever port.Retriever
	reranker  port.DiversityReranker
	expander  *ContextExpander
}

// NewSearchUseCase creates a new search use case. Reranker and expander are
// optional; nil disables them.
func NewSearchUseCase(
	retriever port.Retriever,
	reranker port.DiversityReranker,
	expander *ContextExpander,
) *SearchUseCase {
	return &SearchUseCase{
		retriever: retriever,
		reranker:  reranker,
		expander:  expander,
	}
}

// SearchScored returns the top k chunks with their scores, best first.
func (u *SearchUseCase) SearchScored(query string, k int) ([]domain.ScoredChunk, error) {
	candidates := k
	if u.reranker != nil {
		// Rerank from a wider pool so diversity has something to choose from.
		candidates = k * 2
	}

	results, err := u.retriever.Search(query, candidates)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	if u.reranker != nil {
		results = u.reranker.Rerank(results, k)
	}

	if u.expander != nil {
		expanded, err := u.expander.Expand(results)
		if err == nil {
			results = expanded
		}
	}

	return results, nil
}

// Search returns the matching chunks without scores.
func (u *SearchUseCase) Search(query string, k int) ([]domain.Chunk, error) {
	scored, err := u.SearchScored(query, k)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(scored))
	for _, sc := range scored {
		chunks = append(chunks, sc.Chunk)
	}
	return chunks, nil
}
