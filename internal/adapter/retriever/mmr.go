package retriever

import (
	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// MMRReranker implements Maximal Marginal Relevance for result diversification.
type MMRReranker struct {
	lambda       float64
	dedupJaccard float64
	order        port.ScoreOrder
	tokenizer    *analyzer.Tokenizer
}

// NewMMRReranker creates a new MMR reranker. The order parameter tells it
// how to read candidate scores: ascending scores are distances where lower
// is more relevant, descending scores are similarities.
func NewMMRReranker(lambda, dedupJaccard float64, order port.ScoreOrder) *MMRReranker {
	return &MMRReranker{
		lambda:       lambda,
		dedupJaccard: dedupJaccard,
		order:        order,
		tokenizer:    analyzer.NewTokenizer(),
	}
}

// Rerank applies MMR to diversify the results.
// MMR(c) = λ * relevance(c) - (1-λ) * max_similarity(c, selected)
func (r *MMRReranker) Rerank(candidates []domain.ScoredChunk, k int) []domain.ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}

	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := r.normalizeScores(candidates)

	tokens := make([][]string, len(candidates))
	for i, c := range candidates {
		tokens[i] = r.tokenizer.Tokenize(c.Chunk.Text)
	}

	type entry struct {
		chunk     domain.ScoredChunk
		relevance float64
		tokens    []string
	}
	remaining := make([]entry, len(candidates))
	for i, c := range candidates {
		remaining[i] = entry{chunk: c, relevance: relevance[i], tokens: tokens[i]}
	}

	selected := make([]domain.ScoredChunk, 0, k)
	selectedTokens := make([][]string, 0, k)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e9

		for i, candidate := range remaining {
			// Maximum similarity to already selected items
			maxSim := 0.0
			for _, sel := range selectedTokens {
				sim := jaccardSimilarity(candidate.tokens, sel)
				if sim > maxSim {
					maxSim = sim
				}
			}

			// Skip near-duplicates of an already selected item
			if maxSim > r.dedupJaccard {
				continue
			}

			mmr := r.lambda*candidate.relevance - (1-r.lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			// All remaining candidates are too similar, stop
			break
		}

		selected = append(selected, remaining[bestIdx].chunk)
		selectedTokens = append(selectedTokens, remaining[bestIdx].tokens)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// normalizeScores maps raw scores to relevance with 1 most relevant,
// regardless of whether the scores are distances or similarities.
func (r *MMRReranker) normalizeScores(candidates []domain.ScoredChunk) []float64 {
	// Normalize scores to [0, 1] for fair comparison
	maxScore := candidates[0].Score
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		if r.order == port.ScoreAscending {
			relevance[i] = 1 - c.Score/maxScore
		} else {
			relevance[i] = c.Score / maxScore
		}
	}
	return relevance
}

// jaccardSimilarity computes the Jaccard similarity between two token sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}

	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, exists := setB[t]; exists {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// JaccardSimilarity is exported for testing.
func JaccardSimilarity(a, b []string) float64 {
	return jaccardSimilarity(a, b)
}
