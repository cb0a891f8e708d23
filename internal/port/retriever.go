package port

import "docqa/internal/domain"

// Retriever defines the interface for searching indexed content.
type Retriever interface {
	// Search searches for chunks matching the query and returns the top-k
	// results best first, whatever score direction the backend uses.
	Search(query string, k int) ([]domain.ScoredChunk, error)
}
