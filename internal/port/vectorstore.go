package port

import "docqa/internal/domain"

// ScoreOrder declares how a store ranks its query scores.
type ScoreOrder int

const (
	// ScoreAscending means lower scores rank first (distance metrics).
	ScoreAscending ScoreOrder = iota

	// ScoreDescending means higher scores rank first (similarity metrics).
	ScoreDescending
)

// VectorStore persists chunks and their embeddings in named collections.
type VectorStore interface {
	// CreateCollection ensures a collection exists. Creating an existing
	// collection is a no-op.
	CreateCollection(name string) error

	// Add stores chunks with their vectors in the collection.
	Add(collection string, items []VectorItem) error

	// Query returns the k best-scoring chunks of the collection for the
	// vector, ordered per Order.
	Query(collection string, vector []float32, k int) ([]VectorResult, error)

	// ListCollections returns descriptors for every collection.
	ListCollections() ([]domain.CollectionInfo, error)

	// Hashes returns the set of content hashes present in the collection.
	Hashes(collection string) (map[string]struct{}, error)

	// Count returns the number of chunks in the collection.
	Count(collection string) (int, error)

	// Order reports the score direction Query results follow.
	Order() ScoreOrder

	Close() error
}

// VectorItem pairs a chunk with its embedding for storage.
type VectorItem struct {
	Chunk  domain.Chunk
	Vector []float32
}

// VectorResult is one scored hit from a collection query.
type VectorResult struct {
	Chunk domain.Chunk
	Score float64
}
