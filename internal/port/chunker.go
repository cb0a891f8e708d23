package port

import "docqa/internal/domain"

type Chunker interface {
	Chunk(doc ExtractedDoc) ([]domain.Chunk, error)
}
