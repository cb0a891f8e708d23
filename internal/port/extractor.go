package port

import "docqa/internal/domain"

// ExtractedDoc is one unit of extracted text, at most one page of a source
// file. Page is 0 when the source has no page structure.
type ExtractedDoc struct {
	Source   string
	FileName string
	Page     int
	Section  domain.Section
	Metadata map[string]string
	Text     string
}

// Extractor turns a file on disk into extracted text units.
type Extractor interface {
	Extract(path string) ([]ExtractedDoc, error)
}
