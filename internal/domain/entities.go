package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Section labels a chunk with the ingestion path that produced it.
type Section string

const (
	// SectionAll marks content obtained through regular text extraction.
	SectionAll Section = "all_sections"

	// SectionOCR marks content recovered by running OCR over page images.
	SectionOCR Section = "ocr_recovered"
)

// Sections returns every valid section label.
func Sections() []Section {
	return []Section{SectionAll, SectionOCR}
}

// ParseSection validates a section label. Anything outside the known set
// is rejected.
func ParseSection(s string) (Section, error) {
	switch Section(s) {
	case SectionAll, SectionOCR:
		return Section(s), nil
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// Chunk is one retrievable piece of a source document.
type Chunk struct {
	ID          string
	Source      string // path of the originating file
	FileName    string // base name, kept for display
	Page        int    // 1-based page number, 0 when unknown
	Position    int    // ordinal of the chunk within its source
	Section     Section
	ContentHash string
	Meta        map[string]string // scalar document metadata (title, author)
	Text        string
}

// Fingerprint returns the hex-encoded SHA-256 of the chunk text. Two chunks
// with equal text always fingerprint identically, regardless of origin.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

const maxCollectionName = 63

// SanitizeCollectionName maps an arbitrary display name onto the restricted
// charset collection names allow: spaces become underscores, every other
// character outside [A-Za-z0-9_-] is dropped, and the result is capped at
// 63 bytes.
func SanitizeCollectionName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > maxCollectionName {
		s = s[:maxCollectionName]
	}
	return s
}

// CollectionInfo is the normalized descriptor for a stored collection.
type CollectionInfo struct {
	Name      string    `json:"name"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// StructuredQuery is the parsed output of the analysis stage: a retrieval
// query plus the section the question appears to target.
type StructuredQuery struct {
	Text    string  `json:"query"`
	Section Section `json:"section"`
}

// PipelineState carries one question through the answer pipeline.
type PipelineState struct {
	Question string
	Query    StructuredQuery
	Context  []Chunk
	Answer   string
}

// PackedContext is a token-budgeted selection of snippets, exported for
// use outside the tool.
type PackedContext struct {
	Query        string    `json:"query"`
	BudgetTokens int       `json:"budget_tokens"`
	UsedTokens   int       `json:"used_tokens"`
	Snippets     []Snippet `json:"snippets"`
}

type Snippet struct {
	Source  string `json:"source"`
	Page    int    `json:"page,omitempty"`
	Section string `json:"section"`
	Why     string `json:"why"`
	Text    string `json:"text"`
}

type Stats struct {
	Collections int
	Chunks      int
	Sources     int
	EstTokens   int
}
