package chunker

import (
	"strings"

	"github.com/google/uuid"

	"docqa/internal/domain"
	"docqa/internal/port"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators is the boundary hierarchy tried in order: paragraph
// breaks, then line breaks, then word breaks, then a hard cut.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter produces overlapping chunks of roughly size characters,
// preferring to cut at the coarsest separator present. A document no longer
// than size passes through as a single chunk equal to the whole text.
type RecursiveSplitter struct {
	size       int
	overlap    int
	separators []string
}

func NewRecursiveSplitter(size, overlap int) *RecursiveSplitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 4
	}
	return &RecursiveSplitter{
		size:       size,
		overlap:    overlap,
		separators: DefaultSeparators,
	}
}

func (s *RecursiveSplitter) Chunk(doc port.ExtractedDoc) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}

	var pieces []string
	if len(doc.Text) <= s.size {
		pieces = []string{doc.Text}
	} else {
		pieces = s.split(doc.Text, s.separators)
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for _, text := range pieces {
		if strings.TrimSpace(text) == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:          uuid.New().String(),
			Source:      doc.Source,
			FileName:    doc.FileName,
			Page:        doc.Page,
			Position:    len(chunks),
			Section:     doc.Section,
			ContentHash: domain.Fingerprint(text),
			Meta:        doc.Metadata,
			Text:        text,
		})
	}
	return chunks, nil
}

// split cuts text at the first separator of seps it contains, re-splitting
// oversized parts with the finer separators that remain.
func (s *RecursiveSplitter) split(text string, seps []string) []string {
	sep := ""
	var rest []string
	found := false
	for i, cand := range seps {
		if cand == "" {
			break
		}
		if strings.Contains(text, cand) {
			sep, rest, found = cand, seps[i+1:], true
			break
		}
	}
	if !found {
		return s.hardCut(text)
	}

	parts := strings.SplitAfter(text, sep)

	var out, good []string
	flush := func() {
		if len(good) > 0 {
			out = append(out, s.merge(good)...)
			good = nil
		}
	}
	for _, p := range parts {
		if len(p) <= s.size {
			good = append(good, p)
			continue
		}
		flush()
		out = append(out, s.split(p, rest)...)
	}
	flush()
	return out
}

// merge greedily joins parts into chunks of at most size characters,
// carrying up to overlap characters of trailing parts into the next chunk.
func (s *RecursiveSplitter) merge(parts []string) []string {
	var merged []string
	var cur []string
	total := 0

	emit := func() {
		if text := strings.TrimSpace(strings.Join(cur, "")); text != "" {
			merged = append(merged, text)
		}
	}

	for _, p := range parts {
		if total > 0 && total+len(p) > s.size {
			emit()
			for len(cur) > 0 && (total > s.overlap || total+len(p) > s.size) {
				total -= len(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += len(p)
	}
	emit()
	return merged
}

// hardCut windows text into size-length slices advancing by size-overlap,
// aligned to rune boundaries. Used when no separator is left to honor.
func (s *RecursiveSplitter) hardCut(text string) []string {
	stride := s.size - s.overlap
	if stride <= 0 {
		stride = s.size
	}
	runes := []rune(text)
	var parts []string
	for start := 0; start < len(runes); start += stride {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return parts
}
