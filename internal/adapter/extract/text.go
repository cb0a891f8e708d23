package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// TextExtractor reads plain-text files as a single unpaged document.
type TextExtractor struct{}

func (TextExtractor) Extract(path string) ([]port.ExtractedDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []port.ExtractedDoc{{
		Source:   path,
		FileName: filepath.Base(path),
		Section:  domain.SectionAll,
		Text:     text,
	}}, nil
}
