package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"docqa/internal/port"
)

// Walker lists ingestible files directly inside a directory. Listing is
// non-recursive: a sync targets one folder of documents, not a tree.
type Walker struct {
	patterns []string
}

func NewWalker(patterns []string) *Walker {
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	return &Walker{patterns: patterns}
}

// Walk returns the matching files in lexical order by file name.
func (w *Walker) Walk(dir string) ([]port.FileInfo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []port.FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !matchName(w.patterns, entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, port.FileInfo{
			Path: filepath.Join(abs, entry.Name()),
			Size: info.Size(),
		})
	}

	return files, nil
}

func matchName(patterns []string, name string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}
