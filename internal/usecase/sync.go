package usecase

import (
	"fmt"

	"docqa/internal/adapter/cache"
	"docqa/internal/domain"
	"docqa/internal/logger"
	"docqa/internal/port"
)

// SyncUseCase brings a collection in line with a directory of documents.
type SyncUseCase struct {
	store     port.VectorStore
	extractor port.Extractor
	chunker   port.Chunker
	walker    port.FileWalker
	embedder  port.Embedder
	cache     *cache.QueryCache
}

// NewSyncUseCase creates a new sync use case. The cache may be nil when
// query caching is disabled.
func NewSyncUseCase(
	store port.VectorStore,
	extractor port.Extractor,
	chunker port.Chunker,
	walker port.FileWalker,
	embedder port.Embedder,
	queryCache *cache.QueryCache,
) *SyncUseCase {
	return &SyncUseCase{
		store:     store,
		extractor: extractor,
		chunker:   chunker,
		walker:    walker,
		embedder:  embedder,
		cache:     queryCache,
	}
}

// SyncResult contains the results of a sync operation.
type SyncResult struct {
	Collection    string
	FilesScanned  int
	FilesFailed   int
	ChunksSeen    int
	ChunksAdded   int
	ChunksSkipped int
	Errors        []string
}

// Progress is called after each file finishes processing.
type Progress func(done, total int, path string)

// Sync ingests every matching file under dir into the named collection.
// Chunks whose content fingerprint is already stored are skipped, so
// re-running over unchanged input adds nothing. A file that fails to
// extract is recorded and skipped; the rest of the batch still syncs.
func (u *SyncUseCase) Sync(collection, dir string, progress Progress) (*SyncResult, error) {
	name := domain.SanitizeCollectionName(collection)
	if name == "" {
		return nil, fmt.Errorf("collection name %q is empty after sanitizing", collection)
	}
	result := &SyncResult{Collection: name}

	if err := u.store.CreateCollection(name); err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	existing, err := u.store.Hashes(name)
	if err != nil {
		logger.Warnf("could not load fingerprints for %s: %v, duplicates may be re-added", name, err)
		existing = make(map[string]struct{})
	}

	files, err := u.walker.Walk(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return result, nil
	}

	var fresh []domain.Chunk
	for i, file := range files {
		result.FilesScanned++

		chunks, err := u.fileChunks(file.Path)
		if err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
			logger.Warnf("skipping %s: %v", file.Path, err)
			if progress != nil {
				progress(i+1, len(files), file.Path)
			}
			continue
		}

		for _, chunk := range chunks {
			result.ChunksSeen++
			if _, dup := existing[chunk.ContentHash]; dup {
				result.ChunksSkipped++
				continue
			}
			// Grow the set as we go, so one batch never carries the
			// same fingerprint twice.
			existing[chunk.ContentHash] = struct{}{}
			fresh = append(fresh, chunk)
		}

		if progress != nil {
			progress(i+1, len(files), file.Path)
		}
	}

	if len(fresh) == 0 {
		return result, nil
	}

	texts := make([]string, len(fresh))
	for i, c := range fresh {
		texts[i] = c.Text
	}

	vectors, err := u.embedder.Embed(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(fresh), err)
	}
	if len(vectors) != len(fresh) {
		return nil, fmt.Errorf("embedding returned %d vectors for %d chunks", len(vectors), len(fresh))
	}

	items := make([]port.VectorItem, len(fresh))
	for i := range fresh {
		items[i] = port.VectorItem{Chunk: fresh[i], Vector: vectors[i]}
	}

	if err := u.store.Add(name, items); err != nil {
		return nil, fmt.Errorf("failed to store chunks in %s: %w", name, err)
	}
	result.ChunksAdded = len(fresh)

	if u.cache != nil {
		u.cache.Invalidate()
	}

	return result, nil
}

// fileChunks extracts and chunks one file. Positions are renumbered to run
// sequentially through the whole file, so neighboring chunks can be found
// later even when the file extracted as multiple pages.
func (u *SyncUseCase) fileChunks(path string) ([]domain.Chunk, error) {
	docs, err := u.extractor.Extract(path)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		cs, err := u.chunker.Chunk(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk: %w", err)
		}
		chunks = append(chunks, cs...)
	}

	for i := range chunks {
		chunks[i].Position = i
	}
	return chunks, nil
}
