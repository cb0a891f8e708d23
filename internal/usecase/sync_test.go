package usecase

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/memstore"
	"docqa/internal/domain"
	"docqa/internal/port"
)

type fakeWalker struct {
	files []port.FileInfo
	err   error
}

func (w *fakeWalker) Walk(dir string) ([]port.FileInfo, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.files, nil
}

type fakeExtractor struct {
	docs map[string][]port.ExtractedDoc
	fail map[string]bool
}

func (e *fakeExtractor) Extract(path string) ([]port.ExtractedDoc, error) {
	if e.fail[path] {
		return nil, errors.New("no text layer")
	}
	return e.docs[path], nil
}

type countingEmbedder struct {
	dim   int
	calls int
	err   error
}

func (e *countingEmbedder) Embed(texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1, 0}
	}
	return vectors, nil
}

func (e *countingEmbedder) Dimension() int { return e.dim }

func (e *countingEmbedder) ModelName() string { return "counting" }

func extractedDoc(path string, page int, text string) port.ExtractedDoc {
	return port.ExtractedDoc{
		Source:   path,
		FileName: filepath.Base(path),
		Page:     page,
		Section:  domain.SectionAll,
		Text:     text,
	}
}

type syncFixture struct {
	store     *memstore.MemoryStore
	walker    *fakeWalker
	extractor *fakeExtractor
	embedder  *countingEmbedder
	sync      *SyncUseCase
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		store: memstore.NewMemoryStore(3),
		walker: &fakeWalker{files: []port.FileInfo{
			{Path: "/docs/a.pdf", Size: 10},
			{Path: "/docs/b.pdf", Size: 20},
		}},
		extractor: &fakeExtractor{
			docs: map[string][]port.ExtractedDoc{
				"/docs/a.pdf": {extractedDoc("/docs/a.pdf", 1, "alpha content")},
				"/docs/b.pdf": {
					extractedDoc("/docs/b.pdf", 1, "bravo page one"),
					extractedDoc("/docs/b.pdf", 2, "bravo page two"),
				},
			},
			fail: map[string]bool{},
		},
		embedder: &countingEmbedder{dim: 3},
	}
	f.sync = NewSyncUseCase(f.store, f.extractor, chunker.NewRecursiveSplitter(1000, 200), f.walker, f.embedder, nil)
	return f
}

func TestSyncIngestsAndIsIdempotent(t *testing.T) {
	f := newSyncFixture()

	result, err := f.sync.Sync("manuals", "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, "manuals", result.Collection)
	assert.Equal(t, 2, result.FilesScanned)
	assert.Equal(t, 0, result.FilesFailed)
	assert.Equal(t, 3, result.ChunksSeen)
	assert.Equal(t, 3, result.ChunksAdded)
	assert.Equal(t, 0, result.ChunksSkipped)
	assert.Equal(t, 1, f.embedder.calls)

	count, err := f.store.Count("manuals")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	result, err = f.sync.Sync("manuals", "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksSeen)
	assert.Equal(t, 0, result.ChunksAdded)
	assert.Equal(t, 3, result.ChunksSkipped)
	assert.Equal(t, 1, f.embedder.calls, "nothing fresh, nothing embedded")

	count, err = f.store.Count("manuals")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSyncPicksUpNewFiles(t *testing.T) {
	f := newSyncFixture()

	_, err := f.sync.Sync("manuals", "/docs", nil)
	require.NoError(t, err)

	f.walker.files = append(f.walker.files, port.FileInfo{Path: "/docs/c.pdf", Size: 5})
	f.extractor.docs["/docs/c.pdf"] = []port.ExtractedDoc{extractedDoc("/docs/c.pdf", 1, "charlie content")}

	result, err := f.sync.Sync("manuals", "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.FilesScanned)
	assert.Equal(t, 1, result.ChunksAdded)
	assert.Equal(t, 3, result.ChunksSkipped)

	count, err := f.store.Count("manuals")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestSyncSanitizesCollectionName(t *testing.T) {
	f := newSyncFixture()

	result, err := f.sync.Sync("My Docs! 2024", "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, "My_Docs_2024", result.Collection)

	infos, err := f.store.ListCollections()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "My_Docs_2024", infos[0].Name)

	_, err = f.sync.Sync("!!!", "/docs", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty after sanitizing")
}

func TestSyncSkipsFailingFile(t *testing.T) {
	f := newSyncFixture()
	f.extractor.fail["/docs/b.pdf"] = true

	var seen []string
	progress := func(done, total int, path string) {
		assert.Equal(t, 2, total)
		seen = append(seen, path)
	}

	result, err := f.sync.Sync("manuals", "/docs", progress)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesScanned)
	assert.Equal(t, 1, result.FilesFailed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "/docs/b.pdf")
	assert.Equal(t, 1, result.ChunksAdded)
	assert.Equal(t, []string{"/docs/a.pdf", "/docs/b.pdf"}, seen, "progress covers failed files too")
}

func TestSyncEmptyDirectory(t *testing.T) {
	f := newSyncFixture()
	f.walker.files = nil

	result, err := f.sync.Sync("manuals", "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesScanned)
	assert.Equal(t, 0, result.ChunksAdded)
	assert.Equal(t, 0, f.embedder.calls)

	infos, err := f.store.ListCollections()
	require.NoError(t, err)
	require.Len(t, infos, 1, "collection is materialized even when empty")
	assert.Equal(t, "manuals", infos[0].Name)
}

type hashFailStore struct {
	*memstore.MemoryStore
}

func (s *hashFailStore) Hashes(collection string) (map[string]struct{}, error) {
	return nil, errors.New("fingerprint bucket corrupt")
}

func TestSyncSurvivesHashLookupFailure(t *testing.T) {
	f := newSyncFixture()
	f.sync = NewSyncUseCase(&hashFailStore{f.store}, f.extractor, chunker.NewRecursiveSplitter(1000, 200), f.walker, f.embedder, nil)

	result, err := f.sync.Sync("manuals", "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksAdded)

	// Without fingerprints every chunk looks fresh again.
	result, err = f.sync.Sync("manuals", "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksAdded)
	assert.Equal(t, 0, result.ChunksSkipped)
}

func TestSyncDeduplicatesWithinBatch(t *testing.T) {
	f := newSyncFixture()
	f.extractor.docs["/docs/a.pdf"] = []port.ExtractedDoc{extractedDoc("/docs/a.pdf", 1, "same text")}
	f.extractor.docs["/docs/b.pdf"] = []port.ExtractedDoc{extractedDoc("/docs/b.pdf", 1, "same text")}

	result, err := f.sync.Sync("manuals", "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunksSeen)
	assert.Equal(t, 1, result.ChunksAdded)
	assert.Equal(t, 1, result.ChunksSkipped)
}

func TestSyncNumbersPositionsThroughFile(t *testing.T) {
	f := newSyncFixture()

	_, err := f.sync.Sync("manuals", "/docs", nil)
	require.NoError(t, err)

	results, err := f.store.Query("manuals", []float32{1, 0, 0}, 10)
	require.NoError(t, err)

	positions := map[int]int{}
	for _, r := range results {
		if r.Chunk.Source == "/docs/b.pdf" {
			positions[r.Chunk.Page] = r.Chunk.Position
		}
	}
	assert.Equal(t, map[int]int{1: 0, 2: 1}, positions, "positions run sequentially across pages")
}

func TestSyncInvalidatesQueryCache(t *testing.T) {
	f := newSyncFixture()
	qc := cache.NewQueryCache(8, time.Minute)
	f.sync = NewSyncUseCase(f.store, f.extractor, chunker.NewRecursiveSplitter(1000, 200), f.walker, f.embedder, qc)

	qc.Put("what is alpha", 4, []domain.ScoredChunk{{Chunk: domain.Chunk{ID: "x", Text: "alpha"}}})
	_, ok := qc.Get("what is alpha", 4)
	require.True(t, ok)

	_, err := f.sync.Sync("manuals", "/docs", nil)
	require.NoError(t, err)

	_, ok = qc.Get("what is alpha", 4)
	assert.False(t, ok, "cached answers are stale once the index changes")
}

func TestSyncWalkError(t *testing.T) {
	f := newSyncFixture()
	f.walker.err = errors.New("permission denied")

	_, err := f.sync.Sync("manuals", "/docs", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list")
}

func TestSyncEmbedError(t *testing.T) {
	f := newSyncFixture()
	f.embedder.err = errors.New("service unavailable")

	_, err := f.sync.Sync("manuals", "/docs", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed")
}
