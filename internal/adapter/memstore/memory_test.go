package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/port"
)

func item(id, text string, vec []float32) port.VectorItem {
	return port.VectorItem{
		Chunk: domain.Chunk{
			ID:          id,
			Source:      "/docs/a.txt",
			Section:     domain.SectionAll,
			ContentHash: domain.Fingerprint(text),
			Text:        text,
		},
		Vector: vec,
	}
}

func TestMemoryStore_QueryDescending(t *testing.T) {
	s := NewMemoryStore(3)
	require.NoError(t, s.Add("docs", []port.VectorItem{
		item("far", "far", []float32{0, 1, 0}),
		item("near", "near", []float32{1, 0.1, 0}),
		item("exact", "exact", []float32{1, 0, 0}),
	}))

	results, err := s.Query("docs", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "exact", results[0].Chunk.ID, "similarity sorts best-first, highest score leading")
	assert.Equal(t, "near", results[1].Chunk.ID)
	assert.Equal(t, "far", results[2].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestMemoryStore_Order(t *testing.T) {
	s := NewMemoryStore(3)
	assert.Equal(t, port.ScoreDescending, s.Order())
}

func TestMemoryStore_Upsert(t *testing.T) {
	s := NewMemoryStore(2)
	require.NoError(t, s.Add("docs", []port.VectorItem{item("a", "first", []float32{1, 0})}))
	require.NoError(t, s.Add("docs", []port.VectorItem{item("a", "second", []float32{0, 1})}))

	n, err := s.Count("docs")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "re-adding the same chunk ID replaces it")

	results, err := s.Query("docs", []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second", results[0].Chunk.Text)
}

func TestMemoryStore_MissingCollection(t *testing.T) {
	s := NewMemoryStore(2)

	results, err := s.Query("nope", []float32{1, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)

	set, err := s.Hashes("nope")
	require.NoError(t, err)
	assert.NotNil(t, set)
	assert.Empty(t, set)

	n, err := s.Count("nope")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	s := NewMemoryStore(3)
	err := s.Add("docs", []port.VectorItem{item("a", "x", []float32{1, 0})})
	require.Error(t, err)

	_, err = s.Query("docs", []float32{1, 0}, 4)
	require.Error(t, err)
}

func TestMemoryStore_ListCollections(t *testing.T) {
	s := NewMemoryStore(2)
	require.NoError(t, s.CreateCollection("zeta"))
	require.NoError(t, s.Add("alpha", []port.VectorItem{item("a", "x", []float32{1, 0})}))

	infos, err := s.ListCollections()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, 1, infos[0].Chunks)
	assert.Equal(t, "zeta", infos[1].Name)
	assert.Equal(t, 0, infos[1].Chunks)
}
