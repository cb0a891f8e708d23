package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func chunks(ids ...string) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.ScoredChunk{
			Chunk: domain.Chunk{ID: id},
			Score: float64(i),
		})
	}
	return out
}

func TestQueryCache_HitAndMiss(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	_, hit := c.Get("question", 4)
	assert.False(t, hit)

	c.Put("question", 4, chunks("a", "b"))

	got, hit := c.Get("question", 4)
	require.True(t, hit)
	assert.Len(t, got, 2)

	_, hit = c.Get("question", 8)
	assert.False(t, hit, "different k is a different key")
}

func TestQueryCache_TTLExpiry(t *testing.T) {
	c := NewQueryCache(10, 10*time.Millisecond)
	c.Put("question", 4, chunks("a"))

	time.Sleep(25 * time.Millisecond)

	_, hit := c.Get("question", 4)
	assert.False(t, hit)
	assert.Zero(t, c.Size(), "expired entry is removed on read")
}

func TestQueryCache_InvalidateDropsEverything(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("one", 4, chunks("a"))
	c.Put("two", 4, chunks("b"))

	c.Invalidate()

	assert.Zero(t, c.Size())
	_, hit := c.Get("one", 4)
	assert.False(t, hit)
}

func TestQueryCache_LRUEviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("first", 4, chunks("a"))
	c.Put("second", 4, chunks("b"))

	// Touch "first" so "second" becomes the oldest.
	_, hit := c.Get("first", 4)
	require.True(t, hit)

	c.Put("third", 4, chunks("c"))

	_, hit = c.Get("second", 4)
	assert.False(t, hit, "least recently used entry is evicted")
	_, hit = c.Get("first", 4)
	assert.True(t, hit)
	_, hit = c.Get("third", 4)
	assert.True(t, hit)
}

type countingRetriever struct {
	calls   int
	results []domain.ScoredChunk
	err     error
}

func (r *countingRetriever) Search(string, int) ([]domain.ScoredChunk, error) {
	r.calls++
	return r.results, r.err
}

func TestCachedRetriever(t *testing.T) {
	inner := &countingRetriever{results: chunks("a", "b")}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))

	first, err := r.Search("question", 4)
	require.NoError(t, err)
	second, err := r.Search("question", 4)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second search served from cache")
	assert.Equal(t, first, second)
}

func TestCachedRetriever_ErrorNotCached(t *testing.T) {
	inner := &countingRetriever{err: fmt.Errorf("backend down")}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))

	_, err := r.Search("question", 4)
	require.Error(t, err)

	inner.err = nil
	inner.results = chunks("a")

	got, err := r.Search("question", 4)
	require.NoError(t, err, "failure is retried, not cached")
	assert.Len(t, got, 1)
	assert.Equal(t, 2, inner.calls)
}
