package memstore

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// MemoryStore keeps collections entirely in memory. Unlike the bolt-backed
// store it scores by raw cosine similarity, so results come back best-first
// with higher scores better. Useful for tests and throwaway sessions.
type MemoryStore struct {
	mu          sync.RWMutex
	dimension   int
	collections map[string]*memCollection
}

type memCollection struct {
	order   []string
	items   map[string]port.VectorItem
	created time.Time
	updated time.Time
}

func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension:   dimension,
		collections: make(map[string]*memCollection),
	}
}

func (s *MemoryStore) CreateCollection(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(name)
	return nil
}

func (s *MemoryStore) ensureLocked(name string) *memCollection {
	coll, ok := s.collections[name]
	if !ok {
		now := time.Now()
		coll = &memCollection{
			items:   make(map[string]port.VectorItem),
			created: now,
			updated: now,
		}
		s.collections[name] = coll
	}
	return coll
}

func (s *MemoryStore) Add(collection string, items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.ensureLocked(collection)
	for _, it := range items {
		if len(it.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(it.Vector))
		}
		if _, exists := coll.items[it.Chunk.ID]; !exists {
			coll.order = append(coll.order, it.Chunk.ID)
		}
		coll.items[it.Chunk.ID] = it
	}
	coll.updated = time.Now()
	return nil
}

func (s *MemoryStore) Query(collection string, vector []float32, k int) ([]port.VectorResult, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(vector))
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}

	results := make([]port.VectorResult, 0, len(coll.order))
	for _, id := range coll.order {
		it := coll.items[id]
		results = append(results, port.VectorResult{
			Chunk: it.Chunk,
			Score: cosineSimilarity(vector, it.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *MemoryStore) ListCollections() ([]domain.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.CollectionInfo, 0, len(s.collections))
	for name, coll := range s.collections {
		infos = append(infos, domain.CollectionInfo{
			Name:      name,
			Chunks:    len(coll.items),
			CreatedAt: coll.created,
			UpdatedAt: coll.updated,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *MemoryStore) Hashes(collection string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]struct{})
	coll, ok := s.collections[collection]
	if !ok {
		return set, nil
	}
	for _, it := range coll.items {
		set[it.Chunk.ContentHash] = struct{}{}
	}
	return set, nil
}

func (s *MemoryStore) Count(collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[collection]
	if !ok {
		return 0, nil
	}
	return len(coll.items), nil
}

func (s *MemoryStore) Order() port.ScoreOrder {
	return port.ScoreDescending
}

func (s *MemoryStore) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
