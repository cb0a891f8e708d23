package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var (
	bucketCollections = []byte("collections")
	bucketChunks      = []byte("chunks")
	bucketHashes      = []byte("hashes")
	bucketVectors     = []byte("vectors")
	bucketMeta        = []byte("meta")
)

// BoltStore keeps every collection in one BoltDB file. The chunks, hashes
// and vectors buckets hold one nested bucket per collection; vectors are
// additionally mirrored in memory for brute-force search.
type BoltStore struct {
	db        *bbolt.DB
	dimension int

	mu      sync.RWMutex
	vectors map[string]map[string][]float32 // collection -> chunk ID -> vector
}

func NewBoltStore(path string, dimension int) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketCollections, bucketChunks, bucketHashes, bucketVectors, bucketMeta}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{
		db:        db,
		dimension: dimension,
		vectors:   make(map[string]map[string][]float32),
	}
	if err := s.loadVectors(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	return s, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

type collectionMeta struct {
	Chunks    int   `json:"chunks"`
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

type chunkRecord struct {
	Source      string            `json:"source"`
	FileName    string            `json:"file_name"`
	Page        int               `json:"page,omitempty"`
	Position    int               `json:"position"`
	Section     string            `json:"section"`
	ContentHash string            `json:"content_hash"`
	Meta        map[string]string `json:"meta,omitempty"`
	Text        string            `json:"text"`
}

type storedVector struct {
	Vector []float32 `json:"v"`
}

// loadVectors mirrors every stored vector into memory.
func (s *BoltStore) loadVectors() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketVectors)
		if root == nil {
			return nil
		}
		return root.ForEachBucket(func(name []byte) error {
			coll := root.Bucket(name)
			entries := make(map[string][]float32)
			err := coll.ForEach(func(k, v []byte) error {
				var stored storedVector
				if err := json.Unmarshal(v, &stored); err != nil {
					return nil // skip corrupted entries
				}
				entries[string(k)] = stored.Vector
				return nil
			})
			if err != nil {
				return err
			}
			s.vectors[string(name)] = entries
			return nil
		})
	})
}

// CreateCollection ensures the collection's meta entry and nested buckets
// exist. Existing collections are left untouched.
func (s *BoltStore) CreateCollection(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is empty")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		colls := tx.Bucket(bucketCollections)
		if colls.Get([]byte(name)) != nil {
			return nil
		}
		now := time.Now().Unix()
		data, err := json.Marshal(collectionMeta{CreatedAt: now, UpdatedAt: now})
		if err != nil {
			return err
		}
		if err := colls.Put([]byte(name), data); err != nil {
			return err
		}
		for _, root := range [][]byte{bucketChunks, bucketHashes, bucketVectors} {
			if _, err := tx.Bucket(root).CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create %s bucket for %s: %w", root, name, err)
			}
		}
		return nil
	})
}

// Add writes chunks, content hashes and vectors in a single transaction and
// bumps the collection's chunk count.
func (s *BoltStore) Add(collection string, items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	added := make(map[string][]float32, len(items))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		chunks, err := tx.Bucket(bucketChunks).CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		hashes, err := tx.Bucket(bucketHashes).CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		vectors, err := tx.Bucket(bucketVectors).CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}

		for _, item := range items {
			if len(item.Vector) != s.dimension {
				return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(item.Vector))
			}
			c := item.Chunk

			rec := chunkRecord{
				Source:      c.Source,
				FileName:    c.FileName,
				Page:        c.Page,
				Position:    c.Position,
				Section:     string(c.Section),
				ContentHash: c.ContentHash,
				Meta:        c.Meta,
				Text:        c.Text,
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := chunks.Put([]byte(c.ID), data); err != nil {
				return err
			}
			if err := hashes.Put([]byte(c.ContentHash), []byte(c.ID)); err != nil {
				return err
			}

			vec, err := json.Marshal(storedVector{Vector: item.Vector})
			if err != nil {
				return err
			}
			if err := vectors.Put([]byte(c.ID), vec); err != nil {
				return err
			}
			added[c.ID] = item.Vector
		}

		return bumpCollectionMeta(tx, collection, len(items))
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	entries := s.vectors[collection]
	if entries == nil {
		entries = make(map[string][]float32)
		s.vectors[collection] = entries
	}
	for id, vec := range added {
		entries[id] = vec
	}
	s.mu.Unlock()
	return nil
}

func bumpCollectionMeta(tx *bbolt.Tx, collection string, added int) error {
	colls := tx.Bucket(bucketCollections)
	now := time.Now().Unix()

	var meta collectionMeta
	if data := colls.Get([]byte(collection)); data != nil {
		if err := json.Unmarshal(data, &meta); err != nil {
			meta = collectionMeta{CreatedAt: now}
		}
	} else {
		meta.CreatedAt = now
	}
	meta.Chunks += added
	meta.UpdatedAt = now

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return colls.Put([]byte(collection), data)
}

// Query scores every vector of the collection against the query vector with
// cosine distance and returns the k closest chunks, lowest distance first.
func (s *BoltStore) Query(collection string, vector []float32, k int) ([]port.VectorResult, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(vector))
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	entries := s.vectors[collection]
	type scored struct {
		id    string
		score float64
	}
	scores := make([]scored, 0, len(entries))
	for id, vec := range entries {
		scores = append(scores, scored{id: id, score: cosineDistance(vector, vec)})
	}
	s.mu.RUnlock()

	if len(scores) == 0 {
		return nil, nil
	}

	sort.Slice(scores, func(i, j int) bool {
		return scores[i].score < scores[j].score
	})
	if k > len(scores) {
		k = len(scores)
	}
	scores = scores[:k]

	results := make([]port.VectorResult, 0, k)
	err := s.db.View(func(tx *bbolt.Tx) error {
		chunks := tx.Bucket(bucketChunks).Bucket([]byte(collection))
		if chunks == nil {
			return nil
		}
		for _, sc := range scores {
			data := chunks.Get([]byte(sc.id))
			if data == nil {
				continue
			}
			var rec chunkRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				continue
			}
			results = append(results, port.VectorResult{
				Chunk: recordToChunk(sc.id, rec),
				Score: sc.score,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func recordToChunk(id string, rec chunkRecord) domain.Chunk {
	return domain.Chunk{
		ID:          id,
		Source:      rec.Source,
		FileName:    rec.FileName,
		Page:        rec.Page,
		Position:    rec.Position,
		Section:     domain.Section(rec.Section),
		ContentHash: rec.ContentHash,
		Meta:        rec.Meta,
		Text:        rec.Text,
	}
}

// ListCollections returns every collection descriptor in name order.
func (s *BoltStore) ListCollections() ([]domain.CollectionInfo, error) {
	var infos []domain.CollectionInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).ForEach(func(k, v []byte) error {
			var meta collectionMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("corrupt meta for collection %s: %w", k, err)
			}
			infos = append(infos, domain.CollectionInfo{
				Name:      string(k),
				Chunks:    meta.Chunks,
				CreatedAt: time.Unix(meta.CreatedAt, 0),
				UpdatedAt: time.Unix(meta.UpdatedAt, 0),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// Hashes returns the content hashes stored for the collection. A collection
// that does not exist yet has an empty hash set.
func (s *BoltStore) Hashes(collection string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHashes).Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			set[string(k)] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (s *BoltStore) Count(collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors[collection]), nil
}

// Stats aggregates store-wide numbers. The token count is a rough
// four-bytes-per-token estimate over stored chunk text.
func (s *BoltStore) Stats() (domain.Stats, error) {
	var stats domain.Stats
	sources := make(map[string]struct{})
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketChunks)
		return root.ForEachBucket(func(name []byte) error {
			stats.Collections++
			coll := root.Bucket(name)
			return coll.ForEach(func(k, v []byte) error {
				var rec chunkRecord
				if err := json.Unmarshal(v, &rec); err != nil {
					return nil
				}
				stats.Chunks++
				sources[rec.Source] = struct{}{}
				stats.EstTokens += len(rec.Text) / 4
				return nil
			})
		})
	})
	if err != nil {
		return domain.Stats{}, err
	}
	stats.Sources = len(sources)
	return stats, nil
}

// ChunksBySource returns every stored chunk that came from the given source
// file, across all collections.
func (s *BoltStore) ChunksBySource(source string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketChunks)
		return root.ForEachBucket(func(name []byte) error {
			coll := root.Bucket(name)
			return coll.ForEach(func(k, v []byte) error {
				var rec chunkRecord
				if err := json.Unmarshal(v, &rec); err != nil {
					return nil
				}
				if rec.Source != source {
					return nil
				}
				chunks = append(chunks, recordToChunk(string(k), rec))
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// Order reports that lower scores are better: Query returns cosine distance.
func (s *BoltStore) Order() port.ScoreOrder {
	return port.ScoreAscending
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// cosineDistance is 1 minus the cosine similarity of a and b, so identical
// directions score 0 and orthogonal ones score 1.
func cosineDistance(a, b []float32) float64 {
	return 1 - cosineSimilarity(a, b)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
