package services

import (
	"context"
	"fmt"
	"math"
	"sync"

	"rag-pipeline/models"
)

// MemoryStore is a brute-force cosine-similarity VectorStore. It backs the
// VECTOR_STORE=memory configuration and the package tests; contents do not
// survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	points    []models.StoredPoint
}

// NewMemoryStore returns an empty store with no fixed dimension yet.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// EnsureCollection fixes the store's dimension on first call and asserts it
// on later calls.
func (s *MemoryStore) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", models.ErrDimensionMismatch, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		s.dimension = dimension
		return nil
	}
	if s.dimension != dimension {
		return fmt.Errorf("%w: collection holds %d-dimensional vectors, embedder produces %d",
			models.ErrDimensionMismatch, s.dimension, dimension)
	}
	return nil
}

// Upsert appends the batch. Vectors must match the collection dimension.
func (s *MemoryStore) Upsert(ctx context.Context, points []models.StoredPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: point %d has dimension %d, collection expects %d",
				models.ErrDimensionMismatch, p.ID, len(p.Vector), s.dimension)
		}
	}
	s.points = append(s.points, points...)
	return nil
}

// Search ranks all points by cosine similarity to the query vector and
// returns the top topK, ties broken by ascending id.
func (s *MemoryStore) Search(ctx context.Context, vector []float32, topK int) ([]models.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]scoredPoint, 0, len(s.points))
	for _, p := range s.points {
		scored = append(scored, scoredPoint{
			id:    p.ID,
			chunk: models.RetrievedChunk{Text: p.Text, Source: p.Source, Score: cosineSimilarity(p.Vector, vector)},
		})
	}
	sortScoredPoints(scored)

	if topK > len(scored) {
		topK = len(scored)
	}
	chunks := make([]models.RetrievedChunk, 0, topK)
	for i := 0; i < topK; i++ {
		chunks = append(chunks, scored[i].chunk)
	}
	return chunks, nil
}

// Count returns the number of stored points.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Points returns a copy of every stored point.
func (s *MemoryStore) Points() []models.StoredPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StoredPoint, len(s.points))
	copy(out, s.points)
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
