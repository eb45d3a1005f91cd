package vector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arogyamitra/medrag/internal/models"
	"go.uber.org/zap"
)

// MemoryIndex is an in-memory brute-force cosine similarity index. Each session
// owns exactly one; it is dropped wholesale when the session is evicted, so
// there is no per-chunk removal. Reads are concurrent; inserts take the write
// lock, so a chunk is only visible once fully inserted.
type MemoryIndex struct {
	dimensions int
	mu         sync.RWMutex
	chunks     []models.Chunk
	vectors    [][]float32
	byID       map[string]int
	logger     *zap.Logger
}

// MemoryIndexOption configures a MemoryIndex.
type MemoryIndexOption func(*MemoryIndex)

// WithLogger sets a logger for insert conflict warnings.
func WithLogger(l *zap.Logger) MemoryIndexOption {
	return func(m *MemoryIndex) { m.logger = l }
}

// NewMemoryIndex creates an in-memory index with the given dimension.
func NewMemoryIndex(dimensions int, opts ...MemoryIndexOption) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	m := &MemoryIndex{
		dimensions: dimensions,
		byID:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Insert appends the chunk and its vector. Inserting an existing chunk id
// replaces the stored text and vector in place (idempotent re-ingestion) and
// logs a conflict instead of duplicating the entry.
func (m *MemoryIndex) Insert(chunk models.Chunk, vec []float32) error {
	if len(vec) != m.dimensions {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), m.dimensions)
	}
	cp := make([]float32, m.dimensions)
	copy(cp, vec)
	chunk.Embedding = cp

	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.byID[chunk.ID]; ok {
		if m.logger != nil {
			m.logger.Warn("chunk id conflict, replacing entry",
				zap.String("chunk_id", chunk.ID),
				zap.String("document_id", chunk.DocumentID),
			)
		}
		m.chunks[i] = chunk
		m.vectors[i] = cp
		return nil
	}
	m.byID[chunk.ID] = len(m.chunks)
	m.chunks = append(m.chunks, chunk)
	m.vectors = append(m.vectors, cp)
	return nil
}

// Query returns the topK stored chunks ranked by descending cosine similarity
// to vec. Ties keep insertion order. Returns ErrEmptyIndex when nothing is
// stored.
func (m *MemoryIndex) Query(vec []float32, topK int) ([]Result, error) {
	if len(vec) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vec), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.chunks) == 0 {
		return nil, ErrEmptyIndex
	}
	if topK <= 0 {
		return nil, nil
	}
	order := make([]int, len(m.chunks))
	scores := make([]float64, len(m.chunks))
	for i, v := range m.vectors {
		order[i] = i
		scores[i] = CosineSimilarity(vec, v)
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if topK > len(order) {
		topK = len(order)
	}
	results := make([]Result, topK)
	for i := 0; i < topK; i++ {
		results[i] = Result{Chunk: m.chunks[order[i]], Score: scores[order[i]]}
	}
	return results, nil
}

// Size returns the number of stored chunks.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}
