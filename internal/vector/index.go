// Package vector provides the per-session in-memory similarity index.
package vector

import (
	"errors"

	"github.com/arogyamitra/medrag/internal/models"
)

// ErrEmptyIndex is returned by Query when no chunks are stored. Callers must
// treat it as "no evidence available", not as a hard failure.
var ErrEmptyIndex = errors.New("vector index is empty")

// Index stores embedded chunks for one session and serves similarity lookups.
type Index interface {
	Insert(chunk models.Chunk, vec []float32) error
	Query(vec []float32, topK int) ([]Result, error)
	Size() int
}

// Result is a single similarity hit.
type Result struct {
	Chunk models.Chunk
	Score float64
}
