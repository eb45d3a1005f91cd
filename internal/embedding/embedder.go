// Package embedding provides the gateway to the external embedding collaborator.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable indicates a transport or timeout failure talking to the
// embedding service. Requests carrying it fail after one bounded retry.
var ErrUnavailable = errors.New("embedding service unavailable")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
