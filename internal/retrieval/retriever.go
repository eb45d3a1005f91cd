// Package retrieval ranks a session's chunks against a question.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/arogyamitra/medrag/internal/config"
	"github.com/arogyamitra/medrag/internal/embedding"
	"github.com/arogyamitra/medrag/internal/session"
	"github.com/arogyamitra/medrag/internal/vector"
	"go.uber.org/zap"
)

// Retriever embeds queries and returns deduplicated, threshold-filtered
// candidates from a session's index. An empty result means "insufficient
// grounding" and is not an error.
type Retriever struct {
	embedder  embedding.Embedder
	topK      int
	threshold float64
	logger    *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithLogger sets a logger for retrieval diagnostics.
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever with the given embedder and settings.
func NewRetriever(embedder embedding.Embedder, cfg *config.RetrievalConfig, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:  embedder,
		topK:      cfg.TopK,
		threshold: cfg.SimilarityThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EmbedQuery embeds the query text via the gateway.
func (r *Retriever) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

// RetrieveByVector queries the session's index with an already-embedded query.
// Candidates below the similarity threshold are dropped; when several
// candidates come from the same document page, only the best-ranked one is
// kept. An empty index yields an empty result, not an error.
func (r *Retriever) RetrieveByVector(sess *session.Session, vec []float32) ([]vector.Result, error) {
	results, err := sess.Index().Query(vec, r.topK)
	if err != nil {
		if errors.Is(err, vector.ErrEmptyIndex) {
			return nil, nil
		}
		return nil, fmt.Errorf("query index: %w", err)
	}

	seen := make(map[string]bool, len(results))
	kept := results[:0]
	for _, res := range results {
		if res.Score < r.threshold {
			continue
		}
		source := fmt.Sprintf("%s#%d", res.Chunk.DocumentID, res.Chunk.Page)
		if seen[source] {
			continue
		}
		seen[source] = true
		kept = append(kept, res)
	}
	if r.logger != nil {
		r.logger.Debug("retrieval complete",
			zap.String("session_id", sess.ID()),
			zap.Int("candidates", len(results)),
			zap.Int("kept", len(kept)),
		)
	}
	return kept, nil
}

// Retrieve embeds query and ranks the session's chunks against it.
func (r *Retriever) Retrieve(ctx context.Context, sess *session.Session, query string) ([]vector.Result, error) {
	vec, err := r.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.RetrieveByVector(sess, vec)
}
