package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arogyamitra/medrag/internal/config"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// Gateway reaches the external embedding service through langchaingo. Every
// call is bounded by the configured timeout and retried at most once; failures
// wrap ErrUnavailable so callers can classify them.
type Gateway struct {
	embedder   *embeddings.EmbedderImpl
	dimensions int
	timeout    time.Duration
	logger     *zap.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets a logger for retry warnings.
func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// NewGateway creates an embedding gateway for the configured provider.
func NewGateway(cfg *config.EmbeddingConfig, opts ...GatewayOption) (*Gateway, error) {
	client, err := newEmbedderClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	g := &Gateway{
		embedder:   embedder,
		dimensions: cfg.Dimensions,
		timeout:    cfg.Timeout.Std(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func newEmbedderClient(cfg *config.EmbeddingConfig) (embeddings.EmbedderClient, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		return openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
			openai.WithModel(cfg.Model),
			openai.WithEmbeddingModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// Embed returns the embedding for a single text.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := g.withRetry(ctx, "embed query", func(callCtx context.Context) error {
		var innerErr error
		vec, innerErr = g.embedder.EmbedQuery(callCtx, text)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	if err := g.checkDimensions(len(vec)); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch returns embeddings for all texts in order.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := g.withRetry(ctx, "embed batch", func(callCtx context.Context) error {
		var innerErr error
		vecs, innerErr = g.embedder.EmbedDocuments(callCtx, texts)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	for _, v := range vecs {
		if err := g.checkDimensions(len(v)); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

// withRetry runs call with the gateway timeout, retrying once on failure.
func (g *Gateway) withRetry(ctx context.Context, op string, call func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		lastErr = call(callCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		if attempt == 0 && g.logger != nil {
			g.logger.Warn("embedding call failed, retrying",
				zap.String("op", op), zap.Error(lastErr))
		}
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, lastErr)
}

func (g *Gateway) checkDimensions(got int) error {
	if got != g.dimensions {
		return fmt.Errorf("embedding dimension mismatch: got %d, expected %d", got, g.dimensions)
	}
	return nil
}

// Dimensions returns the embedding dimension.
func (g *Gateway) Dimensions() int {
	return g.dimensions
}

// Close is a no-op for Gateway.
func (g *Gateway) Close() error {
	return nil
}
