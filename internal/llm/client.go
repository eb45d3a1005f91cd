package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arogyamitra/medrag/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// Client completes prompts against an OpenAI-compatible or Ollama endpoint via
// langchaingo. Calls are bounded by the configured timeout and retried at most
// once; failures wrap ErrUnavailable.
type Client struct {
	model   llms.Model
	timeout time.Duration
	logger  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets a logger for retry warnings.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a completion client for the configured provider.
func NewClient(cfg *config.LLMConfig, opts ...ClientOption) (*Client, error) {
	model, err := newModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	c := &Client{
		model:   model,
		timeout: cfg.Timeout.Std(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newModel(cfg *config.LLMConfig) (llms.Model, error) {
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
		)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Complete generates a completion for prompt, retrying once on failure.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := llms.GenerateFromSinglePrompt(callCtx, c.model, prompt, llms.WithMaxTokens(maxTokens))
		cancel()
		if err == nil {
			return strings.TrimSpace(text), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt == 0 && c.logger != nil {
			c.logger.Warn("completion call failed, retrying", zap.Error(err))
		}
	}
	return "", fmt.Errorf("complete: %w: %v", ErrUnavailable, lastErr)
}
