// Package llm provides the language-model collaborator used to generate answers.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable indicates a transport or timeout failure talking to the
// language model. Requests carrying it fail after one bounded retry.
var ErrUnavailable = errors.New("language model unavailable")

// Completer is the black-box text-completion collaborator.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}
