// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm adapts language-model providers to the two operations the
// report pipeline needs: embedding text and completing a prompt.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/paperxai/internal/retry"
)

// Provider names accepted in language_model.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown language model provider")

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Chatter turns a prompt into a completion.
type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Provider embeds and completes text for one configured backend.
type Provider interface {
	Embedder
	Chatter

	// Name identifies the backend in logs and metrics.
	Name() string
}

// isPermanentStatus reports HTTP statuses that retrying cannot fix.
func isPermanentStatus(code int) bool {
	switch code {
	case 400, 401, 403, 404, 422:
		return true
	}
	return false
}

// classify wraps err so the retry policy stops early on permanent statuses.
func classify(err error, status int, op string) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", op, err)
	if isPermanentStatus(status) {
		return retry.Permanent(wrapped)
	}
	return wrapped
}

// split pairs an Embedder and a Chatter from different backends.
type split struct {
	Embedder
	Chatter
	name string
}

func (s split) Name() string { return s.name }
