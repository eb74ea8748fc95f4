// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/paperxai/pkg/types"
)

// Credentials maps provider names to API keys.
type Credentials map[string]string

// key returns the API key for provider. init_args.api_key takes precedence
// for the configured provider only.
func (c Credentials) key(provider string, args types.ModelArgs, configured string) string {
	if provider == configured && args.APIKey != "" {
		return args.APIKey
	}
	return c[provider]
}

// New builds the provider named in cfg. The anthropic provider has no
// embedding API, so its embeddings come from init_args.embedding_provider
// (openai by default).
func New(ctx context.Context, cfg types.LanguageModelConfig, creds Credentials) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	args := cfg.InitArgs

	switch name {
	case ProviderOpenAI:
		return NewOpenAI(creds.key(ProviderOpenAI, args, name), args), nil

	case ProviderGemini:
		return NewGemini(ctx, creds.key(ProviderGemini, args, name), args)

	case ProviderAnthropic:
		embedName := strings.ToLower(strings.TrimSpace(args.EmbeddingProvider))
		if embedName == "" {
			embedName = ProviderOpenAI
		}

		// base_url and chat settings belong to anthropic, not the delegate.
		embedArgs := types.ModelArgs{EmbeddingModel: args.EmbeddingModel}
		var embedder Embedder
		switch embedName {
		case ProviderOpenAI:
			embedder = NewOpenAI(creds.key(ProviderOpenAI, args, name), embedArgs)
		case ProviderGemini:
			g, err := NewGemini(ctx, creds.key(ProviderGemini, args, name), embedArgs)
			if err != nil {
				return nil, err
			}
			embedder = g
		default:
			return nil, fmt.Errorf("embedding provider %q for anthropic: %w", embedName, ErrUnknownProvider)
		}

		return split{
			Embedder: embedder,
			Chatter:  NewAnthropic(creds.key(ProviderAnthropic, args, name), args),
			name:     ProviderAnthropic,
		}, nil

	default:
		return nil, fmt.Errorf("%q: %w", cfg.Provider, ErrUnknownProvider)
	}
}
