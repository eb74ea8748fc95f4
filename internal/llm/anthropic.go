// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/paperxai/pkg/types"
)

// DefaultAnthropicChatModel is used when init_args.chat_model is empty.
const DefaultAnthropicChatModel = "claude-3-5-haiku-latest"

// Anthropic calls the Claude Messages API. It has no embedding endpoint;
// New pairs it with another provider's Embedder.
type Anthropic struct {
	client      anthropic.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewAnthropic creates a Claude chat adapter. SDK-level retries are
// disabled; the caller's retry policy owns them.
func NewAnthropic(apiKey string, args types.ModelArgs) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if args.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(args.BaseURL))
	}

	a := &Anthropic{
		client:      anthropic.NewClient(opts...),
		model:       args.ChatModel,
		temperature: args.Temperature,
		maxTokens:   args.MaxTokens,
	}
	if a.model == "" {
		a.model = DefaultAnthropicChatModel
	}
	if a.maxTokens <= 0 {
		a.maxTokens = DefaultMaxTokens
	}
	return a
}

// Chat sends prompt as a single user message and returns the text blocks
// of the reply.
func (a *Anthropic) Chat(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(float64(a.temperature)),
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err, anthropicStatus(err), "anthropic chat")
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic chat: no text content in response")
	}
	return b.String(), nil
}

func anthropicStatus(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
