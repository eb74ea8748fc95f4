// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/paperxai/pkg/types"
)

// OpenAI defaults.
const (
	DefaultOpenAIChatModel      = openai.GPT3Dot5Turbo
	DefaultOpenAIEmbeddingModel = "text-embedding-ada-002"
	DefaultMaxTokens            = 1000
)

// OpenAI calls the OpenAI embeddings and chat completion endpoints.
type OpenAI struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	temperature    float32
	maxTokens      int
}

// NewOpenAI creates an OpenAI adapter. BaseURL in args overrides the API
// endpoint, which also admits OpenAI-compatible servers.
func NewOpenAI(apiKey string, args types.ModelArgs) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if args.BaseURL != "" {
		cfg.BaseURL = args.BaseURL
	}

	o := &OpenAI{
		client:         openai.NewClientWithConfig(cfg),
		chatModel:      args.ChatModel,
		embeddingModel: args.EmbeddingModel,
		temperature:    args.Temperature,
		maxTokens:      args.MaxTokens,
	}
	if o.chatModel == "" {
		o.chatModel = DefaultOpenAIChatModel
	}
	if o.embeddingModel == "" {
		o.embeddingModel = DefaultOpenAIEmbeddingModel
	}
	if o.maxTokens <= 0 {
		o.maxTokens = DefaultMaxTokens
	}
	return o
}

// Name returns the provider name.
func (o *OpenAI) Name() string { return ProviderOpenAI }

// Embed returns the embedding of text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(o.embeddingModel),
	})
	if err != nil {
		return nil, classify(err, openAIStatus(err), "openai embeddings")
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	return resp.Data[0].Embedding, nil
}

// Chat sends prompt as a single user message and returns the reply.
func (o *OpenAI) Chat(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", classify(err, openAIStatus(err), "openai chat")
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
