// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/pdiddy/paperxai/pkg/types"
)

// Gemini defaults.
const (
	DefaultGeminiChatModel      = "gemini-2.0-flash"
	DefaultGeminiEmbeddingModel = "text-embedding-004"
)

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
	temperature    float32
	maxTokens      int32
}

// NewGemini creates a Gemini adapter.
func NewGemini(ctx context.Context, apiKey string, args types.ModelArgs) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if args.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: args.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	g := &Gemini{
		client:         client,
		chatModel:      args.ChatModel,
		embeddingModel: args.EmbeddingModel,
		temperature:    args.Temperature,
		maxTokens:      int32(args.MaxTokens),
	}
	if g.chatModel == "" {
		g.chatModel = DefaultGeminiChatModel
	}
	if g.embeddingModel == "" {
		g.embeddingModel = DefaultGeminiEmbeddingModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxTokens
	}
	return g, nil
}

// Name returns the provider name.
func (g *Gemini) Name() string { return ProviderGemini }

// Embed returns the embedding of text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := g.client.Models.EmbedContent(ctx, g.embeddingModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil {
		return nil, classify(err, geminiStatus(err), "gemini embeddings")
	}
	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embeddings: empty response")
	}
	return result.Embeddings[0].Values, nil
}

// Chat sends prompt as a single user turn and returns the reply text.
func (g *Gemini) Chat(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.chatModel, genai.Text(prompt), config)
	if err != nil {
		return "", classify(err, geminiStatus(err), "gemini chat")
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini chat: no candidates in response")
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini chat: empty text in response")
	}
	return text, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
