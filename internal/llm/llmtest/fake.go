// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llmtest provides a deterministic in-memory language-model provider
// for tests.
package llmtest

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
)

// Fake is a Provider whose embeddings are derived from word hashes, so
// texts sharing words are similar, and whose chat replies echo the question.
type Fake struct {
	// Dims is the embedding length (default 16).
	Dims int

	// Vectors overrides the embedding of exact texts.
	Vectors map[string][]float32

	// Reply, when set, produces chat replies.
	Reply func(prompt string) (string, error)

	// EmbedErr and ChatErr, when set, are returned by every call.
	EmbedErr error
	ChatErr  error

	mu      sync.Mutex
	embeds  []string
	prompts []string
}

// Name returns "fake".
func (f *Fake) Name() string { return "fake" }

// Embed returns a bag-of-words hash vector for text.
func (f *Fake) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embeds = append(f.embeds, text)
	f.mu.Unlock()

	if f.EmbedErr != nil {
		return nil, f.EmbedErr
	}
	if v, ok := f.Vectors[text]; ok {
		return v, nil
	}

	dims := f.Dims
	if dims <= 0 {
		dims = 16
	}
	vec := make([]float32, dims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(w, ".,:;?!")))
		vec[h.Sum32()%uint32(dims)]++
	}
	return vec, nil
}

// Chat returns Reply(prompt) or a canned answer.
func (f *Fake) Chat(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.ChatErr != nil {
		return "", f.ChatErr
	}
	if f.Reply != nil {
		return f.Reply(prompt)
	}
	return fmt.Sprintf("answer %d", len(f.Prompts())), nil
}

// Embedded returns every text passed to Embed.
func (f *Fake) Embedded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.embeds...)
}

// Prompts returns every prompt passed to Chat.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
