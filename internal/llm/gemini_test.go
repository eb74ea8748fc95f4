// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperxai/pkg/types"
)

func geminiServer(t *testing.T, paths *[]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*paths = append(*paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "mbedContent"):
			// Single and batch embedding responses.
			w.Write([]byte(`{"embedding":{"values":[0.25,0.5,0.75]},"embeddings":[{"values":[0.25,0.5,0.75]}]}`))
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Agents learn from rewards."}]},"finishReason":"STOP"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestGemini_EmbedAndChat(t *testing.T) {
	var paths []string
	ts := geminiServer(t, &paths)

	g, err := NewGemini(context.Background(), "gm-test", types.ModelArgs{BaseURL: ts.URL})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, g.Name())

	vec, err := g.Embed(context.Background(), "Title: RL")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5, 0.75}, vec)

	reply, err := g.Chat(context.Background(), "What is RL?")
	require.NoError(t, err)
	assert.Equal(t, "Agents learn from rewards.", reply)

	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], DefaultGeminiEmbeddingModel)
	assert.Contains(t, paths[1], DefaultGeminiChatModel+":generateContent")
}
