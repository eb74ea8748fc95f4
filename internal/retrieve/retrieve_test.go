// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperxai/internal/llm/llmtest"
	"github.com/pdiddy/paperxai/pkg/types"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2}, []float32{2, 4}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}

func TestRank_StableTies(t *testing.T) {
	matches, err := Rank([]float32{1, 0}, [][]float32{
		{0, 1},  // 0
		{1, 0},  // 1
		{2, 0},  // 1 (tie, later index)
		{1, 1},  // ~0.707
		{-1, 0}, // -1
	})
	require.NoError(t, err)

	var order []int
	for _, m := range matches {
		order = append(order, m.Index)
	}
	assert.Equal(t, []int{1, 2, 3, 0, 4}, order)
}

func makeCorpus(n, dims int, seed uint64) ([][]float32, []types.Paper) {
	rng := rand.New(rand.NewPCG(seed, seed))
	emb := make([][]float32, n)
	papers := make([]types.Paper, n)
	for i := range emb {
		v := make([]float32, dims)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		emb[i] = v
		papers[i] = types.Paper{ID: fmt.Sprintf("p%d", i)}
	}
	return emb, papers
}

func TestTopK_SizeOrderAndSubset(t *testing.T) {
	emb, papers := makeCorpus(20, 8, 7)
	query := []float32{1, -1, 0.5, 0, 2, 0, -0.5, 1}
	r := New(&llmtest.Fake{Vectors: map[string][]float32{"q": query}})

	for _, k := range []int{0, 1, 3, 20, 50} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			got, err := r.TopK(context.Background(), "q", emb, papers, k)
			require.NoError(t, err)
			require.Len(t, got, min(k, len(papers)))

			index := map[string]int{}
			for i, p := range papers {
				index[p.ID] = i
			}
			prev := 2.0
			seen := map[string]bool{}
			for _, p := range got {
				i, ok := index[p.ID]
				require.True(t, ok, "fabricated paper %s", p.ID)
				assert.False(t, seen[p.ID], "duplicate %s", p.ID)
				seen[p.ID] = true

				sim, _ := CosineSimilarity(query, emb[i])
				assert.LessOrEqual(t, sim, prev+1e-12)
				prev = sim
			}
		})
	}
}

func TestTopK_ExactMatchRanksFirst(t *testing.T) {
	emb, papers := makeCorpus(10, 6, 42)
	r := New(&llmtest.Fake{Vectors: map[string][]float32{"q": emb[6]}})

	got, err := r.TopK(context.Background(), "q", emb, papers, 3)
	require.NoError(t, err)
	assert.Equal(t, "p6", got[0].ID)

	matches, err := Rank(emb[6], emb)
	require.NoError(t, err)
	assert.Equal(t, 6, matches[0].Index)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestTopK_ZeroKSkipsEmbedding(t *testing.T) {
	emb, papers := makeCorpus(3, 2, 1)
	fake := &llmtest.Fake{}
	got, err := New(fake).TopK(context.Background(), "q", emb, papers, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, fake.Embedded())
}

func TestTopK_Errors(t *testing.T) {
	emb, papers := makeCorpus(3, 2, 1)

	t.Run("misaligned", func(t *testing.T) {
		_, err := New(&llmtest.Fake{}).TopK(context.Background(), "q", emb, papers[:2], 1)
		assert.Error(t, err)
	})
	t.Run("dimension mismatch", func(t *testing.T) {
		fake := &llmtest.Fake{Vectors: map[string][]float32{"q": {1, 2, 3}}}
		_, err := New(fake).TopK(context.Background(), "q", emb, papers, 1)
		assert.Error(t, err)
	})
	t.Run("embedder failure", func(t *testing.T) {
		sentinel := errors.New("rate limited")
		_, err := New(&llmtest.Fake{EmbedErr: sentinel}).TopK(context.Background(), "q", emb, papers, 1)
		assert.ErrorIs(t, err, sentinel)
	})
}
