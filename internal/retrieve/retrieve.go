// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve ranks papers against a query by cosine similarity of
// their embeddings. Ranking is a linear scan over the in-memory matrix.
package retrieve

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/paperxai/internal/llm"
	"github.com/pdiddy/paperxai/pkg/types"
)

// DefaultK is the number of papers retrieved per question.
const DefaultK = 3

// Match is one ranked row of the embedding matrix.
type Match struct {
	Index      int
	Similarity float64
}

// CosineSimilarity returns 1 − cosine distance between a and b. A
// zero-magnitude vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Rank scores every row of embeddings against query and returns all rows,
// most similar first. Equal scores keep index order.
func Rank(query []float32, embeddings [][]float32) ([]Match, error) {
	matches := make([]Match, len(embeddings))
	for i, vec := range embeddings {
		sim, err := CosineSimilarity(query, vec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		matches[i] = Match{Index: i, Similarity: sim}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches, nil
}

// Retriever answers top-k queries against an embedding matrix.
type Retriever struct {
	Embedder llm.Embedder
}

// New returns a Retriever that embeds queries with e.
func New(e llm.Embedder) *Retriever {
	return &Retriever{Embedder: e}
}

// TopK embeds query and returns the min(k, len(papers)) papers whose
// embeddings are most similar to it, most similar first. embeddings and
// papers must be index-aligned. k ≤ 0 returns an empty result without
// calling the embedder.
func (r *Retriever) TopK(ctx context.Context, query string, embeddings [][]float32, papers []types.Paper, k int) ([]types.Paper, error) {
	if len(embeddings) != len(papers) {
		return nil, fmt.Errorf("embeddings (%d) and papers (%d) are not aligned", len(embeddings), len(papers))
	}
	if k <= 0 || len(papers) == 0 {
		return []types.Paper{}, nil
	}

	qvec, err := r.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := Rank(qvec, embeddings)
	if err != nil {
		return nil, err
	}

	k = min(k, len(matches))
	out := make([]types.Paper, k)
	for i, m := range matches[:k] {
		out[i] = papers[m.Index]
	}
	return out, nil
}
