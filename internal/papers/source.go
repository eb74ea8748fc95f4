// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package papers fetches paper metadata from external APIs and maintains the
// on-disk rolling paper store.
//
// The store keeps two CSV artifacts per source: base_papers.csv holds every
// paper seen in the retention window, and current_papers.csv holds the
// papers that were new in the latest fetch.
package papers

import (
	"context"

	"github.com/pdiddy/paperxai/pkg/types"
)

// MaxResultsLimit is the largest max_results accepted by Fetch.
const MaxResultsLimit = 30000

// Source fetches papers from one provider and merges them into its store.
type Source interface {
	// Name returns the source identifier used for the data directory.
	Name() string

	// Fetch returns up to maxResults papers in the given categories, newest
	// first. Upstream failures are logged and yield the papers gathered so
	// far; only context cancellation and invalid arguments are returned as
	// errors.
	Fetch(ctx context.Context, categories []string, maxResults int) ([]types.Paper, error)

	// Persist merges fetched papers into the store and returns the new
	// papers and the updated base.
	Persist(fetched []types.Paper) (PersistResult, error)
}

// PersistResult is the outcome of a store update.
type PersistResult struct {
	// New holds fetched papers not previously in the base, deduplicated.
	New []types.Paper

	// Base is the merged, pruned store as written to disk.
	Base []types.Paper

	// Pruned counts papers dropped by the retention window.
	Pruned int

	// Written is false when nothing was written (empty fetch).
	Written bool
}
