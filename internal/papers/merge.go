// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papers

import (
	"time"

	"github.com/pdiddy/paperxai/pkg/types"
)

// Dedup returns one paper per ID. A later paper with the same ID replaces
// the earlier one in place, so the result keeps first-appearance order with
// last-write-wins contents.
func Dedup(papers []types.Paper) []types.Paper {
	index := make(map[string]int, len(papers))
	out := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

// Merge combines base and fetched, fetched papers winning on duplicate IDs.
func Merge(base, fetched []types.Paper) []types.Paper {
	all := make([]types.Paper, 0, len(base)+len(fetched))
	all = append(all, base...)
	all = append(all, fetched...)
	return Dedup(all)
}

// Difference returns the deduplicated fetched papers whose IDs are absent
// from base.
func Difference(fetched, base []types.Paper) []types.Paper {
	seen := make(map[string]struct{}, len(base))
	for _, p := range base {
		seen[p.ID] = struct{}{}
	}
	var out []types.Paper
	for _, p := range Dedup(fetched) {
		if _, ok := seen[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// Prune drops papers published before cutoff and returns the survivors
// together with the number dropped.
func Prune(papers []types.Paper, cutoff time.Time) ([]types.Paper, int) {
	out := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if p.Published.Before(cutoff) {
			continue
		}
		out = append(out, p)
	}
	return out, len(papers) - len(out)
}

// Latest returns the most recent publication time, or false for an empty
// collection.
func Latest(papers []types.Paper) (time.Time, bool) {
	if len(papers) == 0 {
		return time.Time{}, false
	}
	latest := papers[0].Published
	for _, p := range papers[1:] {
		if p.Published.After(latest) {
			latest = p.Published
		}
	}
	return latest, true
}
