// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/paperxai/pkg/types"
)

var refTime = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func paper(id, title string, age time.Duration) types.Paper {
	p := types.Paper{
		ID:        id,
		Title:     title,
		Authors:   []string{"Ada Lovelace"},
		Published: refTime.Add(-age),
		Category:  "cs.AI",
	}
	p.StringRepresentation = types.BuildStringRepresentation(p)
	return p
}

func ids(papers []types.Paper) []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.ID
	}
	return out
}

func TestDedup_LastWriteWinsKeepsFirstPosition(t *testing.T) {
	in := []types.Paper{
		paper("a", "A1", time.Hour),
		paper("b", "B1", time.Hour),
		paper("a", "A2", time.Hour),
		paper("c", "C1", time.Hour),
		paper("b", "B2", time.Hour),
	}
	got := Dedup(in)

	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
	assert.Equal(t, "A2", got[0].Title)
	assert.Equal(t, "B2", got[1].Title)
}

func TestDedup_Empty(t *testing.T) {
	assert.Empty(t, Dedup(nil))
}

func TestMerge_FetchedOverridesBase(t *testing.T) {
	base := []types.Paper{paper("a", "old", 48*time.Hour), paper("b", "B", 48*time.Hour)}
	fetched := []types.Paper{paper("c", "C", time.Hour), paper("a", "new", time.Hour)}

	got := Merge(base, fetched)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
	assert.Equal(t, "new", got[0].Title)
}

func TestDifference_CountProperty(t *testing.T) {
	base := []types.Paper{paper("a", "", 0), paper("b", "", 0), paper("x", "", 0)}
	fetched := []types.Paper{
		paper("a", "", 0), paper("c", "", 0), paper("c", "", 0),
		paper("d", "", 0), paper("b", "", 0),
	}

	got := Difference(fetched, base)

	uniqueFetched := len(Dedup(fetched))
	overlap := 2 // a, b
	assert.Equal(t, uniqueFetched-overlap, len(got))
	assert.Equal(t, []string{"c", "d"}, ids(got))
}

func TestPrune(t *testing.T) {
	cutoff := refTime.Add(-90 * 24 * time.Hour)
	in := []types.Paper{
		paper("fresh", "", time.Hour),
		paper("edge", "", 90*24*time.Hour),
		paper("stale", "", 91*24*time.Hour),
	}

	got, dropped := Prune(in, cutoff)
	assert.Equal(t, []string{"fresh", "edge"}, ids(got))
	assert.Equal(t, 1, dropped)
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	latest, ok := Latest([]types.Paper{
		paper("a", "", 72*time.Hour),
		paper("b", "", 2*time.Hour),
		paper("c", "", 30*time.Hour),
	})
	assert.True(t, ok)
	assert.Equal(t, refTime.Add(-2*time.Hour), latest)
}
