// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papers

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperxai/pkg/types"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	s := NewStore(t.TempDir(), zerolog.Nop())
	s.Now = func() time.Time { return now }
	return s
}

func TestPersist_InitialRun(t *testing.T) {
	s := newTestStore(t, refTime)
	fetched := []types.Paper{
		paper("a", "A1", time.Hour),
		paper("b", "B", 2*time.Hour),
		paper("a", "A2", time.Hour),
		paper("old", "Old", 100*24*time.Hour),
	}

	res, err := s.Persist(fetched)
	require.NoError(t, err)
	assert.True(t, res.Written)
	assert.Equal(t, []string{"a", "b", "old"}, ids(res.New))
	assert.Equal(t, []string{"a", "b"}, ids(res.Base))
	assert.Equal(t, 1, res.Pruned)

	base, err := s.LoadBase()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(base))
	assert.Equal(t, "A2", base[0].Title)

	current, err := s.LoadCurrent()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "old"}, ids(current))
}

func TestPersist_MergeAndDiff(t *testing.T) {
	s := newTestStore(t, refTime)
	require.NoError(t, WriteCSV(s.BasePath(), []types.Paper{
		paper("a", "A-old", 3*24*time.Hour),
		paper("b", "B", 2*24*time.Hour),
		paper("ancient", "Ancient", 95*24*time.Hour),
	}))

	fetched := []types.Paper{
		paper("c", "C", time.Hour),
		paper("a", "A-new", 3*24*time.Hour),
		paper("c", "C2", time.Hour),
		paper("d", "D", 2*time.Hour),
	}
	res, err := s.Persist(fetched)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "d"}, ids(res.New))
	assert.Equal(t, "C2", res.New[0].Title)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(res.Base))
	assert.Equal(t, "A-new", res.Base[0].Title)
	assert.Equal(t, 1, res.Pruned)

	// One record per id on disk.
	base, err := s.LoadBase()
	require.NoError(t, err)
	seen := map[string]int{}
	for _, p := range base {
		seen[p.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %s", id)
	}
}

func TestPersist_NothingOlderThanRetention(t *testing.T) {
	s := newTestStore(t, refTime)
	require.NoError(t, WriteCSV(s.BasePath(), []types.Paper{
		paper("keep", "", 30*24*time.Hour),
		paper("drop", "", 91*24*time.Hour),
	}))

	_, err := s.Persist([]types.Paper{
		paper("new", "", 2*24*time.Hour),
		paper("new-old", "", 120*24*time.Hour),
	})
	require.NoError(t, err)

	base, err := s.LoadBase()
	require.NoError(t, err)
	cutoff := refTime.Add(-90 * 24 * time.Hour)
	for _, p := range base {
		assert.False(t, p.Published.Before(cutoff), "paper %s older than retention", p.ID)
	}
	assert.ElementsMatch(t, []string{"keep", "new"}, ids(base))
}

func TestPersist_StaleRefreshGuard(t *testing.T) {
	s := newTestStore(t, refTime)
	first := []types.Paper{paper("a", "", 12*time.Hour), paper("b", "", 30*time.Hour)}

	_, err := s.Persist(first)
	require.NoError(t, err)
	before, err := os.ReadFile(s.BasePath())
	require.NoError(t, err)

	// Same clock: newest stored paper is 12h old.
	_, err = s.Persist([]types.Paper{paper("c", "", time.Hour)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaleRefresh))

	var stale *StaleRefreshError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, refTime.Add(-12*time.Hour), stale.LastPublished)

	after, err := os.ReadFile(s.BasePath())
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected update must not write")

	// Exactly 24h after the newest paper succeeds.
	s.Now = func() time.Time { return refTime.Add(12 * time.Hour) }
	_, err = s.Persist([]types.Paper{paper("c", "", time.Hour)})
	assert.NoError(t, err)
}

func TestPersist_GuardBoundary(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		wantErr bool
	}{
		{"just under a day", 24*time.Hour - time.Second, true},
		{"exactly a day", 24 * time.Hour, false},
		{"two days", 48 * time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, refTime)
			require.NoError(t, WriteCSV(s.BasePath(), []types.Paper{paper("a", "", tt.age)}))

			_, err := s.Persist([]types.Paper{paper("b", "", time.Hour)})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrStaleRefresh)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPersist_EmptyFetchWritesNothing(t *testing.T) {
	s := newTestStore(t, refTime)

	res, err := s.Persist(nil)
	require.NoError(t, err)
	assert.False(t, res.Written)

	_, err = os.Stat(s.BasePath())
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(s.CurrentPath())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPersist_CorruptBase(t *testing.T) {
	s := newTestStore(t, refTime)
	require.NoError(t, os.MkdirAll(s.Dir, 0o755))
	require.NoError(t, os.WriteFile(s.BasePath(), []byte("Paper ID,Published Date\nx,not-a-date\n"), 0o644))

	_, err := s.Persist([]types.Paper{paper("a", "", time.Hour)})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrStaleRefresh))
}
