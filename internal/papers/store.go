// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperxai/internal/observability"
	"github.com/pdiddy/paperxai/pkg/types"
)

// Artifact file names inside a store directory.
const (
	BaseFileName    = "base_papers.csv"
	CurrentFileName = "current_papers.csv"
)

// Store defaults.
const (
	DefaultRetention       = 90 * 24 * time.Hour
	DefaultRefreshInterval = 24 * time.Hour
)

// ErrStaleRefresh is matched by errors.Is when the base store was refreshed
// too recently to accept another update.
var ErrStaleRefresh = errors.New("base papers updated less than one day ago")

// StaleRefreshError reports a rejected store update.
type StaleRefreshError struct {
	// LastPublished is the newest publication time in the base store.
	LastPublished time.Time

	// Now is the clock reading used for the check.
	Now time.Time

	// Interval is the minimum gap required between refreshes.
	Interval time.Duration
}

func (e *StaleRefreshError) Error() string {
	return fmt.Sprintf("%s: newest stored paper published %s ago (minimum %s)",
		ErrStaleRefresh, e.Now.Sub(e.LastPublished).Round(time.Minute), e.Interval)
}

// Is makes errors.Is(err, ErrStaleRefresh) succeed.
func (e *StaleRefreshError) Is(target error) bool {
	return target == ErrStaleRefresh
}

// Store is the rolling on-disk paper collection for one source.
type Store struct {
	// Dir holds base_papers.csv and current_papers.csv.
	Dir string

	// Retention is how long papers are kept, measured from their
	// publication time. Zero uses DefaultRetention.
	Retention time.Duration

	// RefreshInterval is the minimum age of the newest stored paper before
	// the base may be updated again. Zero uses DefaultRefreshInterval.
	RefreshInterval time.Duration

	// Now is the clock. Nil uses time.Now.
	Now func() time.Time

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// NewStore returns a store rooted at dir with default settings.
func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{Dir: dir, Logger: logger}
}

// BasePath returns the path of the base artifact.
func (s *Store) BasePath() string { return filepath.Join(s.Dir, BaseFileName) }

// CurrentPath returns the path of the current artifact.
func (s *Store) CurrentPath() string { return filepath.Join(s.Dir, CurrentFileName) }

// LoadBase reads the base artifact.
func (s *Store) LoadBase() ([]types.Paper, error) { return ReadCSV(s.BasePath()) }

// LoadCurrent reads the current artifact.
func (s *Store) LoadCurrent() ([]types.Paper, error) { return ReadCSV(s.CurrentPath()) }

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) retention() time.Duration {
	if s.Retention > 0 {
		return s.Retention
	}
	return DefaultRetention
}

func (s *Store) refreshInterval() time.Duration {
	if s.RefreshInterval > 0 {
		return s.RefreshInterval
	}
	return DefaultRefreshInterval
}

// Persist merges fetched papers into the store.
//
// With no base on disk, every fetched paper is new: the deduplicated fetch
// becomes the current artifact and, pruned, the base. Otherwise the update
// is rejected with *StaleRefreshError when the newest stored paper is less
// than RefreshInterval old; nothing is written in that case. New papers are
// those whose IDs are absent from the base. The base becomes base followed
// by fetched, deduplicated with the fetched copy winning, minus papers
// older than the retention window. The current artifact is written before
// the base, each through a temp file and rename.
//
// An empty fetch writes nothing.
func (s *Store) Persist(fetched []types.Paper) (PersistResult, error) {
	log := s.Logger.With().Str("dir", s.Dir).Logger()

	if len(fetched) == 0 {
		log.Warn().Msg("no papers to persist; store left unchanged")
		return PersistResult{}, nil
	}

	now := s.now()
	cutoff := now.Add(-s.retention())

	base, err := s.LoadBase()
	switch {
	case errors.Is(err, os.ErrNotExist):
		current := Dedup(fetched)
		pruned, dropped := Prune(current, cutoff)
		if err := s.write(current, pruned); err != nil {
			return PersistResult{}, err
		}
		log.Info().Int("new", len(current)).Int("base", len(pruned)).Msg("initialized paper store")
		s.Metrics.RecordPersist(len(current), len(pruned), dropped)
		return PersistResult{New: current, Base: pruned, Pruned: dropped, Written: true}, nil
	case err != nil:
		return PersistResult{}, fmt.Errorf("loading base papers: %w", err)
	}

	if latest, ok := Latest(base); ok && now.Sub(latest) < s.refreshInterval() {
		return PersistResult{}, &StaleRefreshError{
			LastPublished: latest,
			Now:           now,
			Interval:      s.refreshInterval(),
		}
	}

	current := Difference(fetched, base)
	merged, dropped := Prune(Merge(base, fetched), cutoff)

	if err := s.write(current, merged); err != nil {
		return PersistResult{}, err
	}

	log.Info().
		Int("fetched", len(fetched)).
		Int("new", len(current)).
		Int("base", len(merged)).
		Int("pruned", dropped).
		Msg("updated paper store")
	s.Metrics.RecordPersist(len(current), len(merged), dropped)

	return PersistResult{New: current, Base: merged, Pruned: dropped, Written: true}, nil
}

func (s *Store) write(current, base []types.Paper) error {
	if err := WriteCSV(s.CurrentPath(), current); err != nil {
		return fmt.Errorf("writing current papers: %w", err)
	}
	if err := WriteCSV(s.BasePath(), base); err != nil {
		return fmt.Errorf("writing base papers: %w", err)
	}
	return nil
}
