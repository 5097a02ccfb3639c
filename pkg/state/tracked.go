package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scylladb/go-set/strset"

	"github.com/tsugiapp/tsugi/pkg/titles"
)

// Tracked returns a copy of the raw tracked titles in insertion order.
// Duplicates are possible and tolerated.
func (s *Store) Tracked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.tracked))
	copy(out, s.tracked)
	return out
}

// IsTracked reports whether any tracked raw title contains the canonical
// series name. Matching is deliberately loose, a raw entry for a later season
// still counts as tracking the base series.
func (s *Store) IsTracked(canonical string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[canonical]; ok {
		return true
	}

	// substring fallback preserves the loose semantics the index cannot cover
	for _, raw := range s.tracked {
		if strings.Contains(raw, canonical) {
			return true
		}
	}

	return false
}

// Track appends the raw title and persists the whole list.
func (s *Store) Track(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracked = append(s.tracked, raw)

	if err := s.saveTracked(); err != nil {
		s.tracked = s.tracked[:len(s.tracked)-1]
		return err
	}

	s.rebuildIndex()
	return nil
}

// Untrack removes every tracked entry containing the canonical name and
// persists. Downloaded files are never touched here.
func (s *Store) Untrack(canonical string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]string, 0, len(s.tracked))
	for _, raw := range s.tracked {
		if strings.Contains(raw, canonical) {
			continue
		}
		kept = append(kept, raw)
	}

	previous := s.tracked
	s.tracked = kept

	if err := s.saveTracked(); err != nil {
		s.tracked = previous
		return err
	}

	s.rebuildIndex()
	return nil
}

func (s *Store) loadTracked() error {
	data, err := os.ReadFile(s.trackedPath())
	if err != nil {
		if os.IsNotExist(err) {
			s.tracked = nil
			s.rebuildIndex()
			return nil
		}
		return fmt.Errorf("read tracked list: %w", err)
	}

	var tracked []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tracked = append(tracked, line)
	}

	s.tracked = tracked
	s.rebuildIndex()
	return nil
}

// saveTracked writes one title per line. Titles containing a newline are not
// supported by the format.
func (s *Store) saveTracked() error {
	data := strings.Join(s.tracked, "\n")
	if err := atomicWrite(s.trackedPath(), []byte(data)); err != nil {
		return fmt.Errorf("write tracked list: %w", err)
	}
	return nil
}

// rebuildIndex recomputes the canonical-name index, called on every load and
// mutation while the store mutex is held.
func (s *Store) rebuildIndex() {
	index := map[string]*strset.Set{}

	for _, raw := range s.tracked {
		canonical := titles.CanonicalSeriesName(raw)
		set, ok := index[canonical]
		if !ok {
			set = strset.New()
			index[canonical] = set
		}
		set.Add(raw)
	}

	s.index = index
}

func (s *Store) trackedPath() string {
	return filepath.Join(s.dir, "tracked_anime.txt")
}
