package personality

import (
	"sync"

	"mirrorme/internal/logging"
)

// ProfileStore holds the trained profile and style pattern under
// single-writer/multiple-reader discipline. Concurrent pipeline
// invocations read freely; only a completed training run replaces the
// contents, and it does so atomically.
type ProfileStore struct {
	mu      sync.RWMutex
	profile Profile
	style   StylePattern
	trained bool
}

// NewProfileStore creates an untrained store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profile: EmptyProfile()}
}

// Replace installs a new profile and style pattern as one atomic unit.
func (s *ProfileStore) Replace(profile Profile, style StylePattern, trained bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	s.style = style
	s.trained = trained
	logging.Personality("profile replaced (trained=%v)", trained)
}

// Snapshot returns the current profile, style, and trained flag. The
// returned values are copies of the primary fields; readers must not
// mutate the shared distribution maps.
func (s *ProfileStore) Snapshot() (Profile, StylePattern, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.style, s.trained
}

// IsTrained reports whether a training run has completed.
func (s *ProfileStore) IsTrained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trained
}
