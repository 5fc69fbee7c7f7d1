package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/aitool/sleuth/internal/backend"
)

// Snapshot is the latest file list known to the UI.
type Snapshot struct {
	Files               []backend.FileRecord
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the backend has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Find returns the record for id.
func (s Snapshot) Find(id string) (backend.FileRecord, bool) {
	for _, f := range s.Files {
		if f.UUID == id {
			return f, true
		}
	}
	return backend.FileRecord{}, false
}

// StatusCounts tallies files per normalized status.
func (s Snapshot) StatusCounts() map[backend.FileStatus]int {
	counts := make(map[backend.FileStatus]int)
	for _, f := range s.Files {
		counts[f.Status.Normalize()]++
	}
	return counts
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the file list. When err is non-nil the previous list is
// kept and the error recorded.
func (s *Store) Update(files []backend.FileRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.Files = cloneFiles(files)
	for i := range s.snapshot.Files {
		s.snapshot.Files[i].Status = s.snapshot.Files[i].Status.Normalize()
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Files = cloneFiles(s.snapshot.Files)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneFiles(files []backend.FileRecord) []backend.FileRecord {
	if len(files) == 0 {
		return nil
	}
	dup := make([]backend.FileRecord, len(files))
	copy(dup, files)
	return dup
}
