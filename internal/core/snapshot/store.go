// Package snapshot holds the current best-known readings for the whole fleet
// and the rules for assembling the next generation from a refresh cycle.
package snapshot

import (
	"sync/atomic"

	"solix2prom/internal/core/domain"
)

// Store is the single accessor shared between the scheduler and any number
// of concurrent readers. Installation is a pointer swap, so a reader always
// sees a fully formed snapshot, never a partial one.
type Store struct {
	current atomic.Pointer[domain.Snapshot]
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the latest installed snapshot, or nil before the first
// successful refresh cycle.
func (s *Store) Current() *domain.Snapshot {
	return s.current.Load()
}

// Install makes snap the current snapshot. Only the scheduler calls this.
func (s *Store) Install(snap *domain.Snapshot) {
	s.current.Store(snap)
}
