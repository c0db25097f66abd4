package domain

import "time"

// EntityReadings holds every measurement an entity produced in one refresh
// cycle. All readings of one entity always come from the same cycle; Cycle
// tags which one, so carried-forward data stays distinguishable from fresh
// data.
type EntityReadings struct {
	Info     EntityInfo
	Valid    bool
	Cycle    uint64
	Readings map[string]float64
	// Missed counts consecutive cycles the entity was absent upstream.
	// Entities past the configured grace period are evicted.
	Missed uint
}

// Snapshot is the immutable aggregate of everything known after a refresh
// cycle. It is replaced wholesale on install and must never be mutated by a
// reader.
type Snapshot struct {
	Taken    time.Time
	Cycle    uint64
	Entities map[string]EntityReadings
}

func (s *Snapshot) Entity(id string) (EntityReadings, bool) {
	e, ok := s.Entities[id]
	return e, ok
}

// SnapshotInstalledEvent is published on the event stream after a new
// snapshot became current. Push publishers subscribe to it.
type SnapshotInstalledEvent struct {
	Snapshot *Snapshot
}
