package snapshot

import (
	"time"

	"solix2prom/internal/core/domain"
)

// EntityResult is the per-entity outcome of one refresh cycle: fresh
// readings, or a normalization failure, or an upstream validity=false flag.
type EntityResult struct {
	Info     domain.EntityInfo
	Valid    bool
	Readings map[string]float64
	Err      error
}

// Failed reports whether the entity's fresh data is unusable this cycle and
// its previous readings should be carried forward instead.
func (r EntityResult) Failed() bool {
	return r.Err != nil || !r.Valid
}

// Build assembles the snapshot for one refresh cycle.
//
// Entities with usable fresh data get their new readings tagged with this
// cycle. Entities that failed (normalizer error or validity=false) carry
// their previous readings forward, keeping the older cycle tag, and are
// reported with Valid=false. Entities missing from the upstream response are
// retained unchanged for up to graceCycles consecutive cycles, then dropped.
// An entity whose category changed is treated as brand new.
func Build(prev *domain.Snapshot, cycle uint64, taken time.Time, results []EntityResult, graceCycles uint) *domain.Snapshot {
	next := &domain.Snapshot{
		Taken:    taken,
		Cycle:    cycle,
		Entities: make(map[string]domain.EntityReadings, len(results)),
	}

	seen := make(map[string]bool, len(results))
	for _, res := range results {
		seen[res.Info.ID] = true

		if !res.Failed() {
			next.Entities[res.Info.ID] = domain.EntityReadings{
				Info:     res.Info,
				Valid:    true,
				Cycle:    cycle,
				Readings: res.Readings,
			}
			continue
		}

		carried := domain.EntityReadings{
			Info:  res.Info,
			Valid: false,
			Cycle: cycle,
		}
		if prev != nil {
			if old, ok := prev.Entity(res.Info.ID); ok && old.Info.Category == res.Info.Category {
				carried.Cycle = old.Cycle
				carried.Readings = old.Readings
			}
		}
		next.Entities[res.Info.ID] = carried
	}

	if prev == nil {
		return next
	}
	for id, old := range prev.Entities {
		if seen[id] {
			continue
		}
		old.Missed++
		if old.Missed > graceCycles {
			continue
		}
		next.Entities[id] = old
	}
	return next
}
