package cache

import "go.uber.org/atomic"

// Stats counts cache outcomes for one namespace
type Stats struct {
	hits     atomic.Int64
	misses   atomic.Int64
	stale    atomic.Int64
	faults   atomic.Int64
	writes   atomic.Int64
	removals atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Stale    int64 `json:"stale"`
	Faults   int64 `json:"faults"`
	Writes   int64 `json:"writes"`
	Removals int64 `json:"removals"`
}

// HitRatio is hits over all reads, zero before the first read
func (s StatsSnapshot) HitRatio() float64 {
	reads := s.Hits + s.Misses + s.Stale
	if reads == 0 {
		return 0
	}
	return float64(s.Hits) / float64(reads)
}

func (s *Stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
		Stale:    s.stale.Load(),
		Faults:   s.faults.Load(),
		Writes:   s.writes.Load(),
		Removals: s.removals.Load(),
	}
}
