package cachekit

import "sync/atomic"

// Metrics counts cache activity. Counters are atomic so they can be read
// without taking the cache lock.
type Metrics struct {
	Hits        atomic.Uint64
	Misses      atomic.Uint64
	Puts        atomic.Uint64
	Deletes     atomic.Uint64
	Evictions   atomic.Uint64
	Expirations atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Hits        uint64
	Misses      uint64
	Puts        uint64
	Deletes     uint64
	Evictions   uint64
	Expirations uint64
	HitRate     float64
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	hits := m.Hits.Load()
	misses := m.Misses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return MetricsSnapshot{
		Hits:        hits,
		Misses:      misses,
		Puts:        m.Puts.Load(),
		Deletes:     m.Deletes.Load(),
		Evictions:   m.Evictions.Load(),
		Expirations: m.Expirations.Load(),
		HitRate:     hitRate,
	}
}

func (m *Metrics) Reset() {
	m.Hits.Store(0)
	m.Misses.Store(0)
	m.Puts.Store(0)
	m.Deletes.Store(0)
	m.Evictions.Store(0)
	m.Expirations.Store(0)
}

func mergeSnapshots(snaps ...MetricsSnapshot) MetricsSnapshot {
	var out MetricsSnapshot
	for _, s := range snaps {
		out.Hits += s.Hits
		out.Misses += s.Misses
		out.Puts += s.Puts
		out.Deletes += s.Deletes
		out.Evictions += s.Evictions
		out.Expirations += s.Expirations
	}
	if total := out.Hits + out.Misses; total > 0 {
		out.HitRate = float64(out.Hits) / float64(total)
	}
	return out
}
