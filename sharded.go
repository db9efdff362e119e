package cachekit

import (
	"fmt"
	"hash/maphash"
)

// ShardedLRU spreads keys over a power-of-two number of independent LRU
// shards, each with its own lock, for workloads where one coarse lock is a
// proven bottleneck. The total resident count never exceeds the requested
// capacity, but eviction order is only approximate: each shard evicts its
// own least recently used entry, not the globally coldest one. Prefer the
// plain LRU unless contention actually matters.
type ShardedLRU[K comparable, V any] struct {
	shards    []*LRU[K, V]
	shardMask uint64
	seed      maphash.Seed
}

// NewShardedLRU builds a sharded recency cache with the given total
// capacity. shards is rounded up to a power of two and reduced when the
// capacity cannot give every shard at least one slot; per-shard capacity is
// the floor of capacity/shards, so the global bound always holds.
func NewShardedLRU[K comparable, V any](capacity, shards int, opts ...Option[K, V]) (*ShardedLRU[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	if shards <= 0 {
		shards = 16
	}
	shards = nextPowerOfTwo(shards)
	for shards > 1 && capacity/shards < 1 {
		shards /= 2
	}

	s := &ShardedLRU[K, V]{
		shards:    make([]*LRU[K, V], shards),
		shardMask: uint64(shards - 1),
		seed:      maphash.MakeSeed(),
	}

	perShard := capacity / shards
	for i := range s.shards {
		shard, err := NewLRU(perShard, opts...)
		if err != nil {
			return nil, err
		}
		s.shards[i] = shard
	}

	return s, nil
}

func (s *ShardedLRU[K, V]) shard(key K) *LRU[K, V] {
	return s.shards[maphash.Comparable(s.seed, key)&s.shardMask]
}

func (s *ShardedLRU[K, V]) Fetch(key K) (V, bool) { return s.shard(key).Fetch(key) }

func (s *ShardedLRU[K, V]) Put(key K, value V) { s.shard(key).Put(key, value) }

func (s *ShardedLRU[K, V]) Remove(key K) bool { return s.shard(key).Remove(key) }

func (s *ShardedLRU[K, V]) Has(key K) bool { return s.shard(key).Has(key) }

func (s *ShardedLRU[K, V]) Peek(key K) (V, bool) { return s.shard(key).Peek(key) }

func (s *ShardedLRU[K, V]) Purge() {
	for _, shard := range s.shards {
		shard.Purge()
	}
}

func (s *ShardedLRU[K, V]) Len() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Len()
	}
	return total
}

// Capacity returns the effective total capacity, which may be slightly
// below the requested one due to per-shard flooring.
func (s *ShardedLRU[K, V]) Capacity() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Capacity()
	}
	return total
}

// Metrics merges the counters of every shard.
func (s *ShardedLRU[K, V]) Metrics() MetricsSnapshot {
	snaps := make([]MetricsSnapshot, len(s.shards))
	for i, shard := range s.shards {
		snaps[i] = shard.Metrics()
	}
	return mergeSnapshots(snaps...)
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
