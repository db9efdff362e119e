package cachekit

import (
	"time"

	logger "github.com/harwoeck/liblog/contract"

	"github.com/akshayb7/go-cachekit/clock"
	"github.com/akshayb7/go-cachekit/storage"
)

// TTL is an unbounded cache where every entry carries its own absolute
// expiry instant. Expired entries are invisible to readers immediately and
// removed lazily on access; DeleteExpired sweeps the rest on the caller's
// schedule.
//
// The backing store is a concurrent map, so there is no cache-wide lock:
// each operation touches a single key and racing writers resolve to last
// write wins. Entries are held by pointer, which lets lazy removal use
// compare-and-delete: a sweep and a concurrent Put on the same key can
// never delete the fresh entry.
type TTL[K comparable, V any] struct {
	backend    *storage.ConcurrentMap[K, *ttlEntry[V]]
	defaultTTL time.Duration
	clock      clock.Clock
	loader     Loader[K, V]
	metrics    *Metrics
	events     EventHandlers[K, V]
	log        logger.Logger
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// expired reports whether the entry is logically absent at now. The
// boundary instant itself counts as expired.
func (e *ttlEntry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// NewTTL builds an expiring cache. defaultTTL applies to Put; per-entry
// values go through PutWithTTL. A zero or negative TTL is not rejected: the
// entry is simply expired on its next access.
func NewTTL[K comparable, V any](defaultTTL time.Duration, opts ...Option[K, V]) *TTL[K, V] {
	o := applyOptions(opts)

	return &TTL[K, V]{
		backend:    storage.NewConcurrentMap[K, *ttlEntry[V]](),
		defaultTTL: defaultTTL,
		clock:      o.clock,
		loader:     o.loader,
		metrics:    &Metrics{},
		events:     o.events,
		log:        named(o.log, "ttl"),
	}
}

// Fetch returns the live value under key. Finding an expired entry removes
// it as a side effect and reports a miss.
func (t *TTL[K, V]) Fetch(key K) (V, bool) {
	var zero V

	ent, ok := t.backend.Load(key)
	if !ok {
		t.metrics.Misses.Add(1)
		return zero, false
	}

	if ent.expired(t.clock.Now()) {
		t.reap(key, ent)
		t.metrics.Misses.Add(1)
		return zero, false
	}

	t.metrics.Hits.Add(1)

	if t.events.OnHit != nil {
		t.events.OnHit(key, ent.value)
	}

	return ent.value, true
}

// Put stores value under key with the cache-wide default TTL.
func (t *TTL[K, V]) Put(key K, value V) {
	t.PutWithTTL(key, value, t.defaultTTL)
}

// PutWithTTL stores value under key, expiring at now + ttl. An existing
// entry is replaced outright; its remaining lifetime does not carry over.
func (t *TTL[K, V]) PutWithTTL(key K, value V, ttl time.Duration) {
	ent := &ttlEntry[V]{value: value, expiresAt: t.clock.Now().Add(ttl)}

	prev, replaced := t.backend.Swap(key, ent)
	t.metrics.Puts.Add(1)

	if replaced {
		if t.events.OnUpdate != nil {
			t.events.OnUpdate(key, prev.value, value)
		}
	} else if t.events.OnPut != nil {
		t.events.OnPut(key, value)
	}
}

// Replace swaps the value of a live entry while keeping its expiry instant,
// and reports whether it did. A missing or expired entry is left alone.
// This is what keeps fixed time windows fixed: counters can be bumped
// without pushing the window end out.
func (t *TTL[K, V]) Replace(key K, value V) bool {
	for {
		old, ok := t.backend.Load(key)
		if !ok || old.expired(t.clock.Now()) {
			return false
		}

		ent := &ttlEntry[V]{value: value, expiresAt: old.expiresAt}
		if t.backend.CompareAndSwap(key, old, ent) {
			t.metrics.Puts.Add(1)
			if t.events.OnUpdate != nil {
				t.events.OnUpdate(key, old.value, value)
			}
			return true
		}
		// Lost a race with another writer; retry against the new entry.
	}
}

// Remove deletes the entry for key and reports whether one was present in
// the backing store, expired or not.
func (t *TTL[K, V]) Remove(key K) bool {
	ent, ok := t.backend.LoadAndDelete(key)
	if !ok {
		return false
	}

	t.metrics.Deletes.Add(1)

	if t.events.OnEviction != nil {
		t.events.OnEviction(EvictionReasonDeleted, key, ent.value)
	}

	return true
}

// GetAndDelete removes the entry for key and returns its value when it was
// still live.
func (t *TTL[K, V]) GetAndDelete(key K) (V, bool) {
	var zero V

	ent, ok := t.backend.LoadAndDelete(key)
	if !ok {
		return zero, false
	}

	if ent.expired(t.clock.Now()) {
		t.metrics.Expirations.Add(1)
		if t.events.OnEviction != nil {
			t.events.OnEviction(EvictionReasonExpired, key, ent.value)
		}
		return zero, false
	}

	t.metrics.Deletes.Add(1)

	if t.events.OnEviction != nil {
		t.events.OnEviction(EvictionReasonDeleted, key, ent.value)
	}

	return ent.value, true
}

// Purge drops every entry.
func (t *TTL[K, V]) Purge() {
	t.backend.Clear()
}

// Len reports the number of entries in the backing store. This count may
// include expired entries that no reader or sweep has removed yet; that is
// the documented contract, not a bug. Fetch and Has never see them.
func (t *TTL[K, V]) Len() int {
	return t.backend.Len()
}

// Has reports whether key holds a live entry. Like Fetch it removes an
// expired entry when it finds one.
func (t *TTL[K, V]) Has(key K) bool {
	ent, ok := t.backend.Load(key)
	if !ok {
		return false
	}

	if ent.expired(t.clock.Now()) {
		t.reap(key, ent)
		return false
	}

	return true
}

// DeleteExpired scans the backing store and removes every entry whose
// expiry has passed, returning how many were removed. It is idempotent and
// safe to call at any frequency; scheduling it is the caller's business.
func (t *TTL[K, V]) DeleteExpired() int {
	now := t.clock.Now()
	removed := 0

	t.backend.Range(func(key K, ent *ttlEntry[V]) bool {
		if ent.expired(now) && t.reap(key, ent) {
			removed++
		}
		return true
	})

	if removed > 0 {
		debugLog(t.log, "removed expired entries",
			logger.NewField("count", removed))
	}

	return removed
}

// reap removes a known-expired entry. The compare-and-delete makes racing
// reapers and writers safe: only one remover wins, and an entry replaced by
// a concurrent Put is left in place.
func (t *TTL[K, V]) reap(key K, ent *ttlEntry[V]) bool {
	if !t.backend.CompareAndDelete(key, ent) {
		return false
	}

	t.metrics.Expirations.Add(1)

	if t.events.OnEviction != nil {
		t.events.OnEviction(EvictionReasonExpired, key, ent.value)
	}

	return true
}

// GetOrLoad returns the live value under key, filling a miss through the
// Loader configured with WithLoader. Without a loader a miss reports
// ErrKeyNotFound. Wrap the loader in a SuppressedLoader to collapse
// concurrent loads of the same key.
func (t *TTL[K, V]) GetOrLoad(key K) (V, error) {
	if value, ok := t.Fetch(key); ok {
		return value, nil
	}

	var zero V
	if t.loader == nil {
		return zero, ErrKeyNotFound
	}

	value, err := t.loader.Load(key)
	if err != nil {
		return zero, err
	}

	t.Put(key, value)
	return value, nil
}

// Keys returns the keys of live entries in no particular order.
func (t *TTL[K, V]) Keys() []K {
	now := t.clock.Now()
	keys := make([]K, 0, t.backend.Len())

	t.backend.Range(func(key K, ent *ttlEntry[V]) bool {
		if !ent.expired(now) {
			keys = append(keys, key)
		}
		return true
	})

	return keys
}

// Range calls fn for every live entry until fn returns false.
func (t *TTL[K, V]) Range(fn func(key K, value V) bool) {
	now := t.clock.Now()

	t.backend.Range(func(key K, ent *ttlEntry[V]) bool {
		if ent.expired(now) {
			return true
		}
		return fn(key, ent.value)
	})
}

// DefaultTTL returns the cache-wide default set at construction.
func (t *TTL[K, V]) DefaultTTL() time.Duration { return t.defaultTTL }

func (t *TTL[K, V]) Metrics() MetricsSnapshot { return t.metrics.Snapshot() }
