// Package cachekit provides in-process key-value caches with three
// interchangeable eviction policies: recency (LRU), frequency (LFU) and
// per-entry expiry (TTL). All three share the same capability set and are
// safe for concurrent use without external locking.
//
// The bounded caches (LRU, LFU) serialize every operation behind one mutex
// because a Fetch mutates the eviction ordering. The TTL cache has no global
// ordering and runs on a concurrent map with per-key atomicity instead.
package cachekit

// Cache is the capability set implemented by every store in this package.
//
// Fetch and Has report absence with a bool rather than an error; a missing
// or expired key is a normal outcome, not a failure.
type Cache[K comparable, V any] interface {
	// Fetch returns the value stored under key. Policy metadata (recency,
	// frequency) is updated on a hit.
	Fetch(key K) (V, bool)

	// Put stores value under key, replacing any existing entry. Bounded
	// caches evict before inserting a new key at capacity.
	Put(key K, value V)

	// Remove deletes the entry and reports whether it existed.
	Remove(key K) bool

	// Purge drops every entry.
	Purge()

	// Len reports the number of stored entries.
	Len() int

	// Has reports whether key holds a live entry. It does not touch
	// recency or frequency metadata on the bounded caches.
	Has(key K) bool
}

var (
	_ Cache[string, int] = (*LRU[string, int])(nil)
	_ Cache[string, int] = (*LFU[string, int])(nil)
	_ Cache[string, int] = (*TTL[string, int])(nil)
	_ Cache[string, int] = (*ShardedLRU[string, int])(nil)
)
