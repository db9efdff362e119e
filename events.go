package cachekit

// EvictionReason tells an OnEviction handler why an entry left the cache.
type EvictionReason uint8

const (
	// EvictionReasonDeleted marks an explicit Remove or GetAndDelete.
	EvictionReasonDeleted EvictionReason = iota + 1
	// EvictionReasonExpired marks a TTL entry removed lazily or by a sweep.
	EvictionReasonExpired
	// EvictionReasonCapacity marks an entry displaced by a bounded cache.
	EvictionReasonCapacity
)

func (r EvictionReason) String() string {
	switch r {
	case EvictionReasonDeleted:
		return "deleted"
	case EvictionReasonExpired:
		return "expired"
	case EvictionReasonCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// EventHandlers are optional callbacks invoked synchronously from cache
// operations. Handlers on the bounded caches run under the cache lock and
// must not call back into the cache.
type EventHandlers[K comparable, V any] struct {
	OnPut      func(key K, value V)
	OnUpdate   func(key K, oldValue V, newValue V)
	OnEviction func(reason EvictionReason, key K, value V)
	OnHit      func(key K, value V)
}
