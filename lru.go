package cachekit

import (
	"container/list"
	"fmt"
	"sync"

	logger "github.com/harwoeck/liblog/contract"
)

// LRU is a bounded cache that evicts the least recently touched entry when a
// Put would exceed capacity. Both Fetch and Put count as a touch.
//
// All operations take one mutex for the whole structure: Fetch reorders the
// recency list, so there is no useful reader/writer split. Fetch and Put are
// O(1).
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	index    map[K]*list.Element
	metrics  *Metrics
	events   EventHandlers[K, V]
	log      logger.Logger
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU builds a recency cache holding at most capacity entries. The
// capacity is fixed for the lifetime of the cache; a capacity below one is a
// configuration error.
func NewLRU[K comparable, V any](capacity int, opts ...Option[K, V]) (*LRU[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	o := applyOptions(opts)

	return &LRU[K, V]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[K]*list.Element, capacity),
		metrics:  &Metrics{},
		events:   o.events,
		log:      named(o.log, "lru"),
	}, nil
}

// Fetch returns the value under key and promotes the entry to most recently
// used. A miss has no side effect.
func (l *LRU[K, V]) Fetch(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	elem, ok := l.index[key]
	if !ok {
		l.metrics.Misses.Add(1)
		var zero V
		return zero, false
	}

	l.order.MoveToFront(elem)
	ent := elem.Value.(*lruEntry[K, V])
	l.metrics.Hits.Add(1)

	if l.events.OnHit != nil {
		l.events.OnHit(ent.key, ent.value)
	}

	return ent.value, true
}

// Put stores value under key as the most recently used entry. When key is
// new and the cache is full, the least recently used entry is evicted first.
func (l *LRU[K, V]) Put(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.metrics.Puts.Add(1)

	if elem, ok := l.index[key]; ok {
		ent := elem.Value.(*lruEntry[K, V])
		old := ent.value
		ent.value = value
		l.order.MoveToFront(elem)

		if l.events.OnUpdate != nil {
			l.events.OnUpdate(key, old, value)
		}
		return
	}

	if l.order.Len() == l.capacity {
		l.evictOldest()
	}

	elem := l.order.PushFront(&lruEntry[K, V]{key: key, value: value})
	l.index[key] = elem

	if l.events.OnPut != nil {
		l.events.OnPut(key, value)
	}
}

// evictOldest removes the entry at the back of the recency list. Callers
// hold l.mu.
func (l *LRU[K, V]) evictOldest() {
	elem := l.order.Back()
	if elem == nil {
		return
	}

	ent := elem.Value.(*lruEntry[K, V])
	l.order.Remove(elem)
	delete(l.index, ent.key)
	l.metrics.Evictions.Add(1)

	debugLog(l.log, "evicting least recently used entry",
		logger.NewField("key", ent.key))

	if l.events.OnEviction != nil {
		l.events.OnEviction(EvictionReasonCapacity, ent.key, ent.value)
	}
}

// Remove deletes the entry for key and reports whether it existed.
func (l *LRU[K, V]) Remove(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	elem, ok := l.index[key]
	if !ok {
		return false
	}

	ent := elem.Value.(*lruEntry[K, V])
	l.order.Remove(elem)
	delete(l.index, key)
	l.metrics.Deletes.Add(1)

	if l.events.OnEviction != nil {
		l.events.OnEviction(EvictionReasonDeleted, key, ent.value)
	}

	return true
}

// Purge drops every entry without firing eviction events.
func (l *LRU[K, V]) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.order.Init()
	l.index = make(map[K]*list.Element, l.capacity)
}

func (l *LRU[K, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

// Has reports whether key is present. Unlike Fetch it does not promote the
// entry.
func (l *LRU[K, V]) Has(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[key]
	return ok
}

// Peek returns the value under key without touching recency order.
func (l *LRU[K, V]) Peek(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	elem, ok := l.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return elem.Value.(*lruEntry[K, V]).value, true
}

// Keys returns the resident keys ordered from most to least recently used.
func (l *LRU[K, V]) Keys() []K {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := make([]K, 0, l.order.Len())
	for elem := l.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*lruEntry[K, V]).key)
	}
	return keys
}

// Capacity returns the fixed capacity set at construction.
func (l *LRU[K, V]) Capacity() int { return l.capacity }

func (l *LRU[K, V]) Metrics() MetricsSnapshot { return l.metrics.Snapshot() }
