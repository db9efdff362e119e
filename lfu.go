package cachekit

import (
	"container/heap"
	"fmt"
	"sync"

	logger "github.com/harwoeck/liblog/contract"
)

// LFU is a bounded cache that evicts the entry with the lowest access
// frequency; entries with equal frequency fall back to least-recently-touched
// order. Frequency starts at 1 on insert and increases on every Fetch hit
// and every Put over an existing key.
//
// Recency inside a frequency class is tracked with a logical tick counter,
// not wall time, so ordering follows operation order exactly. Lookups are
// O(1); touches and evictions are O(log n) through the priority heap.
type LFU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	index    map[K]*lfuEntry[K, V]
	queue    lfuHeap[K, V]
	tick     uint64
	metrics  *Metrics
	events   EventHandlers[K, V]
	log      logger.Logger
}

type lfuEntry[K comparable, V any] struct {
	key   K
	value V
	freq  int
	tick  uint64
	index int
}

// NewLFU builds a frequency cache holding at most capacity entries.
func NewLFU[K comparable, V any](capacity int, opts ...Option[K, V]) (*LFU[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	o := applyOptions(opts)

	return &LFU[K, V]{
		capacity: capacity,
		index:    make(map[K]*lfuEntry[K, V], capacity),
		queue:    make(lfuHeap[K, V], 0, capacity),
		metrics:  &Metrics{},
		events:   o.events,
		log:      named(o.log, "lfu"),
	}, nil
}

// Fetch returns the value under key, bumping its frequency and access tick.
func (l *LFU[K, V]) Fetch(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.index[key]
	if !ok {
		l.metrics.Misses.Add(1)
		var zero V
		return zero, false
	}

	l.touch(ent)
	l.metrics.Hits.Add(1)

	if l.events.OnHit != nil {
		l.events.OnHit(key, ent.value)
	}

	return ent.value, true
}

// Put stores value under key. Updating an existing key counts as an access.
// Inserting a new key at capacity first evicts the entry with the lowest
// (frequency, tick) pair.
func (l *LFU[K, V]) Put(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.metrics.Puts.Add(1)

	if ent, ok := l.index[key]; ok {
		old := ent.value
		ent.value = value
		l.touch(ent)

		if l.events.OnUpdate != nil {
			l.events.OnUpdate(key, old, value)
		}
		return
	}

	if len(l.index) == l.capacity {
		l.evictColdest()
	}

	l.tick++
	ent := &lfuEntry[K, V]{key: key, value: value, freq: 1, tick: l.tick}
	heap.Push(&l.queue, ent)
	l.index[key] = ent

	if l.events.OnPut != nil {
		l.events.OnPut(key, value)
	}
}

// touch records an access: frequency up by one, tick set to the next value
// of the logical clock. The heap node is re-sifted in place, so the key
// never has more than one node in the queue. Callers hold l.mu.
func (l *LFU[K, V]) touch(ent *lfuEntry[K, V]) {
	l.tick++
	ent.freq++
	ent.tick = l.tick
	heap.Fix(&l.queue, ent.index)
}

// evictColdest pops the heap root: the minimum (frequency, tick) entry.
// Callers hold l.mu.
func (l *LFU[K, V]) evictColdest() {
	if l.queue.Len() == 0 {
		return
	}

	ent := heap.Pop(&l.queue).(*lfuEntry[K, V])
	delete(l.index, ent.key)
	l.metrics.Evictions.Add(1)

	debugLog(l.log, "evicting least frequently used entry",
		logger.NewField("key", ent.key),
		logger.NewField("freq", ent.freq))

	if l.events.OnEviction != nil {
		l.events.OnEviction(EvictionReasonCapacity, ent.key, ent.value)
	}
}

// Remove deletes the entry for key and reports whether it existed.
func (l *LFU[K, V]) Remove(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.index[key]
	if !ok {
		return false
	}

	heap.Remove(&l.queue, ent.index)
	delete(l.index, key)
	l.metrics.Deletes.Add(1)

	if l.events.OnEviction != nil {
		l.events.OnEviction(EvictionReasonDeleted, key, ent.value)
	}

	return true
}

// Purge drops every entry and resets the logical clock.
func (l *LFU[K, V]) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.index = make(map[K]*lfuEntry[K, V], l.capacity)
	l.queue = make(lfuHeap[K, V], 0, l.capacity)
	l.tick = 0
}

func (l *LFU[K, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.index)
}

// Has reports presence without affecting frequency or recency.
func (l *LFU[K, V]) Has(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[key]
	return ok
}

// Peek returns the value under key without counting an access.
func (l *LFU[K, V]) Peek(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return ent.value, true
}

// Frequency reports the access count recorded for key.
func (l *LFU[K, V]) Frequency(key K) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.index[key]
	if !ok {
		return 0, false
	}
	return ent.freq, true
}

// Keys returns the resident keys in no particular order.
func (l *LFU[K, V]) Keys() []K {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := make([]K, 0, len(l.index))
	for key := range l.index {
		keys = append(keys, key)
	}
	return keys
}

// Capacity returns the fixed capacity set at construction.
func (l *LFU[K, V]) Capacity() int { return l.capacity }

func (l *LFU[K, V]) Metrics() MetricsSnapshot { return l.metrics.Snapshot() }

// lfuHeap orders entries by (frequency, tick) ascending, so the root is
// always the eviction candidate. Both fields take part in the comparison;
// frequency alone would break the recency tie-break.
type lfuHeap[K comparable, V any] []*lfuEntry[K, V]

func (h lfuHeap[K, V]) Len() int { return len(h) }

func (h lfuHeap[K, V]) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].tick < h[j].tick
}

func (h lfuHeap[K, V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *lfuHeap[K, V]) Push(x any) {
	ent := x.(*lfuEntry[K, V])
	ent.index = len(*h)
	*h = append(*h, ent)
}

func (h *lfuHeap[K, V]) Pop() any {
	old := *h
	n := len(old)
	ent := old[n-1]
	old[n-1] = nil
	ent.index = -1
	*h = old[0 : n-1]
	return ent
}
