// Package storage provides the concurrent backing map used by the TTL
// cache. Values must be comparable because expired entries are removed with
// compare-and-delete; the cache satisfies this by storing entry pointers.
package storage

import (
	"sync"
	"sync/atomic"
)

// ConcurrentMap is a typed map over sync.Map with an entry counter, so Len
// is O(1) instead of a full scan. The counter is maintained by the mutating
// operations and is exact: every successful insert adds one, every
// successful delete subtracts one.
type ConcurrentMap[K comparable, V comparable] struct {
	items sync.Map
	count atomic.Int64
}

func NewConcurrentMap[K comparable, V comparable]() *ConcurrentMap[K, V] {
	return &ConcurrentMap[K, V]{}
}

func (m *ConcurrentMap[K, V]) Load(key K) (V, bool) {
	v, ok := m.items.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Swap stores value under key and returns the previous value, if any.
func (m *ConcurrentMap[K, V]) Swap(key K, value V) (V, bool) {
	prev, loaded := m.items.Swap(key, value)
	if !loaded {
		m.count.Add(1)
		var zero V
		return zero, false
	}
	return prev.(V), true
}

func (m *ConcurrentMap[K, V]) LoadAndDelete(key K) (V, bool) {
	v, loaded := m.items.LoadAndDelete(key)
	if !loaded {
		var zero V
		return zero, false
	}
	m.count.Add(-1)
	return v.(V), true
}

// CompareAndDelete removes key only if it still holds old. A concurrent
// writer that replaced the entry wins; the delete then reports false.
func (m *ConcurrentMap[K, V]) CompareAndDelete(key K, old V) bool {
	if m.items.CompareAndDelete(key, old) {
		m.count.Add(-1)
		return true
	}
	return false
}

func (m *ConcurrentMap[K, V]) CompareAndSwap(key K, old, updated V) bool {
	return m.items.CompareAndSwap(key, old, updated)
}

func (m *ConcurrentMap[K, V]) Range(fn func(key K, value V) bool) {
	m.items.Range(func(k, v any) bool {
		return fn(k.(K), v.(V))
	})
}

func (m *ConcurrentMap[K, V]) Len() int {
	return int(m.count.Load())
}

// Clear removes every entry. Entries inserted concurrently with Clear may
// survive; the counter stays consistent either way because removal goes
// through LoadAndDelete.
func (m *ConcurrentMap[K, V]) Clear() {
	m.items.Range(func(k, _ any) bool {
		if _, loaded := m.items.LoadAndDelete(k); loaded {
			m.count.Add(-1)
		}
		return true
	})
}
